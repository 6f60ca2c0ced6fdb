package user

import (
	"time"

	"palco/internal/pkg/geo"

	"github.com/google/uuid"
)

type User struct {
	id                 uuid.UUID
	name               string
	email              string
	role               Role
	accountStatus      AccountStatus
	suspensionStart    *time.Time
	suspensionDays     int
	planTier           PlanTier
	verified           bool
	completedBookings  int
	averageRating      float64
	baseCoordinates    *geo.Coordinates
	createdAt          time.Time
	updatedAt          time.Time
}

func ReconstructUser(
	id uuid.UUID,
	name, email string,
	role Role,
	accountStatus AccountStatus,
	suspensionStart *time.Time,
	suspensionDays int,
	planTier PlanTier,
	verified bool,
	completedBookings int,
	averageRating float64,
	baseCoordinates *geo.Coordinates,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                id,
		name:              name,
		email:             email,
		role:              role,
		accountStatus:     accountStatus,
		suspensionStart:   suspensionStart,
		suspensionDays:    suspensionDays,
		planTier:          planTier,
		verified:          verified,
		completedBookings: completedBookings,
		averageRating:     averageRating,
		baseCoordinates:   baseCoordinates,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (u *User) ID() uuid.UUID                     { return u.id }
func (u *User) Name() string                      { return u.name }
func (u *User) Email() string                     { return u.email }
func (u *User) Role() Role                        { return u.role }
func (u *User) AccountStatus() AccountStatus      { return u.accountStatus }
func (u *User) SuspensionStart() *time.Time       { return u.suspensionStart }
func (u *User) SuspensionDays() int               { return u.suspensionDays }
func (u *User) PlanTier() PlanTier                { return u.planTier }
func (u *User) Verified() bool                    { return u.verified }
func (u *User) CompletedBookings() int            { return u.completedBookings }
func (u *User) AverageRating() float64            { return u.averageRating }
func (u *User) BaseCoordinates() *geo.Coordinates { return u.baseCoordinates }
func (u *User) CreatedAt() time.Time              { return u.createdAt }
func (u *User) UpdatedAt() time.Time              { return u.updatedAt }

func (u *User) IsActive() bool {
	return u.accountStatus == StatusActive
}

// SuspensionLiftedAt returns when a suspension expires, or nil when not suspended.
func (u *User) SuspensionLiftedAt() *time.Time {
	if u.accountStatus != StatusSuspended || u.suspensionStart == nil {
		return nil
	}
	t := u.suspensionStart.Add(time.Duration(u.suspensionDays) * 24 * time.Hour)
	return &t
}
