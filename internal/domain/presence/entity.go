package presence

import (
	"time"

	"palco/internal/pkg/geo"

	"github.com/google/uuid"
)

// PresenceEvent is a scored, timestamped claim of physical arrival at or
// departure from the event venue.
type PresenceEvent struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	kind            Kind
	coordinates     *geo.Coordinates
	photoURL        string
	distanceMeters  *float64
	withinWindow    bool
	confidenceScore int
	approvalStatus  ApprovalStatus
	approvedBy      *uuid.UUID
	rejectionReason string
	createdAt       time.Time
	resolvedAt      *time.Time
}

// NewArrival builds a PENDING arrival claim. A photo is mandatory; coordinates
// are optional and their absence only degrades the score.
func NewArrival(
	bookingID uuid.UUID,
	coordinates *geo.Coordinates,
	photoURL string,
	venue *geo.Coordinates,
	eventStart, now time.Time,
) (*PresenceEvent, error) {
	if photoURL == "" {
		return nil, ErrPhotoRequired
	}

	var distance *float64
	if coordinates != nil && venue != nil {
		d := geo.DistanceMeters(*coordinates, *venue)
		distance = &d
	}

	withinWindow := WithinCheckInWindow(now, eventStart)
	score := ConfidenceScore(ScoreInput{
		DistanceMeters: distance,
		WithinWindow:   withinWindow,
		HasPhoto:       true,
		HasCoordinates: coordinates != nil,
	})

	return &PresenceEvent{
		id:              uuid.New(),
		bookingID:       bookingID,
		kind:            KindArrival,
		coordinates:     coordinates,
		photoURL:        photoURL,
		distanceMeters:  distance,
		withinWindow:    withinWindow,
		confidenceScore: score,
		approvalStatus:  ApprovalPending,
		createdAt:       now,
	}, nil
}

// NewDeparture builds an auto-approved departure claim. No photo is required.
func NewDeparture(bookingID uuid.UUID, coordinates *geo.Coordinates, now time.Time) *PresenceEvent {
	resolved := now
	return &PresenceEvent{
		id:              uuid.New(),
		bookingID:       bookingID,
		kind:            KindDeparture,
		coordinates:     coordinates,
		confidenceScore: 100,
		withinWindow:    true,
		approvalStatus:  ApprovalApproved,
		createdAt:       now,
		resolvedAt:      &resolved,
	}
}

// ContestationDeadline is when the requester loses the right to reject this claim.
func (e *PresenceEvent) ContestationDeadline() time.Time {
	return e.createdAt.Add(ContestationWindow)
}

func (e *PresenceEvent) IsPending() bool {
	return e.approvalStatus == ApprovalPending
}

func (e *PresenceEvent) Approve(approver *uuid.UUID, now time.Time) error {
	if e.approvalStatus != ApprovalPending {
		return ErrAlreadyResolved
	}
	e.approvalStatus = ApprovalApproved
	e.approvedBy = approver
	e.resolvedAt = &now
	return nil
}

func (e *PresenceEvent) Reject(approver uuid.UUID, reason string, now time.Time) error {
	if e.approvalStatus != ApprovalPending {
		return ErrAlreadyResolved
	}
	if reason == "" {
		return ErrReasonRequired
	}
	e.approvalStatus = ApprovalRejected
	e.approvedBy = &approver
	e.rejectionReason = reason
	e.resolvedAt = &now
	return nil
}

func (e *PresenceEvent) ID() uuid.UUID                 { return e.id }
func (e *PresenceEvent) BookingID() uuid.UUID          { return e.bookingID }
func (e *PresenceEvent) Kind() Kind                    { return e.kind }
func (e *PresenceEvent) Coordinates() *geo.Coordinates { return e.coordinates }
func (e *PresenceEvent) PhotoURL() string              { return e.photoURL }
func (e *PresenceEvent) DistanceMeters() *float64      { return e.distanceMeters }
func (e *PresenceEvent) WithinWindow() bool            { return e.withinWindow }
func (e *PresenceEvent) ConfidenceScore() int          { return e.confidenceScore }
func (e *PresenceEvent) ApprovalStatus() ApprovalStatus { return e.approvalStatus }
func (e *PresenceEvent) ApprovedBy() *uuid.UUID        { return e.approvedBy }
func (e *PresenceEvent) RejectionReason() string       { return e.rejectionReason }
func (e *PresenceEvent) CreatedAt() time.Time          { return e.createdAt }
func (e *PresenceEvent) ResolvedAt() *time.Time        { return e.resolvedAt }

func ReconstructPresenceEvent(
	id, bookingID uuid.UUID,
	kind Kind,
	coordinates *geo.Coordinates,
	photoURL string,
	distanceMeters *float64,
	withinWindow bool,
	confidenceScore int,
	approvalStatus ApprovalStatus,
	approvedBy *uuid.UUID,
	rejectionReason string,
	createdAt time.Time,
	resolvedAt *time.Time,
) *PresenceEvent {
	return &PresenceEvent{
		id:              id,
		bookingID:       bookingID,
		kind:            kind,
		coordinates:     coordinates,
		photoURL:        photoURL,
		distanceMeters:  distanceMeters,
		withinWindow:    withinWindow,
		confidenceScore: confidenceScore,
		approvalStatus:  approvalStatus,
		approvedBy:      approvedBy,
		rejectionReason: rejectionReason,
		createdAt:       createdAt,
		resolvedAt:      resolvedAt,
	}
}
