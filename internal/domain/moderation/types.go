package moderation

import (
	"time"

	"github.com/google/uuid"
)

// PatternCategory names one family of externally-shared contact information.
type PatternCategory string

const (
	CategoryPhone           PatternCategory = "phone"
	CategoryEmail           PatternCategory = "email"
	CategorySocialMedia     PatternCategory = "social_media"
	CategoryMessagingApp    PatternCategory = "messaging_app"
	CategoryExternalContact PatternCategory = "external_contact"
	CategoryURL             PatternCategory = "url"
)

// ViolationCategory is the ledger category; this subsystem only records
// external-contact infractions.
const ViolationExternalContact = "EXTERNAL_CONTACT"

type Action string

const (
	ActionWarn    Action = "WARN"
	ActionSuspend Action = "SUSPEND"
	ActionBan     Action = "BAN"
)

const SuspensionDays = 7

// ViolationRecord is an append-only entry in the user's violation ledger.
type ViolationRecord struct {
	id             uuid.UUID
	userID         uuid.UUID
	category       string
	severity       int
	patterns       []PatternCategory
	originalText   string
	bookingID      *uuid.UUID
	action         Action
	suspensionDays int
	createdAt      time.Time
}

func NewViolationRecord(
	userID uuid.UUID,
	patterns []PatternCategory,
	originalText string,
	bookingID *uuid.UUID,
	action Action,
	suspensionDays int,
	now time.Time,
) *ViolationRecord {
	return &ViolationRecord{
		id:             uuid.New(),
		userID:         userID,
		category:       ViolationExternalContact,
		severity:       len(patterns),
		patterns:       patterns,
		originalText:   originalText,
		bookingID:      bookingID,
		action:         action,
		suspensionDays: suspensionDays,
		createdAt:      now,
	}
}

func (v *ViolationRecord) ID() uuid.UUID                { return v.id }
func (v *ViolationRecord) UserID() uuid.UUID            { return v.userID }
func (v *ViolationRecord) Category() string             { return v.category }
func (v *ViolationRecord) Severity() int                { return v.severity }
func (v *ViolationRecord) Patterns() []PatternCategory  { return v.patterns }
func (v *ViolationRecord) OriginalText() string         { return v.originalText }
func (v *ViolationRecord) BookingID() *uuid.UUID        { return v.bookingID }
func (v *ViolationRecord) Action() Action               { return v.action }
func (v *ViolationRecord) SuspensionDays() int          { return v.suspensionDays }
func (v *ViolationRecord) CreatedAt() time.Time         { return v.createdAt }

func ReconstructViolationRecord(
	id, userID uuid.UUID,
	category string,
	severity int,
	patterns []PatternCategory,
	originalText string,
	bookingID *uuid.UUID,
	action Action,
	suspensionDays int,
	createdAt time.Time,
) *ViolationRecord {
	return &ViolationRecord{
		id:             id,
		userID:         userID,
		category:       category,
		severity:       severity,
		patterns:       patterns,
		originalText:   originalText,
		bookingID:      bookingID,
		action:         action,
		suspensionDays: suspensionDays,
		createdAt:      createdAt,
	}
}
