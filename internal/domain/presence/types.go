package presence

import "errors"

var (
	ErrPhotoRequired     = errors.New("check-in photo is required")
	ErrReasonRequired    = errors.New("rejection reason is required")
	ErrAlreadyResolved   = errors.New("presence event is already resolved")
	ErrInvalidKind       = errors.New("invalid presence event kind")
)

type Kind string

const (
	KindArrival   Kind = "ARRIVAL"
	KindDeparture Kind = "DEPARTURE"
)

func (k Kind) IsValid() bool {
	return k == KindArrival || k == KindDeparture
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	default:
		return false
	}
}
