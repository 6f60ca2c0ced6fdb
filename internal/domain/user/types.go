package user

import "errors"

var (
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidAccountStatus = errors.New("invalid account status")
	ErrInvalidPlanTier      = errors.New("invalid plan tier")
)

type Role string

const (
	RoleRequester Role = "CONTRATANTE"
	RoleArtist    Role = "ARTISTA"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleRequester, RoleArtist, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

type AccountStatus string

const (
	StatusActive    AccountStatus = "ATIVO"
	StatusSuspended AccountStatus = "SUSPENSO"
	StatusBanned    AccountStatus = "BANIDO"
)

func (s AccountStatus) String() string {
	return string(s)
}

func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusBanned:
		return true
	default:
		return false
	}
}

// PlanTier determines the platform fee taken from the artist-side value.
type PlanTier string

const (
	PlanFree    PlanTier = "FREE"
	PlanPro     PlanTier = "PRO"
	PlanPremium PlanTier = "PREMIUM"
)

func (p PlanTier) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	default:
		return false
	}
}

func (p PlanTier) FeePercent() float64 {
	switch p {
	case PlanPro:
		return 0.10
	case PlanPremium:
		return 0.07
	default:
		return 0.15
	}
}
