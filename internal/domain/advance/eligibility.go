package advance

import (
	"fmt"
	"time"

	"palco/internal/domain/user"
)

const (
	// Half of the artist-side value is disbursed before the event.
	AdvancePct = 0.50

	MinArtistValueCents = 50000 // R$500
	MinDistanceKm       = 200.0
	MinLeadTime         = 15 * 24 * time.Hour
	MinTrustScore       = 50
)

// Requirement is one of the five independent eligibility checks, reported
// with its observed value so the artist can see exactly what failed.
type Requirement struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Passed bool   `json:"passed"`
}

type Eligibility struct {
	Eligible     bool          `json:"eligible"`
	Requirements []Requirement `json:"requirements"`
}

type ArtistStanding struct {
	Verified          bool
	CompletedBookings int
	AverageRating     float64
	AccountStatus     user.AccountStatus
}

// TrustScore combines track record, rating and verification into 0-100.
func TrustScore(s ArtistStanding) int {
	score := completionPoints(s.CompletedBookings)
	score += int(s.AverageRating / 5.0 * 30.0)
	if s.Verified {
		score += 30
	}
	return score
}

func completionPoints(completed int) int {
	switch {
	case completed >= 20:
		return 40
	case completed >= 10:
		return 30
	case completed >= 5:
		return 20
	case completed >= 1:
		return 10
	default:
		return 0
	}
}

type EligibilityInput struct {
	ArtistValueCents int64
	DistanceKm       *float64
	EventStart       time.Time
	Standing         ArtistStanding
	Now              time.Time
}

// CheckEligibility evaluates the five requirements for a pre-event 50%
// disbursement. Eligibility is the logical AND of all five; an unknown venue
// distance fails closed.
func CheckEligibility(in EligibilityInput) Eligibility {
	leadTime := in.EventStart.Sub(in.Now)
	trusted := in.Standing.Verified || TrustScore(in.Standing) >= MinTrustScore

	distanceValue := "desconhecida"
	distancePassed := false
	if in.DistanceKm != nil {
		distanceValue = fmt.Sprintf("%.0f km", *in.DistanceKm)
		distancePassed = *in.DistanceKm > MinDistanceKm
	}

	trustValue := fmt.Sprintf("score %d", TrustScore(in.Standing))
	if in.Standing.Verified {
		trustValue = "verificado"
	}

	reqs := []Requirement{
		{
			Name:   "valor_minimo",
			Value:  fmt.Sprintf("R$%.2f", float64(in.ArtistValueCents)/100),
			Passed: in.ArtistValueCents >= MinArtistValueCents,
		},
		{
			Name:   "distancia_minima",
			Value:  distanceValue,
			Passed: distancePassed,
		},
		{
			Name:   "antecedencia_minima",
			Value:  fmt.Sprintf("%.0f dias", leadTime.Hours()/24),
			Passed: leadTime >= MinLeadTime,
		},
		{
			Name:   "confianca_artista",
			Value:  trustValue,
			Passed: trusted,
		},
		{
			Name:   "conta_ativa",
			Value:  in.Standing.AccountStatus.String(),
			Passed: in.Standing.AccountStatus == user.StatusActive,
		},
	}

	eligible := true
	for _, r := range reqs {
		if !r.Passed {
			eligible = false
			break
		}
	}

	return Eligibility{Eligible: eligible, Requirements: reqs}
}

// Reason returns a short summary of the failing requirements, empty when eligible.
func (e Eligibility) Reason() string {
	if e.Eligible {
		return ""
	}
	reason := "requisitos não atendidos:"
	for _, r := range e.Requirements {
		if !r.Passed {
			reason += " " + r.Name
		}
	}
	return reason
}
