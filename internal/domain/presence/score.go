package presence

import "time"

const (
	// Check-in is accepted from 4h before to 2h after the scheduled start.
	WindowBeforeStart = 4 * time.Hour
	WindowAfterStart  = 2 * time.Hour

	// The requester may contest a check-in for 1h; after that the
	// reconciler approves it automatically.
	ContestationWindow = time.Hour
)

type ScoreInput struct {
	DistanceMeters *float64
	WithinWindow   bool
	HasPhoto       bool
	HasCoordinates bool
}

// ConfidenceScore starts at 100 and subtracts penalties for weak geographic,
// temporal and evidentiary signals. Result is clamped to [0, 100].
func ConfidenceScore(in ScoreInput) int {
	score := 100

	if in.DistanceMeters != nil {
		d := *in.DistanceMeters
		switch {
		case d > 1000:
			score -= 50
		case d > 500:
			score -= 30
		case d > 200:
			score -= 15
		case d > 100:
			score -= 5
		}
	}

	if !in.WithinWindow {
		score -= 40
	}
	if !in.HasPhoto {
		score -= 50
	}
	if !in.HasCoordinates {
		score -= 20
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// WithinCheckInWindow reports whether now falls inside
// [eventStart - 4h, eventStart + 2h].
func WithinCheckInWindow(now, eventStart time.Time) bool {
	return !now.Before(eventStart.Add(-WindowBeforeStart)) &&
		!now.After(eventStart.Add(WindowAfterStart))
}
