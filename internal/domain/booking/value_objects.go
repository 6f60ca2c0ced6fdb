package booking

import (
	"errors"
	"math"
	"time"

	"palco/internal/pkg/geo"
)

type Money struct {
	cents int64
}

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Reais() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

func (m Money) Percent(pct float64) Money {
	return Money{cents: int64(math.Round(float64(m.cents) * pct))}
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

// EventSchedule is the agreed date, start time and duration of the performance.
type EventSchedule struct {
	start    time.Time
	duration time.Duration
}

func NewEventSchedule(start time.Time, duration time.Duration) (EventSchedule, error) {
	if duration <= 0 {
		return EventSchedule{}, errors.New("duration must be positive")
	}
	return EventSchedule{start: start, duration: duration}, nil
}

func (s EventSchedule) Start() time.Time        { return s.start }
func (s EventSchedule) End() time.Time          { return s.start.Add(s.duration) }
func (s EventSchedule) Duration() time.Duration { return s.duration }

// Location carries the display label plus optional structured coordinates.
// Scoring degrades gracefully when coordinates are absent.
type Location struct {
	label       string
	coordinates *geo.Coordinates
}

func NewLocation(label string, coordinates *geo.Coordinates) Location {
	return Location{label: label, coordinates: coordinates}
}

func (l Location) Label() string                 { return l.label }
func (l Location) Coordinates() *geo.Coordinates { return l.coordinates }
func (l Location) HasCoordinates() bool          { return l.coordinates != nil }
