//go:build unit

package presence_test

import (
	"testing"
	"time"

	"palco/internal/domain/presence"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestConfidenceScore(t *testing.T) {
	cases := []struct {
		name  string
		input presence.ScoreInput
		want  int
	}{
		{
			name: "perfect check-in scores 100",
			input: presence.ScoreInput{
				DistanceMeters: ptr(50),
				WithinWindow:   true,
				HasPhoto:       true,
				HasCoordinates: true,
			},
			want: 100,
		},
		{
			name: "far and late scores 10",
			input: presence.ScoreInput{
				DistanceMeters: ptr(1200),
				WithinWindow:   false,
				HasPhoto:       true,
				HasCoordinates: true,
			},
			want: 10,
		},
		{
			name: "distance over 500m",
			input: presence.ScoreInput{
				DistanceMeters: ptr(700),
				WithinWindow:   true,
				HasPhoto:       true,
				HasCoordinates: true,
			},
			want: 70,
		},
		{
			name: "distance over 200m",
			input: presence.ScoreInput{
				DistanceMeters: ptr(350),
				WithinWindow:   true,
				HasPhoto:       true,
				HasCoordinates: true,
			},
			want: 85,
		},
		{
			name: "distance over 100m",
			input: presence.ScoreInput{
				DistanceMeters: ptr(150),
				WithinWindow:   true,
				HasPhoto:       true,
				HasCoordinates: true,
			},
			want: 95,
		},
		{
			name: "no coordinates degrades instead of failing",
			input: presence.ScoreInput{
				WithinWindow:   true,
				HasPhoto:       true,
				HasCoordinates: false,
			},
			want: 80,
		},
		{
			name: "everything wrong clamps at zero",
			input: presence.ScoreInput{
				DistanceMeters: ptr(5000),
				WithinWindow:   false,
				HasPhoto:       false,
				HasCoordinates: false,
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := presence.ConfidenceScore(tc.input)
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestWithinCheckInWindow(t *testing.T) {
	start := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly 4h before", start.Add(-4 * time.Hour), true},
		{"just inside lower bound", start.Add(-3*time.Hour - 59*time.Minute), true},
		{"too early", start.Add(-4*time.Hour - time.Minute), false},
		{"at event start", start, true},
		{"exactly 2h after", start.Add(2 * time.Hour), true},
		{"too late", start.Add(2*time.Hour + time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, presence.WithinCheckInWindow(tc.now, start))
		})
	}
}
