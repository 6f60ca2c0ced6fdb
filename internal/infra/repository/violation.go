package repository

import (
	"context"
	"time"

	"palco/internal/domain/moderation"
	"palco/internal/infra"
	"palco/internal/infra/db"

	"github.com/google/uuid"
)

type ViolationRepository struct{}

func NewViolationRepository() *ViolationRepository {
	return &ViolationRepository{}
}

func (r *ViolationRepository) Create(ctx context.Context, dbtx db.DBTX, v *moderation.ViolationRecord) error {
	patterns := make([]string, len(v.Patterns()))
	for i, p := range v.Patterns() {
		patterns[i] = string(p)
	}

	_, err := dbtx.Exec(ctx, `
		INSERT INTO violations (
			id, user_id, category, severity, patterns, original_text,
			booking_id, action, suspension_days, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		v.ID(), v.UserID(), v.Category(), v.Severity(), patterns, v.OriginalText(),
		v.BookingID(), string(v.Action()), v.SuspensionDays(), v.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create violation", err)
	}
	return nil
}

// CountByUser is the escalation input: how many violations the user already has.
func (r *ViolationRepository) CountByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) (int, error) {
	var count int
	err := dbtx.QueryRow(ctx, `
		SELECT COUNT(*) FROM violations WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to count violations", err)
	}
	return count, nil
}

func (r *ViolationRepository) ListByUser(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*moderation.ViolationRecord, error) {
	rows, err := dbtx.Query(ctx, `
		SELECT id, user_id, category, severity, patterns, original_text,
		       booking_id, action, suspension_days, created_at
		FROM violations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list violations", err)
	}
	defer rows.Close()

	var result []*moderation.ViolationRecord
	for rows.Next() {
		var (
			id, vUserID    uuid.UUID
			category       string
			severity       int
			rawPatterns    []string
			originalText   string
			bookingID      *uuid.UUID
			action         string
			suspensionDays int
			createdAt      time.Time
		)
		if err := rows.Scan(
			&id, &vUserID, &category, &severity, &rawPatterns, &originalText,
			&bookingID, &action, &suspensionDays, &createdAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan violation", err)
		}

		patterns := make([]moderation.PatternCategory, len(rawPatterns))
		for i, p := range rawPatterns {
			patterns[i] = moderation.PatternCategory(p)
		}

		result = append(result, moderation.ReconstructViolationRecord(
			id, vUserID, category, severity, patterns, originalText,
			bookingID, moderation.Action(action), suspensionDays, createdAt,
		))
	}
	return result, rows.Err()
}
