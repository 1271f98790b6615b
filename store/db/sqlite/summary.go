package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/scribehq/recap/store"
)

// CreateSummary inserts a new summary record and returns it with the
// assigned id.
func (d *DB) CreateSummary(ctx context.Context, create *store.CreateSummary) (*store.Summary, error) {
	stmt := `
		INSERT INTO summary (created_ts, instruction, transcript, summary, recipients)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_ts, instruction, transcript, summary, recipients
	`
	var summary store.Summary
	err := d.db.QueryRowContext(ctx, stmt,
		time.Now().Unix(),
		create.Instruction,
		create.Transcript,
		create.Summary,
		create.Recipients,
	).Scan(
		&summary.ID,
		&summary.CreatedTs,
		&summary.Instruction,
		&summary.Transcript,
		&summary.Summary,
		&summary.Recipients,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create summary")
	}
	return &summary, nil
}

// GetSummary returns the summary with the given id, or nil if absent.
func (d *DB) GetSummary(ctx context.Context, id int32) (*store.Summary, error) {
	stmt := `
		SELECT id, created_ts, instruction, transcript, summary, recipients
		FROM summary
		WHERE id = ?
	`
	var summary store.Summary
	err := d.db.QueryRowContext(ctx, stmt, id).Scan(
		&summary.ID,
		&summary.CreatedTs,
		&summary.Instruction,
		&summary.Transcript,
		&summary.Summary,
		&summary.Recipients,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get summary")
	}
	return &summary, nil
}

// UpdateSummary applies a partial update to an existing summary.
// Returns sql.ErrNoRows if the id does not exist.
func (d *DB) UpdateSummary(ctx context.Context, update *store.UpdateSummary) (*store.Summary, error) {
	set, args := []string{}, []any{}
	if update.Summary != nil {
		set, args = append(set, "summary = ?"), append(args, *update.Summary)
	}
	if update.Recipients != nil {
		set, args = append(set, "recipients = ?"), append(args, *update.Recipients)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := `
		UPDATE summary
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ?
		RETURNING id, created_ts, instruction, transcript, summary, recipients
	`
	var summary store.Summary
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&summary.ID,
		&summary.CreatedTs,
		&summary.Instruction,
		&summary.Transcript,
		&summary.Summary,
		&summary.Recipients,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, errors.Wrap(err, "failed to update summary")
	}
	return &summary, nil
}
