package postgres

import (
	"context"
	"database/sql"
	"fmt"
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
		VALUES ($1, $2, $3, $4, $5)
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
		WHERE id = $1
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
		args = append(args, *update.Summary)
		set = append(set, fmt.Sprintf("summary = $%d", len(args)))
	}
	if update.Recipients != nil {
		args = append(args, *update.Recipients)
		set = append(set, fmt.Sprintf("recipients = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := fmt.Sprintf(`
		UPDATE summary
		SET %s
		WHERE id = $%d
		RETURNING id, created_ts, instruction, transcript, summary, recipients
	`, strings.Join(set, ", "), len(args))
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
