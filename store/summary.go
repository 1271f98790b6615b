package store

import "context"

// Summary represents a persisted meeting summary.
//
// Instruction and Transcript are write-once: they are set at creation and
// never updated. Summary and Recipients may be overwritten any number of
// times. Records are never deleted.
type Summary struct {
	ID          int32
	CreatedTs   int64
	Instruction string
	Transcript  string
	Summary     string
	Recipients  string // comma-separated email addresses
}

// CreateSummary is the create condition for a summary.
type CreateSummary struct {
	Instruction string
	Transcript  string
	Summary     string
	Recipients  string
}

// UpdateSummary is the partial update condition for a summary.
// Only Summary and Recipients are mutable.
type UpdateSummary struct {
	ID         int32
	Summary    *string
	Recipients *string
}

// CreateSummary persists a new summary record and returns it with its
// assigned id and creation timestamp.
func (s *Store) CreateSummary(ctx context.Context, create *CreateSummary) (*Summary, error) {
	return s.driver.CreateSummary(ctx, create)
}

// GetSummary returns the summary with the given id, or nil if absent.
func (s *Store) GetSummary(ctx context.Context, id int32) (*Summary, error) {
	return s.driver.GetSummary(ctx, id)
}

// UpdateSummary applies a partial update to an existing summary.
// Returns sql.ErrNoRows if the id does not exist.
func (s *Store) UpdateSummary(ctx context.Context, update *UpdateSummary) (*Summary, error) {
	return s.driver.UpdateSummary(ctx, update)
}
