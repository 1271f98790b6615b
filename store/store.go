package store

import (
	"context"

	"github.com/scribehq/recap/internal/profile"
)

// Driver is an interface for store driver.
// It contains all the methods that the store needs to implement.
type Driver interface {
	CreateSummary(ctx context.Context, create *CreateSummary) (*Summary, error)
	GetSummary(ctx context.Context, id int32) (*Summary, error)
	UpdateSummary(ctx context.Context, update *UpdateSummary) (*Summary, error)

	// Migrate creates the schema if absent. It is idempotent and must run
	// once before the server serves traffic.
	Migrate(ctx context.Context) error

	Close() error
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
