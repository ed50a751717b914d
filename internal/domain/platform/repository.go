package platform

import "context"

type Repository interface {
	// Get returns ErrNotInitialized when the settings row is missing.
	Get(ctx context.Context) (*Settings, error)
	// GetForUpdate locks the settings row; loan id assignment relies on it.
	GetForUpdate(ctx context.Context) (*Settings, error)
	// Init inserts s unless a row already exists, and returns the stored row.
	Init(ctx context.Context, s *Settings) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
