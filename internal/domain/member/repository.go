package member

import "context"

type Repository interface {
	// Create inserts m; an existing principal yields ErrDuplicateMember.
	Create(ctx context.Context, m *Member) error
	// Get returns ErrNotAMember when principal is not registered.
	Get(ctx context.Context, principal string) (*Member, error)
	// Delete erases the record; ErrNotAMember when absent.
	Delete(ctx context.Context, principal string) error
	List(ctx context.Context) ([]Member, error)
}
