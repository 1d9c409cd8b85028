package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/henrychris/EventManagement/internal/domain"
)

// Querier is the subset of pgx operations repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code runs
// against the pool for reads and inside a unit-of-work transaction for
// writes.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository defines persistence operations for events.
// GetByID returns (nil, nil) when no row matches; services translate that
// into domain.ErrEventNotFound.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// Update performs a version-guarded write: it only succeeds when the
	// row's version still matches event.Version, and increments the version
	// on success. A stale version yields domain.ErrConcurrencyConflict; a
	// missing row yields domain.ErrEventNotFound.
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]*domain.Event, error)
	GetWithAvailableTickets(ctx context.Context, pageNumber, pageSize int, sort domain.EventSort) ([]*domain.Event, error)
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// UnitOfWork scopes repository writes to a single transaction. Repositories
// obtained from it never commit on their own; Complete finalizes every
// pending write atomically or not at all. Rollback after a successful
// Complete is a no-op, so it is safe to defer.
type UnitOfWork interface {
	Events() EventRepository
	Complete(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory opens new units of work.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
