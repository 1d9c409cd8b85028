package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henrychris/EventManagement/internal/domain"
)

// pgSerializationFailure is the SQLSTATE Postgres reports when a
// serializable/repeatable-read transaction loses a write race.
const pgSerializationFailure = "40001"

// PgxUnitOfWorkFactory opens pgx-transaction-backed units of work.
type PgxUnitOfWorkFactory struct {
	pool *pgxpool.Pool
}

// NewPgxUnitOfWorkFactory creates a factory over the given pool.
func NewPgxUnitOfWorkFactory(pool *pgxpool.Pool) *PgxUnitOfWorkFactory {
	return &PgxUnitOfWorkFactory{pool: pool}
}

// Begin opens a transaction and binds fresh repositories to it.
func (f *PgxUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := f.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgxUnitOfWork{
		tx:     tx,
		events: NewPostgresEventRepository(tx),
	}, nil
}

// pgxUnitOfWork implements UnitOfWork over a single pgx transaction.
type pgxUnitOfWork struct {
	tx     pgx.Tx
	events EventRepository
	done   bool
}

func (u *pgxUnitOfWork) Events() EventRepository {
	return u.events
}

// Complete commits the transaction. Storage-level write races surface as
// domain.ErrConcurrencyConflict rather than raw pgx errors.
func (u *pgxUnitOfWork) Complete(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit(ctx); err != nil {
		if IsConcurrencyConflict(err) {
			return domain.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// Rollback aborts the transaction. Calling it after Complete is a no-op so
// callers can defer it unconditionally.
func (u *pgxUnitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// IsConcurrencyConflict reports whether err is an optimistic-lock or
// serialization failure from the storage layer.
func IsConcurrencyConflict(err error) bool {
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}
