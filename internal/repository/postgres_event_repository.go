package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/henrychris/EventManagement/internal/domain"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db Querier
}

// NewPostgresEventRepository creates a new PostgresEventRepository bound to
// the given querier (pool or transaction).
func NewPostgresEventRepository(db Querier) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

const eventColumns = `id, name, description, price, date, start_time, end_time,
	status, tickets_available, tickets_sold, organiser_id, version, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Price,
		&event.Date,
		&event.StartTime,
		&event.EndTime,
		&event.Status,
		&event.TicketsAvailable,
		&event.TicketsSold,
		&event.OrganiserID,
		&event.Version,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Create inserts a new event row with version 1.
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			id, name, description, price, date, start_time, end_time,
			status, tickets_available, tickets_sold, organiser_id, version,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`
	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Price,
		event.Date,
		event.StartTime,
		event.EndTime,
		event.Status,
		event.TicketsAvailable,
		event.TicketsSold,
		event.OrganiserID,
		event.Version,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// GetByID retrieves an event by ID, returning (nil, nil) when absent.
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// Update writes the event back under its optimistic-concurrency guard: the
// row must still carry the version the event was read at. On success the
// stored version is incremented and event.Version is advanced to match.
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events SET
			name = $3, description = $4, price = $5, date = $6,
			start_time = $7, end_time = $8, status = $9,
			tickets_available = $10, tickets_sold = $11,
			version = version + 1, updated_at = $12
		WHERE id = $1 AND version = $2
	`
	event.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(ctx, query,
		event.ID,
		event.Version,
		event.Name,
		event.Description,
		event.Price,
		event.Date,
		event.StartTime,
		event.EndTime,
		event.Status,
		event.TicketsAvailable,
		event.TicketsSold,
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		// Zero rows means either the row is gone or another writer bumped
		// the version between our read and this write.
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, event.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrConcurrencyConflict
		}
		return domain.ErrEventNotFound
	}
	event.Version++
	return nil
}

// Delete physically removes an event row.
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// orderClause maps a sort option onto a whitelisted ORDER BY expression.
// Values never reach the SQL string from user input directly.
func orderClause(sort domain.EventSort) string {
	switch sort {
	case domain.SortDateDesc:
		return "date DESC"
	case domain.SortNameAsc:
		return "name ASC"
	case domain.SortNameDesc:
		return "name DESC"
	case domain.SortPriceAsc:
		return "price ASC"
	case domain.SortPriceDesc:
		return "price DESC"
	case domain.SortTicketsAsc:
		return "tickets_available ASC"
	case domain.SortTicketsDesc:
		return "tickets_available DESC"
	default:
		return "date ASC"
	}
}

// escapeLikePattern escapes LIKE metacharacters so user input matches
// literally. A name containing "%" or "_" must not act as a wildcard.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// Search filters events by the given criteria and returns one page.
func (r *PostgresEventRepository) Search(ctx context.Context, criteria domain.SearchCriteria) ([]*domain.Event, error) {
	var conditions []string
	var args []any
	argIndex := 1

	if criteria.Name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLikePattern(criteria.Name)+"%")
		argIndex++
	}
	if criteria.MinPrice > 0 {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, criteria.MinPrice)
		argIndex++
	}
	if criteria.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *criteria.MaxPrice)
		argIndex++
	}
	if criteria.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIndex))
		args = append(args, *criteria.StartDate)
		argIndex++
	}
	if criteria.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIndex))
		args = append(args, *criteria.EndDate)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, orderClause(criteria.Sort), argIndex, argIndex+1)
	args = append(args, criteria.PageSize, criteria.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetWithAvailableTickets returns one page of events that still have
// tickets to sell.
func (r *PostgresEventRepository) GetWithAvailableTickets(ctx context.Context, pageNumber, pageSize int, sort domain.EventSort) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE tickets_available > 0
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, eventColumns, orderClause(sort))

	rows, err := r.db.Query(ctx, query, pageSize, pageSize*(pageNumber-1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}
