// Package repository implements all database queries for the ticketing system.
// It uses pgx directly (no ORM); money columns travel as text so they can be
// parsed into decimals without loss.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

const eventColumns = `id, name, description, venue, date, total_tickets, booked_tickets,
	base_price::text, min_price::text, max_price::text, pricing_rules, created_at, updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// WithTx runs fn in a transaction shared by every repository call made with its context.
func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	rules := req.PricingRules
	if rules == nil {
		rules = &model.PricingRules{TimeBasedWeight: 0.3, DemandBasedWeight: 0.4, InventoryBasedWeight: 0.3}
	}

	row := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO events (name, description, venue, date, total_tickets, base_price, min_price, max_price, pricing_rules)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+eventColumns,
		req.Name, req.Description, req.Venue, req.Date.UTC(), req.TotalTickets,
		req.BasePrice.String(), req.MinPrice.String(), req.MaxPrice.String(), rules,
	)
	e, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// List returns all events ordered by date.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY date ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	row := conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// LockForUpdate takes an exclusive row lock on the event and returns its
// state as seen under that lock. It must be called with a context produced by
// WithTx; the lock is held until that transaction commits or rolls back.
//
// Concurrent callers for the same event block here until the holder finishes,
// then read the holder's committed booked_tickets. Callers for different
// events never wait on each other.
func (r *EventRepository) LockForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return nil, errors.New("lock event row: no transaction in context")
	}

	row := tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`,
		id,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return e, nil
}

// IncrementBooked adds quantity to booked_tickets. The CHECK constraint on
// events rejects any update that would exceed total_tickets.
func (r *EventRepository) IncrementBooked(ctx context.Context, id int64, quantity int, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE events SET booked_tickets = booked_tickets + $2, updated_at = $3 WHERE id = $1`,
		id, quantity, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("increment booked_tickets: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e                model.Event
		base, minP, maxP string
		rules            *model.PricingRules
	)
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Venue, &e.Date, &e.TotalTickets, &e.BookedTickets,
		&base, &minP, &maxP, &rules, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.BasePrice, err = decimal.NewFromString(base); err != nil {
		return nil, fmt.Errorf("parse base_price: %w", err)
	}
	if e.MinPrice, err = decimal.NewFromString(minP); err != nil {
		return nil, fmt.Errorf("parse min_price: %w", err)
	}
	if e.MaxPrice, err = decimal.NewFromString(maxP); err != nil {
		return nil, fmt.Errorf("parse max_price: %w", err)
	}
	e.PricingRules = rules
	return &e, nil
}
