package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

const bookingColumns = `id, reference::text, event_id, user_email, quantity, total_price::text, created_at`

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// Insert stores a booking and returns it with its generated id, public
// reference and creation time. Bookings are never updated afterwards.
func (r *BookingRepository) Insert(ctx context.Context, b model.Booking) (*model.Booking, error) {
	if b.Reference == "" {
		b.Reference = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	row := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO bookings (reference, event_id, user_email, quantity, total_price, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+bookingColumns,
		b.Reference, b.EventID, b.UserEmail, b.Quantity, b.TotalPrice.StringFixed(2), b.CreatedAt.UTC(),
	)
	out, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return out, nil
}

// ListByEvent returns all bookings for an event, oldest first.
func (r *BookingRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE event_id = $1 ORDER BY created_at ASC, id ASC`,
		eventID,
	)
}

// ListByEmail returns all bookings made with an email address, oldest first.
func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_email = $1 ORDER BY created_at ASC, id ASC`,
		email,
	)
}

// CountSince returns the number of bookings for an event created at or after since.
func (r *BookingRepository) CountSince(ctx context.Context, eventID int64, since time.Time) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1 AND created_at >= $2`,
		eventID, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent bookings: %w", err)
	}
	return n, nil
}

// SalesByEvent rolls up booking count, tickets and revenue per event. Events
// without bookings are absent from the result.
func (r *BookingRepository) SalesByEvent(ctx context.Context) (map[int64]model.EventSales, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT event_id, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)::text
		 FROM bookings
		 GROUP BY event_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sales by event: %w", err)
	}
	defer rows.Close()

	sales := make(map[int64]model.EventSales)
	for rows.Next() {
		var (
			s       model.EventSales
			revenue string
		)
		if err := rows.Scan(&s.EventID, &s.BookingCount, &s.TicketsSold, &revenue); err != nil {
			return nil, fmt.Errorf("scan sales: %w", err)
		}
		if s.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse revenue: %w", err)
		}
		sales[s.EventID] = s
	}
	return sales, rows.Err()
}

func (r *BookingRepository) list(ctx context.Context, sql string, arg any) ([]model.Booking, error) {
	rows, err := conn(ctx, r.db).Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b     model.Booking
		total string
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.EventID, &b.UserEmail, &b.Quantity, &total, &b.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total_price: %w", err)
	}
	return &b, nil
}
