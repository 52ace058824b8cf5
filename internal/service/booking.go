// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/pricing"
)

// InventoryLedger is the durable record of booked vs. total tickets.
// LockForUpdate must hold an exclusive, transaction-scoped lock on the event
// until the WithTx callback returns.
type InventoryLedger interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockForUpdate(ctx context.Context, id int64) (*model.Event, error)
	IncrementBooked(ctx context.Context, id int64, quantity int, at time.Time) error
}

// BookingStore persists and reads bookings.
type BookingStore interface {
	Insert(ctx context.Context, b model.Booking) (*model.Booking, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]model.Booking, error)
}

// Pricer prices an event at the current instant.
type Pricer interface {
	Price(ctx context.Context, event model.Event) (model.PricingBreakdown, error)
}

// Invalidator is told when an event's cached inventory and prices are stale.
type Invalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// BookingPublisher announces committed bookings.
type BookingPublisher interface {
	PublishBookingConfirmed(ctx context.Context, b model.Booking, pricing model.PricingBreakdown) error
}

// BookingService is the booking transaction coordinator. It keeps no
// in-process locks; mutual exclusion comes entirely from the ledger's row
// lock, so the overbooking guarantee holds across server instances.
type BookingService struct {
	logger        *logrus.Logger
	ledger        InventoryLedger
	bookings      BookingStore
	pricer        Pricer
	invalidator   Invalidator
	publisher     BookingPublisher
	clock         clock.Clock
	validate      *validator.Validate
	timeout       time.Duration
	notifyTimeout time.Duration
}

// BookingServiceProperty lists the collaborators of a BookingService.
type BookingServiceProperty struct {
	Logger        *logrus.Logger
	Ledger        InventoryLedger
	Bookings      BookingStore
	Pricer        Pricer
	Invalidator   Invalidator
	Publisher     BookingPublisher
	Clock         clock.Clock
	Timeout       time.Duration
	NotifyTimeout time.Duration
}

const (
	defaultBookingTimeout = 10 * time.Second
	defaultNotifyTimeout  = 2 * time.Second
)

// NewBookingService constructs a BookingService.
func NewBookingService(props BookingServiceProperty) *BookingService {
	s := &BookingService{
		logger:        props.Logger,
		ledger:        props.Ledger,
		bookings:      props.Bookings,
		pricer:        props.Pricer,
		invalidator:   props.Invalidator,
		publisher:     props.Publisher,
		clock:         props.Clock,
		validate:      newValidator(),
		timeout:       props.Timeout,
		notifyTimeout: props.NotifyTimeout,
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	if s.timeout <= 0 {
		s.timeout = defaultBookingTimeout
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyTimeout
	}
	return s
}

// CreateBooking reserves req.Quantity tickets and returns the committed booking.
//
// The event row is locked before availability is checked and before the
// price is computed, so two requests racing for the last tickets cannot both
// pass the check: the loser blocks until the winner commits and then sees
// the incremented booked count. The booking insert and the counter update
// share the lock's transaction and commit or roll back together.
func (s *BookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (_ *model.Booking, err error) {
	start := time.Now()
	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id": req.EventID,
		"quantity": req.Quantity,
	})
	defer func() {
		metrics.TrackBooking(outcomeOf(err), time.Since(start))
	}()

	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if err := validateStruct(s.validate, req); err != nil {
		log.WithError(err).Debug("booking rejected: invalid input")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		booking *model.Booking
		quote   model.PricingBreakdown
	)
	txErr := s.ledger.WithTx(ctx, func(txCtx context.Context) error {
		lockStart := time.Now()
		event, err := s.ledger.LockForUpdate(txCtx, req.EventID)
		if err != nil {
			if isNotFound(err) {
				return notFound(req.EventID)
			}
			return persistence("lock event", err)
		}
		metrics.TrackLockWait(time.Since(lockStart))

		if available := event.Available(); available < req.Quantity {
			return &InsufficientInventoryError{Requested: req.Quantity, Remaining: max(available, 0)}
		}

		// Priced inside the lock so the inventory factor reflects the
		// authoritative booked count.
		quote, err = s.pricer.Price(txCtx, *event)
		if err != nil {
			return persistence("price booking", err)
		}

		now := s.clock.Now()
		booking, err = s.bookings.Insert(txCtx, model.Booking{
			EventID:    req.EventID,
			UserEmail:  req.UserEmail,
			Quantity:   req.Quantity,
			TotalPrice: pricing.Total(quote, req.Quantity),
			CreatedAt:  now,
		})
		if err != nil {
			return persistence("insert booking", err)
		}

		if err := s.ledger.IncrementBooked(txCtx, req.EventID, req.Quantity, now); err != nil {
			return persistence("update inventory", err)
		}
		return nil
	})
	if txErr != nil {
		err = classifyTxError(ctx, txErr)
		entry := log.WithError(txErr)
		if errors.Is(err, ErrPersistence) {
			entry.Error("booking transaction failed")
		} else {
			entry.Info("booking rejected")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"total_price": booking.TotalPrice.StringFixed(2),
	}).Info("booking committed")

	s.afterCommit(ctx, *booking, quote)
	return booking, nil
}

// afterCommit notifies the cache and the broker. The booking is already
// durable, so failures here are logged and counted but never returned.
func (s *BookingService) afterCommit(ctx context.Context, b model.Booking, quote model.PricingBreakdown) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{"event_id": b.EventID, "booking_id": b.ID})

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateEvent(nctx, b.EventID); err != nil {
			metrics.TrackNotifyFailure("cache")
			log.WithError(err).Warn("cache invalidation failed")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(nctx, b, quote); err != nil {
			metrics.TrackNotifyFailure("broker")
			log.WithError(err).Warn("booking event publish failed")
		}
	}
}

// ListByEvent returns the bookings of one event. It takes no locks.
func (s *BookingService) ListByEvent(ctx context.Context, eventID int64) ([]model.Booking, error) {
	if eventID <= 0 {
		return nil, &ValidationError{Field: "event_id", Reason: "must be a positive integer"}
	}
	bookings, err := s.bookings.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("event_id", eventID).Error("list bookings by event failed")
		return nil, persistence("list bookings", err)
	}
	return bookings, nil
}

// ListByEmail returns the bookings made with an email address. It takes no locks.
func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "user_email", Reason: "is required"}
	}
	if !isValidEmail(email) {
		return nil, &ValidationError{Field: "user_email", Reason: "is not a valid email address"}
	}
	bookings, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("list bookings by email failed")
		return nil, persistence("list bookings", err)
	}
	return bookings, nil
}
