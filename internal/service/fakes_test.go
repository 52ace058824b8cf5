package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeTxKey struct{}

type fakeTx struct {
	locked     []int64
	bookings   []model.Booking
	increments map[int64]int
	updatedAt  map[int64]time.Time
}

// fakeStore is an in-memory ledger whose transactions take a per-event lock
// in LockForUpdate and hold it until WithTx returns, like SELECT ... FOR UPDATE.
// Writes are staged on the transaction and applied only on commit.
type fakeStore struct {
	mu       sync.Mutex
	events   map[int64]*model.Event
	bookings []model.Booking
	nextID   int64
	rowLocks map[int64]chan struct{}

	txBegun       int
	failInsert    error
	failIncrement error
	failList      error
	failCount     error
}

func newFakeStore(events ...model.Event) *fakeStore {
	s := &fakeStore{
		events:   make(map[int64]*model.Event),
		rowLocks: make(map[int64]chan struct{}),
	}
	for i := range events {
		e := events[i]
		s.events[e.ID] = &e
	}
	return s
}

func (s *fakeStore) rowLock(id int64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	return ch
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txBegun++
	s.mu.Unlock()

	tx := &fakeTx{increments: map[int64]int{}, updatedAt: map[int64]time.Time{}}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))

	if err == nil {
		s.mu.Lock()
		for id, q := range tx.increments {
			s.events[id].BookedTickets += q
			s.events[id].UpdatedAt = tx.updatedAt[id]
		}
		s.bookings = append(s.bookings, tx.bookings...)
		s.mu.Unlock()
	}
	for _, id := range tx.locked {
		<-s.rowLock(id)
	}
	return err
}

func txOf(ctx context.Context) *fakeTx {
	tx, _ := ctx.Value(fakeTxKey{}).(*fakeTx)
	return tx
}

func (s *fakeStore) LockForUpdate(ctx context.Context, id int64) (*model.Event, error) {
	tx := txOf(ctx)
	if tx == nil {
		return nil, errors.New("no transaction")
	}
	s.mu.Lock()
	_, ok := s.events[id]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case s.rowLock(id) <- struct{}{}:
		tx.locked = append(tx.locked, id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := *s.events[id]
	return &e, nil
}

func (s *fakeStore) IncrementBooked(ctx context.Context, id int64, quantity int, at time.Time) error {
	if s.failIncrement != nil {
		return s.failIncrement
	}
	tx := txOf(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	if e.BookedTickets+tx.increments[id]+quantity > e.TotalTickets {
		return fmt.Errorf("check constraint events_booked_within_total violated")
	}
	tx.increments[id] += quantity
	tx.updatedAt[id] = at
	return nil
}

func (s *fakeStore) Insert(ctx context.Context, b model.Booking) (*model.Booking, error) {
	if s.failInsert != nil {
		return nil, s.failInsert
	}
	tx := txOf(ctx)
	s.mu.Lock()
	s.nextID++
	b.ID = s.nextID
	s.mu.Unlock()
	b.Reference = fmt.Sprintf("ref-%d", b.ID)
	tx.bookings = append(tx.bookings, b)
	return &b, nil
}

func (s *fakeStore) ListByEvent(_ context.Context, eventID int64) ([]model.Booking, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) ListByEmail(_ context.Context, email string) ([]model.Booking, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.UserEmail == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeStore) CountSince(_ context.Context, eventID int64, since time.Time) (int, error) {
	if s.failCount != nil {
		return 0, s.failCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.EventID == eventID && !b.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Create(_ context.Context, req model.CreateEventRequest) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.events) + 1)
	e := model.Event{
		ID: id, Name: req.Name, Venue: req.Venue, Date: req.Date, TotalTickets: req.TotalTickets,
		BasePrice: req.BasePrice, MinPrice: req.MinPrice, MaxPrice: req.MaxPrice, PricingRules: req.PricingRules,
	}
	s.events[id] = &e
	return &e, nil
}

func (s *fakeStore) List(context.Context) ([]model.Event, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for id := int64(1); id <= int64(len(s.events)); id++ {
		if e, ok := s.events[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (s *fakeStore) SalesByEvent(context.Context) (map[int64]model.EventSales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sales := map[int64]model.EventSales{}
	for _, b := range s.bookings {
		es := sales[b.EventID]
		es.EventID = b.EventID
		es.BookingCount++
		es.TicketsSold += b.Quantity
		es.Revenue = es.Revenue.Add(b.TotalPrice)
		sales[b.EventID] = es
	}
	return sales, nil
}

func (s *fakeStore) event(id int64) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[id]
}

func (s *fakeStore) committedBookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Booking(nil), s.bookings...)
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (f *fakeInvalidator) InvalidateEvent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.err
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []model.Booking
	err  error
}

func (f *fakePublisher) PublishBookingConfirmed(_ context.Context, b model.Booking, _ model.PricingBreakdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, b)
	return f.err
}
