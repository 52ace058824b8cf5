package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

func seedBookings(t *testing.T, f bookingFixture, reqs ...model.CreateBookingRequest) {
	t.Helper()
	for _, r := range reqs {
		_, err := f.svc.CreateBooking(context.Background(), r)
		require.NoError(t, err)
	}
}

func TestAnalyticsService_EventAnalytics(t *testing.T) {
	// Far-off events with plenty of stock price at the base of 100.
	far := func(id int64) model.Event {
		e := testEvent(id, 100, 0)
		e.Date = testNow.AddDate(0, 2, 0)
		return e
	}
	f := newBookingFixture(0, far(1), far(2))
	seedBookings(t, f,
		model.CreateBookingRequest{EventID: 1, UserEmail: "a@example.com", Quantity: 2},
		model.CreateBookingRequest{EventID: 1, UserEmail: "b@example.com", Quantity: 1},
	)
	svc := NewAnalyticsService(quietLogger(), f.store, f.store)

	got, err := svc.EventAnalytics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalSold)
	assert.Equal(t, 97, got.RemainingTickets)
	assert.Equal(t, 2, got.BookingCount)
	assert.Equal(t, "300.00", got.TotalRevenue.StringFixed(2))
	assert.Equal(t, "100.00", got.AveragePrice.StringFixed(2))

	empty, err := svc.EventAnalytics(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, empty.AveragePrice.IsZero())
	assert.Zero(t, empty.BookingCount)

	_, err = svc.EventAnalytics(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyticsService_Summary(t *testing.T) {
	events := make([]model.Event, 0, 7)
	for id := int64(1); id <= 7; id++ {
		e := testEvent(id, 100, 0)
		e.Date = testNow.AddDate(0, 2, 0)
		events = append(events, e)
	}
	f := newBookingFixture(0, events...)
	// Events 3 and 5 tie on tickets sold; the lower id ranks first.
	seedBookings(t, f,
		model.CreateBookingRequest{EventID: 5, UserEmail: "a@example.com", Quantity: 4},
		model.CreateBookingRequest{EventID: 3, UserEmail: "b@example.com", Quantity: 4},
		model.CreateBookingRequest{EventID: 7, UserEmail: "c@example.com", Quantity: 9},
		model.CreateBookingRequest{EventID: 1, UserEmail: "d@example.com", Quantity: 1},
		model.CreateBookingRequest{EventID: 2, UserEmail: "e@example.com", Quantity: 2},
	)
	svc := NewAnalyticsService(quietLogger(), f.store, f.store)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, sum.TotalEvents)
	assert.Equal(t, 20, sum.TotalTicketsSold)
	assert.Equal(t, 5, sum.TotalBookings)
	assert.Equal(t, "2000.00", sum.TotalRevenue.StringFixed(2))
	assert.Equal(t, "100.00", sum.AverageTicketPrice.StringFixed(2))

	require.Len(t, sum.TopEvents, 5)
	ids := make([]int64, 0, 5)
	for _, te := range sum.TopEvents {
		ids = append(ids, te.ID)
	}
	assert.Equal(t, []int64{7, 3, 5, 2, 1}, ids)
	assert.Equal(t, "900.00", sum.TopEvents[0].Revenue.StringFixed(2))
}
