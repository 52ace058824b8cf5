package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

const topEventsLimit = 5

// SalesReader rolls up booking history per event.
type SalesReader interface {
	SalesByEvent(ctx context.Context) (map[int64]model.EventSales, error)
}

// AnalyticsService computes read-only sales rollups.
type AnalyticsService struct {
	logger *logrus.Logger
	events EventCatalog
	sales  SalesReader
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(logger *logrus.Logger, events EventCatalog, sales SalesReader) *AnalyticsService {
	return &AnalyticsService{logger: logger, events: events, sales: sales}
}

// EventAnalytics returns sales figures for one event.
func (s *AnalyticsService) EventAnalytics(ctx context.Context, id int64) (*model.EventAnalytics, error) {
	if id <= 0 {
		return nil, &ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, s.readErr(ctx, "get event", err, id)
	}
	sales, err := s.sales.SalesByEvent(ctx)
	if err != nil {
		return nil, s.readErr(ctx, "sales by event", err, id)
	}

	es := sales[id]
	return &model.EventAnalytics{
		EventID:          event.ID,
		EventName:        event.Name,
		TotalTickets:     event.TotalTickets,
		TotalSold:        event.BookedTickets,
		RemainingTickets: event.Available(),
		TotalRevenue:     es.Revenue.Round(2),
		AveragePrice:     average(es.Revenue, es.TicketsSold),
		BookingCount:     es.BookingCount,
	}, nil
}

// Summary aggregates sales over every event.
func (s *AnalyticsService) Summary(ctx context.Context) (*model.SystemSummary, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, s.readErr(ctx, "list events", err, 0)
	}
	sales, err := s.sales.SalesByEvent(ctx)
	if err != nil {
		return nil, s.readErr(ctx, "sales by event", err, 0)
	}

	sum := &model.SystemSummary{TotalEvents: len(events), TotalRevenue: decimal.Zero}
	for _, es := range sales {
		sum.TotalTicketsSold += es.TicketsSold
		sum.TotalBookings += es.BookingCount
		sum.TotalRevenue = sum.TotalRevenue.Add(es.Revenue)
	}
	sum.AverageTicketPrice = average(sum.TotalRevenue, sum.TotalTicketsSold)
	sum.TotalRevenue = sum.TotalRevenue.Round(2)

	top := make([]model.TopEvent, 0, len(events))
	for _, e := range events {
		top = append(top, model.TopEvent{
			ID:          e.ID,
			Name:        e.Name,
			TicketsSold: e.BookedTickets,
			Revenue:     sales[e.ID].Revenue.Round(2),
		})
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].TicketsSold != top[j].TicketsSold {
			return top[i].TicketsSold > top[j].TicketsSold
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > topEventsLimit {
		top = top[:topEventsLimit]
	}
	sum.TopEvents = top
	return sum, nil
}

func (s *AnalyticsService) readErr(ctx context.Context, op string, err error, id int64) error {
	if id > 0 && isNotFound(err) {
		return notFound(id)
	}
	s.logger.WithContext(ctx).WithError(err).Error(op + " failed")
	return persistence(op, err)
}

func average(revenue decimal.Decimal, tickets int) decimal.Decimal {
	if tickets <= 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(int64(tickets))).Round(2)
}
