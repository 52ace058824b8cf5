package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

// EventCatalog reads and inserts events.
type EventCatalog interface {
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id int64) (*model.Event, error)
}

// QuoteCache holds advisory price quotes.
type QuoteCache interface {
	GetQuote(ctx context.Context, event model.Event) (model.PricingBreakdown, bool)
	SetQuote(ctx context.Context, event model.Event, b model.PricingBreakdown)
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// EventService serves the event catalogue with advisory prices. Quotes
// returned here may be stale the moment they are returned; the booking
// coordinator always reprices under the event lock.
type EventService struct {
	logger   *logrus.Logger
	events   EventCatalog
	pricer   Pricer
	cache    QuoteCache
	weights  config.Weights
	validate *validator.Validate
}

// NewEventService constructs an EventService.
func NewEventService(logger *logrus.Logger, events EventCatalog, pricer Pricer, cache QuoteCache, weights config.Weights) *EventService {
	return &EventService{
		logger:   logger,
		events:   events,
		pricer:   pricer,
		cache:    cache,
		weights:  weights,
		validate: newValidator(),
	}
}

// CreateEvent validates the request and inserts the event.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	switch {
	case req.BasePrice.IsNegative():
		return nil, &ValidationError{Field: "base_price", Reason: "must not be negative"}
	case req.MinPrice.IsNegative():
		return nil, &ValidationError{Field: "min_price", Reason: "must not be negative"}
	case req.MaxPrice.LessThan(req.MinPrice):
		return nil, &ValidationError{Field: "max_price", Reason: "must not be below min_price"}
	}

	event, err := s.events.Create(ctx, req)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("create event failed")
		return nil, persistence("create event", err)
	}
	s.logger.WithContext(ctx).WithField("event_id", event.ID).Info("event created")
	return event, nil
}

// ListEvents returns every event with its current advisory price. An event
// whose price cannot be computed is listed at its base price.
func (s *EventService) ListEvents(ctx context.Context) ([]model.EventWithPrice, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("list events failed")
		return nil, persistence("list events", err)
	}

	out := make([]model.EventWithPrice, 0, len(events))
	for _, e := range events {
		price := e.BasePrice
		if quote, err := s.Quote(ctx, e); err == nil {
			price = quote.FinalPrice
		} else {
			s.logger.WithContext(ctx).WithError(err).WithField("event_id", e.ID).Warn("pricing failed, using base price")
		}
		out = append(out, model.EventWithPrice{Event: e, CurrentPrice: price, AvailableTickets: e.Available()})
	}
	return out, nil
}

// GetEvent returns one event with its full price breakdown.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*model.EventDetail, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	quote, err := s.Quote(ctx, *event)
	if err != nil {
		return nil, err
	}

	detail := &model.EventDetail{
		EventWithPrice: model.EventWithPrice{
			Event:            *event,
			CurrentPrice:     quote.FinalPrice,
			AvailableTickets: event.Available(),
		},
	}
	pd := &detail.PriceBreakdown
	pd.BasePrice = quote.BasePrice
	pd.Adjustments.Time = model.WeightedAdjustment{Value: quote.Adjustments.Time, Weight: s.weights.Time}
	pd.Adjustments.Demand = model.WeightedAdjustment{Value: quote.Adjustments.Demand, Weight: s.weights.Demand}
	pd.Adjustments.Inventory = model.WeightedAdjustment{Value: quote.Adjustments.Inventory, Weight: s.weights.Inventory}
	pd.FinalPrice = quote.FinalPrice
	pd.AppliedFloor = quote.AppliedFloor
	pd.AppliedCeiling = quote.AppliedCeiling
	return detail, nil
}

// PriceEventByID loads an event and prices it without consulting the cache.
func (s *EventService) PriceEventByID(ctx context.Context, id int64) (model.PricingBreakdown, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return model.PricingBreakdown{}, err
	}
	return s.PriceEvent(ctx, *event)
}

// PriceEvent computes a fresh breakdown for the event.
func (s *EventService) PriceEvent(ctx context.Context, event model.Event) (model.PricingBreakdown, error) {
	b, err := s.pricer.Price(ctx, event)
	if err != nil {
		return model.PricingBreakdown{}, persistence("price event", err)
	}
	return b, nil
}

// Quote returns a cached breakdown when one exists for the event's current
// booked count, computing and caching it otherwise.
func (s *EventService) Quote(ctx context.Context, event model.Event) (model.PricingBreakdown, error) {
	if b, ok := s.cache.GetQuote(ctx, event); ok {
		metrics.TrackQuote("cache")
		return b, nil
	}
	b, err := s.PriceEvent(ctx, event)
	if err != nil {
		return model.PricingBreakdown{}, err
	}
	metrics.TrackQuote("engine")
	s.cache.SetQuote(ctx, event, b)
	return b, nil
}

func (s *EventService) getEvent(ctx context.Context, id int64) (*model.Event, error) {
	if id <= 0 {
		return nil, &ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(id)
		}
		s.logger.WithContext(ctx).WithError(err).WithField("event_id", id).Error("get event failed")
		return nil, persistence("get event", err)
	}
	return event, nil
}
