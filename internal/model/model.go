// Package model defines the core domain types for the dynamic-pricing ticketing system.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed occurrence with a finite inventory and its pricing configuration.
type Event struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Venue         string          `json:"venue"`
	Date          time.Time       `json:"date"`
	TotalTickets  int             `json:"total_tickets"`
	BookedTickets int             `json:"booked_tickets"`
	BasePrice     decimal.Decimal `json:"base_price"`
	MinPrice      decimal.Decimal `json:"min_price"`
	MaxPrice      decimal.Decimal `json:"max_price"`
	PricingRules  *PricingRules   `json:"pricing_rules,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Available returns the number of tickets that can still be booked.
func (e *Event) Available() int {
	return e.TotalTickets - e.BookedTickets
}

// IsSoldOut returns true when no tickets remain.
func (e *Event) IsSoldOut() bool {
	return e.BookedTickets >= e.TotalTickets
}

// PricingRules holds per-event weight overrides. They are stored with the
// event but the pricing engine uses the process-wide weights only.
type PricingRules struct {
	TimeBasedWeight      float64 `json:"timeBasedWeight"`
	DemandBasedWeight    float64 `json:"demandBasedWeight"`
	InventoryBasedWeight float64 `json:"inventoryBasedWeight"`
}

// Booking is an immutable record of tickets bought for one event at a frozen price.
type Booking struct {
	ID         int64           `json:"id"`
	Reference  string          `json:"reference"`
	EventID    int64           `json:"event_id"`
	UserEmail  string          `json:"user_email"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Adjustments are the dimensionless multipliers derived from the event state.
type Adjustments struct {
	Time      decimal.Decimal `json:"time"`
	Demand    decimal.Decimal `json:"demand"`
	Inventory decimal.Decimal `json:"inventory"`
}

// PricingBreakdown is a price quote. It is only valid for the instant it was
// computed and is never persisted.
type PricingBreakdown struct {
	BasePrice      decimal.Decimal `json:"base_price"`
	Adjustments    Adjustments     `json:"adjustments"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	AppliedFloor   bool            `json:"applied_floor"`
	AppliedCeiling bool            `json:"applied_ceiling"`

	// UnitPrice is the clamped price before rounding; booking totals are
	// derived from it so the quantity multiplication is rounded only once.
	// It is not part of the API response; the price cache stores it separately.
	UnitPrice decimal.Decimal `json:"-"`
}

// CreateEventRequest is the payload for inserting a new event.
type CreateEventRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Venue        string          `json:"venue" validate:"required,max=200"`
	Date         time.Time       `json:"date" validate:"required"`
	TotalTickets int             `json:"total_tickets" validate:"gte=0,lte=1000000"`
	BasePrice    decimal.Decimal `json:"base_price"`
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	PricingRules *PricingRules   `json:"pricing_rules,omitempty"`
}

// CreateBookingRequest is the payload for booking tickets.
type CreateBookingRequest struct {
	EventID   int64  `json:"event_id" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,basic_email"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// EventWithPrice is an event enriched with its advisory current price.
type EventWithPrice struct {
	Event
	CurrentPrice     decimal.Decimal `json:"current_price"`
	AvailableTickets int             `json:"available_tickets"`
}

// WeightedAdjustment pairs an adjustment with the weight applied to it.
type WeightedAdjustment struct {
	Value  decimal.Decimal `json:"value"`
	Weight float64         `json:"weight"`
}

// PriceDetail is the breakdown shown on an event detail page.
type PriceDetail struct {
	BasePrice   decimal.Decimal `json:"base_price"`
	Adjustments struct {
		Time      WeightedAdjustment `json:"time"`
		Demand    WeightedAdjustment `json:"demand"`
		Inventory WeightedAdjustment `json:"inventory"`
	} `json:"adjustments"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	AppliedFloor   bool            `json:"applied_floor"`
	AppliedCeiling bool            `json:"applied_ceiling"`
}

// EventDetail is a single event with its full price breakdown.
type EventDetail struct {
	EventWithPrice
	PriceBreakdown PriceDetail `json:"price_breakdown"`
}

// EventAnalytics summarises sales for one event.
type EventAnalytics struct {
	EventID          int64           `json:"event_id"`
	EventName        string          `json:"event_name"`
	TotalTickets     int             `json:"total_tickets"`
	TotalSold        int             `json:"total_sold"`
	RemainingTickets int             `json:"remaining_tickets"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AveragePrice     decimal.Decimal `json:"average_price"`
	BookingCount     int             `json:"booking_count"`
}

// TopEvent is one row of the best-selling events list.
type TopEvent struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	TicketsSold int             `json:"tickets_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SystemSummary aggregates sales across all events.
type SystemSummary struct {
	TotalEvents        int             `json:"total_events"`
	TotalTicketsSold   int             `json:"total_tickets_sold"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalBookings      int             `json:"total_bookings"`
	AverageTicketPrice decimal.Decimal `json:"average_ticket_price"`
	TopEvents          []TopEvent      `json:"top_events"`
}

// EventSales is the per-event rollup read from the booking history.
type EventSales struct {
	EventID      int64
	BookingCount int
	TicketsSold  int
	Revenue      decimal.Decimal
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Remaining *int   `json:"remaining,omitempty"`
}
