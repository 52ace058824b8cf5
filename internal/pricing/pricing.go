// Package pricing turns an event's current state into a per-ticket price.
//
// The engine combines three step-function adjustments (time to event, recent
// demand and remaining inventory) with fixed process-wide weights, applies the
// result to the base price and clamps it into [minPrice, maxPrice]. It holds
// no mutable state and is safe for concurrent use; its output is only valid
// for the instant it was computed.
package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/clock"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

// DemandWindow is the trailing window used for the demand signal.
const DemandWindow = 60 * time.Minute

// DemandSource counts bookings for an event created at or after since.
type DemandSource interface {
	CountSince(ctx context.Context, eventID int64, since time.Time) (int, error)
}

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type step struct {
	limit decimal.Decimal
	adj   decimal.Decimal
}

// Inventory steps are evaluated in order against the remaining fraction.
var inventorySteps = []step{
	{d("0.10"), d("0.40")},
	{d("0.20"), d("0.25")},
	{d("0.50"), d("0.15")},
}

// Engine prices events.
type Engine struct {
	weights config.Weights
	demand  DemandSource
	clock   clock.Clock
}

// NewEngine builds an Engine with fixed weights.
func NewEngine(weights config.Weights, demand DemandSource, clk clock.Clock) *Engine {
	return &Engine{weights: weights, demand: demand, clock: clk}
}

// Weights returns the configured weights.
func (e *Engine) Weights() config.Weights {
	return e.weights
}

// Price reads the demand signal for the event and computes its breakdown at
// the current instant. The event's PricingRules are not consulted.
func (e *Engine) Price(ctx context.Context, event model.Event) (model.PricingBreakdown, error) {
	now := e.clock.Now()
	count, err := e.demand.CountSince(ctx, event.ID, now.Add(-DemandWindow))
	if err != nil {
		return model.PricingBreakdown{}, fmt.Errorf("count recent bookings: %w", err)
	}
	return Compute(event, count, now, e.weights), nil
}

// Compute is the pure pricing function. Given the same event snapshot,
// demand count, instant and weights it always returns the same breakdown.
func Compute(event model.Event, recentBookings int, now time.Time, w config.Weights) model.PricingBreakdown {
	adj := model.Adjustments{
		Time:      TimeAdjustment(event.Date, now),
		Demand:    DemandAdjustment(recentBookings),
		Inventory: InventoryAdjustment(event.TotalTickets, event.BookedTickets),
	}

	combined := adj.Time.Mul(decimal.NewFromFloat(w.Time)).
		Add(adj.Demand.Mul(decimal.NewFromFloat(w.Demand))).
		Add(adj.Inventory.Mul(decimal.NewFromFloat(w.Inventory)))

	unit := event.BasePrice.Mul(one.Add(combined))

	b := model.PricingBreakdown{
		BasePrice:   event.BasePrice,
		Adjustments: adj,
	}
	switch {
	case unit.LessThan(event.MinPrice):
		unit = event.MinPrice
		b.AppliedFloor = true
	case unit.GreaterThan(event.MaxPrice):
		unit = event.MaxPrice
		b.AppliedCeiling = true
	}

	b.UnitPrice = unit
	b.FinalPrice = unit.Round(2)
	return b
}

// Total returns the price of quantity tickets, rounded once to the cent.
// It multiplies the unrounded UnitPrice, so b must come from Compute or a
// source that preserves it.
func Total(b model.PricingBreakdown, quantity int) decimal.Decimal {
	return b.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// DaysUntil returns ceil((eventDate - now) / 24h).
func DaysUntil(eventDate, now time.Time) int {
	return int(math.Ceil(eventDate.Sub(now).Hours() / 24))
}

// TimeAdjustment raises prices as the event approaches.
func TimeAdjustment(eventDate, now time.Time) decimal.Decimal {
	days := DaysUntil(eventDate, now)
	switch {
	case days < 0:
		return zero
	case days <= 1:
		return d("0.50")
	case days <= 3:
		return d("0.30")
	case days <= 7:
		return d("0.20")
	case days <= 14:
		return d("0.10")
	default:
		return zero
	}
}

// InventoryAdjustment raises prices as inventory runs out. A sold-out or
// zero-capacity event gets no adjustment.
func InventoryAdjustment(total, booked int) decimal.Decimal {
	if total <= 0 {
		return zero
	}
	remaining := decimal.NewFromInt(int64(total - booked)).Div(decimal.NewFromInt(int64(total)))
	if !remaining.IsPositive() {
		return zero
	}
	for _, s := range inventorySteps {
		if remaining.LessThanOrEqual(s.limit) {
			return s.adj
		}
	}
	return zero
}

// DemandAdjustment raises prices with the number of bookings in the trailing window.
func DemandAdjustment(recentBookings int) decimal.Decimal {
	switch {
	case recentBookings >= 15:
		return d("0.50")
	case recentBookings >= 10:
		return d("0.35")
	case recentBookings >= 5:
		return d("0.20")
	case recentBookings >= 3:
		return d("0.10")
	default:
		return zero
	}
}
