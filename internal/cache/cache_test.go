package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

func setupTestCache() (*PriceCache, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPriceCache(db, 15*time.Second, logger), mock
}

func sampleBreakdown() model.PricingBreakdown {
	return model.PricingBreakdown{
		BasePrice: decimal.RequireFromString("100"),
		Adjustments: model.Adjustments{
			Time:      decimal.RequireFromString("0.5"),
			Demand:    decimal.Zero,
			Inventory: decimal.RequireFromString("0.4"),
		},
		FinalPrice: decimal.RequireFromString("127"),
		UnitPrice:  decimal.RequireFromString("126.995"),
	}
}

func TestQuoteKey(t *testing.T) {
	assert.Equal(t, "pricing:7:42", QuoteKey(7, 42))
}

func TestPriceCache_GetQuoteMiss(t *testing.T) {
	c, mock := setupTestCache()
	mock.ExpectGet("pricing:7:3").RedisNil()

	_, ok := c.GetQuote(context.Background(), model.Event{ID: 7, BookedTickets: 3})

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceCache_GetQuoteHit(t *testing.T) {
	c, mock := setupTestCache()
	payload, err := encodeQuote(sampleBreakdown())
	require.NoError(t, err)
	mock.ExpectGet("pricing:7:3").SetVal(string(payload))

	b, ok := c.GetQuote(context.Background(), model.Event{ID: 7, BookedTickets: 3})

	require.True(t, ok)
	assert.True(t, b.FinalPrice.Equal(decimal.RequireFromString("127")))
	assert.True(t, b.UnitPrice.Equal(decimal.RequireFromString("126.995")))
	assert.True(t, b.Adjustments.Inventory.Equal(decimal.RequireFromString("0.4")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceCache_EntryWithoutUnitPriceIsMiss(t *testing.T) {
	c, mock := setupTestCache()
	payload, err := json.Marshal(sampleBreakdown())
	require.NoError(t, err)
	require.NotContains(t, string(payload), "unit_price")
	mock.ExpectGet("pricing:7:3").SetVal(string(payload))

	_, ok := c.GetQuote(context.Background(), model.Event{ID: 7, BookedTickets: 3})

	assert.False(t, ok)
}

func TestPriceCache_GetQuoteErrorIsMiss(t *testing.T) {
	c, mock := setupTestCache()
	mock.ExpectGet("pricing:7:3").SetErr(errors.New("connection refused"))

	_, ok := c.GetQuote(context.Background(), model.Event{ID: 7, BookedTickets: 3})

	assert.False(t, ok)
}

func TestPriceCache_SetQuote(t *testing.T) {
	c, mock := setupTestCache()
	b := sampleBreakdown()
	payload, err := encodeQuote(b)
	require.NoError(t, err)
	mock.ExpectSet("pricing:7:3", string(payload), 15*time.Second).SetVal("OK")

	c.SetQuote(context.Background(), model.Event{ID: 7, BookedTickets: 3}, b)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceCache_InvalidateEvent(t *testing.T) {
	c, mock := setupTestCache()
	mock.ExpectScan(0, "pricing:7:*", scanBatch).SetVal([]string{"pricing:7:1"}, 12)
	mock.ExpectScan(12, "pricing:7:*", scanBatch).SetVal([]string{"pricing:7:2"}, 0)
	mock.ExpectDel("pricing:7:1", "pricing:7:2").SetVal(2)

	err := c.InvalidateEvent(context.Background(), 7)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceCache_InvalidateEventNoKeys(t *testing.T) {
	c, mock := setupTestCache()
	mock.ExpectScan(0, "pricing:9:*", scanBatch).SetVal(nil, 0)

	assert.NoError(t, c.InvalidateEvent(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceCache_InvalidateEventScanError(t *testing.T) {
	c, mock := setupTestCache()
	mock.ExpectScan(0, "pricing:7:*", scanBatch).SetErr(errors.New("READONLY"))

	err := c.InvalidateEvent(context.Background(), 7)

	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var n Nop
	_, ok := n.GetQuote(context.Background(), model.Event{ID: 1})
	assert.False(t, ok)
	assert.NoError(t, n.InvalidateEvent(context.Background(), 1))
}
