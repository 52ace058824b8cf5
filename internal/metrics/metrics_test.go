package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackBooking(t *testing.T) {
	before := testutil.ToFloat64(bookingAttempts.WithLabelValues(OutcomeInsufficient))
	TrackBooking(OutcomeInsufficient, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingAttempts.WithLabelValues(OutcomeInsufficient)))
}

func TestTrackQuoteAndNotify(t *testing.T) {
	before := testutil.ToFloat64(priceQuotes.WithLabelValues("cache"))
	TrackQuote("cache")
	TrackQuote("cache")
	assert.Equal(t, before+2, testutil.ToFloat64(priceQuotes.WithLabelValues("cache")))

	beforeNotify := testutil.ToFloat64(notifyFailures.WithLabelValues("broker"))
	TrackNotifyFailure("broker")
	assert.Equal(t, beforeNotify+1, testutil.ToFloat64(notifyFailures.WithLabelValues("broker")))
}

func TestTrackLockWait(t *testing.T) {
	TrackLockWait(2 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(lockWait))
}
