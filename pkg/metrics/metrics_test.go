package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ewholloway/slackline/pkg/logger"
)

func newTestMetrics() *Metrics {
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "json", Output: &bytes.Buffer{}})
	return NewMetrics(log)
}

func TestAPIRequestCounters(t *testing.T) {
	m := newTestMetrics()

	m.IncrementAPIRequest("users.list")
	m.IncrementAPIRequest("users.list")
	m.IncrementAPIRequest("channels.history")

	assert.Equal(t, float64(3), testutil.ToFloat64(m.TotalAPIRequestsCounter))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.APIRequestCounters["users.list"]))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIRequestCounters["channels.history"]))
}

func TestAPIOutcomeCounters(t *testing.T) {
	m := newTestMetrics()

	m.IncrementAPIOutcome(OutcomeOK)
	m.IncrementAPIOutcome(OutcomeOK)
	m.IncrementAPIOutcome(OutcomeRemoteError)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.APIOutcomeCounters[OutcomeOK]))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.APIOutcomeCounters[OutcomeRemoteError]))
}

func TestCacheRefreshCounters(t *testing.T) {
	m := newTestMetrics()

	m.IncrementCacheRefresh("users")
	m.IncrementCacheRefresh("channels")
	m.IncrementCacheRefresh("channels")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheRefreshCounters["users"]))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheRefreshCounters["channels"]))
}

func TestMarkPushCounter(t *testing.T) {
	m := newTestMetrics()

	m.IncrementMarkPush()
	m.IncrementMarkPush()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.MarkPushCounter))
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := newTestMetrics()
	b := newTestMetrics()

	a.IncrementMarkPush()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.MarkPushCounter))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.MarkPushCounter))
}
