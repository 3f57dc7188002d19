package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/creditledger/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.CreditsApplied == nil || m.HTTPRequests == nil || m.Ledgers == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.SetLedgers(3)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	New(registry)
}

func TestRecordCredit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCredit(domain.CategoryCash, "applied", decimal.NewFromInt(25))
	m.RecordCredit(domain.CategoryCash, "applied", decimal.NewFromInt(5))
	m.RecordCredit(domain.CategoryCash, "duplicate", decimal.NewFromInt(5))

	if got := testutil.ToFloat64(m.CreditsApplied.WithLabelValues("CASH", "applied")); got != 2 {
		t.Fatalf("expected 2 applied credits, got %v", got)
	}
	if got := testutil.ToFloat64(m.CreditsApplied.WithLabelValues("CASH", "duplicate")); got != 1 {
		t.Fatalf("expected 1 duplicate credit, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CreditAmount); got != 1 {
		t.Fatalf("expected one credit amount series, got %d", got)
	}
}

func TestRecordDebit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDebit("applied", 3, decimal.NewFromInt(35))
	m.RecordDebit("rejected", 0, decimal.NewFromInt(100))

	if got := testutil.ToFloat64(m.DebitsApplied.WithLabelValues("applied")); got != 1 {
		t.Fatalf("expected 1 applied debit, got %v", got)
	}
	if got := testutil.ToFloat64(m.DebitsApplied.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("expected 1 rejected debit, got %v", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetLedgers(7)
	m.ObserveOperation("credit", 5*time.Millisecond)
	m.RecordEvent("credit.applied", "ok")
	m.RecordRedis("setnx", nil)
	m.RecordRedis("setnx", errors.New("boom"))

	if got := testutil.ToFloat64(m.Ledgers); got != 7 {
		t.Fatalf("expected ledgers gauge 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("credit.applied", "ok")); got != 1 {
		t.Fatalf("expected 1 published event, got %v", got)
	}
	if got := testutil.ToFloat64(m.RedisOperations.WithLabelValues("setnx")); got != 2 {
		t.Fatalf("expected 2 redis operations, got %v", got)
	}
	if got := testutil.ToFloat64(m.RedisErrors.WithLabelValues("setnx")); got != 1 {
		t.Fatalf("expected 1 redis error, got %v", got)
	}
}

func TestHTTPAuthAndRateLimit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("POST", "/api/v1/customers/{customerID}/credit", 201, 3*time.Millisecond)
	m.RecordAuthFailure("expired")
	m.RecordRateLimited()
	m.RecordRateLimited()

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/customers/{customerID}/credit", "201")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.AuthFailures.WithLabelValues("expired")); got != 1 {
		t.Fatalf("expected 1 auth failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.RateLimitHits); got != 2 {
		t.Fatalf("expected 2 rate limit hits, got %v", got)
	}
}
