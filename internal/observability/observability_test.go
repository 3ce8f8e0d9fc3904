package observability

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.IncAggregateConflict("op")
	m.IncAggregateRetry("op")
	m.IncLogin("success")
	m.ObserveOrderPlaced(3)
	m.IncEmail("order_placed", "sent")
	if m.Registry() != nil {
		t.Fatalf("nil metrics must have nil registry")
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 503 {
		t.Fatalf("nil handler: want 503 got %d", rec.Code)
	}
}

func TestMetricsRecordAndExpose(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/products", "200", 20*time.Millisecond)
	m.ObserveAPI("GET", "/api/products", "200", 30*time.Millisecond)
	m.IncAggregateConflict("Shop.Order.PlaceOrder")
	m.IncLogin("rate_limited")
	m.ObserveOrderPlaced(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		"pawclinic_http_requests_total{method=\"GET\",route=\"/api/products\",status=\"200\"} 2",
		"pawclinic_aggregate_conflicts_total{operation=\"Shop.Order.PlaceOrder\"} 1",
		"pawclinic_shop_order_units_total 4",
		"pawclinic_auth_login_attempts_total{outcome=\"rate_limited\"} 1",
		"pawclinic_shop_orders_placed_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if shutdown == nil {
		t.Fatalf("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestParseHeadersAndClamp(t *testing.T) {
	h := parseHeaders(" a=1, b = 2 ,bad, =x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("unexpected headers: %v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers must be nil")
	}
	if clampRatio(-1) != 0 || clampRatio(2) != 1 || clampRatio(0.25) != 0.25 {
		t.Fatalf("clampRatio misbehaves")
	}
}

func TestInitOTelWithoutEndpointInstallsProvider(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: true, SamplerRatio: 1})
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	_, span := otel.Tracer("test").Start(context.Background(), "checkout")
	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a recording span from the sdk provider")
	}
	span.End()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
