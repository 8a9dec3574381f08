package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ginjaninja78/order-reports/internal/config"
	"github.com/ginjaninja78/order-reports/internal/orders"
	"github.com/ginjaninja78/order-reports/internal/reports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memorySource struct {
	entries []orders.Entry
	err     error
	last    orders.Filter
}

func (m *memorySource) QueryEntries(_ context.Context, filter orders.Filter) ([]orders.Entry, error) {
	m.last = filter
	if m.err != nil {
		return nil, m.err
	}
	return filter.Apply(m.entries), nil
}

func fixture() *memorySource {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }
	return &memorySource{entries: []orders.Entry{
		{OrderNumber: "R1", CompletedAt: day(1), Distributor: "Hub North", Supplier: "Green Farm",
			Product: "Apples", Variant: "1kg", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("3.50")},
		{OrderNumber: "R2", CompletedAt: day(4), Distributor: "Hub South", Supplier: "Dairy Co",
			Product: "Milk", Variant: "1L", Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("1200")},
	}}
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func newTestServer(src EntrySource) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(src, nil, reports.DefaultSettings(), testServerConfig(), logger)
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestServer(fixture()).Handler()

	rec := get(t, h, "/reports", "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var entries []indexEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, len(reports.Default().Names()))
	assert.Equal(t, reports.CategoryBulkCoop, entries[0].Category)
	assert.True(t, strings.HasPrefix(entries[0].URL, "/reports/"))

	rec = get(t, h, "/reports")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/reports/supplier_totals">Supplier Totals</a>`)
}

func TestReport(t *testing.T) {
	src := fixture()
	h := newTestServer(src).Handler()

	t.Run("html by default", func(t *testing.T) {
		rec := get(t, h, "/reports/supplier_totals")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "$1,200.00")
	})

	t.Run("csv with filter", func(t *testing.T) {
		rec := get(t, h, "/reports/supplier_totals?format=csv&distributor=hub+north&to=2024-03-01")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="supplier_totals.csv"`)

		body := rec.Body.String()
		assert.Contains(t, body, "Green Farm")
		assert.NotContains(t, body, "Dairy Co")
		assert.Equal(t, []string{"hub north"}, src.last.Distributors)
		assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC), src.last.To)
	})

	t.Run("unknown report", func(t *testing.T) {
		rec := get(t, h, "/reports/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad format", func(t *testing.T) {
		rec := get(t, h, "/reports/supplier_totals?format=pdf")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad filter", func(t *testing.T) {
		rec := get(t, h, "/reports/supplier_totals?from=yesterday")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = get(t, h, "/reports/supplier_totals?from=2024-03-05&to=2024-03-01")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReport_SourceFailureIsGeneric(t *testing.T) {
	src := &memorySource{err: errors.New("database is locked at /secret/path")}
	h := newTestServer(src).Handler()

	rec := get(t, h, "/reports/supplier_totals")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestReport_BuildFailure(t *testing.T) {
	src := &memorySource{entries: []orders.Entry{{Product: "no order number"}}}
	h := newTestServer(src).Handler()

	rec := get(t, h, "/reports/supplier_totals")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetrics(t *testing.T) {
	h := newTestServer(fixture()).Handler()

	get(t, h, "/reports/supplier_totals?format=csv")
	get(t, h, "/reports/supplier_totals?format=pdf")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `reports_built_total{format="csv",outcome="ok",report="supplier_totals"} 1`)
	assert.Contains(t, body, `reports_built_total{format="pdf",outcome="bad_request",report="supplier_totals"} 1`)
	assert.Contains(t, body, `report_build_duration_seconds_count{report="supplier_totals"} 1`)
	assert.Contains(t, body, `report_rows_sum{report="supplier_totals"} 2`)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"supplier": {"Green Farm, Dairy Co", "Hill"},
		"state":    {"complete"},
		"from":     {"2024-03-01T10:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Green Farm", "Dairy Co", "Hill"}, f.Suppliers)
	assert.Equal(t, []string{"complete"}, f.States)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), f.From)
	assert.True(t, f.To.IsZero())

	_, err = ParseFilter(url.Values{"from": {"2024-03-05"}, "to": {"2024-03-01"}})
	assert.ErrorIs(t, err, orders.ErrInvalidDateRange)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(fixture())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
