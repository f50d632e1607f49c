package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-travel/voyager/internal/platform/cache"
)

type stubRepo struct {
	calls   atomic.Int32
	failOn  string
	pending []PendingVendor
}

func (s *stubRepo) QueryStatusCounts(ctx context.Context) ([]StatusCount, error) {
	s.calls.Add(1)
	if s.failOn == "queries" {
		return nil, errors.New("boom")
	}
	return []StatusCount{{Status: "New", Count: 3}, {Status: "Booking Confirmed", Count: 1}}, nil
}

func (s *stubRepo) LineTotals(ctx context.Context) (LineTotals, error) {
	return LineTotals{
		Lines:    2,
		Purchase: decimal.NewFromInt(223500),
		Selling:  decimal.NewFromInt(298000),
		Profit:   decimal.NewFromInt(74500),
	}, nil
}

func (s *stubRepo) InvoiceBuckets(ctx context.Context) ([]InvoiceBucket, error) {
	return nil, nil
}

func (s *stubRepo) VendorSummary(ctx context.Context, top int) (VendorSummary, error) {
	return VendorSummary{Active: 4, TotalPending: decimal.NewFromInt(1000), TopPending: s.pending}, nil
}

func newCache(t *testing.T) *cache.Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewVersioned(client, "dashboard", time.Minute)
}

func TestOverviewCachesUntilBump(t *testing.T) {
	repo := &stubRepo{pending: []PendingVendor{{ID: 2, Name: "Makkah Towers", TotalPending: decimal.NewFromInt(1000)}}}
	c := newCache(t)
	svc := NewService(repo, c, nil)
	ctx := context.Background()

	first, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Queries, 2)
	assert.True(t, first.Totals.Profit.Equal(decimal.NewFromInt(74500)))
	assert.Equal(t, 4, first.Vendors.Active)
	require.Len(t, first.Vendors.TopPending, 1)
	assert.NotNil(t, first.Invoices)

	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, repo.calls.Load())

	require.NoError(t, c.Bump(ctx))
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestOverviewPropagatesRepositoryError(t *testing.T) {
	svc := NewService(&stubRepo{failOn: "queries"}, newCache(t), nil)
	_, err := svc.Overview(context.Background())
	assert.Error(t, err)
}

func TestOverviewWithoutCache(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, nil)
	out, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out.Vendors.TopPending)
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, repo.calls.Load())
}

func TestOverviewHandler(t *testing.T) {
	svc := NewService(&stubRepo{}, newCache(t), nil)
	rec := httptest.NewRecorder()
	NewHandler(nil, svc).Overview(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool     `json:"success"`
		Data    Overview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Data.Totals.Lines)
}
