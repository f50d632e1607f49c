package perf

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voyager-travel/voyager/internal/ledger"
)

// syntheticHistory mimics a busy hotel vendor: a few thousand lines and
// weekly settlements over two years.
func syntheticHistory(lines, payments int) ([]ledger.Purchase, []ledger.Payment) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ps := make([]ledger.Purchase, lines)
	for i := range ps {
		day := start.AddDate(0, 0, i%730)
		ps[i] = ledger.Purchase{
			LineID:      int64(i + 1),
			QueryID:     int64(i/4 + 1),
			QueryNumber: "QRY-20230101-001",
			ServiceType: "Hotel",
			Description: "3 nights",
			ServiceDate: &day,
			CreatedAt:   day.Add(time.Duration(i) * time.Second),
			AmountBase:  decimal.NewFromInt(int64(10000 + i%500)),
			SellingBase: decimal.NewFromInt(int64(12000 + i%500)),
		}
	}
	pays := make([]ledger.Payment, payments)
	for i := range pays {
		day := start.AddDate(0, 0, (i*7)%730)
		pays[i] = ledger.Payment{
			ID:          int64(i + 1),
			Amount:      decimal.NewFromInt(25000),
			Method:      "Bank Transfer",
			PaymentDate: day,
			CreatedAt:   day,
		}
	}
	return ps, pays
}

func BenchmarkLedgerBuild(b *testing.B) {
	ps, pays := syntheticHistory(5000, 500)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ledger.Build(ps, pays)
	}
}

func TestLedgerBuildLatencyBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("latency budget skipped in short mode")
	}
	ps, pays := syntheticHistory(5000, 500)

	samples := make([]time.Duration, 0, 10)
	var l ledger.Ledger
	for i := 0; i < 10; i++ {
		start := time.Now()
		l = ledger.Build(ps, pays)
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 500*time.Millisecond {
		t.Fatalf("ledger build regression: p95=%s", p95)
	}

	if got := l.Summary.TransactionCount; got != 5500 {
		t.Fatalf("expected 5500 entries, got %d", got)
	}
	want := l.Summary.TotalPurchases.Sub(l.Summary.TotalPayments)
	if !l.Summary.CurrentBalance.Equal(want) {
		t.Fatalf("balance %s != purchases - payments %s", l.Summary.CurrentBalance, want)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
