package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }

func amt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestBuildScenarioPurchaseThenPayment(t *testing.T) {
	purchases := []Purchase{{LineID: 1, ServiceDate: datePtr(day(2025, 1, 1)), CreatedAt: day(2024, 12, 20), AmountBase: amt(100000)}}
	payments := []Payment{{ID: 1, Amount: amt(40000), PaymentDate: day(2025, 1, 5), CreatedAt: day(2025, 1, 5)}}

	l := Build(purchases, payments)

	chrono := l.Chronological()
	require.Len(t, chrono, 2)
	assert.Equal(t, EntryPurchase, chrono[0].Type)
	assert.True(t, chrono[0].RunningBalance.Equal(amt(100000)))
	assert.Equal(t, EntryPayment, chrono[1].Type)
	assert.True(t, chrono[1].RunningBalance.Equal(amt(60000)))
	assert.True(t, l.Summary.CurrentBalance.Equal(amt(60000)))
	assert.Equal(t, 2, l.Summary.TransactionCount)

	// presentation order is newest first with balances untouched
	assert.Equal(t, EntryPayment, l.Entries[0].Type)
	assert.True(t, l.Entries[0].RunningBalance.Equal(amt(60000)))
}

func TestBuildFallsBackToCreationDate(t *testing.T) {
	created := time.Date(2025, 2, 10, 15, 30, 0, 0, time.UTC)
	l := Build([]Purchase{{LineID: 9, CreatedAt: created, AmountBase: amt(10)}}, nil)
	require.Len(t, l.Entries, 1)
	assert.Equal(t, day(2025, 2, 10), l.Entries[0].Date)
}

func TestBuildSameDayTieBreak(t *testing.T) {
	d := day(2025, 3, 1)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	purchases := []Purchase{
		{LineID: 2, ServiceDate: datePtr(d), CreatedAt: base.Add(time.Hour), AmountBase: amt(50)},
		{LineID: 1, ServiceDate: datePtr(d), CreatedAt: base, AmountBase: amt(100)},
	}
	payments := []Payment{
		{ID: 7, Amount: amt(30), PaymentDate: d, CreatedAt: base},
	}

	chrono := Build(purchases, payments).Chronological()
	require.Len(t, chrono, 3)
	// same creation instant: purchase before payment
	assert.Equal(t, int64(1), chrono[0].SourceID)
	assert.Equal(t, EntryPurchase, chrono[0].Type)
	assert.Equal(t, int64(7), chrono[1].SourceID)
	assert.Equal(t, int64(2), chrono[2].SourceID)
	assert.Equal(t, []string{"100", "70", "120"}, []string{
		chrono[0].RunningBalance.String(), chrono[1].RunningBalance.String(), chrono[2].RunningBalance.String(),
	})
}

func randomSources(r *rand.Rand) ([]Purchase, []Payment) {
	var purchases []Purchase
	var payments []Payment
	for i := 0; i < 1+r.Intn(12); i++ {
		p := Purchase{
			LineID:     int64(i + 1),
			CreatedAt:  day(2025, 1, 1).Add(time.Duration(r.Intn(1000)) * time.Minute),
			AmountBase: decimal.New(int64(r.Intn(1_000_000)), -2),
		}
		if r.Intn(2) == 0 {
			p.ServiceDate = datePtr(day(2025, 1, 1+r.Intn(20)))
		}
		purchases = append(purchases, p)
	}
	for i := 0; i < r.Intn(8); i++ {
		payments = append(payments, Payment{
			ID:          int64(i + 1),
			Amount:      decimal.New(int64(r.Intn(500_000)), -2),
			PaymentDate: day(2025, 1, 1+r.Intn(20)),
			CreatedAt:   day(2025, 1, 1).Add(time.Duration(r.Intn(1000)) * time.Minute),
		})
	}
	return purchases, payments
}

func TestBuildBalanceEquivalenceIndependentOfOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		purchases, payments := randomSources(r)

		want := decimal.Zero
		for _, p := range purchases {
			want = want.Add(p.AmountBase)
		}
		for _, p := range payments {
			want = want.Sub(p.Amount)
		}

		first := Build(purchases, payments)
		assert.True(t, first.Summary.CurrentBalance.Equal(want), "round %d", round)

		r.Shuffle(len(purchases), func(i, j int) { purchases[i], purchases[j] = purchases[j], purchases[i] })
		r.Shuffle(len(payments), func(i, j int) { payments[i], payments[j] = payments[j], payments[i] })
		second := Build(purchases, payments)
		assert.True(t, second.Summary.CurrentBalance.Equal(want), "round %d shuffled", round)
		require.Equal(t, len(first.Entries), len(second.Entries))
		for i := range first.Entries {
			assert.Equal(t, first.Entries[i].SourceID, second.Entries[i].SourceID)
			assert.Equal(t, first.Entries[i].Type, second.Entries[i].Type)
		}
	}
}

func TestBuildRunningBalanceRecurrence(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		purchases, payments := randomSources(r)
		l := Build(purchases, payments)
		chrono := l.Chronological()
		prev := decimal.Zero
		for i, e := range chrono {
			assert.True(t, e.RunningBalance.Equal(prev.Add(e.Debit).Sub(e.Credit)), "round %d entry %d", round, i)
			if i > 0 {
				assert.False(t, e.Date.Before(chrono[i-1].Date))
			}
			prev = e.RunningBalance
		}
		if len(chrono) > 0 {
			assert.True(t, chrono[len(chrono)-1].RunningBalance.Equal(l.Summary.CurrentBalance))
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	l := Build(nil, nil)
	assert.Empty(t, l.Entries)
	assert.True(t, l.Summary.CurrentBalance.IsZero())
	assert.Equal(t, 0, l.Summary.TransactionCount)
}
