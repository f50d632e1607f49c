package invoices

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-travel/voyager/internal/queries"
	"github.com/voyager-travel/voyager/internal/shared"
)

type memoryInvoiceRepo struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	invoices  map[int64]Invoice
	numbers   map[string]bool
	sequences map[string]int
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{invoices: make(map[int64]Invoice), numbers: make(map[string]bool), sequences: make(map[string]int)}
}

func (r *memoryInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	saved := maps.Clone(r.sequences)
	r.mu.Unlock()
	if err := fn(ctx, memoryTx{r}); err != nil {
		r.mu.Lock()
		r.sequences = saved
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memoryInvoiceRepo) SyncSequence(ctx context.Context, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := shared.ScopeInvoice + "-" + day.Format("20060102") + "-"
	key := shared.ScopeInvoice + day.Format("20060102")
	for number := range r.numbers {
		if !strings.HasPrefix(number, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(number, prefix)); err == nil && n > r.sequences[key] {
			r.sequences[key] = n
		}
	}
	return nil
}

func (r *memoryInvoiceRepo) Get(ctx context.Context, id int64) (Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.NotFound("invoice", id)
	}
	return inv, nil
}

func (r *memoryInvoiceRepo) List(ctx context.Context, req ListRequest) ([]Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (r *memoryInvoiceRepo) UpdateStatus(ctx context.Context, id int64, from, to Status, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := r.invoices[id]
	if inv.Status != from {
		return fmt.Errorf("invoice %d status changed concurrently: %w", id, shared.ErrConflict)
	}
	inv.Status = to
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	r.invoices[id] = inv
	return nil
}

type memoryTx struct{ r *memoryInvoiceRepo }

func (t memoryTx) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	key := scope + day.Format("20060102")
	t.r.sequences[key]++
	return t.r.sequences[key], nil
}

func (t memoryTx) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if t.r.numbers[inv.InvoiceNumber] {
		return Invoice{}, fmt.Errorf("invoice number %s already taken: %w", inv.InvoiceNumber, shared.ErrConflict)
	}
	inv.ID = int64(len(t.r.invoices) + 1)
	t.r.numbers[inv.InvoiceNumber] = true
	t.r.invoices[inv.ID] = inv
	return inv, nil
}

type stubTotals map[int64]queries.Totals

func (s stubTotals) Totals(ctx context.Context, id int64) (queries.Totals, error) {
	t, ok := s[id]
	if !ok {
		return queries.Totals{}, shared.NotFound("query", id)
	}
	return t, nil
}

func newTestService(repo *memoryInvoiceRepo) *Service {
	totals := stubTotals{
		1: queries.ComputeTotals(queries.LineSums{Purchase: decimal.NewFromInt(223500), Selling: decimal.NewFromInt(298000), Count: 1}, 2),
		2: queries.ComputeTotals(queries.LineSums{}, 1),
	}
	svc := NewService(repo, totals, time.UTC, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestIssueSnapshotsSellingTotal(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo)

	inv, err := svc.Issue(context.Background(), IssueRequest{QueryID: 1, DueDays: 7})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240401-001", inv.InvoiceNumber)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(298000)))
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, time.Date(2024, 4, 8, 9, 0, 0, 0, time.UTC), inv.DueAt)

	second, err := svc.Issue(context.Background(), IssueRequest{QueryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240401-002", second.InvoiceNumber)
}

func TestIssueRejectsEmptyQuery(t *testing.T) {
	svc := newTestService(newMemoryInvoiceRepo())
	_, err := svc.Issue(context.Background(), IssueRequest{QueryID: 2})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Issue(context.Background(), IssueRequest{QueryID: 77})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestIssueRetriesOnNumberConflict(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	repo.numbers["INV-20240401-001"] = true
	repo.numbers["INV-20240401-002"] = true
	svc := newTestService(repo)

	inv, err := svc.Issue(context.Background(), IssueRequest{QueryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240401-003", inv.InvoiceNumber)

	next, err := svc.Issue(context.Background(), IssueRequest{QueryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240401-004", next.InvoiceNumber)
}

func TestIssueSkipsPastImportedNumbers(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	for i := 1; i <= 5; i++ {
		repo.numbers[fmt.Sprintf("INV-20240401-%03d", i)] = true
	}
	svc := newTestService(repo)

	inv, err := svc.Issue(context.Background(), IssueRequest{QueryID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INV-20240401-006", inv.InvoiceNumber)
	assert.Equal(t, 6, repo.sequences["INV20240401"])
}

func TestInvoiceLifecycle(t *testing.T) {
	repo := newMemoryInvoiceRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.Issue(ctx, IssueRequest{QueryID: 1})
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	sent, err := svc.MarkSent(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	paid, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Cancel(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCanMove(t *testing.T) {
	assert.True(t, CanMove(StatusDraft, StatusCancelled))
	assert.True(t, CanMove(StatusSent, StatusCancelled))
	assert.False(t, CanMove(StatusPaid, StatusCancelled))
	assert.False(t, CanMove(StatusCancelled, StatusDraft))
}
