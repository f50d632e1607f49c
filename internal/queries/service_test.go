package queries

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-travel/voyager/internal/shared"
)

type memoryQueryRepo struct {
	txMu       sync.Mutex
	mu         sync.Mutex
	queries    map[int64]Query
	numbers    map[string]bool
	sequences  map[string]int
	passengers map[int64]Passenger
	sums       map[int64]LineSums
	nextID     int64

	// contended makes every insert lose to a concurrent writer.
	contended bool
}

func newMemoryQueryRepo() *memoryQueryRepo {
	return &memoryQueryRepo{
		queries:    make(map[int64]Query),
		numbers:    make(map[string]bool),
		sequences:  make(map[string]int),
		passengers: make(map[int64]Passenger),
		sums:       make(map[int64]LineSums),
		nextID:     1,
	}
}

// WithTx serialises transactions the way the row lock on document_sequences does.
func (r *memoryQueryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	saved := maps.Clone(r.sequences)
	r.mu.Unlock()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.mu.Lock()
		r.sequences = saved
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memoryQueryRepo) SyncSequence(ctx context.Context, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := shared.ScopeQuery + "-" + day.Format("20060102") + "-"
	key := shared.ScopeQuery + day.Format("20060102")
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

func (r *memoryQueryRepo) Get(ctx context.Context, id int64) (Query, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queries[id]
	if !ok {
		return Query{}, shared.NotFound("query", id)
	}
	return q, nil
}

func (r *memoryQueryRepo) List(ctx context.Context, req ListRequest) ([]Query, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Query
	for _, q := range r.queries {
		if req.Status != "" && q.Status != req.Status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *memoryQueryRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queries[id]
	if !ok {
		return shared.NotFound("query", id)
	}
	if q.Status != from {
		return fmt.Errorf("query %d status changed concurrently: %w", id, shared.ErrConflict)
	}
	q.Status = to
	r.queries[id] = q
	return nil
}

func (r *memoryQueryRepo) LineSums(ctx context.Context, ids []int64) (map[int64]LineSums, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]LineSums)
	for _, id := range ids {
		if s, ok := r.sums[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (r *memoryQueryRepo) ListPassengers(ctx context.Context, queryID int64) ([]Passenger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Passenger
	for _, p := range r.passengers {
		if p.QueryID == queryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryQueryRepo) AddPassenger(ctx context.Context, p Passenger) (Passenger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	r.passengers[p.ID] = p
	return p, nil
}

func (r *memoryQueryRepo) DeletePassenger(ctx context.Context, queryID, passengerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.passengers[passengerID]
	if !ok || p.QueryID != queryID {
		return shared.NotFound("passenger", passengerID)
	}
	delete(r.passengers, passengerID)
	return nil
}

type memoryTx struct {
	repo *memoryQueryRepo
}

func (t *memoryTx) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	key := scope + day.Format("20060102")
	t.repo.sequences[key]++
	return t.repo.sequences[key], nil
}

func (t *memoryTx) Insert(ctx context.Context, q Query) (Query, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.contended {
		t.repo.numbers[q.QueryNumber] = true
	}
	if t.repo.numbers[q.QueryNumber] {
		return Query{}, fmt.Errorf("query number %s already taken: %w", q.QueryNumber, shared.ErrConflict)
	}
	q.ID = t.repo.nextID
	t.repo.nextID++
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	t.repo.numbers[q.QueryNumber] = true
	t.repo.queries[q.ID] = q
	return q, nil
}

func newTestService(t *testing.T, repo *memoryQueryRepo, strict bool) *Service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)
	svc := NewService(repo, ServiceConfig{Location: loc, StrictWorkflow: strict}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 20, 30, 0, 0, time.UTC) }
	return svc
}

func TestWorkflowStrictTransitions(t *testing.T) {
	w := Workflow{Strict: true}
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNew, StatusResponded, true},
		{StatusResponded, StatusNew, true},
		{StatusNew, StatusWorking, false},
		{StatusNew, StatusCompleted, false},
		{StatusProposalSent, StatusRevisionsRequested, true},
		{StatusRevisionsRequested, StatusProposalSent, true},
		{StatusProposalSent, StatusFinalizedBooking, true},
		{StatusProposalSent, StatusWorking, true},
		{StatusFinalizedBooking, StatusProposalSent, true},
		{StatusInDelivery, StatusCompleted, true},
		{StatusInDelivery, StatusCancelled, true},
		{StatusWorking, StatusCancelled, true},
		{StatusCompleted, StatusInDelivery, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusNew, false},
		{StatusWorking, StatusWorking, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			err := w.Advance(tc.from, tc.to)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		})
	}
}

func TestWorkflowUnknownStatusIsValidation(t *testing.T) {
	err := Workflow{Strict: true}.Advance(StatusNew, Status("ARCHIVED"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestWorkflowPermissiveKeepsTerminalLocked(t *testing.T) {
	w := Workflow{Strict: false}
	require.NoError(t, w.Advance(StatusNew, StatusCompleted))
	require.NoError(t, w.Advance(StatusInDelivery, StatusResponded))
	assert.ErrorIs(t, w.Advance(StatusCompleted, StatusNew), shared.ErrInvalidTransition)
	assert.Empty(t, w.Next(StatusCancelled))
}

func TestWorkflowNextIsOrdered(t *testing.T) {
	w := Workflow{Strict: true}
	assert.Equal(t, []Status{StatusWorking, StatusRevisionsRequested, StatusFinalizedBooking, StatusCancelled}, w.Next(StatusProposalSent))
	assert.Equal(t, []Status{StatusResponded, StatusCancelled}, w.Next(StatusNew))
	assert.Equal(t, []Status{StatusServicesBooked, StatusCompleted, StatusCancelled}, w.Next(StatusInDelivery))
}

func TestCreateNumbersInAgencyTimezone(t *testing.T) {
	repo := newMemoryQueryRepo()
	svc := newTestService(t, repo, true)

	// 20:30 UTC on March 9 is already March 10 in Karachi.
	q, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "  Ayesha Khan ", Adults: 2})
	require.NoError(t, err)
	assert.Equal(t, "QRY-20240310-001", q.QueryNumber)
	assert.Equal(t, "Ayesha Khan", q.ClientName)
	assert.Equal(t, StatusNew, q.Status)

	q2, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "Bilal"})
	require.NoError(t, err)
	assert.Equal(t, "QRY-20240310-002", q2.QueryNumber)
	assert.Equal(t, 1, q2.Adults)
}

func TestCreateConcurrentNumbersAreUniqueAndContiguous(t *testing.T) {
	repo := newMemoryQueryRepo()
	svc := newTestService(t, repo, true)

	const n = 25
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: fmt.Sprintf("client %d", i)})
			if err != nil {
				errs <- err
				return
			}
			numbers <- q.QueryNumber
		}(i)
	}
	wg.Wait()
	close(numbers)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	for num := range numbers {
		require.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("QRY-20240310-%03d", i)], "missing sequence %d", i)
	}
}

func TestCreateRetriesAfterNumberConflict(t *testing.T) {
	repo := newMemoryQueryRepo()
	repo.numbers["QRY-20240310-001"] = true
	svc := newTestService(t, repo, true)

	q, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "Retry"})
	require.NoError(t, err)
	assert.Equal(t, "QRY-20240310-002", q.QueryNumber)
}

func TestCreateSkipsPastImportedNumbers(t *testing.T) {
	repo := newMemoryQueryRepo()
	for i := 1; i <= 4; i++ {
		repo.numbers[fmt.Sprintf("QRY-20240310-%03d", i)] = true
	}
	svc := newTestService(t, repo, true)

	q, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "Imported"})
	require.NoError(t, err)
	assert.Equal(t, "QRY-20240310-005", q.QueryNumber)

	next, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "After import"})
	require.NoError(t, err)
	assert.Equal(t, "QRY-20240310-006", next.QueryNumber)
}

func TestCreateGivesUpAfterTwoRetries(t *testing.T) {
	repo := newMemoryQueryRepo()
	repo.contended = true
	svc := newTestService(t, repo, true)

	_, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: "Unlucky"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, 2, repo.sequences["QRY20240310"])
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newMemoryQueryRepo(), true)

	_, err := svc.Create(context.Background(), CreateQueryRequest{ClientName: " "})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "client_name", verr.Fields[0].Field)

	_, err = svc.Create(context.Background(), CreateQueryRequest{ClientName: "x", TravelDate: "2024-05-10", ReturnDate: "2024-05-01"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "return_date", verr.Fields[0].Field)
}

func TestChangeStatus(t *testing.T) {
	repo := newMemoryQueryRepo()
	svc := newTestService(t, repo, true)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQueryRequest{ClientName: "Flow"})
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(ctx, q.ID, ChangeStatusRequest{Status: "responded"})
	require.NoError(t, err)
	assert.Equal(t, StatusResponded, updated.Status)
	assert.Contains(t, updated.AllowedTransitions, StatusWorking)

	_, err = svc.ChangeStatus(ctx, q.ID, ChangeStatusRequest{Status: "COMPLETED"})
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = svc.ChangeStatus(ctx, 999, ChangeStatusRequest{Status: "RESPONDED"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetDerivesTotals(t *testing.T) {
	repo := newMemoryQueryRepo()
	svc := newTestService(t, repo, true)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQueryRequest{ClientName: "Totals", Adults: 2, Children: 1})
	require.NoError(t, err)
	repo.sums[q.ID] = LineSums{
		Purchase: decimal.RequireFromString("223500"),
		Selling:  decimal.RequireFromString("298000"),
		Count:    1,
	}

	got, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Totals)
	assert.True(t, got.Totals.TotalProfit.Equal(decimal.RequireFromString("74500")))
	assert.True(t, got.Totals.PerPassengerCost.Equal(decimal.RequireFromString("99333.33")))

	// Line removed: totals follow on the next read.
	delete(repo.sums, q.ID)
	got, err = svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, got.Totals.TotalSelling.IsZero())
	assert.Equal(t, 0, got.Totals.LineCount)
}

func TestComputeTotalsWithoutPassengers(t *testing.T) {
	totals := ComputeTotals(LineSums{Selling: decimal.NewFromInt(500), Purchase: decimal.NewFromInt(600)}, 0)
	assert.True(t, totals.PerPassengerCost.IsZero())
	assert.True(t, totals.TotalProfit.Equal(decimal.NewFromInt(-100)))
}

func TestPassengers(t *testing.T) {
	repo := newMemoryQueryRepo()
	svc := newTestService(t, repo, true)
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQueryRequest{ClientName: "Family"})
	require.NoError(t, err)

	p, err := svc.AddPassenger(ctx, q.ID, AddPassengerRequest{FullName: "Sara", PassengerType: "child", DateOfBirth: "2016-02-01"})
	require.NoError(t, err)
	assert.Equal(t, PassengerChild, p.PassengerType)
	require.NotNil(t, p.DateOfBirth)

	_, err = svc.AddPassenger(ctx, q.ID, AddPassengerRequest{FullName: "Nobody", PassengerType: "PET"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddPassenger(ctx, 404, AddPassengerRequest{FullName: "Ghost", PassengerType: "ADULT"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, err := svc.ListPassengers(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.RemovePassenger(ctx, q.ID, p.ID))
	assert.ErrorIs(t, svc.RemovePassenger(ctx, q.ID, p.ID), shared.ErrNotFound)
}
