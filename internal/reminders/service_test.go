package reminders

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-travel/voyager/internal/shared"
)

type memoryReminderRepo struct {
	mu        sync.Mutex
	reminders map[int64]Reminder
	bookings  []Event
	nextID    int64
}

func newMemoryReminderRepo() *memoryReminderRepo {
	return &memoryReminderRepo{reminders: make(map[int64]Reminder), nextID: 1}
}

func (m *memoryReminderRepo) List(ctx context.Context, req ListRequest) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reminder
	for _, r := range m.reminders {
		if r.Done && !req.IncludeDone {
			continue
		}
		if req.From != nil && r.DueAt.Before(*req.From) {
			continue
		}
		if req.To != nil && !r.DueAt.Before(*req.To) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (m *memoryReminderRepo) Get(ctx context.Context, id int64) (Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return Reminder{}, shared.NotFound("reminder", id)
	}
	return r, nil
}

func (m *memoryReminderRepo) Create(ctx context.Context, r Reminder) (Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.reminders[r.ID] = r
	return r, nil
}

func (m *memoryReminderRepo) MarkDone(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return shared.NotFound("reminder", id)
	}
	r.Done = true
	m.reminders[id] = r
	return nil
}

func (m *memoryReminderRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[id]; !ok {
		return shared.NotFound("reminder", id)
	}
	delete(m.reminders, id)
	return nil
}

func (m *memoryReminderRepo) ClaimDue(ctx context.Context, now time.Time) ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reminder
	for id, r := range m.reminders {
		if r.Done || r.NotifiedAt != nil || r.DueAt.After(now) {
			continue
		}
		at := now
		r.NotifiedAt = &at
		m.reminders[id] = r
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryReminderRepo) BookingEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var out []Event
	for _, e := range m.bookings {
		if !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendarMergesAndSorts(t *testing.T) {
	repo := newMemoryReminderRepo()
	qid := int64(4)
	repo.bookings = []Event{
		{Date: day(12), Kind: EventService, Title: "Hotel: Makkah", QueryID: &qid, SourceID: 31},
		{Date: day(10), Kind: EventTravel, Title: "Ayesha departs", QueryID: &qid, SourceID: 4},
		{Date: day(20), Kind: EventReturn, Title: "Ayesha returns", QueryID: &qid, SourceID: 4},
		{Date: time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), Kind: EventTravel, Title: "out of range", SourceID: 5},
	}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Title: "Call hotel", DueAt: day(10).Add(9 * time.Hour), QueryID: &qid})
	require.NoError(t, err)
	done, err := svc.Create(ctx, CreateRequest{Title: "Visa check", DueAt: day(11)})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, done.ID)
	require.NoError(t, err)

	events, err := svc.Calendar(ctx, day(1), day(21))
	require.NoError(t, err)
	require.Len(t, events, 5)
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []EventKind{EventTravel, EventReminder, EventReminder, EventService, EventReturn}, kinds)
	assert.True(t, events[2].Done)
}

func TestCalendarRejectsBadRange(t *testing.T) {
	svc := NewService(newMemoryReminderRepo(), nil, nil)
	_, err := svc.Calendar(context.Background(), day(10), day(10))
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Calendar(context.Background(), day(1), day(1).AddDate(2, 0, 0))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestNotifyDueClaimsOnce(t *testing.T) {
	repo := newMemoryReminderRepo()
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return day(15) }
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Title: "overdue", DueAt: day(14)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRequest{Title: "later", DueAt: day(16)})
	require.NoError(t, err)

	n, err := svc.NotifyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.NotifyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryReminderRepo(), nil, nil)
	_, err := svc.Create(context.Background(), CreateRequest{Title: "  ", DueAt: day(1)})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Create(context.Background(), CreateRequest{Title: "no date"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
