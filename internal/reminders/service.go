package reminders

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/voyager-travel/voyager/internal/shared"
)

// MaxCalendarSpan bounds a single calendar request.
const MaxCalendarSpan = 366 * 24 * time.Hour

// Service implements reminders and the calendar view.
type Service struct {
	repo   Repository
	audit  shared.Auditor
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the reminder service.
func NewService(repo Repository, audit shared.Auditor, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns reminders ordered by due time.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Reminder, error) {
	return s.repo.List(ctx, req)
}

// Create schedules a reminder.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Reminder, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := shared.ValidateStruct(req); err != nil {
		return Reminder{}, err
	}
	r, err := s.repo.Create(ctx, Reminder{
		Title:     req.Title,
		Notes:     req.Notes,
		DueAt:     req.DueAt.UTC(),
		QueryID:   req.QueryID,
		CreatedBy: shared.ActorID(ctx),
	})
	if err != nil {
		return Reminder{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "reminder.create", Entity: "reminder", EntityID: shared.EntityID(r.ID)})
	return r, nil
}

// Complete marks a reminder done.
func (s *Service) Complete(ctx context.Context, id int64) (Reminder, error) {
	if err := s.repo.MarkDone(ctx, id); err != nil {
		return Reminder{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a reminder.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "reminder.delete", Entity: "reminder", EntityID: shared.EntityID(id)})
	return nil
}

// Calendar merges reminders with travel, return and service dates in [from, to).
func (s *Service) Calendar(ctx context.Context, from, to time.Time) ([]Event, error) {
	if !to.After(from) {
		return nil, shared.NewValidationError("to", "must be after from")
	}
	if to.Sub(from) > MaxCalendarSpan {
		return nil, shared.NewValidationError("to", "range must not exceed one year")
	}
	reminders, err := s.repo.List(ctx, ListRequest{From: &from, To: &to, IncludeDone: true})
	if err != nil {
		return nil, err
	}
	events, err := s.repo.BookingEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, r := range reminders {
		events = append(events, Event{
			Date:     r.DueAt,
			Kind:     EventReminder,
			Title:    r.Title,
			QueryID:  r.QueryID,
			SourceID: r.ID,
			Done:     r.Done,
		})
	}
	SortEvents(events)
	return events, nil
}

// SortEvents orders events by date, then kind, then source id.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.SourceID < b.SourceID
	})
}

// NotifyDue claims reminders that fell due and logs them. It returns how many were claimed.
func (s *Service) NotifyDue(ctx context.Context) (int, error) {
	due, err := s.repo.ClaimDue(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	for _, r := range due {
		attrs := []any{slog.Int64("reminder_id", r.ID), slog.String("title", r.Title), slog.Time("due_at", r.DueAt)}
		if r.QueryID != nil {
			attrs = append(attrs, slog.Int64("query_id", *r.QueryID))
		}
		s.logger.Info("reminder due", attrs...)
	}
	return len(due), nil
}
