package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/voyager-travel/voyager/internal/shared"
)

// maxNumberRetries bounds how often creation retries after losing a number race.
const maxNumberRetries = 2

// ServiceConfig tunes query behaviour.
type ServiceConfig struct {
	Location       *time.Location
	StrictWorkflow bool
}

// Service implements query use cases.
type Service struct {
	repo     Repository
	workflow Workflow
	loc      *time.Location
	audit    shared.Auditor
	cache    shared.CacheInvalidator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the query service.
func NewService(repo Repository, cfg ServiceConfig, audit shared.Auditor, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		workflow: Workflow{Strict: cfg.StrictWorkflow},
		loc:      cfg.Location,
		audit:    audit,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Workflow exposes the transition rules in use.
func (s *Service) Workflow() Workflow {
	return s.workflow
}

// Create records a new query with the next number for today.
func (s *Service) Create(ctx context.Context, req CreateQueryRequest) (Query, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if err := shared.ValidateStruct(req); err != nil {
		return Query{}, err
	}
	travel, err := shared.ParseOptionalDate("travel_date", req.TravelDate)
	if err != nil {
		return Query{}, err
	}
	ret, err := shared.ParseOptionalDate("return_date", req.ReturnDate)
	if err != nil {
		return Query{}, err
	}
	if travel != nil && ret != nil && ret.Before(*travel) {
		return Query{}, shared.NewValidationError("return_date", "must not be before travel_date")
	}
	adults := req.Adults
	if adults+req.Children+req.Infants == 0 {
		adults = 1
	}

	q := Query{
		ClientName:  req.ClientName,
		ClientEmail: strings.TrimSpace(req.ClientEmail),
		ClientPhone: strings.TrimSpace(req.ClientPhone),
		Destination: strings.TrimSpace(req.Destination),
		TravelDate:  travel,
		ReturnDate:  ret,
		Adults:      adults,
		Children:    req.Children,
		Infants:     req.Infants,
		Source:      strings.TrimSpace(req.Source),
		Status:      StatusNew,
		Notes:       req.Notes,
		CreatedBy:   shared.ActorID(ctx),
	}

	var created Query
	day := shared.StartOfDay(s.now(), s.loc)
	for attempt := 0; ; attempt++ {
		created, err = s.insert(ctx, q, day)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConflict) || attempt >= maxNumberRetries {
			return Query{}, err
		}
		s.logger.Warn("query number collision, retrying", slog.Int("attempt", attempt+1), slog.Any("error", err))
		// The failed insert rolled back its allocation; resync before retrying.
		if serr := s.repo.SyncSequence(ctx, day); serr != nil {
			s.logger.Warn("query sequence sync failed", slog.Any("error", serr))
		}
	}

	s.record(ctx, "query.create", created.ID, map[string]any{"query_number": created.QueryNumber})
	shared.Invalidate(ctx, s.cache, s.logger)
	created.AllowedTransitions = s.workflow.Next(created.Status)
	return created, nil
}

func (s *Service) insert(ctx context.Context, q Query, day time.Time) (Query, error) {
	var created Query
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextSequence(ctx, shared.ScopeQuery, day)
		if err != nil {
			return err
		}
		q.QueryNumber = shared.FormatDocumentNumber(shared.ScopeQuery, day, seq)
		created, err = tx.Insert(ctx, q)
		return err
	})
	return created, err
}

// Get loads a query with passengers, derived totals and allowed transitions.
func (s *Service) Get(ctx context.Context, id int64) (Query, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Query{}, err
	}
	sums, err := s.repo.LineSums(ctx, []int64{id})
	if err != nil {
		return Query{}, err
	}
	passengers, err := s.repo.ListPassengers(ctx, id)
	if err != nil {
		return Query{}, err
	}
	totals := ComputeTotals(sums[id], q.PassengerCount())
	q.Totals = &totals
	q.Passengers = passengers
	q.AllowedTransitions = s.workflow.Next(q.Status)
	return q, nil
}

// List returns a page of queries with totals attached.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Query, int, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, 0, shared.NewValidationError("status", "unknown status "+string(req.Status))
	}
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, len(items))
	for i, q := range items {
		ids[i] = q.ID
	}
	sums, err := s.repo.LineSums(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		totals := ComputeTotals(sums[items[i].ID], items[i].PassengerCount())
		items[i].Totals = &totals
	}
	return items, total, nil
}

// ChangeStatus moves a query to a new workflow status.
func (s *Service) ChangeStatus(ctx context.Context, id int64, req ChangeStatusRequest) (Query, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Query{}, err
	}
	to := Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Query{}, err
	}
	if err := s.workflow.Advance(q.Status, to); err != nil {
		return Query{}, err
	}
	if err := s.repo.UpdateStatus(ctx, id, q.Status, to); err != nil {
		return Query{}, err
	}
	s.record(ctx, "query.status", id, map[string]any{"from": q.Status, "to": to})
	shared.Invalidate(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// Status returns the current status of a query.
func (s *Service) Status(ctx context.Context, id int64) (Status, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return q.Status, nil
}

// Totals returns the derived totals of a query.
func (s *Service) Totals(ctx context.Context, id int64) (Totals, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return Totals{}, err
	}
	sums, err := s.repo.LineSums(ctx, []int64{id})
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(sums[id], q.PassengerCount()), nil
}

// ListPassengers returns travellers on a query.
func (s *Service) ListPassengers(ctx context.Context, queryID int64) ([]Passenger, error) {
	if _, err := s.repo.Get(ctx, queryID); err != nil {
		return nil, err
	}
	return s.repo.ListPassengers(ctx, queryID)
}

// AddPassenger attaches a traveller to a query.
func (s *Service) AddPassenger(ctx context.Context, queryID int64, req AddPassengerRequest) (Passenger, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.PassengerType = strings.ToUpper(strings.TrimSpace(req.PassengerType))
	if err := shared.ValidateStruct(req); err != nil {
		return Passenger{}, err
	}
	expiry, err := shared.ParseOptionalDate("passport_expiry", req.PassportExpiry)
	if err != nil {
		return Passenger{}, err
	}
	dob, err := shared.ParseOptionalDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		return Passenger{}, err
	}
	if _, err := s.repo.Get(ctx, queryID); err != nil {
		return Passenger{}, err
	}
	p, err := s.repo.AddPassenger(ctx, Passenger{
		QueryID:        queryID,
		FullName:       req.FullName,
		PassengerType:  PassengerType(req.PassengerType),
		PassportNumber: strings.TrimSpace(req.PassportNumber),
		PassportExpiry: expiry,
		Nationality:    strings.TrimSpace(req.Nationality),
		DateOfBirth:    dob,
	})
	if err != nil {
		return Passenger{}, err
	}
	s.record(ctx, "passenger.create", p.ID, map[string]any{"query_id": queryID})
	return p, nil
}

// RemovePassenger deletes a traveller from a query.
func (s *Service) RemovePassenger(ctx context.Context, queryID, passengerID int64) error {
	if err := s.repo.DeletePassenger(ctx, queryID, passengerID); err != nil {
		return err
	}
	s.record(ctx, "passenger.delete", passengerID, map[string]any{"query_id": queryID})
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	entity := "query"
	if strings.HasPrefix(action, "passenger.") {
		entity = "passenger"
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: shared.EntityID(id), Meta: meta})
}
