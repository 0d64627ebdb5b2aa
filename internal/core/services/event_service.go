package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
	"github.com/vncsmyrnk/predixarena/internal/core/ports"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxOutcomeLength     = 100
)

// Layouts accepted for resolution_date_time. The second one is what an HTML
// datetime-local input submits; it is read as UTC.
var resolutionLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
}

type eventService struct {
	repo    ports.EventRepository
	clock   clock.Clock
	metrics ports.Metrics
}

func NewEventService(repo ports.EventRepository, clk clock.Clock, metrics ports.Metrics) ports.EventService {
	if clk == nil {
		clk = clock.WallClock
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &eventService{
		repo:    repo,
		clock:   clk,
		metrics: metrics,
	}
}

func (s *eventService) Create(ctx context.Context, caller domain.Identity, draft ports.EventDraft) (*domain.Event, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	now := s.clock.Now().UTC()
	fields, err := s.validateDraft(draft, now)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:                 uuid.New(),
		Status:             domain.StatusPending,
		CreatedBy:          caller.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
		Title:              fields.title,
		Description:        fields.description,
		Category:           fields.category,
		Outcomes:           fields.outcomes,
		ResolutionSource:   fields.resolutionSource,
		ResolutionDateTime: fields.resolutionDateTime,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	s.metrics.EventCreated()

	return event, nil
}

func (s *eventService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.StatusApproved && !canManage(caller, event) {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, caller domain.Identity, input ports.ListEventsInput) ([]*domain.Event, error) {
	var filter ports.EventFilter
	if strings.TrimSpace(input.Status) != "" {
		status, err := domain.ParseEventStatus(input.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	switch {
	case caller.IsAdmin():
	case caller.Authenticated():
		owner := caller.UserID
		filter.CreatedBy = &owner
	default:
		// The public market list never requires login.
		if filter.Status == nil || *filter.Status != domain.StatusApproved {
			return nil, domain.ErrUnauthenticated
		}
	}

	return s.repo.List(ctx, filter)
}

func (s *eventService) ListVotable(ctx context.Context) ([]*domain.Event, error) {
	status := domain.StatusApproved
	now := s.clock.Now().UTC()
	return s.repo.List(ctx, ports.EventFilter{Status: &status, OpenAfter: &now})
}

func (s *eventService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, draft ports.EventDraft) (*domain.Event, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	now := s.clock.Now().UTC()
	fields, err := s.validateDraft(draft, now)
	if err != nil {
		return nil, err
	}

	return s.repo.Mutate(ctx, id, func(event *domain.Event) (bool, error) {
		if !canManage(caller, event) {
			if event.Status != domain.StatusApproved {
				return false, domain.ErrEventNotFound
			}
			return false, domain.ErrNotEventOwner
		}
		if event.Status != domain.StatusPending {
			return false, domain.ErrEventNotEditable
		}

		event.Title = fields.title
		event.Description = fields.description
		event.Category = fields.category
		event.Outcomes = fields.outcomes
		event.ResolutionSource = fields.resolutionSource
		event.ResolutionDateTime = fields.resolutionDateTime
		event.UpdatedAt = now
		return true, nil
	})
}

func (s *eventService) SetStatus(ctx context.Context, caller domain.Identity, id uuid.UUID, status string) (*domain.Event, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}

	target, err := domain.ParseEventStatus(status)
	if err != nil {
		return nil, err
	}
	if target == domain.StatusPending {
		return nil, domain.ErrInvalidStatusTransition
	}

	changed := false
	event, err := s.repo.Mutate(ctx, id, func(event *domain.Event) (bool, error) {
		if event.Status == target {
			return false, nil
		}
		if !event.Status.CanTransitionTo(target) {
			return false, domain.ErrInvalidStatusTransition
		}
		event.Status = target
		event.UpdatedAt = s.clock.Now().UTC()
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.EventStatusChanged(target)
	}
	return event, nil
}

type draftFields struct {
	title              string
	description        string
	category           domain.Category
	outcomes           []domain.Outcome
	resolutionSource   string
	resolutionDateTime time.Time
}

func (s *eventService) validateDraft(draft ports.EventDraft, now time.Time) (draftFields, error) {
	verr := domain.NewValidationError()
	var f draftFields

	f.title = strings.TrimSpace(draft.Title)
	switch {
	case f.title == "":
		verr.Add("title", "is required")
	case len(f.title) > maxTitleLength:
		verr.Add("title", "is too long")
	}

	f.description = strings.TrimSpace(draft.Description)
	switch {
	case f.description == "":
		verr.Add("description", "is required")
	case len(f.description) > maxDescriptionLength:
		verr.Add("description", "is too long")
	}

	if strings.TrimSpace(draft.Category) == "" {
		verr.Add("category", "is required")
	} else if c, ok := domain.ParseCategory(draft.Category); ok {
		f.category = c
	} else {
		verr.Add("category", "must be one of "+categoryList())
	}

	f.outcomes = validateOutcomes(draft.Outcomes, verr)

	f.resolutionSource = strings.TrimSpace(draft.ResolutionSource)
	if f.resolutionSource == "" {
		verr.Add("resolution_source", "is required")
	} else if !isWebURI(f.resolutionSource) {
		verr.Add("resolution_source", "must be an absolute http or https URI")
	}

	if strings.TrimSpace(draft.ResolutionDateTime) == "" {
		verr.Add("resolution_date_time", "is required")
	} else if t, ok := parseResolution(draft.ResolutionDateTime); !ok {
		verr.Add("resolution_date_time", "must be an RFC 3339 timestamp")
	} else if !t.After(now) {
		verr.Add("resolution_date_time", "must be in the future")
	} else {
		f.resolutionDateTime = t
	}

	return f, verr.Err()
}

func validateOutcomes(labels []string, verr *domain.ValidationError) []domain.Outcome {
	if len(labels) < domain.MinOutcomes {
		verr.Add("outcomes", "at least two outcomes are required")
		return nil
	}
	if len(labels) > domain.MaxOutcomes {
		verr.Add("outcomes", "too many outcomes")
		return nil
	}

	seen := make(map[string]bool, len(labels))
	outcomes := make([]domain.Outcome, 0, len(labels))
	for i, label := range labels {
		label = strings.TrimSpace(label)
		key := strings.ToLower(label)
		switch {
		case label == "":
			verr.Add("outcomes", "outcomes must not be empty")
		case len(label) > maxOutcomeLength:
			verr.Add("outcomes", "outcome label is too long")
		case seen[key]:
			verr.Add("outcomes", "outcomes must be distinct")
		}
		seen[key] = true
		outcomes = append(outcomes, domain.Outcome{Index: i, Label: label})
	}
	return outcomes
}

func parseResolution(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range resolutionLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isWebURI(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func canManage(caller domain.Identity, event *domain.Event) bool {
	return caller.IsAdmin() || (caller.Authenticated() && caller.UserID == event.CreatedBy)
}
