package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	calendar       domain.CalendarEncoder
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService returns an EventService backed by the given repositories.
func NewEventService(eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	calendar domain.CalendarEncoder,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		calendar:       calendar,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// storageError passes through domain outcomes and marks everything else as a storage failure.
func storageError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.listEvents(ctx)
}

func (s *eventService) listEvents(ctx context.Context) ([]*domain.EventDetails, error) {
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, storageError("list events", err)
	}

	ids := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.CreatedBy]; ok {
			continue
		}
		seen[e.CreatedBy] = struct{}{}
		ids = append(ids, e.CreatedBy)
	}

	creators := make(map[string]*domain.CreatorSummary, len(ids))
	if len(ids) > 0 {
		users, err := s.userRepo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, storageError("list creators", err)
		}
		for _, u := range users {
			creators[u.ID] = u.Summary()
		}
	}

	out := make([]*domain.EventDetails, 0, len(events))
	for _, e := range events {
		out = append(out, &domain.EventDetails{Event: e, Creator: creators[e.CreatedBy]})
	}
	return out, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get event", err)
	}
	return s.withCreator(ctx, event)
}

func (s *eventService) CreateEvent(ctx context.Context, actor domain.Actor, input domain.EventInput) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if actor.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	event := domain.NewEvent(input, actor.ID, s.now().UTC())
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, storageError("create event", err)
	}
	return s.withCreator(ctx, event)
}

func (s *eventService) UpdateEvent(ctx context.Context, actor domain.Actor, id string, patch domain.EventPatch) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("get event", err)
	}
	if !domain.CanMutate(actor, existing) {
		return nil, domain.ErrUnauthorized
	}

	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, id, patch, domain.StoredTime(s.now()))
	if err != nil {
		return nil, storageError("update event", err)
	}
	return s.withCreator(ctx, updated)
}

func (s *eventService) DeleteEvent(ctx context.Context, actor domain.Actor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return storageError("get event", err)
	}
	if !domain.CanMutate(actor, existing) {
		return domain.ErrUnauthorized
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return storageError("delete event", err)
	}
	return nil
}

func (s *eventService) CalendarFeed(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.listEvents(ctx)
	if err != nil {
		return nil, err
	}
	feed, err := s.calendar.Encode(events)
	if err != nil {
		return nil, fmt.Errorf("calendar feed: %w", err)
	}
	return feed, nil
}

// withCreator joins the creator summary. A missing creator leaves Creator nil.
func (s *eventService) withCreator(ctx context.Context, event *domain.Event) (*domain.EventDetails, error) {
	details := &domain.EventDetails{Event: event}
	user, err := s.userRepo.GetByID(ctx, event.CreatedBy)
	switch {
	case err == nil:
		details.Creator = user.Summary()
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, storageError("get creator", err)
	}
	return details, nil
}
