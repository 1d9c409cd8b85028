package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/henrychris/EventManagement/internal/clock"
	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/metrics"
	"github.com/henrychris/EventManagement/internal/repository"
	"github.com/henrychris/EventManagement/internal/validator"
	"github.com/henrychris/EventManagement/pkg/logger"
	"github.com/henrychris/EventManagement/pkg/telemetry"
)

// CacheInvalidator drops a cached event after a write that bypassed the
// caching repository.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

type eventService struct {
	repo       repository.EventRepository
	uowFactory repository.UnitOfWorkFactory
	validator  *validator.EventValidator
	clock      clock.Clock
	metrics    *metrics.Metrics
	cache      CacheInvalidator
	log        *logger.Logger
}

// NewEventService creates the event service. cache may be nil when caching
// is disabled.
func NewEventService(
	repo repository.EventRepository,
	uowFactory repository.UnitOfWorkFactory,
	v *validator.EventValidator,
	c clock.Clock,
	m *metrics.Metrics,
	cache CacheInvalidator,
) EventService {
	if c == nil {
		c = clock.NewSystem()
	}
	return &eventService{
		repo:       repo,
		uowFactory: uowFactory,
		validator:  v,
		clock:      c,
		metrics:    m,
		cache:      cache,
		log:        logger.Get(),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest, organiserID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.CreateEvent")
	defer span.End()

	now := s.clock.Now()
	event := &domain.Event{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Date:             req.Date.UTC(),
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		Status:           domain.EventStatusUpcoming,
		TicketsAvailable: req.TicketsAvailable,
		TicketsSold:      0,
		OrganiserID:      organiserID,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Nothing is persisted when any rule fails.
	if errs := s.validator.ValidateCreate(event); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	telemetry.SetSpanAttributes(ctx, attribute.String("event.id", event.ID))
	s.metrics.RecordEventCreated(ctx)
	s.log.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("organiser_id", organiserID),
	)

	return dto.ToEventResponse(event), nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.GetEvent")
	defer span.End()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return dto.ToEventResponse(event), nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.UpdateEvent")
	defer span.End()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event for update: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	// A body with no fields set is a no-op; skip the write so the row and
	// its version stay untouched.
	if req.IsEmpty() {
		return dto.ToEventResponse(event), nil
	}

	changed, verrs := applyChanges(event, req)
	if len(verrs) > 0 {
		return nil, verrs
	}

	// Re-validate the merged entity as a whole; a sparse update must not be
	// able to leave the event in a state a create would have rejected.
	if errs := s.validator.ValidateUpdate(event, changed); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("event updated", zap.String("event_id", event.ID))
	return dto.ToEventResponse(event), nil
}

// applyChanges merges the non-nil request fields onto the event and reports
// which guarded fields were touched. An unparseable status is a validation
// failure, surfaced with the same shape as every other rule violation.
func applyChanges(event *domain.Event, req *dto.UpdateEventRequest) (validator.ChangedFields, domain.ValidationErrors) {
	var changed validator.ChangedFields
	var errs domain.ValidationErrors

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.Date != nil {
		event.Date = req.Date.UTC()
		changed.Date = true
	}
	if req.StartTime != nil {
		event.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		event.EndTime = req.EndTime.UTC()
	}
	if req.Status != nil {
		status, err := domain.ParseEventStatus(*req.Status)
		if err != nil {
			errs = append(errs, domain.FieldError{
				Code:        domain.CodeInvalidEventStatus,
				Description: fmt.Sprintf("%q is not a recognised event status.", *req.Status),
			})
		} else {
			event.Status = status
		}
	}
	if req.TicketsAvailable != nil {
		event.TicketsAvailable = *req.TicketsAvailable
		changed.TicketsAvailable = true
	}

	return changed, errs
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "EventService.DeleteEvent")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", zap.String("event_id", id))
	return nil
}

func (s *eventService) SearchEvents(ctx context.Context, req *dto.SearchEventsRequest) (*dto.SearchEventsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.SearchEvents")
	defer span.End()

	criteria := req.ToCriteria()

	events, err := s.repo.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	return toSearchResponse(events), nil
}

func (s *eventService) GetEventsWithAvailableTickets(ctx context.Context, pageNumber, pageSize int) (*dto.SearchEventsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.GetEventsWithAvailableTickets")
	defer span.End()

	criteria := domain.SearchCriteria{PageNumber: pageNumber, PageSize: pageSize}
	criteria.Normalize()

	events, err := s.repo.GetWithAvailableTickets(ctx, criteria.PageNumber, criteria.PageSize, domain.SortDateAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list events with available tickets: %w", err)
	}

	return toSearchResponse(events), nil
}

func toSearchResponse(events []*domain.Event) *dto.SearchEventsResponse {
	responses := make([]*dto.EventResponse, len(events))
	for i, e := range events {
		responses[i] = dto.ToEventResponse(e)
	}
	return &dto.SearchEventsResponse{
		Events: responses,
		Count:  len(responses),
	}
}

func (s *eventService) BuyTicket(ctx context.Context, eventID, buyerID string) (*dto.TicketPurchaseResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "EventService.BuyTicket")
	defer span.End()
	telemetry.SetSpanAttributes(ctx,
		attribute.String("event.id", eventID),
		attribute.String("buyer.id", buyerID),
	)

	uow, err := s.uowFactory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase: %w", err)
	}
	defer uow.Rollback(ctx)

	event, err := uow.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	if event.TicketsAvailable == 0 {
		return nil, domain.ErrNoTicketsAvailable
	}

	event.TicketsAvailable--
	event.TicketsSold++

	// The zero check above makes this unreachable; if it ever fires the
	// stored counters were already corrupt.
	if event.TicketsAvailable < 0 {
		s.log.Error("event inventory went negative",
			zap.String("event_id", event.ID),
			zap.Int("tickets_available", event.TicketsAvailable),
		)
		return nil, domain.ErrNegativeInventory
	}

	if err := uow.Events().Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			telemetry.SetSpanError(ctx, err)
			s.metrics.RecordPurchaseConflict(ctx, event.ID)
			s.log.Warn("ticket purchase lost a concurrent write",
				zap.String("event_id", event.ID),
				zap.String("buyer_id", buyerID),
			)
		}
		return nil, err
	}

	if err := uow.Complete(ctx); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			telemetry.SetSpanError(ctx, err)
			s.metrics.RecordPurchaseConflict(ctx, event.ID)
			s.log.Warn("ticket purchase conflicted at commit",
				zap.String("event_id", event.ID),
				zap.String("buyer_id", buyerID),
			)
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, event.ID); err != nil {
			s.log.Warn("failed to invalidate event cache",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	s.metrics.RecordTicketPurchased(ctx, event.ID)
	s.log.Info("ticket purchased",
		zap.String("event_id", event.ID),
		zap.String("buyer_id", buyerID),
		zap.Int("tickets_remaining", event.TicketsAvailable),
	)

	return &dto.TicketPurchaseResponse{EventName: event.Name}, nil
}
