package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/henrychris/EventManagement/internal/clock"
	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/repository"
	"github.com/henrychris/EventManagement/internal/validator"
	"github.com/henrychris/EventManagement/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(&logger.Config{ServiceName: "test", Development: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var serviceNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// memEventStore is a map-backed event repository that reproduces the
// version-guarded update semantics of the Postgres implementation.
type memEventStore struct {
	events map[string]*domain.Event
	// onUpdate runs before each Update, letting tests interleave a
	// concurrent writer.
	onUpdate  func(s *memEventStore)
	createErr error
}

func newMemEventStore() *memEventStore {
	return &memEventStore{events: make(map[string]*domain.Event)}
}

func (s *memEventStore) clone(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func (s *memEventStore) Create(_ context.Context, event *domain.Event) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.events[event.ID] = s.clone(event)
	return nil
}

func (s *memEventStore) GetByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	return s.clone(e), nil
}

func (s *memEventStore) Update(_ context.Context, event *domain.Event) error {
	if s.onUpdate != nil {
		s.onUpdate(s)
	}
	stored, ok := s.events[event.ID]
	if !ok {
		return domain.ErrEventNotFound
	}
	if stored.Version != event.Version {
		return domain.ErrConcurrencyConflict
	}
	updated := s.clone(event)
	updated.Version++
	s.events[event.ID] = updated
	event.Version++
	return nil
}

func (s *memEventStore) Delete(_ context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *memEventStore) Search(_ context.Context, criteria domain.SearchCriteria) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range s.events {
		out = append(out, s.clone(e))
	}
	return out, nil
}

func (s *memEventStore) GetWithAvailableTickets(_ context.Context, _, _ int, _ domain.EventSort) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range s.events {
		if e.TicketsAvailable > 0 {
			out = append(out, s.clone(e))
		}
	}
	return out, nil
}

// memUnitOfWork hands back the same store; Complete and Rollback are
// bookkeeping only.
type memUnitOfWork struct {
	store       *memEventStore
	completed   bool
	rolledBack  bool
	completeErr error
}

func (u *memUnitOfWork) Events() repository.EventRepository { return u.store }

func (u *memUnitOfWork) Complete(context.Context) error {
	if u.completeErr != nil {
		return u.completeErr
	}
	u.completed = true
	return nil
}

func (u *memUnitOfWork) Rollback(context.Context) error {
	if !u.completed {
		u.rolledBack = true
	}
	return nil
}

type memUowFactory struct {
	store *memEventStore
	last  *memUnitOfWork
}

func (f *memUowFactory) Begin(context.Context) (repository.UnitOfWork, error) {
	f.last = &memUnitOfWork{store: f.store}
	return f.last, nil
}

func newTestService(store *memEventStore) (EventService, *memUowFactory) {
	factory := &memUowFactory{store: store}
	clk := clock.NewFixed(serviceNow)
	svc := NewEventService(store, factory, validator.NewEventValidator(clk), clk, nil, nil)
	return svc, factory
}

func validCreateRequest() *dto.CreateEventRequest {
	date := serviceNow.Add(72 * time.Hour)
	return &dto.CreateEventRequest{
		Name:             "Jazz Evening",
		Description:      "A night of live jazz downtown.",
		Price:            40,
		Date:             date,
		StartTime:        date.Add(time.Hour),
		EndTime:          date.Add(3 * time.Hour),
		TicketsAvailable: 100,
	}
}

func TestCreateEvent_Valid(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)

	resp, err := svc.CreateEvent(context.Background(), validCreateRequest(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != string(domain.EventStatusUpcoming) {
		t.Errorf("new events start upcoming, got %s", resp.Status)
	}
	if resp.TicketsSold != 0 {
		t.Errorf("new events start with no tickets sold, got %d", resp.TicketsSold)
	}
	if resp.OrganiserID != "org-1" {
		t.Errorf("organiser id not recorded, got %s", resp.OrganiserID)
	}

	stored, _ := store.GetByID(context.Background(), resp.ID)
	if stored == nil {
		t.Fatal("event was not persisted")
	}
	if stored.Version != 1 {
		t.Errorf("new events start at version 1, got %d", stored.Version)
	}
}

func TestCreateEvent_InvalidPriceNotPersisted(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)

	req := validCreateRequest()
	req.Price = -10.99

	_, err := svc.CreateEvent(context.Background(), req, "org-1")
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if !verrs.HasCode(domain.CodeInvalidTicketPrice) {
		t.Errorf("expected %s, got %v", domain.CodeInvalidTicketPrice, verrs)
	}
	if len(store.events) != 0 {
		t.Error("nothing should be persisted when validation fails")
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemEventStore())

	_, err := svc.GetEvent(context.Background(), "missing")
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func seedEvent(store *memEventStore, svc EventService, t *testing.T) *dto.EventResponse {
	t.Helper()
	resp, err := svc.CreateEvent(context.Background(), validCreateRequest(), "org-1")
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return resp
}

func TestUpdateEvent_PartialMergePreservesUntouchedFields(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	newName := "Blues Evening"
	resp, err := svc.UpdateEvent(context.Background(), created.ID, &dto.UpdateEventRequest{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Name != newName {
		t.Errorf("name not updated, got %s", resp.Name)
	}
	if resp.Description != created.Description {
		t.Errorf("description should be untouched, got %s", resp.Description)
	}
	if resp.Price != created.Price {
		t.Errorf("price should be untouched, got %v", resp.Price)
	}
	if resp.TicketsAvailable != created.TicketsAvailable {
		t.Errorf("capacity should be untouched, got %d", resp.TicketsAvailable)
	}
}

func TestUpdateEvent_EmptyBodyIsNoOp(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	updates := 0
	store.onUpdate = func(*memEventStore) { updates++ }

	resp, err := svc.UpdateEvent(context.Background(), created.ID, &dto.UpdateEventRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != 0 {
		t.Errorf("empty update must not write, writes=%d", updates)
	}
	if resp.Name != created.Name {
		t.Errorf("event changed by empty update, name=%s", resp.Name)
	}
	if stored := store.events[created.ID]; stored.Version != 1 {
		t.Errorf("version bumped by empty update, got %d", stored.Version)
	}
}

func TestUpdateEvent_MergedEntityRevalidated(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	badName := "ab"
	_, err := svc.UpdateEvent(context.Background(), created.ID, &dto.UpdateEventRequest{Name: &badName})

	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) || !verrs.HasCode(domain.CodeInvalidName) {
		t.Fatalf("expected %s, got %v", domain.CodeInvalidName, err)
	}

	// The stored event is untouched.
	stored, _ := store.GetByID(context.Background(), created.ID)
	if stored.Name != created.Name {
		t.Errorf("failed update must not persist, stored name %s", stored.Name)
	}
}

func TestUpdateEvent_InvalidStatus(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	bad := "happening"
	_, err := svc.UpdateEvent(context.Background(), created.ID, &dto.UpdateEventRequest{Status: &bad})

	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) || !verrs.HasCode(domain.CodeInvalidEventStatus) {
		t.Fatalf("expected %s, got %v", domain.CodeInvalidEventStatus, err)
	}
}

func TestUpdateEvent_ValidStatus(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	status := "Postponed"
	resp, err := svc.UpdateEvent(context.Background(), created.ID, &dto.UpdateEventRequest{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(domain.EventStatusPostponed) {
		t.Errorf("status parsing is case-insensitive, got %s", resp.Status)
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemEventStore())

	name := "Anything Valid"
	_, err := svc.UpdateEvent(context.Background(), "missing", &dto.UpdateEventRequest{Name: &name})
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	svc, _ := newTestService(newMemEventStore())

	if err := svc.DeleteEvent(context.Background(), "missing"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestBuyTicket_MovesTicketFromAvailableToSold(t *testing.T) {
	store := newMemEventStore()
	svc, factory := newTestService(store)
	created := seedEvent(store, svc, t)

	resp, err := svc.BuyTicket(context.Background(), created.ID, "buyer-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.EventName != created.Name {
		t.Errorf("purchase confirms with the event name, got %s", resp.EventName)
	}
	if !factory.last.completed {
		t.Error("purchase must commit its unit of work")
	}

	stored, _ := store.GetByID(context.Background(), created.ID)
	if stored.TicketsAvailable != created.TicketsAvailable-1 {
		t.Errorf("available not decremented: %d", stored.TicketsAvailable)
	}
	if stored.TicketsSold != 1 {
		t.Errorf("sold not incremented: %d", stored.TicketsSold)
	}
}

// Capacity N sustains exactly N purchases; the N+1th fails sold out, and
// sold plus available stays constant throughout.
func TestBuyTicket_ExhaustsCapacityExactly(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)

	req := validCreateRequest()
	req.TicketsAvailable = 5
	created, err := svc.CreateEvent(context.Background(), req, "org-1")
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.BuyTicket(context.Background(), created.ID, "buyer"); err != nil {
			t.Fatalf("purchase %d failed: %v", i+1, err)
		}
		stored, _ := store.GetByID(context.Background(), created.ID)
		if stored.TicketsAvailable+stored.TicketsSold != 5 {
			t.Fatalf("capacity invariant broken: available=%d sold=%d",
				stored.TicketsAvailable, stored.TicketsSold)
		}
	}

	_, err = svc.BuyTicket(context.Background(), created.ID, "buyer")
	if !errors.Is(err, domain.ErrNoTicketsAvailable) {
		t.Fatalf("expected ErrNoTicketsAvailable, got %v", err)
	}

	stored, _ := store.GetByID(context.Background(), created.ID)
	if stored.TicketsSold != 5 || stored.TicketsAvailable != 0 {
		t.Errorf("failed purchase must not change counters: available=%d sold=%d",
			stored.TicketsAvailable, stored.TicketsSold)
	}
}

// A concurrent writer bumping the version between read and write loses the
// purchase with a conflict; the interleaved write is preserved.
func TestBuyTicket_ConcurrentWriteConflicts(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	fired := false
	store.onUpdate = func(s *memEventStore) {
		if fired {
			return
		}
		fired = true
		stored := s.events[created.ID]
		stored.TicketsAvailable--
		stored.TicketsSold++
		stored.Version++
	}

	_, err := svc.BuyTicket(context.Background(), created.ID, "loser")
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict, got %v", err)
	}

	stored, _ := store.GetByID(context.Background(), created.ID)
	if stored.TicketsSold != 1 {
		t.Errorf("winner's purchase must survive, sold=%d", stored.TicketsSold)
	}
}

func TestBuyTicket_EventNotFound(t *testing.T) {
	svc, factory := newTestService(newMemEventStore())

	_, err := svc.BuyTicket(context.Background(), "missing", "buyer")
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if !factory.last.rolledBack {
		t.Error("failed purchase must roll back its unit of work")
	}
}

func TestBuyTicket_ConflictAtCommit(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	created := seedEvent(store, svc, t)

	// Force the commit itself to report a serialization failure.
	preparedFactory := &conflictAtCommitFactory{store: store}
	svcConflict := NewEventService(store, preparedFactory,
		validator.NewEventValidator(clock.NewFixed(serviceNow)), clock.NewFixed(serviceNow), nil, nil)

	_, err := svcConflict.BuyTicket(context.Background(), created.ID, "buyer")
	if !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected ErrConcurrencyConflict from commit, got %v", err)
	}
}

type conflictAtCommitFactory struct {
	store *memEventStore
}

func (f *conflictAtCommitFactory) Begin(context.Context) (repository.UnitOfWork, error) {
	return &memUnitOfWork{store: f.store, completeErr: domain.ErrConcurrencyConflict}, nil
}

func TestSearchEvents_ReturnsCountOfPage(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)
	seedEvent(store, svc, t)

	resp, err := svc.SearchEvents(context.Background(), &dto.SearchEventsRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != len(resp.Events) {
		t.Errorf("count must match returned events: count=%d len=%d", resp.Count, len(resp.Events))
	}
	if resp.Count != 1 {
		t.Errorf("expected one event, got %d", resp.Count)
	}
}

func TestGetEventsWithAvailableTickets_ExcludesSoldOut(t *testing.T) {
	store := newMemEventStore()
	svc, _ := newTestService(store)

	req := validCreateRequest()
	req.TicketsAvailable = 1
	created, err := svc.CreateEvent(context.Background(), req, "org-1")
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	if _, err := svc.BuyTicket(context.Background(), created.ID, "buyer"); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	resp, err := svc.GetEventsWithAvailableTickets(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("sold-out events must be excluded, got %d", resp.Count)
	}
}
