package service

import (
	"context"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
)

// EventService defines the business operations on events. Callers supply
// identity explicitly; the service never reaches into ambient request state.
type EventService interface {
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest, organiserID string) (*dto.EventResponse, error)
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)
	UpdateEvent(ctx context.Context, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	DeleteEvent(ctx context.Context, id string) error
	SearchEvents(ctx context.Context, req *dto.SearchEventsRequest) (*dto.SearchEventsResponse, error)
	GetEventsWithAvailableTickets(ctx context.Context, pageNumber, pageSize int) (*dto.SearchEventsResponse, error)
	// BuyTicket atomically moves one ticket from available to sold for the
	// given event. Concurrent purchases of the last ticket resolve to exactly
	// one winner; the loser receives domain.ErrConcurrencyConflict.
	BuyTicket(ctx context.Context, eventID, buyerID string) (*dto.TicketPurchaseResponse, error)
}

// AuthService defines account and token operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	ValidateToken(tokenString string) (*domain.Claims, error)
	GetUser(ctx context.Context, id string) (*dto.UserResponse, error)
}
