package dto

import (
	"time"

	"github.com/henrychris/EventManagement/internal/domain"
)

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Name             string    `json:"name" binding:"required"`
	Description      string    `json:"description" binding:"required"`
	Price            float64   `json:"price"`
	Date             time.Time `json:"date" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	TicketsAvailable int       `json:"tickets_available"`
}

// UpdateEventRequest represents a partial update. Only non-nil fields are
// applied; the merged entity is re-validated as a whole before any write.
type UpdateEventRequest struct {
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	Price            *float64   `json:"price"`
	Date             *time.Time `json:"date"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	Status           *string    `json:"status"`
	TicketsAvailable *int       `json:"tickets_available"`
}

// IsEmpty reports whether the request carries no changes at all.
func (r *UpdateEventRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil &&
		r.Date == nil && r.StartTime == nil && r.EndTime == nil &&
		r.Status == nil && r.TicketsAvailable == nil
}

// SearchEventsRequest is the query-string-bound search criteria
type SearchEventsRequest struct {
	Name       string     `form:"name"`
	MinPrice   float64    `form:"min_price"`
	MaxPrice   *float64   `form:"max_price"`
	StartDate  *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"end_date" time_format:"2006-01-02"`
	Sort       string     `form:"sort"`
	PageNumber int        `form:"page_number"`
	PageSize   int        `form:"page_size"`
}

// ToCriteria converts the request into normalized domain search criteria.
func (r *SearchEventsRequest) ToCriteria() domain.SearchCriteria {
	c := domain.SearchCriteria{
		Name:       r.Name,
		MinPrice:   r.MinPrice,
		MaxPrice:   r.MaxPrice,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Sort:       domain.ParseEventSort(r.Sort),
		PageNumber: r.PageNumber,
		PageSize:   r.PageSize,
	}
	c.Normalize()
	return c
}

// EventResponse is the projection of an event returned to clients
type EventResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Status           string  `json:"status"`
	TicketsAvailable int     `json:"tickets_available"`
	TicketsSold      int     `json:"tickets_sold"`
	OrganiserID      string  `json:"organiser_id"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

// SearchEventsResponse is a page of events plus the returned count
type SearchEventsResponse struct {
	Events []*EventResponse `json:"events"`
	Count  int              `json:"count"`
}

// TicketPurchaseResponse confirms a successful purchase
type TicketPurchaseResponse struct {
	EventName string `json:"event_name"`
}

// ToEventResponse converts a domain event to its response projection.
func ToEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		ID:               e.ID,
		Name:             e.Name,
		Description:      e.Description,
		Price:            e.Price,
		Date:             e.Date.Format(time.RFC3339),
		StartTime:        e.StartTime.Format(time.RFC3339),
		EndTime:          e.EndTime.Format(time.RFC3339),
		Status:           string(e.Status),
		TicketsAvailable: e.TicketsAvailable,
		TicketsSold:      e.TicketsSold,
		OrganiserID:      e.OrganiserID,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.Format(time.RFC3339),
	}
}
