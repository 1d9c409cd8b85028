package domain

import (
	"fmt"
	"strings"
	"time"
)

// Event name/description length bounds
const (
	MinNameLength        = 3
	MaxNameLength        = 30
	MinDescriptionLength = 3
	MaxDescriptionLength = 100
)

// Event attendance bounds, enforced at creation
const (
	MinEventAttendance = 1
	MaxEventAttendance = 100000
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusPast      EventStatus = "past"
	EventStatusCanceled  EventStatus = "canceled"
	EventStatusPostponed EventStatus = "postponed"
)

// ParseEventStatus parses a status string into an EventStatus.
// It is total: an unknown value yields ErrInvalidEventStatus, never a panic.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(strings.ToLower(strings.TrimSpace(s))) {
	case EventStatusUpcoming:
		return EventStatusUpcoming, nil
	case EventStatusOngoing:
		return EventStatusOngoing, nil
	case EventStatusPast:
		return EventStatusPast, nil
	case EventStatusCanceled:
		return EventStatusCanceled, nil
	case EventStatusPostponed:
		return EventStatusPostponed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventStatus, s)
	}
}

// EventSort identifies a sort order for event listings
type EventSort string

const (
	SortDateAsc     EventSort = "date_asc" // default
	SortDateDesc    EventSort = "date_desc"
	SortNameAsc     EventSort = "name_asc"
	SortNameDesc    EventSort = "name_desc"
	SortPriceAsc    EventSort = "price_asc"
	SortPriceDesc   EventSort = "price_desc"
	SortTicketsAsc  EventSort = "tickets_asc"
	SortTicketsDesc EventSort = "tickets_desc"
)

// ParseEventSort parses a sort string; empty or unknown values fall back to
// the default date-ascending order.
func ParseEventSort(s string) EventSort {
	switch EventSort(strings.ToLower(strings.TrimSpace(s))) {
	case SortDateAsc, SortDateDesc, SortNameAsc, SortNameDesc,
		SortPriceAsc, SortPriceDesc, SortTicketsAsc, SortTicketsDesc:
		return EventSort(strings.ToLower(strings.TrimSpace(s)))
	default:
		return SortDateAsc
	}
}

// Event is the ticketed unit. TicketsAvailable and TicketsSold together
// preserve the initial capacity: every successful purchase moves one ticket
// from available to sold. Version is the optimistic-concurrency token used
// by the repository's guarded update.
type Event struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Price            float64     `json:"price"`
	Date             time.Time   `json:"date"`
	StartTime        time.Time   `json:"start_time"`
	EndTime          time.Time   `json:"end_time"`
	Status           EventStatus `json:"status"`
	TicketsAvailable int         `json:"tickets_available"`
	TicketsSold      int         `json:"tickets_sold"`
	OrganiserID      string      `json:"organiser_id"`
	Version          int64       `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// SearchCriteria captures the filters, sort, and page window for event
// searches. Zero values mean "not set"; negative prices are clamped by
// Normalize rather than rejected.
type SearchCriteria struct {
	Name       string
	MinPrice   float64
	MaxPrice   *float64
	StartDate  *time.Time
	EndDate    *time.Time
	Sort       EventSort
	PageNumber int
	PageSize   int
}

// Default page window used when the caller supplies nothing usable.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// Normalize clamps out-of-range values to the documented defaults:
// page number and size fall back when non-positive, negative price bounds
// are clamped to zero, and an unset sort becomes date-ascending.
func (c *SearchCriteria) Normalize() {
	if c.PageNumber <= 0 {
		c.PageNumber = DefaultPageNumber
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MinPrice < 0 {
		c.MinPrice = 0
	}
	if c.MaxPrice != nil && *c.MaxPrice < 0 {
		clamped := 0.0
		c.MaxPrice = &clamped
	}
	if c.Sort == "" {
		c.Sort = SortDateAsc
	}
}

// Offset returns the number of rows to skip for the current page.
func (c *SearchCriteria) Offset() int {
	return c.PageSize * (c.PageNumber - 1)
}
