// Package validator holds the event rule engine. Every rule is evaluated on
// each pass so a single call surfaces all violations at once; rules are never
// short-circuited against each other.
package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/henrychris/EventManagement/internal/clock"
	"github.com/henrychris/EventManagement/internal/domain"
)

// EventValidator checks an Event against the domain rules and returns every
// violation found. A nil event is a programming error, not a validation
// outcome.
type EventValidator struct {
	clock clock.Clock
}

// NewEventValidator creates a validator using the given clock for the
// future-date rule.
func NewEventValidator(c clock.Clock) *EventValidator {
	if c == nil {
		c = clock.NewSystem()
	}
	return &EventValidator{clock: c}
}

// ChangedFields records which time/capacity fields an update supplied.
// The future-date and capacity-bounds rules only apply to values the caller
// actually changed; re-validating them on an untouched event would reject
// every update to an event whose date has since passed or that has sold down
// below the minimum capacity.
type ChangedFields struct {
	Date             bool
	TicketsAvailable bool
}

// ValidateCreate applies the full rule set for a new event, including the
// future-date and capacity-bounds rules.
func (v *EventValidator) ValidateCreate(e *domain.Event) domain.ValidationErrors {
	return v.validate(e, ChangedFields{Date: true, TicketsAvailable: true})
}

// ValidateUpdate re-validates the fully merged entity after a partial update.
// Structural rules (name, description, price, start/end ordering) always run
// against the merged state so an update cannot leave two untouched fields
// inconsistent with a touched one.
func (v *EventValidator) ValidateUpdate(e *domain.Event, changed ChangedFields) domain.ValidationErrors {
	return v.validate(e, changed)
}

func (v *EventValidator) validate(e *domain.Event, changed ChangedFields) domain.ValidationErrors {
	if e == nil {
		panic("validator: nil event")
	}

	var errs domain.ValidationErrors

	if e.Name == "" {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeMissingEventName,
			Description: "Event name is required.",
		})
	} else if n := utf8.RuneCountInString(e.Name); n < domain.MinNameLength || n > domain.MaxNameLength {
		errs = append(errs, domain.FieldError{
			Code: domain.CodeInvalidName,
			Description: fmt.Sprintf("Event name must be between %d and %d characters.",
				domain.MinNameLength, domain.MaxNameLength),
		})
	}

	if e.Description == "" {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeMissingEventDescription,
			Description: "Event description is required.",
		})
	} else if n := utf8.RuneCountInString(e.Description); n < domain.MinDescriptionLength || n > domain.MaxDescriptionLength {
		errs = append(errs, domain.FieldError{
			Code: domain.CodeInvalidDescription,
			Description: fmt.Sprintf("Event description must be between %d and %d characters.",
				domain.MinDescriptionLength, domain.MaxDescriptionLength),
		})
	}

	if changed.Date && !e.Date.After(v.clock.Now()) {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeInvalidEventDate,
			Description: "Event date must be in the future.",
		})
	}

	if e.StartTime.Before(e.Date) {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeInvalidEventStartTime,
			Description: "Event start time cannot be before the event date.",
		})
	}

	if e.EndTime.Before(e.Date) || e.EndTime.Before(e.StartTime) {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeInvalidEventEndTime,
			Description: "Event end time cannot be before the event date or start time.",
		})
	}

	if e.Price < 0 {
		errs = append(errs, domain.FieldError{
			Code:        domain.CodeInvalidTicketPrice,
			Description: "Ticket price cannot be negative.",
		})
	}

	if changed.TicketsAvailable {
		if e.TicketsAvailable < domain.MinEventAttendance {
			errs = append(errs, domain.FieldError{
				Code: domain.CodeInvalidCapacity,
				Description: fmt.Sprintf("Event must have at least %d ticket available.",
					domain.MinEventAttendance),
			})
		}
		if e.TicketsAvailable > domain.MaxEventAttendance {
			errs = append(errs, domain.FieldError{
				Code: domain.CodeExceedsMaximumCapacity,
				Description: fmt.Sprintf("Event cannot have more than %d tickets.",
					domain.MaxEventAttendance),
			})
		}
	}

	return errs
}
