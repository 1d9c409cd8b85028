package domain

import "strings"

// Validation error codes. Codes are stable and machine-readable; clients key
// off them to highlight the offending field.
const (
	CodeMissingEventName        = "Event.MissingEventName"
	CodeInvalidName             = "Event.InvalidName"
	CodeMissingEventDescription = "Event.MissingEventDescription"
	CodeInvalidDescription      = "Event.InvalidDescription"
	CodeInvalidEventDate        = "Event.InvalidEventDate"
	CodeInvalidEventStartTime   = "Event.InvalidEventStartTime"
	CodeInvalidEventEndTime     = "Event.InvalidEventEndTime"
	CodeInvalidTicketPrice      = "Event.InvalidTicketPrice"
	CodeInvalidCapacity         = "Event.InvalidCapacity"
	CodeExceedsMaximumCapacity  = "Event.ExceedsMaximumCapacity"
	CodeInvalidEventStatus      = "Event.InvalidEventStatus"
)

// FieldError is a single validation failure with a stable code and a
// human-readable description.
type FieldError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ValidationErrors is the full list of rule violations from one validation
// pass. It implements error so services can return it directly; handlers
// unpack it into a code→messages map.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	descriptions := make([]string, len(v))
	for i, fe := range v {
		descriptions[i] = fe.Description
	}
	return "validation failed: " + strings.Join(descriptions, "; ")
}

// ToMap groups descriptions by code so a client can surface every violation
// per field at once.
func (v ValidationErrors) ToMap() map[string][]string {
	m := make(map[string][]string, len(v))
	for _, fe := range v {
		m[fe.Code] = append(m[fe.Code], fe.Description)
	}
	return m
}

// HasCode reports whether any failure in the list carries the given code.
func (v ValidationErrors) HasCode(code string) bool {
	for _, fe := range v {
		if fe.Code == code {
			return true
		}
	}
	return false
}
