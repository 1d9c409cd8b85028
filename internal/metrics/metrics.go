// Package metrics holds the service's OpenTelemetry instruments. When no
// meter provider is installed the instruments are no-ops, so call sites
// never guard.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "event-management"

// Metrics bundles the counters the event module records.
type Metrics struct {
	eventsCreated     metric.Int64Counter
	ticketsPurchased  metric.Int64Counter
	purchaseConflicts metric.Int64Counter
}

// New creates the instrument set from the global meter provider.
func New() (*Metrics, error) {
	meter := otel.Meter(meterName)

	eventsCreated, err := meter.Int64Counter("events_created_total",
		metric.WithDescription("Number of events created"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}

	ticketsPurchased, err := meter.Int64Counter("tickets_purchased_total",
		metric.WithDescription("Number of tickets successfully purchased"))
	if err != nil {
		return nil, fmt.Errorf("failed to create purchases counter: %w", err)
	}

	purchaseConflicts, err := meter.Int64Counter("ticket_purchase_conflicts_total",
		metric.WithDescription("Number of purchases lost to a concurrent write"))
	if err != nil {
		return nil, fmt.Errorf("failed to create conflicts counter: %w", err)
	}

	return &Metrics{
		eventsCreated:     eventsCreated,
		ticketsPurchased:  ticketsPurchased,
		purchaseConflicts: purchaseConflicts,
	}, nil
}

// RecordEventCreated increments the created-events counter.
func (m *Metrics) RecordEventCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.eventsCreated.Add(ctx, 1)
}

// RecordTicketPurchased increments the purchases counter for an event.
func (m *Metrics) RecordTicketPurchased(ctx context.Context, eventID string) {
	if m == nil {
		return
	}
	m.ticketsPurchased.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event_id", eventID)))
}

// RecordPurchaseConflict increments the conflicts counter for an event.
func (m *Metrics) RecordPurchaseConflict(ctx context.Context, eventID string) {
	if m == nil {
		return
	}
	m.purchaseConflicts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event_id", eventID)))
}
