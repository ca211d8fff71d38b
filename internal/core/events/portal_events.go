package events

import (
	"context"
	"log/slog"
)

const (
	EventTypeCheckedIn          = "attendance.checked_in"
	EventTypeCheckedOut         = "attendance.checked_out"
	EventTypeRequestReviewed    = "request.reviewed"
	EventTypeTransactionAdded   = "finance.transaction_added"
	EventTypeDuplicateConfirmed = "finance.duplicate_confirmed"
	EventTypeMonthClosed        = "finance.month_closed"
	EventTypeUserRoleChanged    = "user.role_changed"
	EventTypeUserActiveChanged  = "user.active_changed"
)

// AllEventTypes is what the audit log subscribes to.
var AllEventTypes = []string{
	EventTypeCheckedIn,
	EventTypeCheckedOut,
	EventTypeRequestReviewed,
	EventTypeTransactionAdded,
	EventTypeDuplicateConfirmed,
	EventTypeMonthClosed,
	EventTypeUserRoleChanged,
	EventTypeUserActiveChanged,
}

// AuditLogger writes every portal event to the structured log.
func AuditLogger(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "audit",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"data", event.Payload())
		return nil
	}
}

func SubscribeAudit(bus *EventBus, logger *slog.Logger) {
	handler := AuditLogger(logger)
	for _, t := range AllEventTypes {
		bus.Subscribe(t, handler)
	}
}

// NopPublisher drops events. Used when a service is built without a bus.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
