package audit

import (
	"context"
	"time"

	id "ivory/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores
// can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers submissions sent to the case system. These
	// are kept for the statutory retention period.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for operational visibility:
	// partial failures and abandoned journeys.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	SessionID id.SessionID
	// Subject is the submission reference or case record ID the event is about.
	Subject   string
	Action    string
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	EventSubmissionCreated    AuditEvent = "submission_created"
	EventSubmissionFailed     AuditEvent = "submission_failed"
	EventAttachmentLinkFailed AuditEvent = "attachment_link_failed"
	EventJourneyExited        AuditEvent = "journey_exited"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSubmissionCreated:    CategoryCompliance,
	EventSubmissionFailed:     CategoryCompliance,
	EventAttachmentLinkFailed: CategoryOperations,
	EventJourneyExited:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
