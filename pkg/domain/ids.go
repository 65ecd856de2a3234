// Package domain holds typed identifiers shared across modules.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "ivory/pkg/domain-errors"
)

const maxIDLength = 36

// SessionID identifies one browser journey through the wizard. Every stored
// answer is namespaced by it.
type SessionID uuid.UUID

// EventID identifies an audit event.
type EventID uuid.UUID

// NewSessionID mints a random session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// NewEventID mints a random audit event identifier.
func NewEventID() EventID {
	return EventID(uuid.New())
}

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// ParseSessionID parses a session identifier received from a client.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

// ParseEventID parses an audit event identifier.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event_id")
	return EventID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
