//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

// Package casemgmt talks to the back-office case-management system that
// stores submitted declarations and applications.
package casemgmt

import (
	"context"

	"ivory/internal/record"
)

// Record is a stored case record.
type Record struct {
	ID     string
	Fields map[string]any
}

// Client is the case-management port. highValue selects the Section 2
// entity; otherwise Section 10.
type Client interface {
	CreateRecord(ctx context.Context, body record.Record, highValue bool) (string, error)
	// UpdateRecord patches a created record. The back office updates records
	// after payment, which this service does not take, so nothing here calls
	// it yet; it stays so the port covers the whole case API.
	UpdateRecord(ctx context.Context, id string, body record.Record, highValue bool) error
	UpdateRecordAttachments(ctx context.Context, id string, highValue bool, attachments []record.Attachment) error
	// GetRecord returns (nil, nil) when no record matches both id and accessKey.
	GetRecord(ctx context.Context, id, accessKey string) (*Record, error)
	GetRecordsWithField(ctx context.Context, field, value string) ([]Record, error)
}
