package casemgmt

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"ivory/internal/record"
)

// InMemory is a process-local case system for development and tests.
type InMemory struct {
	mu          sync.Mutex
	section2    map[string]record.Record
	section10   map[string]record.Record
	attachments map[string][]record.Attachment

	// Fail* hooks, when set, are returned instead of performing the call.
	FailCreate      error
	FailAttachments error
	FailLookup      error
}

func NewInMemory() *InMemory {
	return &InMemory{
		section2:    make(map[string]record.Record),
		section10:   make(map[string]record.Record),
		attachments: make(map[string][]record.Attachment),
	}
}

func (m *InMemory) table(highValue bool) map[string]record.Record {
	if highValue {
		return m.section2
	}
	return m.section10
}

func (m *InMemory) CreateRecord(_ context.Context, body record.Record, highValue bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return "", m.FailCreate
	}
	id := uuid.NewString()
	m.table(highValue)[id] = maps.Clone(body)
	return id, nil
}

func (m *InMemory) UpdateRecord(_ context.Context, id string, body record.Record, highValue bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.table(highValue)[id]
	if !ok {
		return &Error{Op: "UpdateRecord", Category: ErrorRejected, Status: 404}
	}
	maps.Copy(existing, body)
	return nil
}

func (m *InMemory) UpdateRecordAttachments(_ context.Context, id string, highValue bool, attachments []record.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAttachments != nil {
		return m.FailAttachments
	}
	if _, ok := m.table(highValue)[id]; !ok {
		return &Error{Op: "UpdateRecordAttachments", Category: ErrorRejected, Status: 404}
	}
	m.attachments[id] = append(m.attachments[id], attachments...)
	return nil
}

func (m *InMemory) GetRecord(_ context.Context, id, accessKey string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLookup != nil {
		return nil, m.FailLookup
	}
	for _, t := range []map[string]record.Record{m.section2, m.section10} {
		body, ok := t[id]
		if !ok {
			continue
		}
		if key, _ := body[record.FieldAccessKey].(string); key == "" || key != accessKey {
			return nil, nil
		}
		return &Record{ID: id, Fields: maps.Clone(body)}, nil
	}
	return nil, nil
}

func (m *InMemory) GetRecordsWithField(_ context.Context, field, value string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailLookup != nil {
		return nil, m.FailLookup
	}
	var out []Record
	for id, body := range m.section2 {
		if v, ok := body[field].(string); ok && v == value {
			out = append(out, Record{ID: id, Fields: maps.Clone(body)})
		}
	}
	return out, nil
}

// Seed stores a record under a fixed id.
func (m *InMemory) Seed(id string, body record.Record, highValue bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table(highValue)[id] = maps.Clone(body)
}

// Records returns a copy of the stored records of one entity.
func (m *InMemory) Records(highValue bool) map[string]record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]record.Record, len(m.table(highValue)))
	for id, body := range m.table(highValue) {
		out[id] = maps.Clone(body)
	}
	return out
}

// Attachments returns the attachments linked to a record.
func (m *InMemory) Attachments(id string) []record.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]record.Attachment(nil), m.attachments[id]...)
}

var _ Client = (*InMemory)(nil)
