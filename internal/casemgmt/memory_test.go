package casemgmt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivory/internal/record"
)

func TestInMemory_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	m := NewInMemory()

	id, err := m.CreateRecord(ctx, record.Record{record.FieldAccessKey: "key", record.FieldCertificateNumber: "CERT1"}, true)
	require.NoError(t, err)

	rec, err := m.GetRecord(ctx, id, "key")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)

	rec, err = m.GetRecord(ctx, id, "other")
	require.NoError(t, err)
	assert.Nil(t, rec)

	found, err := m.GetRecordsWithField(ctx, record.FieldCertificateNumber, "CERT1")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = m.GetRecordsWithField(ctx, record.FieldCertificateNumber, "CERT2")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestInMemory_RecordWithoutAccessKeyIsNeverReturned(t *testing.T) {
	m := NewInMemory()
	m.Seed("id-1", record.Record{}, false)

	rec, err := m.GetRecord(context.Background(), "id-1", "")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestInMemory_FailureHooks(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	m := NewInMemory()
	id, err := m.CreateRecord(ctx, record.Record{}, false)
	require.NoError(t, err)

	m.FailAttachments = boom
	assert.ErrorIs(t, m.UpdateRecordAttachments(ctx, id, false, []record.Attachment{{Field: "f"}}), boom)
	assert.Empty(t, m.Attachments(id))

	m.FailCreate = boom
	_, err = m.CreateRecord(ctx, record.Record{}, false)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, m.Records(false), 1)
}
