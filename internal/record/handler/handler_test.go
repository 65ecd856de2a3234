package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivory/internal/casemgmt"
	"ivory/internal/record"
	"ivory/pkg/testutil"
)

func newRouter(cases Lookup) http.Handler {
	r := chi.NewRouter()
	New(cases, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestDownload(t *testing.T) {
	cases := casemgmt.NewInMemory()
	cases.Seed("rec-1", record.Record{
		record.FieldAccessKey: "secret",
		record.FieldName:      "ABCD2345",
	}, true)
	router := newRouter(cases)

	t.Run("matching key returns the record without its key", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download/rec-1?key=secret"))

		testutil.AssertStatusOK(t, rr)
		body := testutil.UnmarshalResponse[struct {
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		}](t, rr)
		require.NotNil(t, body)
		assert.Equal(t, "rec-1", body.ID)
		assert.Equal(t, "ABCD2345", body.Fields[record.FieldName])
		assert.NotContains(t, body.Fields, record.FieldAccessKey)
	})

	t.Run("wrong key goes to record not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download/rec-1?key=nope"))
		testutil.AssertRedirect(t, rr, RecordNotFoundPath)
	})

	t.Run("unknown record goes to record not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download/rec-2?key=secret"))
		testutil.AssertRedirect(t, rr, RecordNotFoundPath)
	})

	t.Run("case system failure goes to problem with service", func(t *testing.T) {
		cases.FailLookup = &casemgmt.Error{Op: "GetRecord", Category: casemgmt.ErrorOutage, Status: 502}
		defer func() { cases.FailLookup = nil }()

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/download/rec-1?key=secret"))
		testutil.AssertRedirect(t, rr, ProblemWithServicePath)
	})
}
