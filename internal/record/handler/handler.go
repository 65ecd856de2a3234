// Package handler serves the secure download link case officers and
// prescribed institutions use to view a submitted record.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ivory/internal/casemgmt"
	"ivory/internal/platform/middleware"
	"ivory/internal/record"
	"ivory/pkg/platform/httputil"
)

// Paths of the terminal pages this handler redirects to.
const (
	RecordNotFoundPath     = "/errors/record-not-found"
	ProblemWithServicePath = "/errors/problem-with-service"
)

// Lookup is the part of the case client the download link needs.
type Lookup interface {
	GetRecord(ctx context.Context, id, accessKey string) (*casemgmt.Record, error)
}

type Handler struct {
	cases  Lookup
	logger *slog.Logger
}

func New(cases Lookup, logger *slog.Logger) *Handler {
	return &Handler{cases: cases, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/download/{recordID}", h.handleDownload)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID := chi.URLParam(r, "recordID")

	rec, err := h.cases.GetRecord(ctx, recordID, r.URL.Query().Get("key"))
	if err != nil {
		h.logger.ErrorContext(ctx, "record lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"operation", "GetRecord",
			"record_id", recordID,
			"status", casemgmt.StatusOf(err),
			"error", err,
		)
		http.Redirect(w, r, ProblemWithServicePath, http.StatusFound)
		return
	}
	if rec == nil {
		h.logger.InfoContext(ctx, "download link did not match a record",
			"request_id", middleware.GetRequestID(ctx),
			"record_id", recordID,
		)
		http.Redirect(w, r, RecordNotFoundPath, http.StatusFound)
		return
	}

	fields := make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		if k == record.FieldAccessKey {
			continue
		}
		fields[k] = v
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"id": rec.ID, "fields": fields})
}
