// Package handler exposes the declaration journey over HTTP. Every step is
// served at its own path; GET presents it, POST submits it.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ivory/internal/casemgmt"
	"ivory/internal/platform/config"
	"ivory/internal/platform/metrics"
	"ivory/internal/platform/middleware"
	"ivory/internal/wizard"
	id "ivory/pkg/domain"
	dErrors "ivory/pkg/domain-errors"
	"ivory/pkg/platform/httputil"
	"ivory/pkg/requestcontext"
)

// Terminal pages.
const (
	ProblemWithServicePath = "/errors/problem-with-service"
	SessionTimedOutPath    = "/errors/session-timed-out"
	RecordNotFoundPath     = "/errors/record-not-found"
	PageNotFoundPath       = "/errors/page-not-found"
)

var errorPages = map[string]string{
	"problem-with-service": "Sorry, there is a problem with the service",
	"session-timed-out":    "Your application has timed out",
	"record-not-found":     "We could not find that record",
	"page-not-found":       "Page not found",
}

const (
	filesField = "files"
	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20
)

// Engine is the part of the wizard engine the handler drives.
type Engine interface {
	Table() wizard.Table
	Step(stepID wizard.StepID) (wizard.Step, bool)
	Present(ctx context.Context, sid id.SessionID, stepID wizard.StepID) (wizard.Presentation, error)
	Submit(ctx context.Context, sid id.SessionID, stepID wizard.StepID, in wizard.Input) (wizard.Result, error)
	Remove(ctx context.Context, sid id.SessionID, stepID wizard.StepID, index int) (wizard.Result, error)
	Done(ctx context.Context, sid id.SessionID) (bool, error)
}

// SessionTokens signs and reads the session cookie.
type SessionTokens interface {
	Issue(sid id.SessionID, now time.Time) (string, error)
	Parse(token string, now time.Time) (id.SessionID, error)
}

// Config holds the handler settings.
type Config struct {
	Session         config.SessionConfig
	MaxRequestBytes int64
	// FirstStep is where GET / sends a new session.
	FirstStep wizard.StepID
}

type Handler struct {
	engine  Engine
	tokens  SessionTokens
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(engine Engine, tokens SessionTokens, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = config.Default().Upload.MaxRequestBytes
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = config.Default().Session.CookieName
	}
	return &Handler{engine: engine, tokens: tokens, cfg: cfg, metrics: m, logger: logger}
}

// Register mounts the journey, its remove actions and the terminal pages.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleStart)
	r.Get("/errors/{page}", h.handleErrorPage)
	r.NotFound(h.handleNotFound)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		for _, stepID := range h.engine.Table().Steps() {
			r.Get(stepID.Path(), h.handlePresent(stepID))
			r.Post(stepID.Path(), h.handleSubmit(stepID))
			if step, ok := h.engine.Step(stepID); ok {
				if _, ok := step.(wizard.Remover); ok {
					r.Post(stepID.Path()+"/remove/{index}", h.handleRemove(stepID))
				}
			}
		}
	})
}

// RequireSession resolves the session cookie. A missing or expired cookie
// sends the user to the timed-out page; a valid one is reissued so the
// cookie lives as long as the answers do.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sid, ok := h.session(r)
		if !ok {
			http.Redirect(w, r, SessionTimedOutPath, http.StatusFound)
			return
		}
		if err := h.setCookie(w, sid, requestcontext.Now(ctx)); err != nil {
			h.fail(w, r, "IssueSession", "", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(ctx, sid)))
	})
}

func (h *Handler) session(r *http.Request) (id.SessionID, bool) {
	cookie, err := r.Cookie(h.cfg.Session.CookieName)
	if err != nil || cookie.Value == "" {
		return id.SessionID{}, false
	}
	sid, err := h.tokens.Parse(cookie.Value, requestcontext.Now(r.Context()))
	if err != nil {
		h.logger.DebugContext(r.Context(), "session cookie rejected",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		return id.SessionID{}, false
	}
	return sid, true
}

func (h *Handler) setCookie(w http.ResponseWriter, sid id.SessionID, now time.Time) error {
	token, err := h.tokens.Issue(sid, now)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.Session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(config.AnswerTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// handleStart begins the journey. A live session is reused until its
// journey is done; after that the next item gets a fresh session.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := h.session(r)
	if ok {
		done, err := h.engine.Done(ctx, sid)
		if err != nil {
			h.fail(w, r, "Done", "", err)
			return
		}
		ok = !done
	}
	if !ok {
		sid = id.NewSessionID()
		h.metrics.IncrementSessionsCreated()
		h.logger.InfoContext(ctx, "session started",
			"request_id", middleware.GetRequestID(ctx),
			"session_id", sid.String(),
		)
	}
	if err := h.setCookie(w, sid, requestcontext.Now(ctx)); err != nil {
		h.fail(w, r, "IssueSession", "", err)
		return
	}
	http.Redirect(w, r, h.cfg.FirstStep.Path(), http.StatusFound)
}

func (h *Handler) handlePresent(stepID wizard.StepID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, err := h.engine.Present(ctx, requestcontext.SessionID(ctx), stepID)
		if err != nil {
			h.fail(w, r, "Present", stepID, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) handleSubmit(stepID wizard.StepID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		in, err := h.readInput(w, r)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read form"))
			return
		}

		res, err := h.engine.Submit(ctx, requestcontext.SessionID(ctx), stepID, in)
		switch {
		case errors.Is(err, wizard.ErrNoSubmit):
			w.Header().Set("Allow", http.MethodGet)
			httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
		case err != nil:
			h.fail(w, r, "Submit", stepID, err)
		case res.Invalid():
			httputil.WriteJSON(w, http.StatusBadRequest, res.Page)
		default:
			http.Redirect(w, r, res.Redirect, http.StatusFound)
		}
	}
}

func (h *Handler) handleRemove(stepID wizard.StepID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			http.Redirect(w, r, PageNotFoundPath, http.StatusFound)
			return
		}
		res, err := h.engine.Remove(ctx, requestcontext.SessionID(ctx), stepID, index)
		switch {
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			http.Redirect(w, r, PageNotFoundPath, http.StatusFound)
		case err != nil:
			h.fail(w, r, "Remove", stepID, err)
		default:
			http.Redirect(w, r, res.Redirect, http.StatusFound)
		}
	}
}

// readInput parses the form body. Multipart bodies carry uploads in the
// files field; a body over the cap is reported on the step rather than
// failing the request.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (wizard.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return wizard.Input{}, err
		}
		return wizard.Input{Form: r.PostForm}, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || r.ContentLength > h.cfg.MaxRequestBytes {
			return wizard.Input{UploadErr: wizard.ErrUploadTooLarge}, nil
		}
		return wizard.Input{UploadErr: err}, nil
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := wizard.Input{Form: r.PostForm}
	for _, fh := range r.MultipartForm.File[filesField] {
		// Browsers send an empty part when no file was chosen.
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return wizard.Input{UploadErr: err}, nil
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return wizard.Input{UploadErr: err}, nil
		}
		in.Files = append(in.Files, wizard.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return in, nil
}

func (h *Handler) handleErrorPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	title, ok := errorPages[name]
	if !ok {
		h.handleNotFound(w, r)
		return
	}
	status := http.StatusOK
	if name == "page-not-found" {
		status = http.StatusNotFound
	}
	httputil.WriteJSON(w, status, map[string]string{"page": name, "title": title})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
		"page":  "page-not-found",
		"title": errorPages["page-not-found"],
	})
}

// fail logs an unexpected error with the identifiers needed to trace it and
// sends the user to the problem page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, stepID wizard.StepID, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "request failed",
		"operation", operation,
		"step", string(stepID),
		"status", casemgmt.StatusOf(err),
		"code", string(dErrors.CodeOf(err)),
		"session_id", requestcontext.SessionID(ctx).String(),
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	http.Redirect(w, r, ProblemWithServicePath, http.StatusFound)
}
