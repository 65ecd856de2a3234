package casemgmt

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ivory/internal/platform/config"
	"ivory/internal/record"
	"ivory/pkg/platform/circuit"
)

type entity struct {
	set     string
	idField string
}

var (
	section2Entity  = entity{set: "cre2c_ivorysection2cases", idField: "cre2c_ivorysection2caseid"}
	section10Entity = entity{set: "cre2c_ivorysection10cases", idField: "cre2c_ivorysection10caseid"}
)

func entityFor(highValue bool) entity {
	if highValue {
		return section2Entity
	}
	return section10Entity
}

const maxResponseBytes = 4 << 20

// HTTPClient is the OData client of the case system.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *circuit.Breaker
	limiter *rate.Limiter
	tracer  trace.Tracer
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func WithMetrics(m *Metrics) Option {
	return func(h *HTTPClient) { h.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

// WithBreaker replaces the breaker built from config (tests inject a clock).
func WithBreaker(b *circuit.Breaker) Option {
	return func(h *HTTPClient) { h.breaker = b }
}

func NewHTTPClient(cfg config.CaseAPIConfig, opts ...Option) (*HTTPClient, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("case api base url: %w", err)
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: circuit.New("case-api",
			circuit.WithFailureThreshold(cfg.FailureThreshold),
			circuit.WithCooldown(cfg.Cooldown),
		),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		tracer:  otel.Tracer("ivory/casemgmt"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type call struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	headers     map[string]string
}

// do runs one call through breaker, limiter and tracing. A 404 is returned as
// (nil, 404, nil) so lookups can turn it into "not found".
func (c *HTTPClient) do(ctx context.Context, in call) ([]byte, int, error) {
	ctx, span := c.tracer.Start(ctx, "casemgmt."+in.op, trace.WithAttributes(
		attribute.String("http.request.method", in.method),
		attribute.String("casemgmt.operation", in.op),
	))
	defer span.End()
	start := time.Now()

	body, status, err := c.roundTrip(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = string(CategoryOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	c.metrics.observe(in.op, outcome, time.Since(start).Seconds())
	return body, status, err
}

func (c *HTTPClient) roundTrip(ctx context.Context, in call) ([]byte, int, error) {
	if !c.breaker.Allow() {
		return nil, 0, &Error{Op: in.op, Category: ErrorOutage, Underlying: ErrCircuitOpen}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &Error{Op: in.op, Category: ErrorRateLimited, Underlying: err}
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.path, bytes.NewReader(in.body))
	if err != nil {
		return nil, 0, &Error{Op: in.op, Category: ErrorBadData, Underlying: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("OData-MaxVersion", "4.0")
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range in.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.failure()
		category := ErrorOutage
		if errors.Is(err, context.DeadlineExceeded) {
			category = ErrorTimeout
		}
		return nil, 0, &Error{Op: in.op, Category: category, Underlying: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.failure()
		return nil, resp.StatusCode, &Error{Op: in.op, Category: ErrorOutage, Status: resp.StatusCode, Underlying: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.success()
		return body, resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		c.success()
		return nil, resp.StatusCode, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &Error{Op: in.op, Category: ErrorRateLimited, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.success()
		return nil, resp.StatusCode, &Error{Op: in.op, Category: ErrorAuthentication, Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		c.failure()
		return nil, resp.StatusCode, &Error{Op: in.op, Category: ErrorOutage, Status: resp.StatusCode, Underlying: errors.New(snippet(body))}
	default:
		c.success()
		return nil, resp.StatusCode, &Error{Op: in.op, Category: ErrorRejected, Status: resp.StatusCode, Underlying: errors.New(snippet(body))}
	}
}

func (c *HTTPClient) failure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("case api circuit opened", "breaker", c.breaker.Name())
		c.metrics.circuit(true)
	}
}

func (c *HTTPClient) success() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("case api circuit closed", "breaker", c.breaker.Name())
		c.metrics.circuit(false)
	}
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

func recordPath(e entity, id string) string {
	return "/" + e.set + "(" + id + ")"
}

func (c *HTTPClient) CreateRecord(ctx context.Context, body record.Record, highValue bool) (string, error) {
	const op = "CreateRecord"
	e := entityFor(highValue)
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Op: op, Category: ErrorBadData, Underlying: err}
	}
	resp, status, err := c.do(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        "/" + e.set,
		body:        payload,
		contentType: "application/json",
		headers:     map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return "", err
	}
	var created map[string]any
	if err := json.Unmarshal(resp, &created); err != nil {
		return "", &Error{Op: op, Category: ErrorBadData, Status: status, Underlying: err}
	}
	id, _ := created[e.idField].(string)
	if id == "" {
		return "", &Error{Op: op, Category: ErrorBadData, Status: status, Underlying: fmt.Errorf("response has no %s", e.idField)}
	}
	return id, nil
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, id string, body record.Record, highValue bool) error {
	const op = "UpdateRecord"
	if _, err := uuid.Parse(id); err != nil {
		return &Error{Op: op, Category: ErrorRejected, Underlying: err}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: op, Category: ErrorBadData, Underlying: err}
	}
	_, status, err := c.do(ctx, call{
		op:          op,
		method:      http.MethodPatch,
		path:        recordPath(entityFor(highValue), id),
		body:        payload,
		contentType: "application/json",
	})
	if err == nil && status == http.StatusNotFound {
		return &Error{Op: op, Category: ErrorRejected, Status: status, Underlying: fmt.Errorf("record %s not found", id)}
	}
	return err
}

// UpdateRecordAttachments uploads each attachment to its file column. Every
// attachment is attempted; failures are joined.
func (c *HTTPClient) UpdateRecordAttachments(ctx context.Context, id string, highValue bool, attachments []record.Attachment) error {
	const op = "UpdateRecordAttachments"
	if _, err := uuid.Parse(id); err != nil {
		return &Error{Op: op, Category: ErrorRejected, Underlying: err}
	}
	e := entityFor(highValue)
	var errs []error
	for _, a := range attachments {
		_, status, err := c.do(ctx, call{
			op:          op,
			method:      http.MethodPatch,
			path:        recordPath(e, id) + "/" + a.Field,
			body:        a.Data,
			contentType: "application/octet-stream",
			headers:     map[string]string{"x-ms-file-name": a.FileName},
		})
		if err == nil && status == http.StatusNotFound {
			err = &Error{Op: op, Category: ErrorRejected, Status: status, Underlying: fmt.Errorf("record %s not found", id)}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("attachment %s: %w", a.Field, err))
		}
	}
	return errors.Join(errs...)
}

// GetRecord looks in both entities. The access key is compared in constant
// time; a mismatch looks exactly like a missing record.
func (c *HTTPClient) GetRecord(ctx context.Context, id, accessKey string) (*Record, error) {
	const op = "GetRecord"
	if _, err := uuid.Parse(id); err != nil || accessKey == "" {
		return nil, nil
	}
	for _, e := range []entity{section2Entity, section10Entity} {
		resp, status, err := c.do(ctx, call{op: op, method: http.MethodGet, path: recordPath(e, id)})
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(resp, &fields); err != nil {
			return nil, &Error{Op: op, Category: ErrorBadData, Status: status, Underlying: err}
		}
		stored, _ := fields[record.FieldAccessKey].(string)
		if subtle.ConstantTimeCompare([]byte(stored), []byte(accessKey)) != 1 {
			return nil, nil
		}
		return &Record{ID: id, Fields: fields}, nil
	}
	return nil, nil
}

// GetRecordsWithField queries Section 2 records, where certificates live.
func (c *HTTPClient) GetRecordsWithField(ctx context.Context, field, value string) ([]Record, error) {
	const op = "GetRecordsWithField"
	e := section2Entity
	filter := fmt.Sprintf("%s eq '%s'", field, strings.ReplaceAll(value, "'", "''"))
	resp, status, err := c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/" + e.set + "?$filter=" + url.QueryEscape(filter),
	})
	if err != nil || status == http.StatusNotFound {
		return nil, err
	}
	var page struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(resp, &page); err != nil {
		return nil, &Error{Op: op, Category: ErrorBadData, Status: status, Underlying: err}
	}
	out := make([]Record, 0, len(page.Value))
	for _, fields := range page.Value {
		id, _ := fields[e.idField].(string)
		out = append(out, Record{ID: id, Fields: fields})
	}
	return out, nil
}

var _ Client = (*HTTPClient)(nil)
