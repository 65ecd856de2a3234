// Package publisher emits audit events with ops semantics: a store failure is
// logged and counted, never returned to the business operation.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "ivory/pkg/domain"
	audit "ivory/pkg/platform/audit"
	"ivory/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is full.
var ErrBufferFull = errors.New("audit buffer full")

// Lister is implemented by stores that can list a session's events.
type Lister interface {
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error)
}

// Metrics counts audit outcomes.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	PersistFailures prometheus.Counter
	Dropped         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_audit_events_emitted_total",
			Help: "Audit events persisted by action",
		}, []string{"action"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ivory_audit_persist_failures_total",
			Help: "Audit events the store failed to persist",
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ivory_audit_dropped_total",
			Help: "Audit events dropped because the async buffer was full",
		}),
	}
}

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics

	buffer chan bufferedEvent
	wg     sync.WaitGroup
	once   sync.Once
}

type bufferedEvent struct {
	ctx   context.Context
	event audit.Event
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan bufferedEvent, n)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records event. Category, timestamp and request ID are filled in when
// unset. In sync mode the returned error is always nil.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.buffer == nil {
		p.persist(ctx, event)
		return nil
	}

	select {
	case p.buffer <- bufferedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.Dropped.Inc()
		}
		return ErrBufferFull
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) {
	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Inc()
		}
		p.logger.ErrorContext(ctx, "audit persistence failed",
			"action", event.Action,
			"session_id", event.SessionID.String(),
			"subject", event.Subject,
			"error", err,
		)
		return
	}
	if p.metrics != nil {
		p.metrics.Emitted.WithLabelValues(event.Action).Inc()
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for be := range p.buffer {
		p.persist(be.ctx, be.event)
	}
}

// List returns the events of one session when the store supports listing.
func (p *Publisher) List(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error) {
	lister, ok := p.store.(Lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return lister.ListBySession(ctx, sessionID)
}

// Close drains buffered events. Emit must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}
