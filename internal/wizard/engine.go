package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"ivory/internal/answers"
	id "ivory/pkg/domain"
	dErrors "ivory/pkg/domain-errors"
	"ivory/pkg/platform/audit"
	"ivory/pkg/requestcontext"
)

var (
	// ErrUnknownStep is returned for paths no step is registered under.
	ErrUnknownStep = errors.New("unknown step")
	// ErrNoSubmit is returned when POSTing to a step that takes no input.
	ErrNoSubmit = errors.New("step takes no submission")
	// ErrUploadTooLarge is set as Input.UploadErr when the request body
	// exceeded the upload cap.
	ErrUploadTooLarge = errors.New("upload too large")
)

// Auditor receives journey events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Result is what a submission led to. Either Redirect is set, or Page is the
// re-render carrying the field errors.
type Result struct {
	Redirect string
	// External is set when Redirect leaves the service.
	External bool
	Page     *Presentation
}

// Invalid reports whether the submission was rejected.
func (r Result) Invalid() bool { return r.Page != nil }

// Engine presents and submits steps against the answer registry.
type Engine struct {
	steps    map[StepID]Step
	table    Table
	registry *answers.Registry
	auditor  Auditor
	metrics  *Metrics
	logger   *slog.Logger
	doneKey  answers.Key
}

type Option func(*Engine)

func WithAuditor(a Auditor) Option {
	return func(e *Engine) { e.auditor = a }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDoneKey names the answer whose presence marks a finished journey.
func WithDoneKey(key answers.Key) Option {
	return func(e *Engine) { e.doneKey = key }
}

// NewEngine registers steps and checks the transition table is closed.
func NewEngine(registry *answers.Registry, steps []Step, opts ...Option) (*Engine, error) {
	table, err := NewTable(steps)
	if err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		steps:    make(map[StepID]Step, len(steps)),
		table:    table,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, s := range steps {
		e.steps[s.ID()] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Table exposes the transition table.
func (e *Engine) Table() Table { return e.table }

// Step looks up a registered step.
func (e *Engine) Step(stepID StepID) (Step, bool) {
	s, ok := e.steps[stepID]
	return s, ok
}

// Done reports whether the session has finished the journey. Without a done
// key no journey ever finishes.
func (e *Engine) Done(ctx context.Context, sid id.SessionID) (bool, error) {
	if e.doneKey == "" {
		return false, nil
	}
	_, ok, err := e.registry.Get(ctx, sid, e.doneKey)
	return ok, err
}

// Present renders a step from the stored answers. It never writes.
func (e *Engine) Present(ctx context.Context, sid id.SessionID, stepID StepID) (Presentation, error) {
	step, ok := e.steps[stepID]
	if !ok {
		return Presentation{}, fmt.Errorf("%s: %w", stepID, ErrUnknownStep)
	}
	snap, err := e.registry.Snapshot(ctx, sid, step.Needs()...)
	if err != nil {
		return Presentation{}, err
	}
	return present(step, snap)
}

func present(step Step, snap answers.Snapshot) (Presentation, error) {
	p, err := step.Present(snap)
	if err != nil {
		return Presentation{}, err
	}
	p.Step = step.ID()
	if p.Values == nil {
		p.Values = map[string]any{}
	}
	return p, nil
}

// Submit processes a POST: validate, verify, apply, decide, persist. Any
// field error leaves the stored answers untouched.
func (e *Engine) Submit(ctx context.Context, sid id.SessionID, stepID StepID, in Input) (Result, error) {
	step, ok := e.steps[stepID]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", stepID, ErrUnknownStep)
	}
	logger := e.logger.With("step", string(stepID), "session_id", sid.String())

	if t, ok := step.(Terminal); ok {
		e.exited(ctx, sid, stepID)
		e.metrics.observe(stepID, OutcomeExited)
		return Result{Redirect: t.ExitURL(), External: true}, nil
	}
	if len(step.Routes()) == 0 {
		return Result{}, fmt.Errorf("%s: %w", stepID, ErrNoSubmit)
	}

	snap, err := e.registry.Snapshot(ctx, sid, step.Needs()...)
	if err != nil {
		e.metrics.observe(stepID, OutcomeError)
		return Result{}, err
	}
	sub := &Submission{
		SessionID: sid,
		Now:       requestcontext.Now(ctx),
		Input:     in,
		Answers:   snap,
	}

	if errs := step.Validate(sub); len(errs) > 0 {
		return e.invalid(step, sub, errs)
	}
	if v, ok := step.(Verifier); ok {
		errs, err := v.Verify(ctx, sub)
		if err != nil {
			logger.ErrorContext(ctx, "step verification failed", "error", err)
			e.metrics.observe(stepID, OutcomeError)
			return Result{}, err
		}
		if len(errs) > 0 {
			return e.invalid(step, sub, errs)
		}
	}
	if fx, ok := step.(Effector); ok {
		if err := fx.Apply(ctx, sub); err != nil {
			logger.ErrorContext(ctx, "step side effect failed", "error", err)
			e.metrics.observe(stepID, OutcomeError)
			return Result{}, err
		}
	}

	decision, err := step.Decide(sub)
	if err != nil {
		e.metrics.observe(stepID, OutcomeError)
		return Result{}, err
	}
	res, err := e.commit(ctx, sid, stepID, decision)
	if err != nil {
		return Result{}, err
	}
	if c, ok := step.(Committer); ok {
		c.Committed(sub, decision)
	}
	return res, nil
}

// Remove drops one uploaded file from a list step.
func (e *Engine) Remove(ctx context.Context, sid id.SessionID, stepID StepID, index int) (Result, error) {
	step, ok := e.steps[stepID]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", stepID, ErrUnknownStep)
	}
	r, ok := step.(Remover)
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", stepID, ErrNoSubmit)
	}
	snap, err := e.registry.Snapshot(ctx, sid, step.Needs()...)
	if err != nil {
		return Result{}, err
	}
	decision, err := r.Remove(snap, index)
	if err != nil {
		return Result{}, err
	}
	return e.commit(ctx, sid, stepID, decision)
}

func (e *Engine) invalid(step Step, sub *Submission, errs []FieldError) (Result, error) {
	p, err := present(step, sub.Answers)
	if err != nil {
		return Result{}, err
	}
	p.Values = echo(sub.Form)
	p.Errors = errs
	e.metrics.observe(step.ID(), OutcomeInvalid)
	return Result{Page: &p}, nil
}

// commit resolves the route then persists deletes before writes. The route is
// checked first so an unmapped discriminator writes nothing.
func (e *Engine) commit(ctx context.Context, sid id.SessionID, stepID StepID, d Decision) (Result, error) {
	next, ok := e.table.Next(stepID, d.Route)
	if !ok {
		e.metrics.observe(stepID, OutcomeError)
		return Result{}, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("step %s has no route for %q", stepID, d.Route))
	}

	for _, key := range d.Deletes {
		if _, overwritten := d.Writes[key]; overwritten {
			continue
		}
		if err := e.registry.Delete(ctx, sid, key); err != nil {
			e.metrics.observe(stepID, OutcomeError)
			return Result{}, err
		}
	}
	keys := make([]answers.Key, 0, len(d.Writes))
	for k := range d.Writes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		if err := e.registry.Set(ctx, sid, key, d.Writes[key]); err != nil {
			e.metrics.observe(stepID, OutcomeError)
			return Result{}, err
		}
	}

	e.metrics.observe(stepID, OutcomeAdvanced)
	return Result{Redirect: next.Path()}, nil
}

func (e *Engine) exited(ctx context.Context, sid id.SessionID, stepID StepID) {
	if e.auditor == nil {
		return
	}
	_ = e.auditor.Emit(ctx, audit.Event{
		SessionID: sid,
		Action:    string(audit.EventJourneyExited),
		Reason:    string(stepID),
	})
}

// echo returns the submitted values for re-rendering: single values as
// strings, repeated fields as lists.
func echo(form map[string][]string) map[string]any {
	out := make(map[string]any, len(form))
	for k, vs := range form {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}
