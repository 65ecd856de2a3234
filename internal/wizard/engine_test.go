package wizard

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ivory/internal/answers"
	"ivory/internal/session"
	"ivory/internal/session/mocks"
	id "ivory/pkg/domain"
	dErrors "ivory/pkg/domain-errors"
	"ivory/pkg/platform/audit"
	"ivory/pkg/platform/sentinel"
)

// fakeStep answers "colour" and routes by the submitted value.
type fakeStep struct {
	id     StepID
	routes Routes
	decide func(*Submission) (Decision, error)
}

func (s fakeStep) ID() StepID { return s.id }
func (s fakeStep) Needs() []answers.Key { return []answers.Key{"COLOUR", "SHADE"} }
func (s fakeStep) Routes() Routes { return s.routes }

func (s fakeStep) Present(snap answers.Snapshot) (Presentation, error) {
	return Presentation{Title: "Colour", Values: map[string]any{"colour": snap.Value("COLOUR")}}, nil
}

func (s fakeStep) Validate(sub *Submission) []FieldError {
	var c Checks
	c.Field("colour", sub.Value("colour"), Required("Pick a colour"))
	return c.Errors()
}

func (s fakeStep) Decide(sub *Submission) (Decision, error) {
	if s.decide != nil {
		return s.decide(sub)
	}
	return Go(sub.Value("colour")).Write("COLOUR", sub.Value("colour")).Delete("SHADE"), nil
}

type verifyingStep struct {
	fakeStep
	verify  func(*Submission) ([]FieldError, error)
	applied int
}

func (s *verifyingStep) Verify(_ context.Context, sub *Submission) ([]FieldError, error) {
	return s.verify(sub)
}

func (s *verifyingStep) Apply(_ context.Context, sub *Submission) error {
	s.applied++
	sub.Fact("RECEIPT", "R1")
	return nil
}

type exitStep struct{ fakeStep }

func (exitStep) ExitURL() string { return "https://example.com/leave" }

type recordingAuditor struct{ events []audit.Event }

func (a *recordingAuditor) Emit(_ context.Context, e audit.Event) error {
	a.events = append(a.events, e)
	return nil
}

func colourSteps() []Step {
	return []Step{
		fakeStep{id: "colour", routes: Routes{"red": "red-page", "blue": "blue-page"}},
		fakeStep{id: "red-page"},
		fakeStep{id: "blue-page"},
	}
}

func newTestEngine(t *testing.T, steps []Step, opts ...Option) (*Engine, *answers.Registry) {
	t.Helper()
	reg := answers.NewRegistry(session.NewInMemory())
	e, err := NewEngine(reg, steps, opts...)
	require.NoError(t, err)
	return e, reg
}

func TestNewEngine_RejectsOpenTable(t *testing.T) {
	_, err := NewEngine(answers.NewRegistry(session.NewInMemory()), []Step{
		fakeStep{id: "colour", routes: Routes{"red": "nowhere"}},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Contains(t, err.Error(), "nowhere")
}

func TestNewEngine_RejectsDuplicateSteps(t *testing.T) {
	_, err := NewEngine(answers.NewRegistry(session.NewInMemory()), []Step{
		fakeStep{id: "colour"}, fakeStep{id: "colour"},
	})
	require.Error(t, err)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	sid := id.NewSessionID()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e, answersReg := newTestEngine(t, colourSteps(), WithMetrics(m))
	require.NoError(t, answersReg.Set(ctx, sid, "SHADE", "dark"))

	t.Run("valid input is persisted and routed", func(t *testing.T) {
		res, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
		require.NoError(t, err)
		assert.False(t, res.Invalid())
		assert.Equal(t, "/red-page", res.Redirect)

		v, ok, err := answersReg.Get(ctx, sid, "COLOUR")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "red", v)
		_, ok, _ = answersReg.Get(ctx, sid, "SHADE")
		assert.False(t, ok)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("colour", OutcomeAdvanced)))
	})

	t.Run("invalid input writes nothing and echoes the form", func(t *testing.T) {
		res, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"  "}, "note": {"a", "b"}}})
		require.NoError(t, err)
		require.True(t, res.Invalid())
		assert.Equal(t, []FieldError{{Name: "colour", Text: "Pick a colour"}}, res.Page.Errors)
		assert.Equal(t, StepID("colour"), res.Page.Step)
		assert.Equal(t, []string{"a", "b"}, res.Page.Values["note"])

		v, _, _ := answersReg.Get(ctx, sid, "COLOUR")
		assert.Equal(t, "red", v)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("colour", OutcomeInvalid)))
	})

	t.Run("an unmapped discriminator is an invariant error and writes nothing", func(t *testing.T) {
		_, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"green"}}})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		v, _, _ := answersReg.Get(ctx, sid, "COLOUR")
		assert.Equal(t, "red", v)
	})

	t.Run("unknown step", func(t *testing.T) {
		_, err := e.Submit(ctx, sid, "nope", Input{})
		assert.ErrorIs(t, err, ErrUnknownStep)
	})

	t.Run("step without routes takes no submission", func(t *testing.T) {
		_, err := e.Submit(ctx, sid, "red-page", Input{Form: url.Values{"colour": {"red"}}})
		assert.ErrorIs(t, err, ErrNoSubmit)
	})
}

func TestSubmit_WriteOverridesDelete(t *testing.T) {
	ctx := context.Background()
	sid := id.NewSessionID()
	e, reg := newTestEngine(t, []Step{
		fakeStep{id: "colour", routes: Routes{"red": "red-page"}, decide: func(sub *Submission) (Decision, error) {
			return Go("red").Delete("COLOUR").Write("COLOUR", "red"), nil
		}},
		fakeStep{id: "red-page"},
	})

	_, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
	require.NoError(t, err)

	v, ok, err := reg.Get(ctx, sid, "COLOUR")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "red", v)
}

func TestSubmit_VerifyAndApply(t *testing.T) {
	ctx := context.Background()
	sid := id.NewSessionID()

	step := &verifyingStep{
		fakeStep: fakeStep{id: "colour", routes: Routes{"red": "red-page"}, decide: func(sub *Submission) (Decision, error) {
			return Go("red").Write("RECEIPT", sub.Facts["RECEIPT"]), nil
		}},
	}
	e, reg := newTestEngine(t, []Step{step, fakeStep{id: "red-page"}})

	t.Run("a verification error is a field error and nothing is applied", func(t *testing.T) {
		step.verify = func(*Submission) ([]FieldError, error) {
			return []FieldError{{Name: "colour", Text: "Not in stock"}}, nil
		}
		res, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
		require.NoError(t, err)
		require.True(t, res.Invalid())
		assert.Zero(t, step.applied)
	})

	t.Run("a verification failure is returned", func(t *testing.T) {
		step.verify = func(*Submission) ([]FieldError, error) { return nil, sentinel.ErrUnavailable }
		_, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Zero(t, step.applied)
	})

	t.Run("facts from apply reach decide", func(t *testing.T) {
		step.verify = func(*Submission) ([]FieldError, error) { return nil, nil }
		_, err := e.Submit(ctx, sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
		require.NoError(t, err)
		assert.Equal(t, 1, step.applied)

		v, _, _ := reg.Get(ctx, sid, "RECEIPT")
		assert.Equal(t, "R1", v)
	})
}

func TestSubmit_TerminalExits(t *testing.T) {
	auditor := &recordingAuditor{}
	sid := id.NewSessionID()
	e, _ := newTestEngine(t, []Step{exitStep{fakeStep{id: "stop"}}}, WithAuditor(auditor))

	res, err := e.Submit(context.Background(), sid, "stop", Input{})

	require.NoError(t, err)
	assert.True(t, res.External)
	assert.Equal(t, "https://example.com/leave", res.Redirect)
	require.Len(t, auditor.events, 1)
	assert.Equal(t, string(audit.EventJourneyExited), auditor.events[0].Action)
	assert.Equal(t, "stop", auditor.events[0].Reason)
	assert.Equal(t, sid, auditor.events[0].SessionID)
}

func TestPresent(t *testing.T) {
	ctx := context.Background()
	sid := id.NewSessionID()
	e, reg := newTestEngine(t, colourSteps())
	require.NoError(t, reg.Set(ctx, sid, "COLOUR", "blue"))

	p, err := e.Present(ctx, sid, "colour")
	require.NoError(t, err)
	assert.Equal(t, StepID("colour"), p.Step)
	assert.Equal(t, "blue", p.Values["colour"])

	_, err = e.Present(ctx, sid, "nope")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestStoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", sentinel.ErrUnavailable).AnyTimes()

	e, err := NewEngine(answers.NewRegistry(store), colourSteps())
	require.NoError(t, err)
	sid := id.NewSessionID()

	_, err = e.Present(context.Background(), sid, "colour")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	_, err = e.Submit(context.Background(), sid, "colour", Input{Form: url.Values{"colour": {"red"}}})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestStoreWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return("", sentinel.ErrNotFound).AnyTimes()
	store.EXPECT().Delete(gomock.Any(), gomock.Any(), "SHADE").Return(nil)
	store.EXPECT().Set(gomock.Any(), gomock.Any(), "COLOUR", "red", gomock.Any()).
		Return(errors.Join(sentinel.ErrUnavailable, errors.New("connection reset")))

	e, err := NewEngine(answers.NewRegistry(store), colourSteps())
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), id.NewSessionID(), "colour", Input{Form: url.Values{"colour": {"red"}}})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

type committingStep struct {
	fakeStep
	committed []string
}

func (s *committingStep) Committed(_ *Submission, d Decision) {
	s.committed = append(s.committed, d.Route)
}

func TestSubmit_CommittedAfterPersist(t *testing.T) {
	t.Run("called once the decision is stored", func(t *testing.T) {
		step := &committingStep{fakeStep: fakeStep{id: "colour", routes: Routes{"red": "red-page"}}}
		e, _ := newTestEngine(t, []Step{step, fakeStep{id: "red-page"}})

		_, err := e.Submit(context.Background(), id.NewSessionID(), "colour", Input{Form: url.Values{"colour": {"red"}}})
		require.NoError(t, err)
		assert.Equal(t, []string{"red"}, step.committed)
	})

	t.Run("not called for an unmapped route", func(t *testing.T) {
		step := &committingStep{fakeStep: fakeStep{id: "colour", routes: Routes{"red": "red-page"}}}
		e, _ := newTestEngine(t, []Step{step, fakeStep{id: "red-page"}})

		_, err := e.Submit(context.Background(), id.NewSessionID(), "colour", Input{Form: url.Values{"colour": {"green"}}})
		require.Error(t, err)
		assert.Empty(t, step.committed)
	})

	t.Run("not called when the store fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return("", sentinel.ErrNotFound).AnyTimes()
		store.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		store.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(sentinel.ErrUnavailable)

		step := &committingStep{fakeStep: fakeStep{id: "colour", routes: Routes{"red": "red-page"}}}
		e, err := NewEngine(answers.NewRegistry(store), []Step{step, fakeStep{id: "red-page"}})
		require.NoError(t, err)

		_, err = e.Submit(context.Background(), id.NewSessionID(), "colour", Input{Form: url.Values{"colour": {"red"}}})
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Empty(t, step.committed)
	})
}

func TestDone(t *testing.T) {
	ctx := context.Background()
	sid := id.NewSessionID()

	e, _ := newTestEngine(t, colourSteps())
	done, err := e.Done(ctx, sid)
	require.NoError(t, err)
	assert.False(t, done, "no done key means never done")

	e, reg := newTestEngine(t, colourSteps(), WithDoneKey("RECEIPT"))
	done, err = e.Done(ctx, sid)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, reg.Set(ctx, sid, "RECEIPT", "R1"))
	done, err = e.Done(ctx, sid)
	require.NoError(t, err)
	assert.True(t, done)
}
