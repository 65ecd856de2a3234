// Package wizard runs the multi-step declaration journey. Steps are explicit
// objects; the transition table between them is data, inspectable without
// HTTP.
package wizard

import (
	"context"
	"net/url"
	"time"

	"ivory/internal/answers"
	id "ivory/pkg/domain"
	strutil "ivory/pkg/platform/strings"
)

// StepID names a step. It doubles as the step's URL path segment.
type StepID string

// Path is the URL path of the step.
func (s StepID) Path() string { return "/" + string(s) }

// Routes maps a step's discriminator to the step that follows it.
type Routes map[string]StepID

// Step is one page of the journey.
//
// Present and Validate are pure. Decide names the discriminator (a key of
// Routes) and the answer writes and deletes the submission causes.
type Step interface {
	ID() StepID
	// Needs lists the stored answers Present and Decide read.
	Needs() []answers.Key
	Present(snap answers.Snapshot) (Presentation, error)
	Validate(sub *Submission) []FieldError
	Decide(sub *Submission) (Decision, error)
	Routes() Routes
}

// Verifier is implemented by steps that cross-check an answer against an
// external system. It runs only when Validate reported nothing.
type Verifier interface {
	Verify(ctx context.Context, sub *Submission) ([]FieldError, error)
}

// Effector is implemented by steps with an external side effect. Apply runs
// after validation and verification, before Decide.
type Effector interface {
	Apply(ctx context.Context, sub *Submission) error
}

// Terminal is implemented by absorbing exit steps. POSTing to one leaves the
// service.
type Terminal interface {
	ExitURL() string
}

// Committer is implemented by steps that act once their decision is stored.
// Committed is not called when the submission fails or writes nothing.
type Committer interface {
	Committed(sub *Submission, d Decision)
}

// Remover is implemented by steps listing uploaded files.
type Remover interface {
	Remove(snap answers.Snapshot, index int) (Decision, error)
}

// Upload is one file received with a multipart submission.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Input is what the client sent. UploadErr is set when the multipart body
// could not be read (too large or malformed).
type Input struct {
	Form      url.Values
	Files     []Upload
	UploadErr error
}

// Submission is one POST being processed.
type Submission struct {
	SessionID id.SessionID
	Now       time.Time
	Input
	Answers answers.Snapshot
	// Facts carries values established by Verify or Apply for Decide.
	Facts map[answers.Key]string
}

// Value is the trimmed first form value of name.
func (s *Submission) Value(name string) string {
	return trimmed(s.Form.Get(name))
}

// Values is every distinct non-blank form value of name, in form order.
func (s *Submission) Values(name string) []string {
	return strutil.DedupeAndTrim(s.Form[name])
}

// Fact records a value for Decide.
func (s *Submission) Fact(key answers.Key, value string) {
	if s.Facts == nil {
		s.Facts = make(map[answers.Key]string)
	}
	s.Facts[key] = value
}

// Decision is the outcome of a valid submission.
type Decision struct {
	Route   string
	Writes  map[answers.Key]string
	Deletes []answers.Key
}

// Go is a decision with no writes.
func Go(route string) Decision {
	return Decision{Route: route}
}

// Write adds an answer write.
func (d Decision) Write(key answers.Key, value string) Decision {
	if d.Writes == nil {
		d.Writes = make(map[answers.Key]string)
	}
	d.Writes[key] = value
	return d
}

// Delete adds answer deletes.
func (d Decision) Delete(keys ...answers.Key) Decision {
	d.Deletes = append(d.Deletes, keys...)
	return d
}

// FieldError is one entry of the error summary.
type FieldError struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Presentation is the render model of a step. It is what GET returns.
type Presentation struct {
	Step    StepID         `json:"step"`
	Title   string         `json:"title"`
	Back    string         `json:"back,omitempty"`
	Options []string       `json:"options,omitempty"`
	Values  map[string]any `json:"values"`
	Content map[string]any `json:"content,omitempty"`
	Errors  []FieldError   `json:"errors,omitempty"`
}
