package steps

import (
	"ivory/internal/answers"
	"ivory/internal/wizard"
)

// radio is a single-choice question stored as the chosen label.
type radio struct {
	page
	key      answers.Key
	options  []string
	required string
	// route picks the discriminator; nil means the answer itself.
	route func(answer string, sub *wizard.Submission) string
	// clears lists keys an answer invalidates.
	clears func(answer string) []answers.Key
}

func (s radio) field() string { return fieldName(s.key) }

func (s radio) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	p := s.frame(map[string]any{s.field(): snap.Value(s.key)})
	p.Options = s.options
	return p, nil
}

func (s radio) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field(s.field(), sub.Value(s.field()),
		wizard.Required(s.required),
		wizard.OneOf(s.options, s.required),
	)
	return c.Errors()
}

func (s radio) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	answer := sub.Value(s.field())
	route := answer
	if s.route != nil {
		route = s.route(answer, sub)
	}
	d := wizard.Go(route).Write(s.key, answer)
	if s.clears != nil {
		d = d.Delete(s.clears(answer)...)
	}
	return d, nil
}

// text is a single free-text answer.
type text struct {
	page
	key      answers.Key
	required string
	maxLen   int
	what     string
}

func (s text) field() string { return fieldName(s.key) }

func (s text) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	return s.frame(map[string]any{s.field(): snap.Value(s.key)}), nil
}

func (s text) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field(s.field(), sub.Value(s.field()),
		wizard.Required(s.required),
		wizard.MaxLength(s.maxLen, wizard.TooLong(s.what, s.maxLen)),
	)
	return c.Errors()
}

func (s text) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	return wizard.Go(routeContinue).Write(s.key, sub.Value(s.field())), nil
}

// routesOf maps every option to the same step.
func routesOf(options []string, to wizard.StepID) wizard.Routes {
	r := make(wizard.Routes, len(options))
	for _, o := range options {
		r[o] = to
	}
	return r
}

func next(to wizard.StepID) wizard.Routes {
	return wizard.Routes{routeContinue: to}
}

var yesNo = []string{answers.Yes, answers.No}
