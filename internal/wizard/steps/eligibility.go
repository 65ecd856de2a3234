package steps

import (
	"ivory/internal/answers"
	"ivory/internal/eligibility"
	eligmetrics "ivory/internal/eligibility/metrics"
	"ivory/internal/wizard"
)

var questionText = map[eligibility.Question]struct{ title, required string }{
	eligibility.ContainIvory:           {"Does your item contain ivory?", "Tell us whether your item contains ivory"},
	eligibility.WhatSpecies:            {"What species of ivory does your item contain?", "Tell us what species of ivory your item contains"},
	eligibility.SellingToMuseum:        {"Are you selling or hiring the item out to a museum?", "Tell us whether you are selling or hiring the item out to a museum"},
	eligibility.AreYouAMuseum:          {"Are you a museum?", "Tell us whether you are a museum"},
	eligibility.IsItAMusicalInstrument: {"Is your item a musical instrument?", "Tell us whether your item is a musical instrument"},
	eligibility.MadeBefore1975:         {"Was the musical instrument made before 1975?", "Tell us whether the musical instrument was made before 1975"},
	eligibility.LessThan20Ivory:        {"Does the musical instrument contain less than 20% ivory?", "Tell us whether the musical instrument contains less than 20% ivory"},
	eligibility.IsItAPortraitMiniature: {"Is your item a portrait miniature?", "Tell us whether your item is a portrait miniature"},
	eligibility.MadeBefore1918:         {"Was the portrait miniature made before 1918?", "Tell us whether the portrait miniature was made before 1918"},
	eligibility.LessThan320cmSquared:   {"Does the portrait miniature have an ivory surface area of less than 320 square centimetres?", "Tell us whether the portrait miniature has an ivory surface area of less than 320 square centimetres"},
	eligibility.MadeBefore1947:         {"Was your item made before 3 March 1947?", "Tell us whether your item was made before 3 March 1947"},
	eligibility.LessThan10Percent:      {"Does your item contain less than 10% ivory by volume?", "Tell us whether your item contains less than 10% ivory by volume"},
	eligibility.RMIAndPre1918:          {"Is your item of outstandingly high artistic, cultural or historical value and made before 1918?", "Tell us whether your item is of outstandingly high value and made before 1918"},
}

// question is an eligibility decision point. Its routes come straight from
// the rule table.
type question struct {
	page
	q       eligibility.Question
	rule    eligibility.Rule
	metrics *eligmetrics.Metrics
}

func eligibilitySteps(d Deps) []wizard.Step {
	keys := eligibility.Keys()
	out := make([]wizard.Step, 0, len(eligibility.Rules))
	for q, rule := range eligibility.Rules {
		out = append(out, question{
			page: page{
				id:     wizard.StepID(q),
				title:  questionText[q].title,
				needs:  keys,
				routes: verdictRoutes(rule),
			},
			q:       q,
			rule:    rule,
			metrics: d.Eligibility,
		})
	}
	return out
}

// verdictRoutes turns each option's verdict into the step it leads to.
func verdictRoutes(rule eligibility.Rule) wizard.Routes {
	routes := make(wizard.Routes, len(rule.Outcomes))
	for option, v := range rule.Outcomes {
		routes[option] = verdictStep(v)
	}
	return routes
}

func verdictStep(v eligibility.Verdict) wizard.StepID {
	switch v.Kind {
	case eligibility.Ask:
		return wizard.StepID(v.Next)
	case eligibility.Exempt:
		if v.ItemType.IsHighValue() {
			return AlreadyCertified
		}
		return CanContinue
	case eligibility.CannotTrade:
		return CannotTrade
	case eligibility.CannotContinue:
		return CannotContinue
	default:
		return DoNotNeedService
	}
}

func (s question) field() string { return fieldName(s.rule.Key) }

func (s question) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	p := s.frame(map[string]any{s.field(): snap.Value(s.rule.Key)})
	p.Options = s.rule.Options
	if prev, ok := previousQuestion(snap, s.q); ok {
		p.Back = wizard.StepID(prev).Path()
	}
	return p, nil
}

func (s question) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	required := questionText[s.q].required
	c.Field(s.field(), sub.Value(s.field()),
		wizard.Required(required),
		wizard.OneOf(s.rule.Options, required),
	)
	return c.Errors()
}

// Decide stores the answer and rewrites the classification: an exempt verdict
// sets it, anything else removes it so an upstream change never leaves a
// stale category behind. Reaching a category also drops the answers only
// other categories ask for.
func (s question) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	answer := sub.Value(s.field())
	v, err := eligibility.Evaluate(s.q, answer)
	if err != nil {
		return wizard.Decision{}, err
	}
	d := wizard.Go(answer)
	if s.q == eligibility.WhatSpecies && answer == answers.NoneOfThese {
		d = d.Delete(s.rule.Key)
	} else {
		d = d.Write(s.rule.Key, answer)
	}
	if v.Kind != eligibility.Exempt {
		return d.Delete(answers.ItemType), nil
	}
	d = d.Write(answers.ItemType, string(v.ItemType))
	for _, key := range notAskedFor(v.ItemType) {
		d = d.Delete(key)
	}
	return d, nil
}

// Committed counts the verdict once the answer is stored.
func (s question) Committed(sub *wizard.Submission, _ wizard.Decision) {
	v, err := eligibility.Evaluate(s.q, sub.Value(s.field()))
	if err != nil {
		return
	}
	s.metrics.ObserveVerdict(string(s.q), v.Kind.String(), string(v.ItemType))
}

// notAskedFor lists the item answers the journey for t never asks.
func notAskedFor(t eligibility.ItemType) []answers.Key {
	var keys []answers.Key
	if !t.AsksIntegral() {
		keys = append(keys, answers.IvoryIntegral)
	}
	if !t.AsksVolume() {
		keys = append(keys, answers.IvoryVolume)
	}
	if !t.IsHighValue() {
		keys = append(keys,
			answers.AlreadyCertified, answers.ExistingRecordID, answers.RevokedCertificate,
			answers.AppliedBefore, answers.PreviousApplicationNumber,
			answers.WhyIsItemRMI, answers.UploadDocument,
		)
	}
	return keys
}

// previousQuestion follows the stored answers from the root and returns the
// question answered just before q on that path.
func previousQuestion(snap answers.Snapshot, q eligibility.Question) (eligibility.Question, bool) {
	cur := eligibility.Root
	var prev eligibility.Question
	for range len(eligibility.Rules) {
		if cur == q {
			return prev, prev != ""
		}
		v, err := eligibility.Evaluate(cur, snap.Value(eligibility.Rules[cur].Key))
		if err != nil || v.Kind != eligibility.Ask {
			return "", false
		}
		prev, cur = cur, v.Next
	}
	return "", false
}
