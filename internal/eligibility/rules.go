package eligibility

import (
	"fmt"

	"ivory/internal/answers"
	dErrors "ivory/pkg/domain-errors"
)

// Species offered by what-species. Anything but NoneOfThese continues.
var Species = []string{
	"Elephant",
	"Hippopotamus",
	"Killer whale",
	"Narwhal",
	"Sperm whale",
	"Two or more of these species",
	answers.NoneOfThese,
}

var (
	yesNoDontKnow = []string{answers.Yes, answers.No, answers.DontKnow}
	yesNo         = []string{answers.Yes, answers.No}
)

// Rule is one decision point: the answer key it reads, the options offered
// and the verdict for each option.
type Rule struct {
	Key      answers.Key
	Options  []string
	Outcomes map[string]Verdict
}

// Rules is the eligibility table. Each answer leads to exactly one verdict.
var Rules = map[Question]Rule{
	ContainIvory: {
		Key:     answers.ContainIvory,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      ask(WhatSpecies),
			answers.No:       stop(DoNotNeedService),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	WhatSpecies: {
		Key:      answers.WhatSpecies,
		Options:  Species,
		Outcomes: speciesOutcomes(),
	},
	SellingToMuseum: {
		Key:     answers.SellingToMuseum,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      ask(AreYouAMuseum),
			answers.No:       ask(IsItAMusicalInstrument),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	AreYouAMuseum: {
		Key:     answers.AreYouAMuseum,
		Options: yesNo,
		Outcomes: map[string]Verdict{
			answers.Yes: stop(DoNotNeedService),
			answers.No:  exempt(Museum),
		},
	},
	IsItAMusicalInstrument: {
		Key:     answers.IsItAMusicalInstrument,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      ask(MadeBefore1975),
			answers.No:       ask(IsItAPortraitMiniature),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	MadeBefore1975: threshold(answers.MadeBefore1975, ask(LessThan20Ivory)),
	LessThan20Ivory: {
		Key:     answers.LessThan20Ivory,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      exempt(Musical),
			answers.No:       ask(RMIAndPre1918),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	IsItAPortraitMiniature: {
		Key:     answers.IsItAPortraitMiniature,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      ask(MadeBefore1918),
			answers.No:       ask(MadeBefore1947),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	MadeBefore1918: threshold(answers.MadeBefore1918, ask(LessThan320cmSquared)),
	LessThan320cmSquared: {
		Key:     answers.LessThan320cmSquared,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      exempt(Miniature),
			answers.No:       ask(RMIAndPre1918),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	MadeBefore1947: threshold(answers.MadeBefore1947, ask(LessThan10Percent)),
	LessThan10Percent: {
		Key:     answers.LessThan10Percent,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      exempt(TenPercent),
			answers.No:       ask(RMIAndPre1918),
			answers.DontKnow: stop(CannotContinue),
		},
	},
	RMIAndPre1918: {
		Key:     answers.RMIAndPre1918,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      exempt(HighValue),
			answers.No:       stop(CannotTrade),
			answers.DontKnow: stop(CannotContinue),
		},
	},
}

// threshold is an age gate: Yes continues, No cannot be traded.
func threshold(key answers.Key, yes Verdict) Rule {
	return Rule{
		Key:     key,
		Options: yesNoDontKnow,
		Outcomes: map[string]Verdict{
			answers.Yes:      yes,
			answers.No:       stop(CannotTrade),
			answers.DontKnow: stop(CannotContinue),
		},
	}
}

func speciesOutcomes() map[string]Verdict {
	out := make(map[string]Verdict, len(Species))
	for _, s := range Species {
		out[s] = ask(SellingToMuseum)
	}
	out[answers.NoneOfThese] = stop(DoNotNeedService)
	return out
}

// Evaluate returns the verdict for one answer to one question. An option the
// question does not offer is a validation error.
func Evaluate(q Question, answer string) (Verdict, error) {
	rule, ok := Rules[q]
	if !ok {
		return Verdict{}, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown eligibility question %q", q))
	}
	v, ok := rule.Outcomes[answer]
	if !ok {
		return Verdict{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%q is not an option for %s", answer, q))
	}
	return v, nil
}

// Classify walks the stored answers from Root by sequential elimination.
// It stops at the first unanswered question (an Ask verdict naming it) or
// at the first terminal or exempt verdict.
func Classify(snap answers.Snapshot) (Verdict, error) {
	q := Root
	// Each question is visited at most once on any path.
	for range len(Rules) {
		raw, ok := snap.Lookup(Rules[q].Key)
		if !ok {
			return ask(q), nil
		}
		v, err := Evaluate(q, raw)
		if err != nil {
			return Verdict{}, err
		}
		if v.Kind != Ask {
			return v, nil
		}
		q = v.Next
	}
	return Verdict{}, dErrors.New(dErrors.CodeInvariantViolation, "eligibility rules contain a cycle")
}

// Keys lists the answer keys of every eligibility question.
func Keys() []answers.Key {
	keys := make([]answers.Key, 0, len(Rules))
	for _, r := range Rules {
		keys = append(keys, r.Key)
	}
	return keys
}
