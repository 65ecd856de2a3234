// Package eligibility decides which exemption an item falls under, or why the
// journey has to stop. Everything here is pure: no I/O, no side effects.
package eligibility

import (
	"fmt"

	dErrors "ivory/pkg/domain-errors"
)

// ItemType is the resolved exemption category. The zero value is unclassified.
type ItemType string

const (
	Unclassified ItemType = ""
	Musical      ItemType = "MUSICAL"
	TenPercent   ItemType = "TEN_PERCENT"
	Miniature    ItemType = "MINIATURE"
	Museum       ItemType = "MUSEUM"
	HighValue    ItemType = "HIGH_VALUE"
)

// ItemTypes lists every classified item type.
var ItemTypes = []ItemType{Musical, TenPercent, Miniature, Museum, HighValue}

// ParseItemType validates a stored classification.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	for _, known := range ItemTypes {
		if t == known {
			return t, nil
		}
	}
	return Unclassified, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown item type %q", s))
}

// Schema is the external record schema an item type is submitted under.
type Schema int

const (
	SchemaNone Schema = iota
	Section2
	Section10
)

func (s Schema) String() string {
	switch s {
	case Section2:
		return "section2"
	case Section10:
		return "section10"
	default:
		return "none"
	}
}

// Schema is the single place that decides Section 2 vs Section 10.
func (t ItemType) Schema() Schema {
	switch t {
	case HighValue:
		return Section2
	case Musical, TenPercent, Miniature, Museum:
		return Section10
	default:
		return SchemaNone
	}
}

// IsHighValue reports whether the item goes through the Section 2 journey.
func (t ItemType) IsHighValue() bool {
	return t.Schema() == Section2
}

// AsksIntegral reports whether the journey asks how the ivory is integral.
func (t ItemType) AsksIntegral() bool { return t == TenPercent }

// AsksVolume reports whether the journey asks how the ivory volume is known.
func (t ItemType) AsksVolume() bool { return t == Musical || t == TenPercent }

// Question identifies one eligibility decision point.
type Question string

const (
	ContainIvory           Question = "contain-ivory"
	WhatSpecies            Question = "what-species"
	SellingToMuseum        Question = "selling-to-museum"
	AreYouAMuseum          Question = "are-you-a-museum"
	IsItAMusicalInstrument Question = "is-it-a-musical-instrument"
	MadeBefore1975         Question = "made-before-1975"
	LessThan20Ivory        Question = "less-than-20-ivory"
	IsItAPortraitMiniature Question = "is-it-a-portrait-miniature"
	MadeBefore1918         Question = "made-before-1918"
	LessThan320cmSquared   Question = "less-than-320cm-squared"
	MadeBefore1947         Question = "made-before-1947"
	LessThan10Percent      Question = "less-than-10-percent"
	RMIAndPre1918          Question = "rmi-and-pre-1918"
)

// Root is where classification starts.
const Root = ContainIvory

// Kind is what a single answer leads to.
type Kind int

const (
	// Ask means another eligibility question follows.
	Ask Kind = iota
	Exempt
	CannotTrade
	CannotContinue
	DoNotNeedService
)

func (k Kind) String() string {
	switch k {
	case Ask:
		return "ask"
	case Exempt:
		return "exempt"
	case CannotTrade:
		return "cannot_trade"
	case CannotContinue:
		return "cannot_continue"
	case DoNotNeedService:
		return "do_not_need_service"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of one answer. Next is set for Ask, ItemType for
// Exempt.
type Verdict struct {
	Kind     Kind
	Next     Question
	ItemType ItemType
}

// Stops reports whether the verdict ends the journey.
func (v Verdict) Stops() bool {
	return v.Kind == CannotTrade || v.Kind == CannotContinue || v.Kind == DoNotNeedService
}

func ask(q Question) Verdict { return Verdict{Kind: Ask, Next: q} }
func exempt(t ItemType) Verdict { return Verdict{Kind: Exempt, ItemType: t} }
func stop(k Kind) Verdict { return Verdict{Kind: k} }
