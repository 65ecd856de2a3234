package steps

import (
	"ivory/internal/answers"
	"ivory/internal/eligibility"
	"ivory/internal/record"
	"ivory/internal/wizard"
)

const (
	longTextMax  = 4000
	shortTextMax = 100
)

type describeTheItem struct {
	page
}

type ivoryVolume struct {
	page
}

type ivoryAge struct {
	page
}

func itemSteps() []wizard.Step {
	return []wizard.Step{
		describeTheItem{page: page{
			id:    DescribeTheItem,
			title: "Tell us about the item",
			back:  YourPhotos,
			needs: []answers.Key{answers.DescribeTheItem, answers.ItemType},
			routes: wizard.Routes{
				string(eligibility.Musical):    IvoryVolume,
				string(eligibility.TenPercent): IvoryIntegral,
				string(eligibility.Miniature):  IvoryAge,
				string(eligibility.Museum):     IvoryAge,
				string(eligibility.HighValue):  IvoryAge,
				routeUnclassified:              wizard.StepID(eligibility.Root),
			},
		}},
		radio{
			page: page{
				id:     IvoryIntegral,
				title:  "How is the ivory integral to the item?",
				back:   DescribeTheItem,
				needs:  []answers.Key{answers.IvoryIntegral},
				routes: next(IvoryVolume),
			},
			key:      answers.IvoryIntegral,
			options:  record.IntegralReasons.Labels(),
			required: "You must tell us how the ivory is integral to the item",
			route:    func(string, *wizard.Submission) string { return routeContinue },
		},
		ivoryVolume{page: page{
			id:     IvoryVolume,
			title:  "How do you know the item has less than the maximum amount of ivory?",
			back:   DescribeTheItem,
			needs:  []answers.Key{answers.IvoryVolume},
			routes: next(IvoryAge),
		}},
		ivoryAge{page: page{
			id:    IvoryAge,
			title: "How do you know the item was made before the exemption date?",
			back:  DescribeTheItem,
			needs: []answers.Key{answers.IvoryAge, answers.ItemType},
			routes: wizard.Routes{
				routeContinue:                 WhoOwnsItem,
				string(eligibility.HighValue): WhyIsItemRMI,
			},
		}},
		text{
			page: page{
				id:     WhyIsItemRMI,
				title:  "Why is your item of outstandingly high artistic, cultural or historical value?",
				back:   IvoryAge,
				needs:  []answers.Key{answers.WhyIsItemRMI},
				routes: next(UploadDocument),
			},
			key:      answers.WhyIsItemRMI,
			required: "You must explain why your item is of outstandingly high artistic, cultural or historical value",
			maxLen:   longTextMax,
			what:     "Explanation",
		},
		radio{
			page: page{
				id:     IntentionForItem,
				title:  "What do you intend to do with the item?",
				back:   ApplicantAddress,
				needs:  []answers.Key{answers.IntentionForItem},
				routes: next(CheckYourAnswers),
			},
			key:      answers.IntentionForItem,
			options:  record.Intentions.Labels(),
			required: "Tell us what you intend to do with the item",
			route:    func(string, *wizard.Submission) string { return routeContinue },
		},
	}
}

func (s describeTheItem) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	desc, _, err := answers.Decode(snap, answers.ItemDescriptionCodec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	return s.frame(map[string]any{
		"whatIsItem":             desc.WhatIsItem,
		"whereIsIvory":           desc.WhereIsIvory,
		"distinguishingFeatures": desc.DistinguishingFeatures,
		"whereMade":              desc.WhereMade,
		"whenMade":               desc.WhenMade,
	}), nil
}

func (describeTheItem) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field("whatIsItem", sub.Value("whatIsItem"),
		wizard.Required("Tell us what the item is"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Description", longTextMax)))
	c.Field("whereIsIvory", sub.Value("whereIsIvory"),
		wizard.Required("Tell us where the ivory is on the item"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Description", longTextMax)))
	for _, optional := range []string{"distinguishingFeatures", "whereMade", "whenMade"} {
		c.Field(optional, sub.Value(optional), wizard.MaxLength(longTextMax, wizard.TooLong("Description", longTextMax)))
	}
	return c.Errors()
}

func (describeTheItem) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	raw, err := answers.ItemDescriptionCodec.Encode(answers.ItemDescription{
		WhatIsItem:             sub.Value("whatIsItem"),
		WhereIsIvory:           sub.Value("whereIsIvory"),
		DistinguishingFeatures: sub.Value("distinguishingFeatures"),
		WhereMade:              sub.Value("whereMade"),
		WhenMade:               sub.Value("whenMade"),
	})
	if err != nil {
		return wizard.Decision{}, err
	}
	route := string(itemTypeOf(sub.Answers))
	if route == "" {
		route = routeUnclassified
	}
	return wizard.Go(route).Write(answers.DescribeTheItem, raw), nil
}

func (s ivoryVolume) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	v, _, err := answers.Decode(snap, answers.IvoryVolumeCodec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(map[string]any{"ivoryVolume": v.Reason, "otherReason": v.OtherReason})
	p.Options = record.VolumeReasons.Labels()
	return p, nil
}

func (ivoryVolume) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	required := "You must tell us how you know the item's ivory volume"
	c.Field("ivoryVolume", sub.Value("ivoryVolume"),
		wizard.Required(required),
		wizard.OneOf(record.VolumeReasons.Labels(), required))
	c.Field("otherReason", sub.Value("otherReason"), wizard.MaxLength(longTextMax, wizard.TooLong("Reason", longTextMax)))
	return c.Errors()
}

func (ivoryVolume) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	v := answers.Reason{Reason: sub.Value("ivoryVolume")}
	if v.Reason == record.OtherReason {
		v.OtherReason = sub.Value("otherReason")
	}
	raw, err := answers.IvoryVolumeCodec.Encode(v)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeContinue).Write(answers.IvoryVolume, raw), nil
}

func (s ivoryAge) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	age, _, err := answers.Decode(snap, answers.IvoryAgeCodec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(map[string]any{
		"ivoryAge":    append([]string{}, age.Selected...),
		"otherReason": age.OtherReason,
	})
	p.Options = record.AgeReasons.Labels()
	if itemTypeOf(snap) == eligibility.Musical || itemTypeOf(snap) == eligibility.TenPercent {
		p.Back = IvoryVolume.Path()
	}
	return p, nil
}

// Validate accepts "Other reason" without text; the other reason is then
// stored empty.
func (ivoryAge) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	selected := sub.Values("ivoryAge")
	if len(selected) == 0 {
		c.Fail("ivoryAge", "You must tell us how you know the item's age")
	}
	for _, label := range selected {
		if _, err := record.AgeReasons.Code(label); err != nil {
			c.Fail("ivoryAge", "You must tell us how you know the item's age")
			break
		}
	}
	c.Field("otherReason", sub.Value("otherReason"), wizard.MaxLength(longTextMax, wizard.TooLong("Reason", longTextMax)))
	return c.Errors()
}

func (ivoryAge) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	age := answers.Reasons{Selected: sub.Values("ivoryAge")}
	if age.Has(record.OtherReason) {
		age.OtherReason = sub.Value("otherReason")
	}
	raw, err := answers.IvoryAgeCodec.Encode(age)
	if err != nil {
		return wizard.Decision{}, err
	}
	route := routeContinue
	if itemTypeOf(sub.Answers).IsHighValue() {
		route = string(eligibility.HighValue)
	}
	return wizard.Go(route).Write(answers.IvoryAge, raw), nil
}
