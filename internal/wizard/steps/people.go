package steps

import (
	"net/mail"
	"slices"

	"ivory/internal/answers"
	"ivory/internal/record"
	"ivory/internal/wizard"
)

// keepOwner are the selling-on-behalf-of options for which owner details are
// collected. Any other option clears them.
var keepOwner = slices.DeleteFunc(record.SellingOnBehalfOf.Labels(), func(l string) bool {
	return l == record.Other
})

var ownerKeys = []answers.Key{answers.OwnerContactDetails, answers.OwnerAddress}

type contactDetails struct {
	page
	codec answers.Codec[answers.ContactDetails]
	whose string
}

type address struct {
	page
	codec answers.Codec[answers.Address]
	whose string
}

type whatCapacity struct {
	page
}

func peopleSteps() []wizard.Step {
	return []wizard.Step{
		radio{
			page: page{
				id:    WhoOwnsItem,
				title: "Do you own the item?",
				needs: []answers.Key{answers.OwnedByApplicant},
				routes: wizard.Routes{
					answers.Yes: ApplicantContactDetails,
					answers.No:  WorkForABusiness,
				},
			},
			key:      answers.OwnedByApplicant,
			options:  yesNo,
			required: "Tell us who owns the item",
			clears: func(answer string) []answers.Key {
				if answer == answers.Yes {
					return append([]answers.Key{answers.WorkForABusiness, answers.SellingOnBehalfOf, answers.WhatCapacity}, ownerKeys...)
				}
				return nil
			},
		},
		radio{
			page: page{
				id:     WorkForABusiness,
				title:  "Do you work for a business that is selling or hiring out the item?",
				back:   WhoOwnsItem,
				needs:  []answers.Key{answers.WorkForABusiness},
				routes: routesOf(yesNo, SellingOnBehalfOf),
			},
			key:      answers.WorkForABusiness,
			options:  yesNo,
			required: "Tell us whether you work for a business",
		},
		radio{
			page: page{
				id:     SellingOnBehalfOf,
				title:  "Who are you selling or hiring out the item on behalf of?",
				back:   WorkForABusiness,
				needs:  []answers.Key{answers.SellingOnBehalfOf},
				routes: sellingOnBehalfOfRoutes(),
			},
			key:      answers.SellingOnBehalfOf,
			options:  record.SellingOnBehalfOf.Labels(),
			required: "Tell us who owns the item",
			clears: func(answer string) []answers.Key {
				if slices.Contains(keepOwner, answer) {
					return []answers.Key{answers.WhatCapacity}
				}
				return ownerKeys
			},
		},
		whatCapacity{page: page{
			id:     WhatCapacity,
			title:  "In what capacity are you acting?",
			back:   SellingOnBehalfOf,
			needs:  []answers.Key{answers.WhatCapacity},
			routes: next(ApplicantContactDetails),
		}},
		contactDetails{page: page{
			id:     OwnerContactDetails,
			title:  "Owner's contact details",
			back:   SellingOnBehalfOf,
			needs:  []answers.Key{answers.OwnerContactDetails},
			routes: next(OwnerAddress),
		}, codec: answers.OwnerContactCodec, whose: "the owner's"},
		address{page: page{
			id:     OwnerAddress,
			title:  "What is the owner's address?",
			back:   OwnerContactDetails,
			needs:  []answers.Key{answers.OwnerAddress},
			routes: next(ApplicantContactDetails),
		}, codec: answers.OwnerAddressCodec, whose: "the owner's"},
		contactDetails{page: page{
			id:     ApplicantContactDetails,
			title:  "Your contact details",
			back:   WhoOwnsItem,
			needs:  []answers.Key{answers.ApplicantContactDetails},
			routes: next(ApplicantAddress),
		}, codec: answers.ApplicantContactCodec, whose: "your"},
		address{page: page{
			id:     ApplicantAddress,
			title:  "What is your address?",
			back:   ApplicantContactDetails,
			needs:  []answers.Key{answers.ApplicantAddress},
			routes: next(IntentionForItem),
		}, codec: answers.ApplicantAddressCodec, whose: "your"},
	}
}

func sellingOnBehalfOfRoutes() wizard.Routes {
	routes := routesOf(keepOwner, OwnerContactDetails)
	routes[record.Other] = WhatCapacity
	return routes
}

func (s whatCapacity) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	c, _, err := answers.Decode(snap, answers.CapacityCodec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(map[string]any{"whatCapacity": c.Capacity, "otherCapacity": c.OtherCapacity})
	p.Options = record.Capacities.Labels()
	return p, nil
}

func (whatCapacity) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	required := "Tell us in what capacity you are acting"
	c.Field("whatCapacity", sub.Value("whatCapacity"),
		wizard.Required(required),
		wizard.OneOf(record.Capacities.Labels(), required))
	if sub.Value("whatCapacity") == record.Other {
		c.Field("otherCapacity", sub.Value("otherCapacity"),
			wizard.Required("Enter the capacity you are acting in"),
			wizard.MaxLength(shortTextMax, wizard.TooLong("Capacity", shortTextMax)))
	}
	return c.Errors()
}

func (whatCapacity) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	v := answers.Capacity{Capacity: sub.Value("whatCapacity")}
	if v.Capacity == record.Other {
		v.OtherCapacity = sub.Value("otherCapacity")
	}
	raw, err := answers.CapacityCodec.Encode(v)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeContinue).Write(answers.WhatCapacity, raw), nil
}

func (s contactDetails) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	cd, _, err := answers.Decode(snap, s.codec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	return s.frame(map[string]any{
		"fullName":            cd.FullName,
		"businessName":        cd.BusinessName,
		"emailAddress":        cd.EmailAddress,
		"confirmEmailAddress": cd.EmailAddress,
	}), nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func (s contactDetails) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field("fullName", sub.Value("fullName"),
		wizard.Required("Enter "+s.whose+" full name"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Name", longTextMax)))
	c.Field("businessName", sub.Value("businessName"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Business name", longTextMax)))
	c.Field("emailAddress", sub.Value("emailAddress"),
		wizard.Required("Enter "+s.whose+" email address"),
		wizard.Matches(validEmail, "Enter an email address in the correct format, like name@example.com"))
	c.Field("confirmEmailAddress", sub.Value("confirmEmailAddress"),
		wizard.Required("You must confirm the email address"))
	if !c.Has("emailAddress") && !c.Has("confirmEmailAddress") &&
		sub.Value("confirmEmailAddress") != sub.Value("emailAddress") {
		c.Fail("confirmEmailAddress", "This confirmation does not match")
	}
	return c.Errors()
}

func (s contactDetails) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	raw, err := s.codec.Encode(answers.ContactDetails{
		FullName:     sub.Value("fullName"),
		BusinessName: sub.Value("businessName"),
		EmailAddress: sub.Value("emailAddress"),
	})
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeContinue).Write(s.codec.Key, raw), nil
}

func (s address) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	a, _, err := answers.Decode(snap, s.codec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	international := ""
	if a.International {
		international = "true"
	}
	return s.frame(map[string]any{
		"addressLine1":  a.Line1,
		"addressLine2":  a.Line2,
		"townOrCity":    a.TownOrCity,
		"postcode":      a.Postcode,
		"international": international,
	}), nil
}

// Validate: an international address is one free-text block in
// addressLine1; UK addresses need a town and a postcode.
func (s address) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field("addressLine1", sub.Value("addressLine1"),
		wizard.Required("Enter "+s.whose+" address"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Address", longTextMax)))
	if sub.Value("international") == "true" {
		return c.Errors()
	}
	c.Field("addressLine2", sub.Value("addressLine2"),
		wizard.MaxLength(longTextMax, wizard.TooLong("Address", longTextMax)))
	c.Field("townOrCity", sub.Value("townOrCity"),
		wizard.Required("Enter a town or city"),
		wizard.MaxLength(shortTextMax, wizard.TooLong("Town or city", shortTextMax)))
	c.Field("postcode", sub.Value("postcode"),
		wizard.Required("Enter a postcode"),
		wizard.Matches(answers.ValidPostcode, "Enter a real postcode"))
	return c.Errors()
}

func (s address) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	a := answers.Address{Line1: sub.Value("addressLine1")}
	if sub.Value("international") == "true" {
		a.International = true
	} else {
		a.Line2 = sub.Value("addressLine2")
		a.TownOrCity = sub.Value("townOrCity")
		a.Postcode = sub.Value("postcode")
	}
	raw, err := s.codec.Encode(a)
	if err != nil {
		return wizard.Decision{}, err
	}
	return wizard.Go(routeContinue).Write(s.codec.Key, raw), nil
}
