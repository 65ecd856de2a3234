package steps

import (
	"ivory/internal/answers"
	"ivory/internal/record/service"
	"ivory/internal/wizard"
)

// exit is an absorbing page. POSTing to it leaves the service.
type exit struct {
	info
	url string
}

func (s exit) ExitURL() string { return s.url }

func exitSteps(d Deps) []wizard.Step {
	mk := func(stepID wizard.StepID, title, reason string) wizard.Step {
		return exit{
			info: info{
				page:    page{id: stepID, title: title},
				content: func(answers.Snapshot) map[string]any { return map[string]any{"reason": reason} },
			},
			url: d.Journey.ExitURL,
		}
	}
	return []wizard.Step{
		mk(CannotTrade, "You cannot trade your item",
			"Your item does not meet any of the exemptions, so you cannot sell or hire it out."),
		mk(CannotContinue, "You cannot continue",
			"You need to be sure your item meets the exemption criteria before you can register or apply for a certificate."),
		mk(DoNotNeedService, "You don't need to tell us about this item",
			"Items without ivory, or sold to or between museums, do not need to be registered."),
	}
}

// complete is the end of the journey. It takes no submission.
type complete struct {
	page
}

func serviceComplete() wizard.Step {
	return complete{page: page{
		id:    ServiceComplete,
		title: "Service complete",
		needs: []answers.Key{answers.SubmissionReference, answers.SubmissionOutcome, answers.ItemType, answers.ApplicantContactDetails},
	}}
}

func (s complete) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	p := s.frame(nil)
	ref, ok := snap.Lookup(answers.SubmissionReference)
	if !ok {
		p.Content = map[string]any{"submitted": false}
		return p, nil
	}
	outcome := snap.Value(answers.SubmissionOutcome)
	content := map[string]any{
		"submitted": outcome == string(service.StatusSubmitted),
		"reference": ref,
		"outcome":   outcome,
		"itemType":  snap.Value(answers.ItemType),
	}
	if applicant, ok, err := answers.Decode(snap, answers.ApplicantContactCodec); err != nil {
		return wizard.Presentation{}, err
	} else if ok {
		content["emailAddress"] = applicant.EmailAddress
	}
	if outcome == string(service.StatusSubmitted) {
		p.Title = "Submission received"
	} else {
		p.Title = "Your submission could not be completed"
	}
	p.Content = content
	return p, nil
}

func (complete) Validate(*wizard.Submission) []wizard.FieldError { return nil }

func (complete) Decide(*wizard.Submission) (wizard.Decision, error) {
	return wizard.Decision{}, wizard.ErrNoSubmit
}
