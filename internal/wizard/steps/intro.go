package steps

import (
	"ivory/internal/answers"
	"ivory/internal/eligibility"
	"ivory/internal/wizard"
)

// canContinue confirms the exemption found. Without a classification the
// user is sent back to the start.
type canContinue struct {
	page
}

func introSteps() []wizard.Step {
	return []wizard.Step{
		canContinue{page: page{
			id:    CanContinue,
			title: "You can continue",
			needs: []answers.Key{answers.ItemType},
			routes: wizard.Routes{
				routeContinue:     LegalResponsibility,
				routeUnclassified: wizard.StepID(eligibility.Root),
			},
		}},
		info{
			page: page{
				id:     LegalResponsibility,
				title:  "Both the owner and applicant are jointly responsible for providing accurate information",
				back:   CanContinue,
				routes: next(UploadPhotos),
			},
		},
	}
}

func (s canContinue) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	p := s.frame(nil)
	itemType, err := eligibility.ParseItemType(snap.Value(answers.ItemType))
	if err != nil {
		p.Content = map[string]any{"classified": false}
		return p, nil
	}
	if itemType.IsHighValue() {
		p.Back = AlreadyCertified.Path()
		p.Title = "You can apply for an exemption certificate"
	} else {
		p.Title = "You can register your item"
	}
	p.Content = map[string]any{
		"classified": true,
		"itemType":   string(itemType),
		"schema":     itemType.Schema().String(),
	}
	return p, nil
}

func (canContinue) Validate(*wizard.Submission) []wizard.FieldError { return nil }

func (canContinue) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	if _, err := eligibility.ParseItemType(sub.Answers.Value(answers.ItemType)); err != nil {
		return wizard.Go(routeUnclassified), nil
	}
	return wizard.Go(routeContinue), nil
}

// itemTypeOf reads the stored classification, Unclassified when unset or
// unknown.
func itemTypeOf(snap answers.Snapshot) eligibility.ItemType {
	t, err := eligibility.ParseItemType(snap.Value(answers.ItemType))
	if err != nil {
		return eligibility.Unclassified
	}
	return t
}
