package steps

import (
	"context"
	"errors"
	"strings"

	"ivory/internal/answers"
	"ivory/internal/eligibility"
	"ivory/internal/record"
	"ivory/internal/wizard"
)

// Display sentinels. They never reach the case record.
const (
	NothingEntered = "Nothing entered"
	None           = "None"
)

const routeSubmitted = "submitted"

// Row is one line of the answers summary.
type Row struct {
	Label  string        `json:"label"`
	Value  string        `json:"value"`
	Change wizard.StepID `json:"change"`
}

type checkAnswers struct {
	page
	submitter Submitter
}

func checkYourAnswers(d Deps) wizard.Step {
	return checkAnswers{
		page: page{
			id:     CheckYourAnswers,
			title:  "Check your answers",
			back:   IntentionForItem,
			needs:  answers.All(),
			routes: wizard.Routes{routeSubmitted: ServiceComplete},
		},
		submitter: d.Submitter,
	}
}

func (s checkAnswers) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	rows, err := summarize(snap)
	if err != nil {
		return wizard.Presentation{}, err
	}
	p := s.frame(map[string]any{"agree": ""})
	p.Content = map[string]any{
		"rows":     rows,
		"itemType": snap.Value(answers.ItemType),
	}
	return p, nil
}

func (checkAnswers) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	c.Field("agree", sub.Value("agree"), wizard.Required("You must agree to the declaration"))
	return c.Errors()
}

// Verify dry-runs the record so an incomplete journey is reported here
// rather than at the case system.
func (checkAnswers) Verify(_ context.Context, sub *wizard.Submission) ([]wizard.FieldError, error) {
	if _, done := sub.Answers.Lookup(answers.SubmissionReference); done {
		return nil, nil
	}
	// The stored category must be the one the eligibility answers lead to.
	v, err := eligibility.Classify(sub.Answers)
	if err != nil {
		return nil, err
	}
	if v.Kind != eligibility.Exempt || string(v.ItemType) != sub.Answers.Value(answers.ItemType) {
		return []wizard.FieldError{{Name: "agree", Text: "You must complete the eligibility questions before submitting"}}, nil
	}
	_, _, err = record.Assemble(sub.Answers, v.ItemType, record.Options{Reference: "DRYRUN", Now: sub.Now})
	var missing *record.MissingFieldsError
	if errors.As(err, &missing) {
		return []wizard.FieldError{{Name: "agree", Text: "You must answer every question before submitting"}}, nil
	}
	return nil, err
}

// Apply submits once. A session that already has a reference is not
// submitted again.
func (s checkAnswers) Apply(ctx context.Context, sub *wizard.Submission) error {
	if _, done := sub.Answers.Lookup(answers.SubmissionReference); done {
		return nil
	}
	receipt, err := s.submitter.Submit(ctx, sub.SessionID, sub.Answers)
	if err != nil {
		return err
	}
	sub.Fact(answers.SubmissionReference, receipt.Reference)
	sub.Fact(answers.SubmissionOutcome, string(receipt.Status))
	return nil
}

func (checkAnswers) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	d := wizard.Go(routeSubmitted)
	for k, v := range sub.Facts {
		d = d.Write(k, v)
	}
	return d, nil
}

func summarize(snap answers.Snapshot) ([]Row, error) {
	var rows []Row
	add := func(label, value string, change wizard.StepID) {
		if strings.TrimSpace(value) == "" {
			value = NothingEntered
		}
		rows = append(rows, Row{Label: label, Value: value, Change: change})
	}

	add("Species", snap.Value(answers.WhatSpecies), wizard.StepID(eligibility.WhatSpecies))
	add("Exemption", snap.Value(answers.ItemType), wizard.StepID(eligibility.Root))

	photos, _, err := answers.Decode(snap, answers.PhotosCodec)
	if err != nil {
		return nil, err
	}
	add("Photos", listOrNone(photos.Files), YourPhotos)

	desc, _, err := answers.Decode(snap, answers.ItemDescriptionCodec)
	if err != nil {
		return nil, err
	}
	add("What is it", desc.WhatIsItem, DescribeTheItem)
	add("Where is the ivory", desc.WhereIsIvory, DescribeTheItem)
	add("Distinguishing features", desc.DistinguishingFeatures, DescribeTheItem)
	add("Where was it made", desc.WhereMade, DescribeTheItem)
	add("When was it made", desc.WhenMade, DescribeTheItem)

	itemType := itemTypeOf(snap)
	if itemType.AsksIntegral() {
		add("How the ivory is integral", snap.Value(answers.IvoryIntegral), IvoryIntegral)
	}
	if itemType.AsksVolume() {
		vol, _, err := answers.Decode(snap, answers.IvoryVolumeCodec)
		if err != nil {
			return nil, err
		}
		add("How you know the ivory volume", withOther(vol.Reason, vol.OtherReason), IvoryVolume)
	}

	age, _, err := answers.Decode(snap, answers.IvoryAgeCodec)
	if err != nil {
		return nil, err
	}
	ageText := strings.Join(age.Selected, ", ")
	if age.Has(record.OtherReason) {
		ageText = withOther(ageText, age.OtherReason)
	}
	add("How you know the item's age", ageText, IvoryAge)

	if itemType.IsHighValue() {
		cert, _, err := answers.Decode(snap, answers.CertificateCodec)
		if err != nil {
			return nil, err
		}
		add("Already certified", withOther(cert.AlreadyCertified, cert.CertificateNumber), AlreadyCertified)
		add("Why it is of outstandingly high value", snap.Value(answers.WhyIsItemRMI), WhyIsItemRMI)
		docs, _, err := answers.Decode(snap, answers.DocumentsCodec)
		if err != nil {
			return nil, err
		}
		add("Supporting documents", listOrNone(docs.Files), YourDocuments)
	}

	add("Do you own the item", snap.Value(answers.OwnedByApplicant), WhoOwnsItem)
	if snap.Value(answers.OwnedByApplicant) == answers.No {
		add("Selling on behalf of", snap.Value(answers.SellingOnBehalfOf), SellingOnBehalfOf)
		owner, _, err := answers.Decode(snap, answers.OwnerContactCodec)
		if err != nil {
			return nil, err
		}
		add("Owner's name", owner.FullName, OwnerContactDetails)
		ownerAddress, _, err := answers.Decode(snap, answers.OwnerAddressCodec)
		if err != nil {
			return nil, err
		}
		add("Owner's address", ownerAddress.String(), OwnerAddress)
	}

	applicant, _, err := answers.Decode(snap, answers.ApplicantContactCodec)
	if err != nil {
		return nil, err
	}
	add("Your name", applicant.FullName, ApplicantContactDetails)
	add("Your email", applicant.EmailAddress, ApplicantContactDetails)
	applicantAddress, _, err := answers.Decode(snap, answers.ApplicantAddressCodec)
	if err != nil {
		return nil, err
	}
	add("Your address", applicantAddress.String(), ApplicantAddress)
	add("What you intend to do", snap.Value(answers.IntentionForItem), IntentionForItem)
	return rows, nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return None
	}
	return strings.Join(items, ", ")
}

func withOther(main, other string) string {
	if other == "" {
		return main
	}
	return main + ": " + other
}
