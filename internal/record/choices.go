package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ivory/internal/eligibility"
)

// ErrUnknownChoice is returned for a label with no external code. The case
// system rejects invalid codes, so there is no default.
var ErrUnknownChoice = errors.New("unknown choice")

// choiceBase is the first code of every option set in the case system.
const choiceBase = 881990000

// ChoiceTable maps option labels to external integer codes. Codes are
// assigned in label order starting at choiceBase.
type ChoiceTable struct {
	name   string
	labels []string
}

func newChoiceTable(name string, labels ...string) ChoiceTable {
	return ChoiceTable{name: name, labels: labels}
}

// Labels returns the labels in code order.
func (t ChoiceTable) Labels() []string {
	return append([]string(nil), t.labels...)
}

// Code returns the code of label.
func (t ChoiceTable) Code(label string) (int, error) {
	for i, l := range t.labels {
		if l == label {
			return choiceBase + i, nil
		}
	}
	return 0, fmt.Errorf("%s %q: %w", t.name, label, ErrUnknownChoice)
}

// Codes translates a label set and joins the codes with commas.
func (t ChoiceTable) Codes(labels []string) (string, error) {
	codes := make([]string, 0, len(labels))
	for _, l := range labels {
		c, err := t.Code(l)
		if err != nil {
			return "", err
		}
		codes = append(codes, strconv.Itoa(c))
	}
	return strings.Join(codes, ","), nil
}

// Labels shared with the wizard.
const (
	OtherReason        = "Other reason"
	Other              = "Other"
	CertificateRevoked = "It had one, but it was revoked"
)

var (
	StatusNew = choiceBase

	AgeReasons = newChoiceTable("age reason",
		"Stamp, serial number or signature",
		"Dated receipt",
		"Dated publication",
		"Been in the family",
		"Expert verification",
		"Professional opinion",
		"Carbon dating",
		OtherReason,
	)

	VolumeReasons = newChoiceTable("volume reason",
		"It's clear from looking at it",
		"I measured it",
		"I have written verification from a relevant expert",
		OtherReason,
	)

	IntegralReasons = newChoiceTable("integral reason",
		"The ivory is essential to the design or function of the item",
		"You cannot remove the ivory easily or without damaging the item",
		"Both of the above",
	)

	Intentions = newChoiceTable("intention",
		"Sell it",
		"Hire it out",
		"Not sure yet",
	)

	Species = newChoiceTable("species",
		"Elephant",
		"Hippopotamus",
		"Killer whale",
		"Narwhal",
		"Sperm whale",
		"Two or more of these species",
	)

	SellingOnBehalfOf = newChoiceTable("selling on behalf of",
		"A friend or relative",
		"The business I work for",
		"An individual",
		"Another business",
		Other,
	)

	Capacities = newChoiceTable("capacity",
		"Agent",
		"Auctioneer",
		"Executor",
		"Trustee",
		Other,
	)

	CertificateAnswers = newChoiceTable("already certified",
		"Yes",
		"No",
		CertificateRevoked,
	)
)

// ExemptionCategory returns the code of an item type.
func ExemptionCategory(t eligibility.ItemType) (int, error) {
	switch t {
	case eligibility.Musical:
		return choiceBase, nil
	case eligibility.TenPercent:
		return choiceBase + 1, nil
	case eligibility.Miniature:
		return choiceBase + 2, nil
	case eligibility.Museum:
		return choiceBase + 3, nil
	case eligibility.HighValue:
		return choiceBase + 4, nil
	default:
		return 0, fmt.Errorf("exemption category %q: %w", t, ErrUnknownChoice)
	}
}
