package answers

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// ErrMalformed marks stored structured data that does not match its shape.
var ErrMalformed = errors.New("malformed answer")

// ItemDescription is the describe-the-item answer.
type ItemDescription struct {
	WhatIsItem             string `json:"whatIsItem"`
	WhereIsIvory           string `json:"whereIsIvory"`
	DistinguishingFeatures string `json:"distinguishingFeatures,omitempty"`
	WhereMade              string `json:"whereMade,omitempty"`
	WhenMade               string `json:"whenMade,omitempty"`
}

func (d ItemDescription) Validate() error {
	if strings.TrimSpace(d.WhatIsItem) == "" || strings.TrimSpace(d.WhereIsIvory) == "" {
		return fmt.Errorf("item description missing required fields: %w", ErrMalformed)
	}
	return nil
}

// Reasons is a multi-select label set with an optional free-text "other".
type Reasons struct {
	Selected    []string `json:"selected"`
	OtherReason string   `json:"otherReason"`
}

func (r Reasons) Validate() error {
	if len(r.Selected) == 0 {
		return fmt.Errorf("no reasons selected: %w", ErrMalformed)
	}
	return nil
}

// Has reports whether label was selected.
func (r Reasons) Has(label string) bool {
	for _, s := range r.Selected {
		if s == label {
			return true
		}
	}
	return false
}

// Reason is a single-select label with an optional free-text "other".
type Reason struct {
	Reason      string `json:"reason"`
	OtherReason string `json:"otherReason"`
}

func (r Reason) Validate() error {
	if r.Reason == "" {
		return fmt.Errorf("no reason selected: %w", ErrMalformed)
	}
	return nil
}

// UploadedFiles holds the uploaded photos or documents of one upload step.
// The three slices are parallel.
type UploadedFiles struct {
	Files     []string `json:"files"`
	FileData  []string `json:"fileData"`
	FileSizes []int64  `json:"fileSizes"`
}

func (u UploadedFiles) Validate() error {
	if len(u.Files) != len(u.FileData) || len(u.Files) != len(u.FileSizes) {
		return fmt.Errorf("uploaded files slices differ in length: %w", ErrMalformed)
	}
	return nil
}

// Len is the number of uploaded files.
func (u UploadedFiles) Len() int { return len(u.Files) }

// Contains reports whether a file with this name is already uploaded.
func (u UploadedFiles) Contains(name string) bool {
	for _, f := range u.Files {
		if f == name {
			return true
		}
	}
	return false
}

// Without returns a copy with the file at index removed.
func (u UploadedFiles) Without(index int) UploadedFiles {
	if index < 0 || index >= u.Len() {
		return u
	}
	out := UploadedFiles{}
	for i := range u.Files {
		if i == index {
			continue
		}
		out.Files = append(out.Files, u.Files[i])
		out.FileData = append(out.FileData, u.FileData[i])
		out.FileSizes = append(out.FileSizes, u.FileSizes[i])
	}
	return out
}

// ContactDetails is an owner or applicant contact.
type ContactDetails struct {
	FullName     string `json:"fullName"`
	BusinessName string `json:"businessName,omitempty"`
	EmailAddress string `json:"emailAddress"`
}

func (c ContactDetails) Validate() error {
	if strings.TrimSpace(c.FullName) == "" {
		return fmt.Errorf("contact details missing name: %w", ErrMalformed)
	}
	if _, err := mail.ParseAddress(c.EmailAddress); err != nil {
		return fmt.Errorf("contact details email: %w", ErrMalformed)
	}
	return nil
}

var ukPostcode = regexp.MustCompile(`^(?i)[A-Z]{1,2}[0-9][A-Z0-9]? ?[0-9][A-Z]{2}$`)

// ValidPostcode reports whether s has the shape of a UK postcode.
func ValidPostcode(s string) bool {
	return ukPostcode.MatchString(strings.TrimSpace(s))
}

// Address is an owner or applicant address. International addresses are a
// single free-text block in Line1.
type Address struct {
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	TownOrCity    string `json:"townOrCity,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	International bool   `json:"international"`
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address missing first line: %w", ErrMalformed)
	}
	if !a.International && !ValidPostcode(a.Postcode) {
		return fmt.Errorf("address postcode: %w", ErrMalformed)
	}
	return nil
}

// String renders the address on one line, as sent to the case system.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Line1, a.Line2, a.TownOrCity, strings.ToUpper(a.Postcode)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Capacity is the what-capacity answer for people selling for someone else.
type Capacity struct {
	Capacity      string `json:"capacity"`
	OtherCapacity string `json:"otherCapacity,omitempty"`
}

func (c Capacity) Validate() error {
	if c.Capacity == "" {
		return fmt.Errorf("capacity missing: %w", ErrMalformed)
	}
	return nil
}

// Certificate is the already-certified answer.
type Certificate struct {
	AlreadyCertified  string `json:"alreadyCertified"`
	CertificateNumber string `json:"certificateNumber,omitempty"`
}

func (c Certificate) Validate() error {
	if c.AlreadyCertified == "" {
		return fmt.Errorf("certificate answer missing: %w", ErrMalformed)
	}
	if c.AlreadyCertified == Yes && c.CertificateNumber == "" {
		return fmt.Errorf("certificate number missing: %w", ErrMalformed)
	}
	return nil
}
