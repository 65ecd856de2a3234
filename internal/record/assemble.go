// Package record turns a completed journey's answers into the flat record the
// case-management system stores.
package record

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ivory/internal/answers"
	"ivory/internal/eligibility"
)

// Record maps external field identifiers to values. An absent key is null.
type Record map[string]any

// Attachment is a file linked to a record after it has been created.
type Attachment struct {
	Field    string
	FileName string
	Data     []byte
}

// Options carries the values Assemble does not read from answers.
type Options struct {
	Reference  string
	AccessKey  string
	Now        time.Time
	TargetDays int
}

// OwnerNotCollected is the owner name sent when the applicant sells in a
// capacity for which owner details are not asked.
const OwnerNotCollected = "Not collected"

var mandatory = map[eligibility.Schema][]string{
	eligibility.Section2: {
		FieldName, FieldSubmissionDate, FieldStatus, FieldOwnerName, FieldItemSummary, FieldExemptionCategory,
	},
	eligibility.Section10: {
		FieldName, FieldSubmissionDate, FieldStatus, FieldItemSummary, FieldExemptionCategory,
	},
}

// MissingFieldsError lists mandatory fields without a value.
type MissingFieldsError struct {
	Schema eligibility.Schema
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s record missing mandatory fields: %s", e.Schema, strings.Join(e.Fields, ", "))
}

// Assemble builds the record for itemType's schema. It also returns the
// attachments to link once the record exists; the first photo travels in the
// record itself.
func Assemble(bag answers.Snapshot, itemType eligibility.ItemType, opts Options) (Record, []Attachment, error) {
	schema := itemType.Schema()
	if schema == eligibility.SchemaNone {
		return nil, nil, fmt.Errorf("item type %q: %w", itemType, ErrUnknownChoice)
	}

	a := &assembler{bag: bag, rec: Record{}}
	a.common(itemType, opts)
	a.people()
	switch schema {
	case eligibility.Section2:
		a.section2(opts)
	case eligibility.Section10:
		a.section10(itemType)
	}
	attachments := a.attachments(itemType)

	if err := errors.Join(a.errs...); err != nil {
		return nil, nil, err
	}
	if missing := a.missing(schema); len(missing) > 0 {
		return nil, nil, &MissingFieldsError{Schema: schema, Fields: missing}
	}
	return a.rec, attachments, nil
}

type assembler struct {
	bag  answers.Snapshot
	rec  Record
	errs []error
}

func (a *assembler) fail(err error) {
	if err != nil {
		a.errs = append(a.errs, err)
	}
}

// text sets field when value is non-blank.
func (a *assembler) text(field, value string) {
	if strings.TrimSpace(value) != "" {
		a.rec[field] = value
	}
}

func (a *assembler) code(field string, table ChoiceTable, key answers.Key) {
	label, ok := a.bag.Lookup(key)
	if !ok {
		return
	}
	c, err := table.Code(label)
	if err != nil {
		a.fail(fmt.Errorf("%s: %w", key, err))
		return
	}
	a.rec[field] = c
}

func (a *assembler) yesNo(field string, key answers.Key) {
	switch a.bag.Value(key) {
	case answers.Yes:
		a.rec[field] = true
	case answers.No:
		a.rec[field] = false
	}
}

func decode[T answers.Shape](a *assembler, c answers.Codec[T]) (T, bool) {
	v, ok, err := answers.Decode(a.bag, c)
	if err != nil {
		a.fail(err)
		return v, false
	}
	return v, ok
}

func (a *assembler) common(itemType eligibility.ItemType, opts Options) {
	a.text(FieldName, opts.Reference)
	a.text(FieldAccessKey, opts.AccessKey)
	a.rec[FieldSubmissionDate] = opts.Now.UTC().Format(time.RFC3339)
	a.rec[FieldStatus] = StatusNew

	category, err := ExemptionCategory(itemType)
	a.fail(err)
	if err == nil {
		a.rec[FieldExemptionCategory] = category
	}

	if desc, ok := decode(a, answers.ItemDescriptionCodec); ok {
		a.text(FieldItemSummary, desc.WhatIsItem)
		a.text(FieldWhereIsIvory, desc.WhereIsIvory)
		a.text(FieldDistinguishingFeatures, desc.DistinguishingFeatures)
		a.text(FieldWhereMade, desc.WhereMade)
		a.text(FieldWhenMade, desc.WhenMade)
	}

	if age, ok := decode(a, answers.IvoryAgeCodec); ok {
		codes, err := AgeReasons.Codes(age.Selected)
		a.fail(err)
		if err == nil {
			a.rec[FieldAgeReasons] = codes
		}
		if age.Has(OtherReason) {
			a.rec[FieldAgeOtherReason] = age.OtherReason
		}
	}

	a.code(FieldIntention, Intentions, answers.IntentionForItem)
	a.code(FieldSpecies, Species, answers.WhatSpecies)
}

func (a *assembler) people() {
	a.yesNo(FieldOwnedByApplicant, answers.OwnedByApplicant)
	a.yesNo(FieldWorkForABusiness, answers.WorkForABusiness)
	a.code(FieldSellingOnBehalfOf, SellingOnBehalfOf, answers.SellingOnBehalfOf)

	if c, ok := decode(a, answers.CapacityCodec); ok {
		code, err := Capacities.Code(c.Capacity)
		a.fail(err)
		if err == nil {
			a.rec[FieldCapacity] = code
		}
		if c.Capacity == Other {
			a.rec[FieldCapacityOther] = c.OtherCapacity
		}
	}

	applicant, hasApplicant := decode(a, answers.ApplicantContactCodec)
	if hasApplicant {
		a.text(FieldApplicantName, applicant.FullName)
		a.text(FieldApplicantBusinessName, applicant.BusinessName)
		a.text(FieldApplicantEmail, applicant.EmailAddress)
	}
	applicantAddress, hasApplicantAddress := decode(a, answers.ApplicantAddressCodec)
	if hasApplicantAddress {
		a.text(FieldApplicantAddress, applicantAddress.String())
		a.text(FieldApplicantPostcode, strings.ToUpper(applicantAddress.Postcode))
	}

	switch {
	case a.bag.Value(answers.OwnedByApplicant) == answers.Yes:
		if hasApplicant {
			a.text(FieldOwnerName, applicant.FullName)
			a.text(FieldOwnerBusinessName, applicant.BusinessName)
			a.text(FieldOwnerEmail, applicant.EmailAddress)
		}
		if hasApplicantAddress {
			a.text(FieldOwnerAddress, applicantAddress.String())
			a.text(FieldOwnerPostcode, strings.ToUpper(applicantAddress.Postcode))
		}
	case a.bag.Value(answers.SellingOnBehalfOf) == Other:
		a.rec[FieldOwnerName] = OwnerNotCollected
	default:
		if owner, ok := decode(a, answers.OwnerContactCodec); ok {
			a.text(FieldOwnerName, owner.FullName)
			a.text(FieldOwnerBusinessName, owner.BusinessName)
			a.text(FieldOwnerEmail, owner.EmailAddress)
		}
		if addr, ok := decode(a, answers.OwnerAddressCodec); ok {
			a.text(FieldOwnerAddress, addr.String())
			a.text(FieldOwnerPostcode, strings.ToUpper(addr.Postcode))
		}
	}
}

// section10 writes only what the item's path asked. Answers left over from
// an abandoned path stay out of the record.
func (a *assembler) section10(itemType eligibility.ItemType) {
	if !itemType.AsksVolume() {
		return
	}
	if v, ok := decode(a, answers.IvoryVolumeCodec); ok {
		code, err := VolumeReasons.Code(v.Reason)
		a.fail(err)
		if err == nil {
			a.rec[FieldIvoryVolume] = code
		}
		if v.Reason == OtherReason {
			a.rec[FieldIvoryVolumeOther] = v.OtherReason
		}
	}
	if itemType.AsksIntegral() {
		a.code(FieldIvoryIntegral, IntegralReasons, answers.IvoryIntegral)
	}
}

func (a *assembler) section2(opts Options) {
	a.text(FieldWhyRMI, a.bag.Value(answers.WhyIsItemRMI))
	a.rec[FieldTargetCompletionDate] = opts.Now.UTC().AddDate(0, 0, opts.TargetDays).Format(time.DateOnly)
	a.rec[FieldDateStatusApplied] = a.rec[FieldSubmissionDate]

	if cert, ok := decode(a, answers.CertificateCodec); ok {
		code, err := CertificateAnswers.Code(cert.AlreadyCertified)
		a.fail(err)
		if err == nil {
			a.rec[FieldAlreadyCertified] = code
		}
		a.text(FieldCertificateNumber, cert.CertificateNumber)
	}
	a.text(FieldExistingRecordID, a.bag.Value(answers.ExistingRecordID))
	a.text(FieldRevokedCertificateNumber, a.bag.Value(answers.RevokedCertificate))
	a.yesNo(FieldAppliedBefore, answers.AppliedBefore)
	a.text(FieldPreviousApplicationNumber, a.bag.Value(answers.PreviousApplicationNumber))
}

func (a *assembler) attachments(itemType eligibility.ItemType) []Attachment {
	var out []Attachment
	if photos, ok := decode(a, answers.PhotosCodec); ok && photos.Len() > 0 {
		a.rec[FieldPhoto1] = photos.FileData[0]
		for i := 1; i < photos.Len() && i-1 < len(PhotoFields); i++ {
			out = a.attach(out, PhotoFields[i-1], photos.Files[i], photos.FileData[i])
		}
	}
	if !itemType.IsHighValue() {
		return out
	}
	if docs, ok := decode(a, answers.DocumentsCodec); ok {
		for i := 0; i < docs.Len() && i < len(DocumentFields); i++ {
			out = a.attach(out, DocumentFields[i], docs.Files[i], docs.FileData[i])
		}
	}
	return out
}

func (a *assembler) attach(out []Attachment, field, name, data string) []Attachment {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		a.fail(fmt.Errorf("attachment %s: %w", name, answers.ErrMalformed))
		return out
	}
	return append(out, Attachment{Field: field, FileName: name, Data: raw})
}

func (a *assembler) missing(schema eligibility.Schema) []string {
	var out []string
	for _, f := range mandatory[schema] {
		if v, ok := a.rec[f]; !ok || v == nil {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
