// Package steps defines every page of the declaration journey.
package steps

import (
	"context"
	"strings"

	"ivory/internal/answers"
	"ivory/internal/casemgmt"
	eligmetrics "ivory/internal/eligibility/metrics"
	"ivory/internal/platform/config"
	"ivory/internal/record/service"
	"ivory/internal/wizard"
	id "ivory/pkg/domain"
)

// Step IDs outside the eligibility questions. Eligibility steps use their
// question as ID.
const (
	CannotTrade               wizard.StepID = "cannot-trade"
	CannotContinue            wizard.StepID = "cannot-continue"
	DoNotNeedService          wizard.StepID = "do-not-need-service"
	AlreadyCertified          wizard.StepID = "already-certified"
	RevokedCertificate        wizard.StepID = "revoked-certificate"
	AppliedBefore             wizard.StepID = "applied-before"
	PreviousApplicationNumber wizard.StepID = "previous-application-number"
	CanContinue               wizard.StepID = "can-continue"
	LegalResponsibility       wizard.StepID = "legal-responsibility"
	UploadPhotos              wizard.StepID = "upload-photos"
	YourPhotos                wizard.StepID = "your-photos"
	DescribeTheItem           wizard.StepID = "describe-the-item"
	IvoryIntegral             wizard.StepID = "ivory-integral"
	IvoryVolume               wizard.StepID = "ivory-volume"
	IvoryAge                  wizard.StepID = "ivory-age"
	WhyIsItemRMI              wizard.StepID = "why-is-item-rmi"
	UploadDocument            wizard.StepID = "upload-document"
	YourDocuments             wizard.StepID = "your-documents"
	WhoOwnsItem               wizard.StepID = "who-owns-item"
	WorkForABusiness          wizard.StepID = "work-for-a-business"
	SellingOnBehalfOf         wizard.StepID = "selling-on-behalf-of"
	WhatCapacity              wizard.StepID = "what-capacity"
	OwnerContactDetails       wizard.StepID = "owner-contact-details"
	OwnerAddress              wizard.StepID = "owner-address"
	ApplicantContactDetails   wizard.StepID = "applicant-contact-details"
	ApplicantAddress          wizard.StepID = "applicant-address"
	IntentionForItem          wizard.StepID = "intention-for-item"
	CheckYourAnswers          wizard.StepID = "check-your-answers"
	ServiceComplete           wizard.StepID = "service-complete"
)

// Discriminators shared by several steps.
const (
	routeContinue     = "continue"
	routeUnclassified = "unclassified"
	routeEmpty        = "empty"
	routeRemoved      = "removed"
	routeSkip         = "skip"
)

// Submitter sends the completed journey to the case system.
type Submitter interface {
	Submit(ctx context.Context, sid id.SessionID, snap answers.Snapshot) (service.Receipt, error)
}

// CertificateLookup finds existing records by field.
type CertificateLookup interface {
	GetRecordsWithField(ctx context.Context, field, value string) ([]casemgmt.Record, error)
}

// Deps are what the steps need from outside.
type Deps struct {
	Certificates CertificateLookup
	Submitter    Submitter
	Journey      config.JourneyConfig
	Upload       config.UploadConfig
	Eligibility  *eligmetrics.Metrics
}

// All builds every step of the journey.
func All(d Deps) []wizard.Step {
	out := eligibilitySteps(d)
	out = append(out, exitSteps(d)...)
	out = append(out, certificateSteps(d)...)
	out = append(out, introSteps()...)
	out = append(out, uploadSteps(d)...)
	out = append(out, itemSteps()...)
	out = append(out, peopleSteps()...)
	out = append(out, checkYourAnswers(d), serviceComplete())
	return out
}

// page carries what every step has in common.
type page struct {
	id     wizard.StepID
	title  string
	back   wizard.StepID
	needs  []answers.Key
	routes wizard.Routes
}

func (p page) ID() wizard.StepID { return p.id }
func (p page) Needs() []answers.Key { return p.needs }
func (p page) Routes() wizard.Routes { return p.routes }

func (p page) frame(values map[string]any) wizard.Presentation {
	pres := wizard.Presentation{Step: p.id, Title: p.title, Values: values}
	if p.back != "" {
		pres.Back = p.back.Path()
	}
	return pres
}

// info is a page with nothing to answer that always continues.
type info struct {
	page
	content func(answers.Snapshot) map[string]any
}

func (s info) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	p := s.frame(nil)
	if s.content != nil {
		p.Content = s.content(snap)
	}
	return p, nil
}

func (info) Validate(*wizard.Submission) []wizard.FieldError { return nil }

func (info) Decide(*wizard.Submission) (wizard.Decision, error) {
	return wizard.Go(routeContinue), nil
}

// fieldName turns an answer key into its form field name:
// IS_IT_A_MUSICAL_INSTRUMENT becomes isItAMusicalInstrument.
func fieldName(key answers.Key) string {
	parts := strings.Split(strings.ToLower(string(key)), "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i > 0 {
			b.WriteString(strings.ToUpper(p[:1]) + p[1:])
			continue
		}
		b.WriteString(p)
	}
	return b.String()
}
