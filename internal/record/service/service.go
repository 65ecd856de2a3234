// Package service submits a completed journey to the case-management system.
package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ivory/internal/answers"
	"ivory/internal/casemgmt"
	"ivory/internal/eligibility"
	"ivory/internal/record"
	id "ivory/pkg/domain"
	dErrors "ivory/pkg/domain-errors"
	"ivory/pkg/platform/audit"
	"ivory/pkg/requestcontext"
)

// Status is how a submission ended.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

// Receipt is what the user is shown on completion. A failed receipt still
// carries the reference so support can trace it.
type Receipt struct {
	Reference string
	RecordID  string
	Status    Status
	ItemType  eligibility.ItemType
}

// Auditor receives submission events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service performs the two-phase write: create the record, then link the
// remaining attachments to the new ID.
type Service struct {
	cases      casemgmt.Client
	auditor    Auditor
	metrics    *Metrics
	logger     *slog.Logger
	targetDays int
	reference  func() string
	accessKey  func() string
}

type Option func(*Service)

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTargetDays sets the Section 2 target completion offset.
func WithTargetDays(days int) Option {
	return func(s *Service) { s.targetDays = days }
}

// WithReferenceGenerator replaces reference and access key generation.
func WithReferenceGenerator(reference, accessKey func() string) Option {
	return func(s *Service) {
		s.reference = reference
		s.accessKey = accessKey
	}
}

func New(cases casemgmt.Client, opts ...Option) *Service {
	s := &Service{
		cases:      cases,
		logger:     slog.Default(),
		targetDays: 30,
		reference:  NewReference,
		accessKey:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReference returns 8 random characters from A-Z and 2-7.
func NewReference() string {
	return rand.Text()[:8]
}

// Submit assembles and sends the record. A case system failure is not an
// error: the receipt says the submission failed. Errors are reserved for
// answers that cannot be assembled.
func (s *Service) Submit(ctx context.Context, sid id.SessionID, snap answers.Snapshot) (Receipt, error) {
	itemType, err := eligibility.ParseItemType(snap.Value(answers.ItemType))
	if err != nil {
		return Receipt{}, err
	}
	ref := s.reference()
	rec, attachments, err := record.Assemble(snap, itemType, record.Options{
		Reference:  ref,
		AccessKey:  s.accessKey(),
		Now:        requestcontext.Now(ctx),
		TargetDays: s.targetDays,
	})
	if err != nil {
		return Receipt{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "assemble record")
	}

	schema := itemType.Schema().String()
	highValue := itemType.IsHighValue()
	receipt := Receipt{Reference: ref, ItemType: itemType, Status: StatusFailed}
	logger := s.logger.With(
		"session_id", sid.String(),
		"request_id", requestcontext.RequestID(ctx),
		"reference", ref,
		"schema", schema,
	)

	start := time.Now()
	recordID, err := s.cases.CreateRecord(ctx, rec, highValue)
	s.metrics.observeCreate(schema, err, time.Since(start))
	if err != nil {
		logger.ErrorContext(ctx, "case record creation failed",
			"operation", "CreateRecord",
			"status", casemgmt.StatusOf(err),
			"category", string(casemgmt.CategoryOf(err)),
			"error", err,
		)
		s.emit(ctx, audit.Event{
			SessionID: sid,
			Subject:   ref,
			Action:    string(audit.EventSubmissionFailed),
			Reason:    string(casemgmt.CategoryOf(err)),
		})
		return receipt, nil
	}
	receipt.RecordID = recordID
	receipt.Status = StatusSubmitted

	// One call per attachment so a bad file does not take the rest with it.
	for _, a := range attachments {
		if err := s.cases.UpdateRecordAttachments(ctx, recordID, highValue, []record.Attachment{a}); err != nil {
			s.metrics.attachmentFailed(schema)
			logger.WarnContext(ctx, "attachment link failed",
				"operation", "UpdateRecordAttachments",
				"record_id", recordID,
				"field", a.Field,
				"status", casemgmt.StatusOf(err),
				"error", err,
			)
			s.emit(ctx, audit.Event{
				SessionID: sid,
				Subject:   recordID,
				Action:    string(audit.EventAttachmentLinkFailed),
				Reason:    a.Field,
			})
		}
	}

	logger.InfoContext(ctx, "submission created", "record_id", recordID, "attachments", len(attachments))
	s.emit(ctx, audit.Event{
		SessionID: sid,
		Subject:   ref,
		Action:    string(audit.EventSubmissionCreated),
		Reason:    schema,
	})
	return receipt, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, event)
	}
}
