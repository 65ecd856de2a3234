package steps

import (
	"context"

	"ivory/internal/answers"
	"ivory/internal/record"
	"ivory/internal/wizard"
)

const (
	certificateNumberMax = 10
	// CertificateNotRecognised is shown when the case system has no record
	// with the entered certificate number.
	CertificateNotRecognised = "This certificate number is not recognised"
)

type alreadyCertified struct {
	page
	lookup CertificateLookup
}

func certificateSteps(d Deps) []wizard.Step {
	return []wizard.Step{
		alreadyCertified{
			page: page{
				id:    AlreadyCertified,
				title: "Does the item already have an exemption certificate?",
				back:  wizard.StepID("rmi-and-pre-1918"),
				needs: []answers.Key{answers.AlreadyCertified},
				routes: wizard.Routes{
					answers.Yes:               CanContinue,
					answers.No:                AppliedBefore,
					record.CertificateRevoked: RevokedCertificate,
				},
			},
			lookup: d.Certificates,
		},
		text{
			page: page{
				id:     RevokedCertificate,
				title:  "Enter the certificate number from the revoked certificate",
				back:   AlreadyCertified,
				needs:  []answers.Key{answers.RevokedCertificate},
				routes: next(AppliedBefore),
			},
			key:      answers.RevokedCertificate,
			required: "Enter the certificate number",
			maxLen:   certificateNumberMax,
			what:     "Certificate number",
		},
		radio{
			page: page{
				id:    AppliedBefore,
				title: "Have you applied for an exemption certificate for this item before?",
				back:  AlreadyCertified,
				needs: []answers.Key{answers.AppliedBefore},
				routes: wizard.Routes{
					answers.Yes: PreviousApplicationNumber,
					answers.No:  CanContinue,
				},
			},
			key:      answers.AppliedBefore,
			options:  yesNo,
			required: "Tell us whether you have applied for an exemption certificate for this item before",
			clears: func(answer string) []answers.Key {
				if answer == answers.No {
					return []answers.Key{answers.PreviousApplicationNumber}
				}
				return nil
			},
		},
		text{
			page: page{
				id:     PreviousApplicationNumber,
				title:  "Enter the submission reference of your previous application",
				back:   AppliedBefore,
				needs:  []answers.Key{answers.PreviousApplicationNumber},
				routes: next(CanContinue),
			},
			key:      answers.PreviousApplicationNumber,
			required: "Enter the submission reference",
			maxLen:   certificateNumberMax,
			what:     "Submission reference",
		},
	}
}

func (s alreadyCertified) Present(snap answers.Snapshot) (wizard.Presentation, error) {
	values := map[string]any{"alreadyCertified": "", "certificateNumber": ""}
	cert, ok, err := answers.Decode(snap, answers.CertificateCodec)
	if err != nil {
		return wizard.Presentation{}, err
	}
	if ok {
		values["alreadyCertified"] = cert.AlreadyCertified
		values["certificateNumber"] = cert.CertificateNumber
	}
	p := s.frame(values)
	p.Options = record.CertificateAnswers.Labels()
	return p, nil
}

func (s alreadyCertified) Validate(sub *wizard.Submission) []wizard.FieldError {
	var c wizard.Checks
	required := "Tell us whether the item already has an exemption certificate"
	c.Field("alreadyCertified", sub.Value("alreadyCertified"),
		wizard.Required(required),
		wizard.OneOf(record.CertificateAnswers.Labels(), required),
	)
	if sub.Value("alreadyCertified") == answers.Yes {
		c.Field("certificateNumber", sub.Value("certificateNumber"),
			wizard.Required("Enter the certificate number"),
			wizard.MaxLength(certificateNumberMax, wizard.TooLong("Certificate number", certificateNumberMax)),
		)
	}
	return c.Errors()
}

// Verify checks the certificate number exists and remembers the record it
// belongs to.
func (s alreadyCertified) Verify(ctx context.Context, sub *wizard.Submission) ([]wizard.FieldError, error) {
	if sub.Value("alreadyCertified") != answers.Yes {
		return nil, nil
	}
	records, err := s.lookup.GetRecordsWithField(ctx, record.FieldCertificateNumber, sub.Value("certificateNumber"))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []wizard.FieldError{{Name: "certificateNumber", Text: CertificateNotRecognised}}, nil
	}
	sub.Fact(answers.ExistingRecordID, records[0].ID)
	return nil, nil
}

func (s alreadyCertified) Decide(sub *wizard.Submission) (wizard.Decision, error) {
	cert := answers.Certificate{AlreadyCertified: sub.Value("alreadyCertified")}
	if cert.AlreadyCertified == answers.Yes {
		cert.CertificateNumber = sub.Value("certificateNumber")
	}
	raw, err := answers.CertificateCodec.Encode(cert)
	if err != nil {
		return wizard.Decision{}, err
	}
	d := wizard.Go(cert.AlreadyCertified).Write(answers.AlreadyCertified, raw)
	switch cert.AlreadyCertified {
	case answers.Yes:
		d = d.Write(answers.ExistingRecordID, sub.Facts[answers.ExistingRecordID]).
			Delete(answers.RevokedCertificate, answers.AppliedBefore, answers.PreviousApplicationNumber)
	case answers.No:
		d = d.Delete(answers.ExistingRecordID, answers.RevokedCertificate)
	default:
		d = d.Delete(answers.ExistingRecordID)
	}
	return d, nil
}
