package steps

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivory/internal/answers"
	"ivory/internal/casemgmt"
	"ivory/internal/eligibility"
	eligmetrics "ivory/internal/eligibility/metrics"
	"ivory/internal/record"
	"ivory/internal/record/service"
	"ivory/internal/wizard"
	id "ivory/pkg/domain"
)

type stubSubmitter struct {
	calls   int
	receipt service.Receipt
}

func (s *stubSubmitter) Submit(context.Context, id.SessionID, answers.Snapshot) (service.Receipt, error) {
	s.calls++
	return s.receipt, nil
}

func allSteps(t *testing.T) map[wizard.StepID]wizard.Step {
	t.Helper()
	out := map[wizard.StepID]wizard.Step{}
	for _, s := range All(Deps{Certificates: casemgmt.NewInMemory(), Submitter: &stubSubmitter{}}) {
		out[s.ID()] = s
	}
	return out
}

func submission(snap map[answers.Key]string, kv ...string) *wizard.Submission {
	form := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		form.Add(kv[i], kv[i+1])
	}
	return &wizard.Submission{
		SessionID: id.NewSessionID(),
		Now:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Input:     wizard.Input{Form: form},
		Answers:   answers.SnapshotOf(snap),
	}
}

func TestTransitionTable(t *testing.T) {
	table, err := wizard.NewTable(All(Deps{}))
	require.NoError(t, err)

	t.Run("every route targets a registered step", func(t *testing.T) {
		assert.NoError(t, table.Validate())
	})

	t.Run("every step is reachable from the first question", func(t *testing.T) {
		reach := table.Reachable(wizard.StepID(eligibility.Root))
		for _, s := range table.Steps() {
			assert.True(t, reach[s], "%s is unreachable", s)
		}
	})

	t.Run("the only cycles are file lists and restarting unclassified journeys", func(t *testing.T) {
		allowed := func(from, to wizard.StepID) bool {
			switch {
			case from == to:
				return true
			case from == YourPhotos && to == UploadPhotos, from == YourDocuments && to == UploadDocument:
				return true
			case to == wizard.StepID(eligibility.Root):
				return true
			}
			return false
		}
		assert.Empty(t, table.Cycle(allowed))
	})

	t.Run("every eligibility option has exactly one route", func(t *testing.T) {
		for q, rule := range eligibility.Rules {
			routes := table[wizard.StepID(q)]
			assert.Len(t, routes, len(rule.Options), q)
			for _, o := range rule.Options {
				assert.Contains(t, routes, o, "%s option %q", q, o)
			}
		}
	})

	t.Run("only the exits are terminal", func(t *testing.T) {
		var terminal []wizard.StepID
		for _, s := range All(Deps{}) {
			if _, ok := s.(wizard.Terminal); ok {
				terminal = append(terminal, s.ID())
			}
		}
		assert.ElementsMatch(t, []wizard.StepID{CannotTrade, CannotContinue, DoNotNeedService}, terminal)
	})
}

func TestEligibilityDecide(t *testing.T) {
	steps := allSteps(t)

	t.Run("exempt writes the classification", func(t *testing.T) {
		d, err := steps[wizard.StepID(eligibility.AreYouAMuseum)].Decide(submission(nil, "areYouAMuseum", answers.No))
		require.NoError(t, err)
		assert.Equal(t, string(eligibility.Museum), d.Writes[answers.ItemType])
		assert.Equal(t, answers.No, d.Writes[answers.AreYouAMuseum])
	})

	t.Run("anything else deletes it", func(t *testing.T) {
		d, err := steps[wizard.StepID(eligibility.SellingToMuseum)].Decide(submission(nil, "sellingToMuseum", answers.No))
		require.NoError(t, err)
		assert.Contains(t, d.Deletes, answers.ItemType)
		assert.NotContains(t, d.Writes, answers.ItemType)
	})

	t.Run("none of these species is not stored", func(t *testing.T) {
		d, err := steps[wizard.StepID(eligibility.WhatSpecies)].Decide(submission(nil, "whatSpecies", answers.NoneOfThese))
		require.NoError(t, err)
		assert.Equal(t, answers.NoneOfThese, d.Route)
		assert.Contains(t, d.Deletes, answers.WhatSpecies)
		assert.NotContains(t, d.Writes, answers.WhatSpecies)
	})

	t.Run("reaching a category drops answers only other categories ask for", func(t *testing.T) {
		d, err := steps[wizard.StepID(eligibility.LessThan20Ivory)].Decide(submission(nil, "lessThan20Ivory", answers.Yes))
		require.NoError(t, err)
		assert.Equal(t, string(eligibility.Musical), d.Writes[answers.ItemType])
		assert.Contains(t, d.Deletes, answers.IvoryIntegral)
		assert.Contains(t, d.Deletes, answers.AlreadyCertified)
		assert.Contains(t, d.Deletes, answers.UploadDocument)
		assert.NotContains(t, d.Deletes, answers.IvoryVolume)

		d, err = steps[wizard.StepID(eligibility.RMIAndPre1918)].Decide(submission(nil, "rmiAndPre1918", answers.Yes))
		require.NoError(t, err)
		assert.Contains(t, d.Deletes, answers.IvoryIntegral)
		assert.Contains(t, d.Deletes, answers.IvoryVolume)
		assert.NotContains(t, d.Deletes, answers.AlreadyCertified)
	})

	t.Run("an unanswered path keeps item answers", func(t *testing.T) {
		d, err := steps[wizard.StepID(eligibility.IsItAMusicalInstrument)].Decide(submission(nil, "isItAMusicalInstrument", answers.Yes))
		require.NoError(t, err)
		assert.Equal(t, []answers.Key{answers.ItemType}, d.Deletes)
	})
}

func TestEligibilityVerdictCountedOnCommit(t *testing.T) {
	m := eligmetrics.NewWithRegistry(prometheus.NewRegistry())
	var step wizard.Step
	for _, s := range All(Deps{Eligibility: m}) {
		if s.ID() == wizard.StepID(eligibility.LessThan10Percent) {
			step = s
		}
	}
	require.NotNil(t, step)
	sub := submission(nil, "lessThan10Percent", answers.Yes)

	d, err := step.Decide(sub)
	require.NoError(t, err)
	assert.Zero(t, testutil.ToFloat64(m.Classification.WithLabelValues(string(eligibility.TenPercent))))

	step.(wizard.Committer).Committed(sub, d)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues(string(eligibility.TenPercent))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues(string(eligibility.LessThan10Percent), eligibility.Exempt.String())))
}

func TestEligibilityBackLink(t *testing.T) {
	steps := allSteps(t)
	snap := answers.SnapshotOf(map[answers.Key]string{
		answers.ContainIvory:           answers.Yes,
		answers.WhatSpecies:            "Elephant",
		answers.SellingToMuseum:        answers.No,
		answers.IsItAMusicalInstrument: answers.No,
		answers.IsItAPortraitMiniature: answers.No,
	})

	p, err := steps[wizard.StepID(eligibility.MadeBefore1947)].Present(snap)
	require.NoError(t, err)
	assert.Equal(t, "/is-it-a-portrait-miniature", p.Back)

	p, err = steps[wizard.StepID(eligibility.ContainIvory)].Present(snap)
	require.NoError(t, err)
	assert.Empty(t, p.Back)
}

func TestCanContinue(t *testing.T) {
	step := allSteps(t)[CanContinue]

	d, err := step.Decide(submission(nil))
	require.NoError(t, err)
	assert.Equal(t, routeUnclassified, d.Route)

	d, err = step.Decide(submission(map[answers.Key]string{answers.ItemType: string(eligibility.HighValue)}))
	require.NoError(t, err)
	assert.Equal(t, routeContinue, d.Route)

	p, err := step.Present(answers.SnapshotOf(map[answers.Key]string{answers.ItemType: string(eligibility.HighValue)}))
	require.NoError(t, err)
	assert.Equal(t, "section2", p.Content["schema"])
	assert.Equal(t, AlreadyCertified.Path(), p.Back)
}

func TestDescribeTheItemRoutesByType(t *testing.T) {
	step := allSteps(t)[DescribeTheItem]
	tests := map[eligibility.ItemType]wizard.StepID{
		eligibility.Musical:    IvoryVolume,
		eligibility.TenPercent: IvoryIntegral,
		eligibility.Miniature:  IvoryAge,
		eligibility.Museum:     IvoryAge,
		eligibility.HighValue:  IvoryAge,
	}
	for itemType, want := range tests {
		t.Run(string(itemType), func(t *testing.T) {
			sub := submission(map[answers.Key]string{answers.ItemType: string(itemType)},
				"whatIsItem", "Box", "whereIsIvory", "Lid")
			require.Empty(t, step.Validate(sub))
			d, err := step.Decide(sub)
			require.NoError(t, err)
			assert.Equal(t, want, step.Routes()[d.Route])
		})
	}

	t.Run("too long", func(t *testing.T) {
		sub := submission(nil, "whatIsItem", strings.Repeat("a", longTextMax+1), "whereIsIvory", "Lid")
		assert.Equal(t, []wizard.FieldError{{Name: "whatIsItem", Text: "Description must have fewer than 4001 characters"}}, step.Validate(sub))
	})
}

func TestIvoryAge(t *testing.T) {
	step := allSteps(t)[IvoryAge]

	t.Run("nothing selected", func(t *testing.T) {
		errs := step.Validate(submission(nil))
		require.Len(t, errs, 1)
		assert.Equal(t, "ivoryAge", errs[0].Name)
	})

	t.Run("other reason kept only when selected", func(t *testing.T) {
		d, err := step.Decide(submission(nil, "ivoryAge", "Dated receipt", "otherReason", "ignored"))
		require.NoError(t, err)
		age, err := answers.IvoryAgeCodec.Decode(d.Writes[answers.IvoryAge])
		require.NoError(t, err)
		assert.Empty(t, age.OtherReason)
		assert.Equal(t, routeContinue, d.Route)
	})

	t.Run("high value continues to why-rmi", func(t *testing.T) {
		d, err := step.Decide(submission(map[answers.Key]string{answers.ItemType: string(eligibility.HighValue)},
			"ivoryAge", record.OtherReason, "otherReason", "Museum label"))
		require.NoError(t, err)
		assert.Equal(t, WhyIsItemRMI, step.Routes()[d.Route])
	})
}

func TestContactDetails(t *testing.T) {
	step := allSteps(t)[ApplicantContactDetails]
	tests := []struct {
		name string
		form []string
		want []wizard.FieldError
	}{
		{
			name: "valid",
			form: []string{"fullName", "Sam", "emailAddress", "sam@example.com", "confirmEmailAddress", "sam@example.com"},
		},
		{
			name: "missing everything",
			want: []wizard.FieldError{
				{Name: "fullName", Text: "Enter your full name"},
				{Name: "emailAddress", Text: "Enter your email address"},
				{Name: "confirmEmailAddress", Text: "You must confirm the email address"},
			},
		},
		{
			name: "bad email",
			form: []string{"fullName", "Sam", "emailAddress", "sam-at-example", "confirmEmailAddress", "sam-at-example"},
			want: []wizard.FieldError{{Name: "emailAddress", Text: "Enter an email address in the correct format, like name@example.com"}},
		},
		{
			name: "confirmation mismatch",
			form: []string{"fullName", "Sam", "emailAddress", "sam@example.com", "confirmEmailAddress", "sam@example.org"},
			want: []wizard.FieldError{{Name: "confirmEmailAddress", Text: "This confirmation does not match"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, step.Validate(submission(nil, tt.form...)))
		})
	}
}

func TestAddress(t *testing.T) {
	step := allSteps(t)[OwnerAddress]

	t.Run("uk address needs town and postcode", func(t *testing.T) {
		errs := step.Validate(submission(nil, "addressLine1", "1 High Street", "postcode", "NOT A POSTCODE"))
		names := make([]string, 0, len(errs))
		for _, e := range errs {
			names = append(names, e.Name)
		}
		assert.ElementsMatch(t, []string{"townOrCity", "postcode"}, names)
	})

	t.Run("international address is one line", func(t *testing.T) {
		sub := submission(nil, "international", "true", "addressLine1", "1 Rue de Rivoli, Paris")
		require.Empty(t, step.Validate(sub))
		d, err := step.Decide(sub)
		require.NoError(t, err)
		a, err := answers.OwnerAddressCodec.Decode(d.Writes[answers.OwnerAddress])
		require.NoError(t, err)
		assert.True(t, a.International)
		assert.Empty(t, a.Postcode)
	})
}

func TestWhoOwnsItemClearsOwnerAnswers(t *testing.T) {
	step := allSteps(t)[WhoOwnsItem]

	d, err := step.Decide(submission(nil, "ownedByApplicant", answers.Yes))
	require.NoError(t, err)
	assert.Subset(t, d.Deletes, []answers.Key{
		answers.WorkForABusiness, answers.SellingOnBehalfOf, answers.WhatCapacity,
		answers.OwnerContactDetails, answers.OwnerAddress,
	})

	d, err = step.Decide(submission(nil, "ownedByApplicant", answers.No))
	require.NoError(t, err)
	assert.Empty(t, d.Deletes)
}

func TestUploadValidate(t *testing.T) {
	step := allSteps(t)[UploadPhotos]
	withFiles := func(snap map[answers.Key]string, files ...wizard.Upload) *wizard.Submission {
		sub := submission(snap)
		sub.Files = files
		return sub
	}
	jpg := wizard.Upload{Name: "a.jpg", Data: []byte("x")}

	tests := []struct {
		name string
		sub  *wizard.Submission
		want string
	}{
		{"no file", withFiles(nil), "You must choose a photo to upload"},
		{"empty file", withFiles(nil, wizard.Upload{Name: "a.jpg"}), "The file cannot be empty"},
		{"wrong type", withFiles(nil, wizard.Upload{Name: "a.gif", Data: []byte("x")}), "The file must be a JPG or PNG"},
		{"duplicate in one request", withFiles(nil, jpg, jpg), "You've already uploaded a.jpg. Choose a different file"},
		{"too large", func() *wizard.Submission {
			sub := withFiles(nil)
			sub.UploadErr = wizard.ErrUploadTooLarge
			return sub
		}(), "The file must be smaller than 10mb"},
		{"too many", withFiles(map[answers.Key]string{
			answers.UploadPhoto: `{"files":["1.jpg","2.jpg","3.jpg","4.jpg","5.jpg","6.jpg"],"fileData":["eA==","eA==","eA==","eA==","eA==","eA=="],"fileSizes":[1,1,1,1,1,1]}`,
		}, jpg), "You can only upload 6 photos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := step.Validate(tt.sub)
			require.Len(t, errs, 1)
			assert.Equal(t, wizard.FieldError{Name: filesField, Text: tt.want}, errs[0])
		})
	}

	t.Run("uppercase extension is accepted", func(t *testing.T) {
		assert.Empty(t, step.Validate(withFiles(nil, wizard.Upload{Name: "A.JPEG", Data: []byte("x")})))
	})
}

func TestDocumentsAreOptional(t *testing.T) {
	step := allSteps(t)[UploadDocument]

	sub := submission(nil)
	require.Empty(t, step.Validate(sub))
	d, err := step.Decide(sub)
	require.NoError(t, err)
	assert.Equal(t, WhoOwnsItem, step.Routes()[d.Route])
}

func TestFileListRemove(t *testing.T) {
	step := allSteps(t)[YourPhotos].(wizard.Remover)
	two := answers.SnapshotOf(map[answers.Key]string{
		answers.UploadPhoto: `{"files":["1.jpg","2.jpg"],"fileData":["eA==","eQ=="],"fileSizes":[1,1]}`,
	})

	d, err := step.Remove(two, 0)
	require.NoError(t, err)
	assert.Equal(t, routeRemoved, d.Route)
	files, err := answers.PhotosCodec.Decode(d.Writes[answers.UploadPhoto])
	require.NoError(t, err)
	assert.Equal(t, []string{"2.jpg"}, files.Files)

	_, err = step.Remove(two, 2)
	require.Error(t, err)
}

func TestCheckYourAnswers(t *testing.T) {
	submitter := &stubSubmitter{receipt: service.Receipt{Reference: "ABCDEFGH", Status: service.StatusSubmitted}}
	var step wizard.Step
	for _, s := range All(Deps{Submitter: submitter}) {
		if s.ID() == CheckYourAnswers {
			step = s
		}
	}
	require.NotNil(t, step)

	complete := map[answers.Key]string{
		answers.ContainIvory:           answers.Yes,
		answers.WhatSpecies:            "Elephant",
		answers.SellingToMuseum:        answers.No,
		answers.IsItAMusicalInstrument: answers.No,
		answers.IsItAPortraitMiniature: answers.Yes,
		answers.MadeBefore1918:         answers.Yes,
		answers.LessThan320cmSquared:   answers.Yes,
		answers.ItemType:               string(eligibility.Miniature),
		answers.DescribeTheItem:        `{"whatIsItem":"Portrait","whereIsIvory":"Backing"}`,
	}
	with := func(k answers.Key, v string) map[answers.Key]string {
		out := map[answers.Key]string{k: v}
		for key, val := range complete {
			if key != k {
				out[key] = val
			}
		}
		return out
	}

	t.Run("summary uses display sentinels", func(t *testing.T) {
		p, err := step.Present(answers.SnapshotOf(complete))
		require.NoError(t, err)
		rows := p.Content["rows"].([]Row)
		byLabel := map[string]string{}
		for _, r := range rows {
			byLabel[r.Label] = r.Value
		}
		assert.Equal(t, None, byLabel["Photos"])
		assert.Equal(t, NothingEntered, byLabel["Distinguishing features"])
		assert.Equal(t, "Portrait", byLabel["What is it"])
	})

	t.Run("unclassified journeys cannot submit", func(t *testing.T) {
		errs, err := step.(wizard.Verifier).Verify(context.Background(), submission(nil, "agree", "true"))
		require.NoError(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, "agree", errs[0].Name)
	})

	t.Run("incomplete journeys cannot submit", func(t *testing.T) {
		errs, err := step.(wizard.Verifier).Verify(context.Background(),
			submission(map[answers.Key]string{answers.ItemType: string(eligibility.Miniature)}, "agree", "true"))
		require.NoError(t, err)
		require.Len(t, errs, 1)
	})

	t.Run("a complete journey can submit", func(t *testing.T) {
		errs, err := step.(wizard.Verifier).Verify(context.Background(), submission(complete, "agree", "true"))
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("a category the answers do not lead to cannot submit", func(t *testing.T) {
		errs, err := step.(wizard.Verifier).Verify(context.Background(),
			submission(with(answers.ItemType, string(eligibility.TenPercent)), "agree", "true"))
		require.NoError(t, err)
		require.Len(t, errs, 1)

		errs, err = step.(wizard.Verifier).Verify(context.Background(),
			submission(with(answers.LessThan320cmSquared, answers.DontKnow), "agree", "true"))
		require.NoError(t, err)
		require.Len(t, errs, 1)
	})

	t.Run("submits once and records the receipt", func(t *testing.T) {
		sub := submission(complete, "agree", "true")
		require.NoError(t, step.(wizard.Effector).Apply(context.Background(), sub))

		d, err := step.Decide(sub)
		require.NoError(t, err)
		assert.Equal(t, "ABCDEFGH", d.Writes[answers.SubmissionReference])
		assert.Equal(t, string(service.StatusSubmitted), d.Writes[answers.SubmissionOutcome])
		assert.Equal(t, 1, submitter.calls)

		again := map[answers.Key]string{answers.SubmissionReference: "ABCDEFGH"}
		for k, v := range complete {
			again[k] = v
		}
		require.NoError(t, step.(wizard.Effector).Apply(context.Background(), submission(again, "agree", "true")))
		assert.Equal(t, 1, submitter.calls)
	})
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "isItAMusicalInstrument", fieldName(answers.IsItAMusicalInstrument))
	assert.Equal(t, "lessThan320cmSquared", fieldName(answers.LessThan320cmSquared))
	assert.Equal(t, "rmiAndPre1918", fieldName(answers.RMIAndPre1918))
}
