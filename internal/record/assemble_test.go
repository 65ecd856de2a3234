package record

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivory/internal/answers"
	"ivory/internal/eligibility"
)

var submittedAt = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func opts() Options {
	return Options{Reference: "AB12CD34", AccessKey: "k3y", Now: submittedAt, TargetDays: 30}
}

func mustEncode[T answers.Shape](t *testing.T, c answers.Codec[T], v T) string {
	t.Helper()
	raw, err := c.Encode(v)
	require.NoError(t, err)
	return raw
}

func photos(n int) answers.UploadedFiles {
	var u answers.UploadedFiles
	for i := range n {
		u.Files = append(u.Files, fmt.Sprintf("photo%d.jpg", i+1))
		u.FileData = append(u.FileData, base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("jpeg-%d", i+1))))
		u.FileSizes = append(u.FileSizes, 6)
	}
	return u
}

func baseAnswers(t *testing.T) map[answers.Key]string {
	return map[answers.Key]string{
		answers.WhatSpecies:      "Elephant",
		answers.IntentionForItem: "Sell it",
		answers.OwnedByApplicant: answers.Yes,
		answers.DescribeTheItem: mustEncode(t, answers.ItemDescriptionCodec, answers.ItemDescription{
			WhatIsItem:   "Chess set",
			WhereIsIvory: "White pieces",
		}),
		answers.IvoryAge: mustEncode(t, answers.IvoryAgeCodec, answers.Reasons{
			Selected: []string{"Dated receipt"},
		}),
		answers.ApplicantContactDetails: mustEncode(t, answers.ApplicantContactCodec, answers.ContactDetails{
			FullName:     "Jo Bloggs",
			EmailAddress: "jo@example.com",
		}),
		answers.ApplicantAddress: mustEncode(t, answers.ApplicantAddressCodec, answers.Address{
			Line1:      "1 High Street",
			TownOrCity: "Bristol",
			Postcode:   "BS1 4DJ",
		}),
		answers.UploadPhoto: mustEncode(t, answers.PhotosCodec, photos(3)),
	}
}

func TestAssemble_Section2Completeness(t *testing.T) {
	bag := baseAnswers(t)
	bag[answers.WhyIsItemRMI] = "Rare Fabergé piece"
	bag[answers.AlreadyCertified] = mustEncode(t, answers.CertificateCodec, answers.Certificate{AlreadyCertified: answers.No})
	bag[answers.AppliedBefore] = answers.Yes
	bag[answers.PreviousApplicationNumber] = "PREV123"

	rec, atts, err := Assemble(answers.SnapshotOf(bag), eligibility.HighValue, opts())
	require.NoError(t, err)

	for _, f := range mandatory[eligibility.Section2] {
		assert.NotNil(t, rec[f], "field %s", f)
	}
	assert.Equal(t, StatusNew, rec[FieldStatus])
	assert.Equal(t, 881990004, rec[FieldExemptionCategory])
	assert.Equal(t, "Jo Bloggs", rec[FieldOwnerName])
	assert.Equal(t, "2026-04-13", rec[FieldTargetCompletionDate])
	assert.Equal(t, rec[FieldSubmissionDate], rec[FieldDateStatusApplied])
	assert.Equal(t, 881990001, rec[FieldAlreadyCertified])
	assert.Equal(t, true, rec[FieldAppliedBefore])
	assert.Equal(t, "PREV123", rec[FieldPreviousApplicationNumber])
	assert.NotContains(t, rec, FieldIvoryVolume)
	assert.NotContains(t, rec, FieldPaymentReference)

	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-1")), rec[FieldPhoto1])
	require.Len(t, atts, 2)
	assert.Equal(t, "cre2c_photo2", atts[0].Field)
	assert.Equal(t, "photo2.jpg", atts[0].FileName)
	assert.Equal(t, []byte("jpeg-2"), atts[0].Data)
}

func TestAssemble_Section10Completeness(t *testing.T) {
	bag := baseAnswers(t)
	delete(bag, answers.ApplicantContactDetails)
	delete(bag, answers.OwnedByApplicant)
	bag[answers.IvoryVolume] = mustEncode(t, answers.IvoryVolumeCodec, answers.Reason{Reason: "I measured it"})
	bag[answers.IvoryIntegral] = "Both of the above"

	rec, _, err := Assemble(answers.SnapshotOf(bag), eligibility.TenPercent, opts())
	require.NoError(t, err)

	for _, f := range mandatory[eligibility.Section10] {
		assert.NotNil(t, rec[f], "field %s", f)
	}
	assert.Equal(t, 881990001, rec[FieldIvoryVolume])
	assert.Equal(t, 881990002, rec[FieldIvoryIntegral])
	assert.NotContains(t, rec, FieldTargetCompletionDate)
	assert.NotContains(t, rec, FieldOwnerName)
}

func TestAssemble_LeftoverAnswersStayOut(t *testing.T) {
	bag := baseAnswers(t)
	bag[answers.IvoryVolume] = mustEncode(t, answers.IvoryVolumeCodec, answers.Reason{Reason: "I measured it"})
	bag[answers.IvoryIntegral] = "Both of the above"
	bag[answers.UploadDocument] = mustEncode(t, answers.DocumentsCodec, photos(1))

	tests := []struct {
		itemType     eligibility.ItemType
		wantVolume   bool
		wantIntegral bool
	}{
		{eligibility.TenPercent, true, true},
		{eligibility.Musical, true, false},
		{eligibility.Museum, false, false},
		{eligibility.Miniature, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.itemType), func(t *testing.T) {
			rec, atts, err := Assemble(answers.SnapshotOf(bag), tt.itemType, opts())
			require.NoError(t, err)

			_, hasVolume := rec[FieldIvoryVolume]
			_, hasIntegral := rec[FieldIvoryIntegral]
			assert.Equal(t, tt.wantVolume, hasVolume)
			assert.Equal(t, tt.wantIntegral, hasIntegral)
			for _, a := range atts {
				assert.NotContains(t, DocumentFields, a.Field)
			}
		})
	}
}

func TestAssemble_MultiSelectReasons(t *testing.T) {
	bag := baseAnswers(t)
	bag[answers.IvoryAge] = mustEncode(t, answers.IvoryAgeCodec, answers.Reasons{
		Selected:    []string{"Dated receipt", "Other reason"},
		OtherReason: "custom text",
	})

	rec, _, err := Assemble(answers.SnapshotOf(bag), eligibility.Miniature, opts())
	require.NoError(t, err)

	dated, _ := AgeReasons.Code("Dated receipt")
	other, _ := AgeReasons.Code("Other reason")
	assert.Equal(t, fmt.Sprintf("%d,%d", dated, other), rec[FieldAgeReasons])
	assert.Equal(t, "custom text", rec[FieldAgeOtherReason])

	t.Run("other reason without text is stored empty", func(t *testing.T) {
		bag[answers.IvoryAge] = mustEncode(t, answers.IvoryAgeCodec, answers.Reasons{Selected: []string{"Other reason"}})
		rec, _, err := Assemble(answers.SnapshotOf(bag), eligibility.Miniature, opts())
		require.NoError(t, err)
		assert.Equal(t, "", rec[FieldAgeOtherReason])
	})
}

func TestAssemble_UnknownLabelFailsLoudly(t *testing.T) {
	bag := baseAnswers(t)
	bag[answers.IntentionForItem] = "Give it away"

	_, _, err := Assemble(answers.SnapshotOf(bag), eligibility.Museum, opts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestAssemble_MissingMandatory(t *testing.T) {
	bag := baseAnswers(t)
	delete(bag, answers.DescribeTheItem)
	delete(bag, answers.ApplicantContactDetails)

	_, _, err := Assemble(answers.SnapshotOf(bag), eligibility.HighValue, opts())
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{FieldItemSummary, FieldOwnerName}, missing.Fields)
}

func TestAssemble_OwnerDetails(t *testing.T) {
	t.Run("owner contact used when selling for someone", func(t *testing.T) {
		bag := baseAnswers(t)
		bag[answers.OwnedByApplicant] = answers.No
		bag[answers.SellingOnBehalfOf] = "A friend or relative"
		bag[answers.OwnerContactDetails] = mustEncode(t, answers.OwnerContactCodec, answers.ContactDetails{
			FullName: "Sam Owner", EmailAddress: "sam@example.com",
		})

		rec, _, err := Assemble(answers.SnapshotOf(bag), eligibility.HighValue, opts())
		require.NoError(t, err)
		assert.Equal(t, "Sam Owner", rec[FieldOwnerName])
		assert.Equal(t, false, rec[FieldOwnedByApplicant])
		assert.Equal(t, 881990000, rec[FieldSellingOnBehalfOf])
	})

	t.Run("other capacity sends the not-collected default", func(t *testing.T) {
		bag := baseAnswers(t)
		bag[answers.OwnedByApplicant] = answers.No
		bag[answers.SellingOnBehalfOf] = Other
		bag[answers.WhatCapacity] = mustEncode(t, answers.CapacityCodec, answers.Capacity{Capacity: Other, OtherCapacity: "Liquidator"})

		rec, _, err := Assemble(answers.SnapshotOf(bag), eligibility.HighValue, opts())
		require.NoError(t, err)
		assert.Equal(t, OwnerNotCollected, rec[FieldOwnerName])
		assert.Equal(t, "Liquidator", rec[FieldCapacityOther])
	})
}

func TestAssemble_UnclassifiedItem(t *testing.T) {
	_, _, err := Assemble(answers.SnapshotOf(baseAnswers(t)), eligibility.Unclassified, opts())
	assert.ErrorIs(t, err, ErrUnknownChoice)
}
