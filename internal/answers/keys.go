// Package answers names every slot the wizard persists and owns the typed
// encoding of the structured ones.
package answers

// Key is the logical name of a stored answer. Keys are stable only as far as
// re-entrant navigation depends on them.
type Key string

// Eligibility questions.
const (
	ContainIvory           Key = "CONTAIN_IVORY"
	WhatSpecies            Key = "WHAT_SPECIES"
	SellingToMuseum        Key = "SELLING_TO_MUSEUM"
	AreYouAMuseum          Key = "ARE_YOU_A_MUSEUM"
	IsItAMusicalInstrument Key = "IS_IT_A_MUSICAL_INSTRUMENT"
	MadeBefore1975         Key = "MADE_BEFORE_1975"
	LessThan20Ivory        Key = "LESS_THAN_20_IVORY"
	IsItAPortraitMiniature Key = "IS_IT_A_PORTRAIT_MINIATURE"
	MadeBefore1918         Key = "MADE_BEFORE_1918"
	LessThan320cmSquared   Key = "LESS_THAN_320CM_SQUARED"
	MadeBefore1947         Key = "MADE_BEFORE_1947"
	LessThan10Percent      Key = "LESS_THAN_10_PERCENT"
	RMIAndPre1918          Key = "RMI_AND_PRE_1918"
	ItemType               Key = "WHAT_TYPE_OF_ITEM_IS_IT"
)

// Certificate and prior-application questions (high value only).
const (
	AlreadyCertified          Key = "ALREADY_CERTIFIED"
	ExistingRecordID          Key = "EXISTING_RECORD_ID"
	RevokedCertificate        Key = "REVOKED_CERTIFICATE"
	AppliedBefore             Key = "APPLIED_BEFORE"
	PreviousApplicationNumber Key = "PREVIOUS_APPLICATION_NUMBER"
)

// Item questions.
const (
	UploadPhoto      Key = "UPLOAD_PHOTO"
	DescribeTheItem  Key = "DESCRIBE_THE_ITEM"
	IvoryIntegral    Key = "IVORY_INTEGRAL"
	IvoryVolume      Key = "IVORY_VOLUME"
	IvoryAge         Key = "IVORY_AGE"
	WhyIsItemRMI     Key = "WHY_IS_ITEM_RMI"
	UploadDocument   Key = "UPLOAD_DOCUMENT"
	IntentionForItem Key = "INTENTION_FOR_ITEM"
)

// People questions.
const (
	OwnedByApplicant        Key = "OWNED_BY_APPLICANT"
	WorkForABusiness        Key = "WORK_FOR_A_BUSINESS"
	SellingOnBehalfOf       Key = "SELLING_ON_BEHALF_OF"
	WhatCapacity            Key = "WHAT_CAPACITY"
	OwnerContactDetails     Key = "OWNER_CONTACT_DETAILS"
	OwnerAddress            Key = "OWNER_ADDRESS"
	ApplicantContactDetails Key = "APPLICANT_CONTACT_DETAILS"
	ApplicantAddress        Key = "APPLICANT_ADDRESS"
)

// Submission bookkeeping.
const (
	SubmissionReference Key = "SUBMISSION_REFERENCE"
	SubmissionOutcome   Key = "SUBMISSION_OUTCOME"
)

// Common scalar answer values.
const (
	Yes         = "Yes"
	No          = "No"
	DontKnow    = "I don't know"
	NoneOfThese = "None of these"
)

// All lists every key the journey stores, in journey order.
func All() []Key {
	return []Key{
		ContainIvory, WhatSpecies, SellingToMuseum, AreYouAMuseum, IsItAMusicalInstrument,
		MadeBefore1975, LessThan20Ivory, IsItAPortraitMiniature, MadeBefore1918,
		LessThan320cmSquared, MadeBefore1947, LessThan10Percent, RMIAndPre1918, ItemType,
		AlreadyCertified, ExistingRecordID, RevokedCertificate, AppliedBefore, PreviousApplicationNumber,
		UploadPhoto, DescribeTheItem, IvoryIntegral, IvoryVolume, IvoryAge, WhyIsItemRMI, UploadDocument,
		OwnedByApplicant, WorkForABusiness, SellingOnBehalfOf, WhatCapacity,
		OwnerContactDetails, OwnerAddress, ApplicantContactDetails, ApplicantAddress,
		IntentionForItem, SubmissionReference, SubmissionOutcome,
	}
}
