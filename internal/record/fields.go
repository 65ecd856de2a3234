package record

// External field identifiers of the case-management entities. Each logical
// field is defined once.
const (
	FieldName                   = "cre2c_name"
	FieldSubmissionDate         = "cre2c_submissiondate"
	FieldStatus                 = "cre2c_status"
	FieldPaymentReference       = "cre2c_paymentreference"
	FieldExemptionCategory      = "cre2c_exemptioncategory"
	FieldItemSummary            = "cre2c_itemsummary"
	FieldWhereIsIvory           = "cre2c_whereistheivory"
	FieldDistinguishingFeatures = "cre2c_uniquefeatures"
	FieldWhereMade              = "cre2c_wheremade"
	FieldWhenMade               = "cre2c_whenmade"
	FieldAgeReasons             = "cre2c_ivoryage"
	FieldAgeOtherReason         = "cre2c_ivoryageotherreason"
	FieldIntention              = "cre2c_intentionforitem"
	FieldSpecies                = "cre2c_species"
	FieldAccessKey              = "cre2c_accesskey"
	FieldPhoto1                 = "cre2c_photo1"

	FieldOwnedByApplicant      = "cre2c_ownedbyapplicant"
	FieldWorkForABusiness      = "cre2c_workforabusiness"
	FieldSellingOnBehalfOf     = "cre2c_sellingonbehalfof"
	FieldCapacity              = "cre2c_capacity"
	FieldCapacityOther         = "cre2c_capacityother"
	FieldOwnerName             = "cre2c_ownername"
	FieldOwnerBusinessName     = "cre2c_ownerbusinessname"
	FieldOwnerEmail            = "cre2c_owneremail"
	FieldOwnerAddress          = "cre2c_owneraddress"
	FieldOwnerPostcode         = "cre2c_owneraddresspostcode"
	FieldApplicantName         = "cre2c_applicantname"
	FieldApplicantBusinessName = "cre2c_applicantbusinessname"
	FieldApplicantEmail        = "cre2c_applicantemail"
	FieldApplicantAddress      = "cre2c_applicantaddress"
	FieldApplicantPostcode     = "cre2c_applicantaddresspostcode"
)

// Section 10 only.
const (
	FieldIvoryVolume      = "cre2c_ivoryvolume"
	FieldIvoryVolumeOther = "cre2c_ivoryvolumeotherreason"
	FieldIvoryIntegral    = "cre2c_ivoryintegral"
)

// Section 2 only.
const (
	FieldWhyRMI                    = "cre2c_whyoutstandinglyhighvalue"
	FieldTargetCompletionDate      = "cre2c_targetcompletiondate"
	FieldAlreadyCertified          = "cre2c_alreadyhascertificate"
	FieldCertificateNumber         = "cre2c_certificatenumber"
	FieldExistingRecordID          = "cre2c_existingrecordid"
	FieldAppliedBefore             = "cre2c_appliedbefore"
	FieldPreviousApplicationNumber = "cre2c_previousapplicationnumber"
	FieldRevokedCertificateNumber  = "cre2c_revokedcertificatenumber"
	FieldDateStatusApplied         = "cre2c_datestatusapplied"
)

// Attachment columns beyond the first photo.
var (
	PhotoFields    = []string{"cre2c_photo2", "cre2c_photo3", "cre2c_photo4", "cre2c_photo5", "cre2c_photo6"}
	DocumentFields = []string{
		"cre2c_supportingevidence1", "cre2c_supportingevidence2", "cre2c_supportingevidence3",
		"cre2c_supportingevidence4", "cre2c_supportingevidence5", "cre2c_supportingevidence6",
	}
)
