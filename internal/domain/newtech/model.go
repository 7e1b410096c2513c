package newtech

// Status is the overall outcome of an eligibility assessment.
type Status string

const (
	LikelyEligible Status = "likely_eligible"
	NeedsReview    Status = "needs_review"
	NotEligible    Status = "not_eligible"
)

// Label returns the human-readable form of the status.
func (s Status) Label() string {
	switch s {
	case LikelyEligible:
		return "Likely Eligible"
	case NeedsReview:
		return "Needs Review"
	}
	return "Not Eligible"
}

// Criterion is one named eligibility criterion result.
type Criterion struct {
	Criterion   string `json:"criterion"`
	Description string `json:"description"`
	Met         bool   `json:"met"`
	Details     string `json:"details"`
}

// Technology echoes the assessed technology's attributes in a result.
type Technology struct {
	Name            string  `json:"name"`
	Manufacturer    string  `json:"manufacturer,omitempty"`
	DeviceCost      float64 `json:"deviceCost"`
	Category        string  `json:"category,omitempty"`
	FDAApprovalDate string  `json:"fdaApprovalDate,omitempty"`
	FDAApprovalType string  `json:"fdaApprovalType,omitempty"`
}

// ApprovedTechnology is one entry of a program's approved-technology list.
type ApprovedTechnology struct {
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Category     string  `json:"category,omitempty"`
	MaxPayment   float64 `json:"maxPayment,omitempty"`
	ApprovedDate string  `json:"approvedDate,omitempty"`
}

// CodePayment pairs a DRG or APC code with its base payment.
type CodePayment struct {
	Code    string  `json:"code"`
	Payment float64 `json:"payment"`
}

// -- NTAP --

// NtapCalculateRequest is the input for an NTAP payment calculation. When
// DRGPayment is positive it overrides the DRG base payment table.
type NtapCalculateRequest struct {
	DeviceCost float64 `json:"deviceCost"`
	DRGCode    string  `json:"drgCode,omitempty"`
	DRGPayment float64 `json:"drgPayment,omitempty"`
}

// NtapBreakdown itemizes an NTAP payment.
type NtapBreakdown struct {
	BaseDRGPayment float64 `json:"baseDrgPayment"`
	NtapAddOn      float64 `json:"ntapAddOn"`
	Total          float64 `json:"total"`
}

// NtapPayment is a computed NTAP payment.
type NtapPayment struct {
	Eligible           bool           `json:"eligible"`
	DeviceCost         float64        `json:"deviceCost"`
	DRGCode            string         `json:"drgCode,omitempty"`
	DRGPayment         float64        `json:"drgPayment"`
	CostDifference     float64        `json:"costDifference"`
	NtapPercentage     float64        `json:"ntapPercentage,omitempty"`
	CalculatedNtap     float64        `json:"calculatedNtap,omitempty"`
	MaxCap             float64        `json:"maxCap,omitempty"`
	NtapPayment        float64        `json:"ntapPayment"`
	TotalReimbursement float64        `json:"totalReimbursement,omitempty"`
	Reason             string         `json:"reason,omitempty"`
	Breakdown          *NtapBreakdown `json:"breakdown,omitempty"`
}

// NtapEligibilityRequest is the input for an NTAP eligibility check.
type NtapEligibilityRequest struct {
	DeviceName           string   `json:"deviceName"`
	Manufacturer         string   `json:"manufacturer,omitempty"`
	DeviceCost           float64  `json:"deviceCost"`
	DRGCode              string   `json:"drgCode,omitempty"`
	FDAApprovalDate      string   `json:"fdaApprovalDate,omitempty"`
	FDAApprovalType      string   `json:"fdaApprovalType,omitempty"`
	ClinicalImprovements []string `json:"clinicalImprovements,omitempty"`
}

// NtapEligibility is the result of an NTAP eligibility check.
type NtapEligibility struct {
	Status              Status       `json:"status"`
	StatusLabel         string       `json:"statusLabel"`
	Technology          Technology   `json:"technology"`
	EligibilityCriteria []Criterion  `json:"eligibilityCriteria"`
	CriteriaMetCount    int          `json:"criteriaMetCount"`
	TotalCriteria       int          `json:"totalCriteria"`
	PotentialPayment    *NtapPayment `json:"potentialPayment"`
	Recommendations     []string     `json:"recommendations"`
}

// -- TPT --

// TptCalculateRequest is the input for a TPT payment calculation. When
// PackagedPayment is positive it overrides the APC base payment table.
type TptCalculateRequest struct {
	DeviceCost      float64 `json:"deviceCost"`
	APCCode         string  `json:"apcCode,omitempty"`
	PackagedPayment float64 `json:"packagedPayment,omitempty"`
}

// TptBreakdown itemizes a TPT payment.
type TptBreakdown struct {
	BaseAPCPayment    float64 `json:"baseApcPayment"`
	DevicePassThrough float64 `json:"devicePassThrough"`
	Total             float64 `json:"total"`
}

// TptPayment is a computed transitional pass-through payment.
type TptPayment struct {
	DeviceCost         float64       `json:"deviceCost"`
	APCCode            string        `json:"apcCode,omitempty"`
	APCPayment         float64       `json:"apcPayment"`
	PackagedAmount     float64       `json:"packagedAmount"`
	PassThroughPayment float64       `json:"passThroughPayment"`
	TotalReimbursement float64       `json:"totalReimbursement"`
	Breakdown          *TptBreakdown `json:"breakdown,omitempty"`
}

// TptEligibilityRequest is the input for a TPT eligibility check.
type TptEligibilityRequest struct {
	DeviceName      string  `json:"deviceName"`
	Manufacturer    string  `json:"manufacturer,omitempty"`
	DeviceCost      float64 `json:"deviceCost"`
	APCCode         string  `json:"apcCode,omitempty"`
	FDAApprovalDate string  `json:"fdaApprovalDate,omitempty"`
	FDAApprovalType string  `json:"fdaApprovalType,omitempty"`
	Category        string  `json:"category,omitempty"`
}

// TptEligibility is the result of a TPT eligibility check.
type TptEligibility struct {
	Status              Status      `json:"status"`
	StatusLabel         string      `json:"statusLabel"`
	Technology          Technology  `json:"technology"`
	EligibilityCriteria []Criterion `json:"eligibilityCriteria"`
	CriteriaMetCount    int         `json:"criteriaMetCount"`
	TotalCriteria       int         `json:"totalCriteria"`
	PotentialPayment    *TptPayment `json:"potentialPayment"`
	Recommendations     []string    `json:"recommendations"`
}

// -- Program data --

// NtapData is the NTAP program dataset: DRG base payments, program
// constants, and the approved-technology list for the fiscal year.
// Non-zero constants override the configured defaults.
type NtapData struct {
	FiscalYear              string               `json:"fiscalYear"`
	LastUpdated             string               `json:"lastUpdated"`
	NtapPercentage          float64              `json:"ntapPercentage,omitempty"`
	MaxNtapCap              float64              `json:"maxNtapCap,omitempty"`
	CostThresholdMultiplier float64              `json:"costThresholdMultiplier,omitempty"`
	DRGBasePayments         map[string]float64   `json:"drgBasePayments"`
	Technologies            []ApprovedTechnology `json:"technologies"`
}

// TptData is the TPT program dataset.
type TptData struct {
	FiscalYear             string               `json:"fiscalYear"`
	LastUpdated            string               `json:"lastUpdated"`
	MaxPassThroughDuration int                  `json:"maxPassThroughDuration,omitempty"`
	APCBasePayments        map[string]float64   `json:"apcBasePayments"`
	Technologies           []ApprovedTechnology `json:"technologies"`
}

// ApprovedList is the listing response for a program's technologies.
type ApprovedList struct {
	FiscalYear   string               `json:"fiscalYear"`
	LastUpdated  string               `json:"lastUpdated"`
	MaxDuration  int                  `json:"maxDuration,omitempty"`
	Technologies []ApprovedTechnology `json:"technologies"`
	TotalCount   int                  `json:"totalCount"`
}
