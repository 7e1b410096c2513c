package newtech

import (
	"fmt"
	"strings"
	"time"
)

// NtapApplicationRequest carries the applicant details for an NTAP
// application draft. Optional fields are rendered as placeholders.
type NtapApplicationRequest struct {
	DeviceName           string   `json:"deviceName"`
	Manufacturer         string   `json:"manufacturer"`
	ManufacturerAddress  string   `json:"manufacturerAddress,omitempty"`
	ContactName          string   `json:"contactName,omitempty"`
	ContactEmail         string   `json:"contactEmail,omitempty"`
	ContactPhone         string   `json:"contactPhone,omitempty"`
	DeviceDescription    string   `json:"deviceDescription,omitempty"`
	DeviceCost           float64  `json:"deviceCost,omitempty"`
	IndicatedProcedures  []string `json:"indicatedProcedures,omitempty"`
	ApplicableDRGs       []string `json:"applicableDRGs,omitempty"`
	FDAApprovalDate      string   `json:"fdaApprovalDate,omitempty"`
	FDAApprovalType      string   `json:"fdaApprovalType,omitempty"`
	FDANumber            string   `json:"fdaNumber,omitempty"`
	ClinicalTrials       []string `json:"clinicalTrials,omitempty"`
	ClinicalImprovements []string `json:"clinicalImprovements,omitempty"`
	CostJustification    string   `json:"costJustification,omitempty"`
}

// TptApplicationRequest carries the applicant details for a TPT
// application draft.
type TptApplicationRequest struct {
	DeviceName          string   `json:"deviceName"`
	Manufacturer        string   `json:"manufacturer"`
	ManufacturerAddress string   `json:"manufacturerAddress,omitempty"`
	ContactName         string   `json:"contactName,omitempty"`
	ContactEmail        string   `json:"contactEmail,omitempty"`
	ContactPhone        string   `json:"contactPhone,omitempty"`
	DeviceDescription   string   `json:"deviceDescription,omitempty"`
	DeviceCost          float64  `json:"deviceCost,omitempty"`
	Category            string   `json:"category,omitempty"`
	IndicatedProcedures []string `json:"indicatedProcedures,omitempty"`
	ApplicableAPCs      []string `json:"applicableAPCs,omitempty"`
	FDAApprovalDate     string   `json:"fdaApprovalDate,omitempty"`
	FDAApprovalType     string   `json:"fdaApprovalType,omitempty"`
	FDANumber           string   `json:"fdaNumber,omitempty"`
	HCPCSCode           string   `json:"hcpcsCode,omitempty"`
	ClinicalBenefit     string   `json:"clinicalBenefit,omitempty"`
}

// CompletionStatus summarizes how complete an application draft is.
type CompletionStatus struct {
	Percentage      int      `json:"percentage"`
	MissingRequired []string `json:"missingRequired"`
	Status          string   `json:"status"`
}

// ApplicationSummary is the trailing summary block of a draft document.
type ApplicationSummary struct {
	TotalSections    int              `json:"totalSections"`
	EstimatedPayment *float64         `json:"estimatedPayment"`
	CompletionStatus CompletionStatus `json:"completionStatus"`
}

// ApplicationDocument is a structured draft application ready for review.
type ApplicationDocument struct {
	DocumentType  string                 `json:"documentType"`
	GeneratedDate string                 `json:"generatedDate"`
	FiscalYear    string                 `json:"fiscalYear,omitempty"`
	CalendarYear  string                 `json:"calendarYear,omitempty"`
	Status        string                 `json:"status"`
	Sections      map[string]interface{} `json:"sections"`
	Summary       ApplicationSummary     `json:"summary"`
}

// GenerateNtapApplication assembles a five-section NTAP application draft,
// pre-filling the cost analysis from the payment calculator when an
// applicable DRG is given.
func (s *Service) GenerateNtapApplication(req NtapApplicationRequest) (*ApplicationDocument, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	now := s.now()
	applicationDate := now.Format("2006-01-02")
	fiscalYear := now.Year()
	if now.Month() >= time.July {
		fiscalYear++
	}

	var calc *NtapPayment
	if len(req.ApplicableDRGs) > 0 {
		calc, _ = s.CalculateNtapPayment(NtapCalculateRequest{DeviceCost: req.DeviceCost, DRGCode: req.ApplicableDRGs[0]})
	}

	deviceCostField := "[Cost Required]"
	if req.DeviceCost > 0 {
		deviceCostField = "$" + money(req.DeviceCost)
	}

	drgsField := strings.Join(req.ApplicableDRGs, ", ")
	if drgsField == "" {
		drgsField = "[DRG codes required]"
	}

	currentDRGPayments := "[Lookup required]"
	costExceedance := "[Calculate]"
	proposedNTAP := "[Calculate]"
	if calc != nil {
		if calc.DRGPayment > 0 {
			currentDRGPayments = "$" + money(calc.DRGPayment)
		}
		if calc.CostDifference != 0 {
			costExceedance = "$" + money(calc.CostDifference)
		}
		if calc.NtapPayment > 0 {
			proposedNTAP = "$" + money(calc.NtapPayment)
		}
	}

	improvementClaims := interface{}(req.ClinicalImprovements)
	if len(req.ClinicalImprovements) == 0 {
		improvementClaims = []string{"[List clinical improvement claims]"}
	}
	supportingTrials := interface{}(req.ClinicalTrials)
	if len(req.ClinicalTrials) == 0 {
		supportingTrials = []string{"[List supporting clinical trials]"}
	}

	doc := &ApplicationDocument{
		DocumentType:  "NTAP Application",
		GeneratedDate: applicationDate,
		FiscalYear:    fmt.Sprintf("FY%d", fiscalYear),
		Status:        "DRAFT",
		Sections: map[string]interface{}{
			"coverPage": map[string]interface{}{
				"title":          "NEW TECHNOLOGY ADD-ON PAYMENT APPLICATION",
				"subtitle":       fmt.Sprintf("Fiscal Year %d", fiscalYear),
				"technology":     req.DeviceName,
				"applicant":      req.Manufacturer,
				"submissionDate": applicationDate,
			},
			"section1_applicantInfo": map[string]interface{}{
				"title": "Section 1: Applicant Information",
				"fields": map[string]interface{}{
					"manufacturerName":    req.Manufacturer,
					"manufacturerAddress": orPlaceholder(req.ManufacturerAddress, "[Address Required]"),
					"contactPerson":       orPlaceholder(req.ContactName, "[Contact Name Required]"),
					"contactEmail":        orPlaceholder(req.ContactEmail, "[Email Required]"),
					"contactPhone":        orPlaceholder(req.ContactPhone, "[Phone Required]"),
				},
			},
			"section2_technologyDescription": map[string]interface{}{
				"title": "Section 2: Technology Description",
				"fields": map[string]interface{}{
					"deviceName":        req.DeviceName,
					"description":       orPlaceholder(req.DeviceDescription, "[Detailed description required]"),
					"mechanismOfAction": "[Describe how the technology works]",
					"indicatedUse":      "[FDA-approved indications]",
					"targetPopulation":  "[Patient population that would benefit]",
				},
			},
			"section3_regulatoryStatus": map[string]interface{}{
				"title": "Section 3: Regulatory Status",
				"fields": map[string]interface{}{
					"fdaApprovalType":    orPlaceholder(req.FDAApprovalType, "[PMA/510(k)/BLA]"),
					"fdaApprovalNumber":  orPlaceholder(req.FDANumber, "[FDA Number Required]"),
					"fdaApprovalDate":    orPlaceholder(req.FDAApprovalDate, "[Date Required]"),
					"labeledIndications": "[List all FDA-approved indications]",
				},
			},
			"section4_costAnalysis": map[string]interface{}{
				"title": "Section 4: Cost Analysis",
				"fields": map[string]interface{}{
					"deviceCost":         deviceCostField,
					"applicableDRGs":     drgsField,
					"currentDRGPayments": currentDRGPayments,
					"costExceedance":     costExceedance,
					"proposedNTAP":       proposedNTAP,
					"costJustification":  orPlaceholder(req.CostJustification, "[Detailed cost justification required]"),
				},
			},
			"section5_clinicalImprovement": map[string]interface{}{
				"title": "Section 5: Substantial Clinical Improvement",
				"fields": map[string]interface{}{
					"improvementClaims":    improvementClaims,
					"supportingTrials":     supportingTrials,
					"comparatorTechnology": "[Current standard of care]",
					"improvementMetrics":   "[Quantified improvement data]",
				},
			},
		},
		Summary: ApplicationSummary{
			TotalSections: 5,
			CompletionStatus: completionStatus(
				req.DeviceName, req.Manufacturer, req.DeviceCost, req.FDAApprovalDate),
		},
	}
	if calc != nil {
		estimated := calc.NtapPayment
		doc.Summary.EstimatedPayment = &estimated
	}
	return doc, nil
}

// GenerateTptApplication assembles a three-section TPT application draft.
func (s *Service) GenerateTptApplication(req TptApplicationRequest) (*ApplicationDocument, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	category := req.Category
	if category == "" {
		category = "device"
	}

	now := s.now()
	applicationDate := now.Format("2006-01-02")
	calendarYear := now.Year() + 1

	var calc *TptPayment
	if len(req.ApplicableAPCs) > 0 {
		calc, _ = s.CalculateTptPayment(TptCalculateRequest{DeviceCost: req.DeviceCost, APCCode: req.ApplicableAPCs[0]})
	}

	productCost := "[Cost Required]"
	if req.DeviceCost > 0 {
		productCost = "$" + money(req.DeviceCost)
	}

	apcsField := strings.Join(req.ApplicableAPCs, ", ")
	if apcsField == "" {
		apcsField = "[APC codes required]"
	}

	currentAPCPayment := "[Lookup required]"
	requestedPassThrough := "[Calculate]"
	if calc != nil {
		if calc.APCPayment > 0 {
			currentAPCPayment = "$" + money(calc.APCPayment)
		}
		if calc.PassThroughPayment > 0 {
			requestedPassThrough = "$" + money(calc.PassThroughPayment)
		}
	}

	doc := &ApplicationDocument{
		DocumentType:  "TPT Application",
		GeneratedDate: applicationDate,
		CalendarYear:  fmt.Sprintf("CY%d", calendarYear),
		Status:        "DRAFT",
		Sections: map[string]interface{}{
			"coverPage": map[string]interface{}{
				"title":          "TRANSITIONAL PASS-THROUGH PAYMENT APPLICATION",
				"subtitle":       fmt.Sprintf("Calendar Year %d", calendarYear),
				"technology":     req.DeviceName,
				"category":       capitalize(category),
				"applicant":      req.Manufacturer,
				"submissionDate": applicationDate,
			},
			"section1_applicantInfo": map[string]interface{}{
				"title": "Section 1: Applicant Information",
				"fields": map[string]interface{}{
					"manufacturerName":    req.Manufacturer,
					"manufacturerAddress": orPlaceholder(req.ManufacturerAddress, "[Address Required]"),
					"contactPerson":       orPlaceholder(req.ContactName, "[Contact Name Required]"),
					"contactEmail":        orPlaceholder(req.ContactEmail, "[Email Required]"),
					"contactPhone":        orPlaceholder(req.ContactPhone, "[Phone Required]"),
				},
			},
			"section2_productInfo": map[string]interface{}{
				"title": "Section 2: Product Information",
				"fields": map[string]interface{}{
					"productName":   req.DeviceName,
					"category":      category,
					"description":   orPlaceholder(req.DeviceDescription, "[Detailed description required]"),
					"hcpcsCode":     orPlaceholder(req.HCPCSCode, "[HCPCS code required or pending]"),
					"unitOfService": "[Define unit of service]",
				},
			},
			"section3_costInfo": map[string]interface{}{
				"title": "Section 3: Cost Information",
				"fields": map[string]interface{}{
					"productCost":          productCost,
					"applicableAPCs":       apcsField,
					"currentAPCPayment":    currentAPCPayment,
					"requestedPassThrough": requestedPassThrough,
				},
			},
		},
		Summary: ApplicationSummary{
			TotalSections: 3,
			CompletionStatus: completionStatus(
				req.DeviceName, req.Manufacturer, req.DeviceCost, req.FDAApprovalDate),
		},
	}
	if calc != nil {
		estimated := calc.PassThroughPayment
		doc.Summary.EstimatedPayment = &estimated
	}
	return doc, nil
}

func completionStatus(deviceName, manufacturer string, deviceCost float64, fdaApprovalDate string) CompletionStatus {
	required := []struct {
		name string
		ok   bool
	}{
		{"deviceName", deviceName != ""},
		{"manufacturer", manufacturer != ""},
		{"deviceCost", deviceCost > 0},
		{"fdaApprovalDate", fdaApprovalDate != ""},
	}

	missing := []string{}
	provided := 0
	for _, f := range required {
		if f.ok {
			provided++
		} else {
			missing = append(missing, f.name)
		}
	}

	percentage := provided * 100 / len(required)
	status := "Incomplete"
	switch {
	case percentage == 100:
		status = "Complete"
	case percentage >= 50:
		status = "In Progress"
	}

	return CompletionStatus{
		Percentage:      percentage,
		MissingRequired: missing,
		Status:          status,
	}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
