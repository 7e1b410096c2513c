package reimbursement

import (
	"strings"

	"github.com/rim/rim/internal/domain/codes"
)

// Classification is the three-way profitability outcome of a scenario.
type Classification string

const (
	Profitable Classification = "profitable"
	BreakEven  Classification = "break-even"
	Loss       Classification = "loss"
)

// Site describes one of the four site-of-service payment systems.
type Site struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// The four canonical sites, in comparison order.
var sites = []Site{
	{Key: "IPPS", Name: "Inpatient (DRG)", Description: "Inpatient Prospective Payment System"},
	{Key: "HOPD", Name: "Hospital Outpatient (OPPS)", Description: "Outpatient Prospective Payment System"},
	{Key: "ASC", Name: "Ambulatory Surgical Center", Description: "ASC Payment System"},
	{Key: "OBL", Name: "Office-Based Lab", Description: "Physician Fee Schedule (Non-Facility)"},
}

// siteAliases maps accepted site-of-service spellings onto canonical keys.
var siteAliases = map[string]string{
	"IPPS":               "IPPS",
	"INPATIENT":          "IPPS",
	"DRG":                "IPPS",
	"HOPD":               "HOPD",
	"OPPS":               "HOPD",
	"HOSPITALOUTPATIENT": "HOPD",
	"ASC":                "ASC",
	"AMBULATORY":         "ASC",
	"OBL":                "OBL",
	"OFFICE":             "OBL",
	"NONFACILITY":        "OBL",
	"PHYSICIAN":          "OBL",
}

// NormalizeSite resolves a user-supplied site-of-service string to its
// canonical site. Case and non-letter characters (underscores, hyphens,
// spaces) are ignored, so "hospital_outpatient" and "OPPS" both resolve to
// HOPD. The second return value is false when the input is not recognized.
func NormalizeSite(input string) (Site, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(input) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	key, ok := siteAliases[b.String()]
	if !ok {
		return Site{}, false
	}
	for _, s := range sites {
		if s.Key == key {
			return s, true
		}
	}
	return Site{}, false
}

// ValidSites returns the canonical sites of service.
func ValidSites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

// ScenarioRequest is the input for a reimbursement scenario calculation.
type ScenarioRequest struct {
	Code          string  `json:"code"`
	SiteOfService string  `json:"siteOfService"`
	DeviceCost    float64 `json:"deviceCost"`
	NtapAddOn     float64 `json:"ntapAddOn"`
}

// ValidationError carries the per-field problems of a rejected request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Errors, "; ")
}

// Validate checks the request and returns a ValidationError listing every
// problem found, or nil when the request is usable.
func (r *ScenarioRequest) Validate() error {
	var errs []string

	if r.Code == "" {
		errs = append(errs, "Code is required")
	}

	if r.SiteOfService == "" {
		errs = append(errs, "Site of service is required")
	} else if _, ok := NormalizeSite(r.SiteOfService); !ok {
		keys := make([]string, len(sites))
		for i, s := range sites {
			keys[i] = s.Key
		}
		errs = append(errs, "Invalid site of service: "+r.SiteOfService+". Valid options: "+strings.Join(keys, ", "))
	}

	if r.DeviceCost < 0 {
		errs = append(errs, "Device cost must be a non-negative number")
	}
	if r.NtapAddOn < 0 {
		errs = append(errs, "NTAP add-on must be a non-negative number")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// BreakdownItem is one labeled line of a scenario breakdown.
type BreakdownItem struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Source  string  `json:"source,omitempty"`
	Formula string  `json:"formula,omitempty"`
}

// Breakdown itemizes how the scenario result was computed.
type Breakdown struct {
	BasePayment  BreakdownItem `json:"basePayment"`
	AddOnPayment BreakdownItem `json:"addOnPayment"`
	TotalPayment BreakdownItem `json:"totalPayment"`
	DeviceCost   BreakdownItem `json:"deviceCost"`
	Margin       BreakdownItem `json:"margin"`
}

// CodeDetails echoes the resolved code's context in a scenario result.
type CodeDetails struct {
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	AllPayments codes.Payments `json:"allPayments"`
	APC         string         `json:"apc,omitempty"`
}

// ScenarioResult is a computed reimbursement scenario.
type ScenarioResult struct {
	Code             string         `json:"code"`
	Description      string         `json:"description"`
	SiteOfService    string         `json:"siteOfService"`
	SiteKey          string         `json:"siteKey"`
	BasePayment      float64        `json:"basePayment"`
	AddOnPayment     float64        `json:"addOnPayment"`
	TotalPayment     float64        `json:"totalPayment"`
	DeviceCost       float64        `json:"deviceCost"`
	Margin           float64        `json:"margin"`
	MarginPercentage string         `json:"marginPercentage"`
	Classification   Classification `json:"classification"`
	Breakdown        Breakdown      `json:"breakdown"`
	CodeDetails      CodeDetails    `json:"codeDetails"`
}

// SiteComparison is one row of a cross-site comparison.
type SiteComparison struct {
	Site             string         `json:"site"`
	SiteKey          string         `json:"siteKey"`
	BasePayment      float64        `json:"basePayment"`
	TotalPayment     float64        `json:"totalPayment"`
	Margin           float64        `json:"margin"`
	MarginPercentage string         `json:"marginPercentage"`
	Classification   Classification `json:"classification"`
}

// Comparison holds a scenario computed for every site of service.
type Comparison struct {
	Code        string           `json:"code"`
	Description string           `json:"description"`
	DeviceCost  float64          `json:"deviceCost"`
	NtapAddOn   float64          `json:"ntapAddOn"`
	Comparisons []SiteComparison `json:"comparisons"`
	BestSite    *SiteComparison  `json:"bestSite"`
	WorstSite   *SiteComparison  `json:"worstSite"`
}

// ThresholdInfo describes one classification band for API consumers.
type ThresholdInfo struct {
	Condition string `json:"condition"`
	Color     string `json:"color"`
	Label     string `json:"label"`
}
