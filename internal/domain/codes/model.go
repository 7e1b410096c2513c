package codes

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Normalized code type constants.
const (
	TypeCPT     = "CPT"
	TypeHCPCS   = "HCPCS"
	TypeICD10   = "ICD10"
	TypeICD10PC = "ICD10-PCS"
	TypeOther   = "OTHER"
)

// Metadata holds the rate-setting attributes attached to a code for one
// code system. The upstream dataset keys these bags by the raw type label.
type Metadata struct {
	APC            int      `json:"APC,omitempty"`
	SI             string   `json:"SI,omitempty"`
	Rank           int      `json:"RANK,omitempty"`
	FacilityRVU    float64  `json:"FACILITY_RVU,omitempty"`
	NonFacilityRVU float64  `json:"NONFACILITY_RVU,omitempty"`
	MUEUnit        string   `json:"MUE_UNIT,omitempty"`
	Modifiers      []string `json:"MODIFIERS,omitempty"`
	EffectiveDate  string   `json:"EFFECTIVE_DATE,omitempty"`
	Guidelines     string   `json:"GUIDELINES,omitempty"`
}

// Code is one billing code record. Records are immutable after load; the
// derived payment set is computed lazily and cached on first access.
type Code struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	Labels      []string            `json:"labels,omitempty"`
	Metadata    map[string]Metadata `json:"metadata,omitempty"`

	payOnce  sync.Once
	payments Payments
}

// Validate reports whether the record is usable. Malformed records are
// rejected at load time rather than degrading per request.
func (c *Code) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("invalid code record: code is required")
	}
	return nil
}

// NormalizeType maps raw dataset type labels to the canonical set. The
// upstream data labels diagnosis codes "DX" and inpatient procedure codes
// "PCS".
func NormalizeType(codeType string) string {
	if codeType == "" {
		return TypeOther
	}
	upper := strings.ToUpper(codeType)
	switch upper {
	case "DX":
		return TypeICD10
	case "PCS":
		return TypeICD10PC
	}
	return upper
}

// NormalizedType returns the canonical type of the record.
func (c *Code) NormalizedType() string {
	return NormalizeType(c.Type)
}

// rateMetadata returns the CPT or HCPCS metadata bag used by the payment
// formulas. Other code systems carry no rate-setting attributes.
func (c *Code) rateMetadata() Metadata {
	if m, ok := c.Metadata[TypeCPT]; ok {
		return m
	}
	if m, ok := c.Metadata[TypeHCPCS]; ok {
		return m
	}
	return Metadata{}
}

// typeMetadata returns the metadata bag keyed by the record's raw type label.
func (c *Code) typeMetadata() Metadata {
	return c.Metadata[c.Type]
}

// Category returns the authoritative category for the record: the first
// label when present, otherwise a category derived from the code system
// (and, for CPT, the numeric code range).
func (c *Code) Category() string {
	if len(c.Labels) > 0 {
		return c.Labels[0]
	}

	switch c.NormalizedType() {
	case TypeCPT:
		return c.cptCategory()
	case TypeHCPCS:
		return "HCPCS Level II"
	case TypeICD10:
		return "ICD-10 Diagnosis"
	case TypeICD10PC:
		return "ICD-10 Procedure"
	}
	return c.NormalizedType()
}

// cptCategory maps a CPT code to its body-system section by numeric range.
// Category II codes end in F, Category III codes end in T.
func (c *Code) cptCategory() string {
	if strings.HasSuffix(c.Code, "F") {
		return "Category II - Performance Measurement"
	}
	if strings.HasSuffix(c.Code, "T") {
		return "Category III - Emerging Technology"
	}

	num, err := strconv.Atoi(strings.TrimRight(c.Code, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return "CPT"
	}

	switch {
	case num >= 10000 && num <= 19999:
		return "Integumentary System"
	case num >= 20000 && num <= 29999:
		return "Musculoskeletal System"
	case num >= 30000 && num <= 32999:
		return "Respiratory System"
	case num >= 33000 && num <= 37999:
		return "Cardiovascular System"
	case num >= 38000 && num <= 38999:
		return "Hemic and Lymphatic Systems"
	case num >= 40000 && num <= 49999:
		return "Digestive System"
	case num >= 50000 && num <= 53999:
		return "Urinary System"
	case num >= 54000 && num <= 55999:
		return "Male Genital System"
	case num >= 56000 && num <= 59999:
		return "Female Genital System"
	case num >= 60000 && num <= 60999:
		return "Endocrine System"
	case num >= 61000 && num <= 64999:
		return "Nervous System"
	case num >= 65000 && num <= 68999:
		return "Eye and Ocular Adnexa"
	case num >= 69000 && num <= 69999:
		return "Auditory System"
	case num >= 70000 && num <= 79999:
		return "Radiology"
	case num >= 80000 && num <= 89999:
		return "Pathology and Laboratory"
	case num >= 90000 && num <= 99999:
		return "Medicine"
	}
	return "CPT"
}

// ToSummary converts the record to the listing shape.
func (c *Code) ToSummary() *CodeSummary {
	labels := c.Labels
	if labels == nil {
		labels = []string{}
	}
	return &CodeSummary{
		Code:        c.Code,
		Description: c.Description,
		Category:    c.Category(),
		Type:        c.NormalizedType(),
		Labels:      labels,
	}
}

// ToDetail converts the record to the single-code view, including the
// derived payment set and the rate-setting attributes worth surfacing.
func (c *Code) ToDetail(calc *PaymentCalculator) *CodeDetail {
	meta := c.typeMetadata()

	opt := CodeOptional{
		SI:            meta.SI,
		Rank:          meta.Rank,
		Modifiers:     meta.Modifiers,
		EffectiveDate: meta.EffectiveDate,
	}
	if meta.APC > 0 {
		opt.APC = strconv.Itoa(meta.APC)
	}

	return &CodeDetail{
		Code:        c.Code,
		Description: c.Description,
		Category:    c.Category(),
		Type:        c.NormalizedType(),
		Labels:      c.ToSummary().Labels,
		Payments:    calc.PaymentsFor(c),
		Optional:    opt,
	}
}

// CodeSummary is the listing/search result shape.
type CodeSummary struct {
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Labels      []string `json:"labels"`
}

// CodeOptional carries the rate-setting attributes of a code detail that
// are absent for most code systems.
type CodeOptional struct {
	DRG           string   `json:"drg,omitempty"`
	APC           string   `json:"apc,omitempty"`
	SI            string   `json:"si,omitempty"`
	Rank          int      `json:"rank,omitempty"`
	Modifiers     []string `json:"modifiers,omitempty"`
	EffectiveDate string   `json:"effectiveDate,omitempty"`
}

// CodeDetail is the single-code view, with per-site payment estimates.
type CodeDetail struct {
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Type        string       `json:"type"`
	Labels      []string     `json:"labels"`
	Payments    Payments     `json:"payments"`
	Optional    CodeOptional `json:"optional"`
}
