package codes

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CPT", TypeCPT},
		{"cpt", TypeCPT},
		{"HCPCS", TypeHCPCS},
		{"DX", TypeICD10},
		{"dx", TypeICD10},
		{"PCS", TypeICD10PC},
		{"", TypeOther},
		{"LOINC", "LOINC"},
	}
	for _, tt := range tests {
		if got := NormalizeType(tt.in); got != tt.want {
			t.Errorf("NormalizeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate_RequiresCode(t *testing.T) {
	c := &Code{Description: "orphan record"}
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for empty code")
	}

	c = &Code{Code: "27447"}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCategory_LabelWins(t *testing.T) {
	c := &Code{Code: "27447", Type: "CPT", Labels: []string{"Orthopedic Surgery", "Knee"}}
	if got := c.Category(); got != "Orthopedic Surgery" {
		t.Errorf("expected first label, got %q", got)
	}
}

func TestCategory_CPTRanges(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"10060", "Integumentary System"},
		{"27447", "Musculoskeletal System"},
		{"31622", "Respiratory System"},
		{"33533", "Cardiovascular System"},
		{"38100", "Hemic and Lymphatic Systems"},
		{"43239", "Digestive System"},
		{"52000", "Urinary System"},
		{"54150", "Male Genital System"},
		{"58150", "Female Genital System"},
		{"60240", "Endocrine System"},
		{"64483", "Nervous System"},
		{"66984", "Eye and Ocular Adnexa"},
		{"69436", "Auditory System"},
		{"70450", "Radiology"},
		{"80053", "Pathology and Laboratory"},
		{"99213", "Medicine"},
		{"3074F", "Category II - Performance Measurement"},
		{"0075T", "Category III - Emerging Technology"},
	}
	for _, tt := range tests {
		c := &Code{Code: tt.code, Type: "CPT"}
		if got := c.Category(); got != tt.want {
			t.Errorf("Category(%s) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCategory_ByType(t *testing.T) {
	tests := []struct {
		codeType string
		want     string
	}{
		{"HCPCS", "HCPCS Level II"},
		{"DX", "ICD-10 Diagnosis"},
		{"PCS", "ICD-10 Procedure"},
		{"", "OTHER"},
	}
	for _, tt := range tests {
		c := &Code{Code: "X", Type: tt.codeType}
		if got := c.Category(); got != tt.want {
			t.Errorf("Category(type=%q) = %q, want %q", tt.codeType, got, tt.want)
		}
	}
}

func TestToSummary_NeverNilLabels(t *testing.T) {
	c := &Code{Code: "27447", Type: "CPT"}
	s := c.ToSummary()
	if s.Labels == nil {
		t.Error("summary labels should be an empty slice, not nil")
	}
}

func TestToDetail_APCAsString(t *testing.T) {
	calc := NewPaymentCalculator(PaymentConfig{FacilityCF: 33.89, NonFacilityCF: 33.89, IPPSMultiplier: 1.5})
	c := &Code{
		Code: "29881",
		Type: "CPT",
		Metadata: map[string]Metadata{
			"CPT": {APC: 5192, SI: "J1", FacilityRVU: 6.99},
		},
	}

	d := c.ToDetail(calc)
	if d.Optional.APC != "5192" {
		t.Errorf("expected APC %q, got %q", "5192", d.Optional.APC)
	}
	if d.Optional.SI != "J1" {
		t.Errorf("expected SI J1, got %q", d.Optional.SI)
	}

	// No APC means the field is omitted entirely.
	c2 := &Code{Code: "99213", Type: "CPT", Metadata: map[string]Metadata{"CPT": {}}}
	if d2 := c2.ToDetail(calc); d2.Optional.APC != "" {
		t.Errorf("expected empty APC, got %q", d2.Optional.APC)
	}
}
