package codes

import "testing"

func testCalculator() *PaymentCalculator {
	return NewPaymentCalculator(PaymentConfig{
		FacilityCF:     33.89,
		NonFacilityCF:  33.89,
		IPPSMultiplier: 1.5,
	})
}

func TestPayments_ForSite(t *testing.T) {
	p := Payments{IPPS: 4, HOPD: 3, ASC: 2, OBL: 1}
	tests := []struct {
		site string
		want float64
	}{
		{"IPPS", 4},
		{"HOPD", 3},
		{"ASC", 2},
		{"OBL", 1},
		{"BOGUS", 0},
	}
	for _, tt := range tests {
		if got := p.ForSite(tt.site); got != tt.want {
			t.Errorf("ForSite(%s) = %v, want %v", tt.site, got, tt.want)
		}
	}
}

func TestPaymentsFor_APCRateTable(t *testing.T) {
	calc := testCalculator()
	c := &Code{
		Code: "29881",
		Type: "CPT",
		Metadata: map[string]Metadata{
			"CPT": {APC: 5193, FacilityRVU: 10, NonFacilityRVU: 12},
		},
	}

	p := calc.PaymentsFor(c)
	if p.HOPD != 11639 {
		t.Errorf("HOPD should come from the APC rate table: got %v", p.HOPD)
	}
	if p.OBL != 407 { // round(12 * 33.89)
		t.Errorf("OBL = %v, want 407", p.OBL)
	}
	if p.ASC != 7565 { // round(11639 * 0.65)
		t.Errorf("ASC = %v, want 7565", p.ASC)
	}
	if p.IPPS != 17459 { // round(11639 * 1.5)
		t.Errorf("IPPS = %v, want 17459", p.IPPS)
	}
}

func TestPaymentsFor_RVUFallback(t *testing.T) {
	calc := testCalculator()
	c := &Code{
		Code: "99999",
		Type: "CPT",
		Metadata: map[string]Metadata{
			"CPT": {FacilityRVU: 2, NonFacilityRVU: 3},
		},
	}

	p := calc.PaymentsFor(c)
	if p.OBL != 102 { // round(3 * 33.89)
		t.Errorf("OBL = %v, want 102", p.OBL)
	}
	if p.HOPD != 2372 { // round(2 * 33.89 * 35)
		t.Errorf("HOPD = %v, want 2372", p.HOPD)
	}
	if p.ASC != 1542 { // round(2372 * 0.65)
		t.Errorf("ASC = %v, want 1542", p.ASC)
	}
	if p.IPPS != 3558 { // round(2372 * 1.5)
		t.Errorf("IPPS = %v, want 3558", p.IPPS)
	}
}

func TestPaymentsFor_UnknownAPCFallsBackToRVU(t *testing.T) {
	calc := testCalculator()
	c := &Code{
		Code: "27447",
		Type: "CPT",
		Metadata: map[string]Metadata{
			"CPT": {APC: 5115, FacilityRVU: 19.6, NonFacilityRVU: 19.6},
		},
	}

	p := calc.PaymentsFor(c)
	if p.HOPD != 23249 { // round(19.6 * 33.89 * 35), APC 5115 not in table
		t.Errorf("HOPD = %v, want 23249", p.HOPD)
	}
}

func TestPaymentsFor_HCPCSBag(t *testing.T) {
	calc := testCalculator()
	c := &Code{
		Code: "C1713",
		Type: "HCPCS",
		Metadata: map[string]Metadata{
			"HCPCS": {FacilityRVU: 1.2},
		},
	}

	p := calc.PaymentsFor(c)
	if p.HOPD == 0 || p.IPPS == 0 {
		t.Errorf("expected RVU-derived payments for HCPCS, got %+v", p)
	}
	if p.OBL != 0 {
		t.Errorf("no non-facility RVU should mean zero OBL, got %v", p.OBL)
	}
}

func TestPaymentsFor_NonRateTypesAreZero(t *testing.T) {
	calc := testCalculator()
	for _, codeType := range []string{"DX", "PCS", ""} {
		c := &Code{Code: "X1", Type: codeType}
		if p := calc.PaymentsFor(c); p != (Payments{}) {
			t.Errorf("type %q: expected zero payments, got %+v", codeType, p)
		}
	}
}

func TestPaymentsFor_Memoized(t *testing.T) {
	calc := testCalculator()
	c := &Code{
		Code: "29881",
		Type: "CPT",
		Metadata: map[string]Metadata{
			"CPT": {APC: 5193, NonFacilityRVU: 12},
		},
	}

	first := calc.PaymentsFor(c)
	second := calc.PaymentsFor(c)
	if first != second {
		t.Errorf("repeated derivation should return the cached set: %+v vs %+v", first, second)
	}
}
