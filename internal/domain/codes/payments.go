package codes

import "math"

// Payments is the derived payment set for the four sites of service. A zero
// value means no payment could be estimated for that site, not that the
// procedure is free.
type Payments struct {
	IPPS float64 `json:"IPPS"`
	HOPD float64 `json:"HOPD"`
	ASC  float64 `json:"ASC"`
	OBL  float64 `json:"OBL"`
}

// ForSite returns the payment for a canonical site key.
func (p Payments) ForSite(site string) float64 {
	switch site {
	case "IPPS":
		return p.IPPS
	case "HOPD":
		return p.HOPD
	case "ASC":
		return p.ASC
	case "OBL":
		return p.OBL
	}
	return 0
}

// defaultAPCRates is the ambulatory payment classification rate table
// (approximate 2025 values).
var defaultAPCRates = map[int]float64{
	5193: 11639,
	5054: 2850,
	5055: 4200,
	5056: 6500,
	5183: 8500,
	5192: 9200,
	5194: 14500,
}

// PaymentConfig holds the conversion factors driving payment estimation.
type PaymentConfig struct {
	FacilityCF     float64
	NonFacilityCF  float64
	IPPSMultiplier float64
}

// PaymentCalculator derives per-site payment estimates from a code's
// rate-setting metadata. The formulas are an estimation scheme built on RVUs
// and a small APC rate table, not an authoritative CMS rate lookup.
type PaymentCalculator struct {
	cfg      PaymentConfig
	apcRates map[int]float64
}

// NewPaymentCalculator creates a calculator with the built-in APC rate table.
func NewPaymentCalculator(cfg PaymentConfig) *PaymentCalculator {
	return &PaymentCalculator{cfg: cfg, apcRates: defaultAPCRates}
}

// PaymentsFor returns the derived payment set for a record, computing it on
// first access and caching it on the record thereafter.
func (pc *PaymentCalculator) PaymentsFor(c *Code) Payments {
	c.payOnce.Do(func() {
		c.payments = pc.derive(c)
	})
	return c.payments
}

func (pc *PaymentCalculator) derive(c *Code) Payments {
	var p Payments

	// Only procedure/service code systems carry rate-setting metadata.
	t := c.NormalizedType()
	if t != TypeCPT && t != TypeHCPCS {
		return p
	}

	meta := c.rateMetadata()

	// OBL: physician fee schedule, non-facility RVUs.
	if meta.NonFacilityRVU > 0 {
		p.OBL = math.Round(meta.NonFacilityRVU * pc.cfg.NonFacilityCF)
	}

	// HOPD: direct APC rate when known, otherwise a facility-RVU estimate.
	// HOPD must be derived first; ASC and IPPS scale from it.
	if rate, ok := pc.apcRates[meta.APC]; ok && meta.APC != 0 {
		p.HOPD = rate
	} else if meta.FacilityRVU > 0 {
		p.HOPD = math.Round(meta.FacilityRVU * pc.cfg.FacilityCF * 35)
	}

	// ASC typically pays about 65% of the hospital outpatient rate.
	if p.HOPD > 0 {
		p.ASC = math.Round(p.HOPD * 0.65)
	} else if meta.FacilityRVU > 0 {
		p.ASC = math.Round(meta.FacilityRVU * 50 * 20)
	}

	if p.HOPD > 0 {
		p.IPPS = math.Round(p.HOPD * pc.cfg.IPPSMultiplier)
	} else if meta.FacilityRVU > 0 {
		p.IPPS = math.Round(meta.FacilityRVU * pc.cfg.FacilityCF * 50)
	}

	return p
}
