package newtech

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the program constants used when the loaded datasets do not
// override them.
type Config struct {
	NtapPercentage              float64
	NtapMaxCap                  float64
	NtapCostThresholdMultiplier float64
	TptMaxPassThroughYears      int
	TptPackagedShare            float64
	TptCostSignificance         float64
}

// Service implements NTAP and TPT payment calculations, eligibility
// assessments, and application document generation. Program data is loaded
// once at startup and is immutable afterwards.
type Service struct {
	source Source
	cfg    Config
	logger zerolog.Logger

	mu    sync.Mutex
	ready atomic.Bool
	ntap  *NtapData
	tpt   *TptData

	now func() time.Time
}

// NewService creates a new technology program service.
func NewService(source Source, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		cfg:    cfg,
		logger: logger.With().Str("component", "newtech_service").Logger(),
		now:    time.Now,
	}
}

// Load reads the program datasets. It is idempotent; concurrent calls are
// serialized and only the first one does work.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready.Load() {
		return nil
	}

	ntap, tpt, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load program data: %w", err)
	}

	s.ntap = ntap
	s.tpt = tpt
	s.ready.Store(true)
	s.logger.Info().Str("fiscal_year", ntap.FiscalYear).Msg("New technology programs ready")
	return nil
}

// Ready reports whether the program data has been loaded.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

func (s *Service) ntapPercentage() float64 {
	if s.ntap.NtapPercentage > 0 {
		return s.ntap.NtapPercentage
	}
	return s.cfg.NtapPercentage
}

func (s *Service) ntapMaxCap() float64 {
	if s.ntap.MaxNtapCap > 0 {
		return s.ntap.MaxNtapCap
	}
	return s.cfg.NtapMaxCap
}

func (s *Service) costThresholdMultiplier() float64 {
	if s.ntap.CostThresholdMultiplier > 0 {
		return s.ntap.CostThresholdMultiplier
	}
	return s.cfg.NtapCostThresholdMultiplier
}

func (s *Service) tptMaxYears() int {
	if s.tpt.MaxPassThroughDuration > 0 {
		return s.tpt.MaxPassThroughDuration
	}
	return s.cfg.TptMaxPassThroughYears
}

// CalculateNtapPayment computes the add-on payment for a device:
// min(percentage x (device cost - DRG payment), cap). A device whose cost
// does not exceed the DRG payment gets no add-on.
func (s *Service) CalculateNtapPayment(req NtapCalculateRequest) (*NtapPayment, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	if req.DeviceCost <= 0 {
		return nil, ErrDeviceCost
	}

	drgPayment := req.DRGPayment
	if drgPayment <= 0 {
		drgPayment = s.ntap.DRGBasePayments[req.DRGCode]
	}

	costDifference := req.DeviceCost - drgPayment
	if costDifference <= 0 {
		return &NtapPayment{
			Eligible:       false,
			DeviceCost:     req.DeviceCost,
			DRGCode:        req.DRGCode,
			DRGPayment:     drgPayment,
			CostDifference: costDifference,
			NtapPayment:    0,
			Reason:         "Device cost does not exceed DRG payment",
		}, nil
	}

	percentage := s.ntapPercentage()
	maxCap := s.ntapMaxCap()

	calculated := costDifference * percentage
	payment := math.Min(calculated, maxCap)

	return &NtapPayment{
		Eligible:           true,
		DeviceCost:         req.DeviceCost,
		DRGCode:            req.DRGCode,
		DRGPayment:         drgPayment,
		CostDifference:     costDifference,
		NtapPercentage:     percentage * 100,
		CalculatedNtap:     math.Round(calculated),
		MaxCap:             maxCap,
		NtapPayment:        math.Round(payment),
		TotalReimbursement: math.Round(drgPayment + payment),
		Breakdown: &NtapBreakdown{
			BaseDRGPayment: drgPayment,
			NtapAddOn:      math.Round(payment),
			Total:          math.Round(drgPayment + payment),
		},
	}, nil
}

// clinicalImprovementCategories are the benefit categories CMS recognizes
// as substantial clinical improvement.
var clinicalImprovementCategories = []string{
	"Reduced mortality",
	"Reduced complications",
	"Reduced hospital stay",
	"Improved patient outcomes",
	"Reduced readmissions",
	"Treatment for unmet need",
}

// CheckNtapEligibility evaluates the four NTAP criteria for a technology
// and returns the assessment with a potential payment and recommendations.
func (s *Service) CheckNtapEligibility(req NtapEligibilityRequest) (*NtapEligibility, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	var criteria []Criterion
	overallEligible := true
	needsReview := false

	// 1. Newness: FDA approval within the qualifying window.
	yearsOld := s.yearsSince(req.FDAApprovalDate)
	newnessDetail := "within timeframe"
	if yearsOld > 3 {
		newnessDetail = `may not qualify as "new"`
	}
	newness := Criterion{
		Criterion:   "Newness",
		Description: "FDA approval within qualifying timeframe (2-3 years)",
		Met:         yearsOld <= 3,
		Details:     fmt.Sprintf("Approved %.1f years ago - %s", yearsOld, newnessDetail),
	}
	criteria = append(criteria, newness)
	if !newness.Met {
		overallEligible = false
	}

	// 2. Cost threshold relative to the DRG payment.
	drgPayment := s.ntap.DRGBasePayments[req.DRGCode]
	costThreshold := drgPayment * s.costThresholdMultiplier()
	meetsThreshold := req.DeviceCost > costThreshold
	exceedsWord := "exceeds"
	if !meetsThreshold {
		exceedsWord = "does not exceed"
	}
	cost := Criterion{
		Criterion:   "Cost Threshold",
		Description: "Device cost exceeds DRG payment threshold",
		Met:         meetsThreshold,
		Details:     fmt.Sprintf("Device cost ($%s) %s threshold ($%s)", money(req.DeviceCost), exceedsWord, money(costThreshold)),
	}
	criteria = append(criteria, cost)
	if !cost.Met {
		overallEligible = false
	}

	// 3. Not yet in the DRG weights. Always assumed for new approvals,
	// which forces manual review.
	criteria = append(criteria, Criterion{
		Criterion:   "Not in Current Weights",
		Description: "Technology not yet reflected in DRG payment weights",
		Met:         true,
		Details:     "Requires CMS verification - assumed not in current weights for new FDA approvals",
	})
	needsReview = true

	// 4. Substantial clinical improvement claims.
	valid := matchImprovements(req.ClinicalImprovements)
	clinical := Criterion{
		Criterion:   "Substantial Clinical Improvement",
		Description: "Demonstrates meaningful clinical benefit over existing treatments",
		Met:         len(valid) > 0,
		Details:     "No clinical improvement claims provided - documentation required",
	}
	if len(valid) > 0 {
		clinical.Details = "Claims: " + strings.Join(valid, ", ")
	}
	criteria = append(criteria, clinical)
	if !clinical.Met {
		needsReview = true
	}

	var potential *NtapPayment
	if overallEligible || needsReview {
		if p, err := s.CalculateNtapPayment(NtapCalculateRequest{DeviceCost: req.DeviceCost, DRGCode: req.DRGCode}); err == nil {
			potential = p
		}
	}

	status := deriveStatus(overallEligible, needsReview)

	return &NtapEligibility{
		Status:      status,
		StatusLabel: status.Label(),
		Technology: Technology{
			Name:            req.DeviceName,
			Manufacturer:    req.Manufacturer,
			DeviceCost:      req.DeviceCost,
			FDAApprovalDate: req.FDAApprovalDate,
			FDAApprovalType: req.FDAApprovalType,
		},
		EligibilityCriteria: criteria,
		CriteriaMetCount:    metCount(criteria),
		TotalCriteria:       len(criteria),
		PotentialPayment:    potential,
		Recommendations:     ntapRecommendations(criteria, status),
	}, nil
}

// CalculateTptPayment computes the pass-through payment: device cost minus
// the share of the APC payment assumed already packaged, floored at zero.
func (s *Service) CalculateTptPayment(req TptCalculateRequest) (*TptPayment, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	if req.DeviceCost <= 0 {
		return nil, ErrDeviceCost
	}

	apcPayment := req.PackagedPayment
	if apcPayment <= 0 {
		apcPayment = s.tpt.APCBasePayments[req.APCCode]
	}

	packaged := apcPayment * s.cfg.TptPackagedShare
	passThrough := math.Max(0, req.DeviceCost-packaged)

	return &TptPayment{
		DeviceCost:         req.DeviceCost,
		APCCode:            req.APCCode,
		APCPayment:         apcPayment,
		PackagedAmount:     math.Round(packaged),
		PassThroughPayment: math.Round(passThrough),
		TotalReimbursement: math.Round(apcPayment + passThrough),
		Breakdown: &TptBreakdown{
			BaseAPCPayment:    apcPayment,
			DevicePassThrough: math.Round(passThrough),
			Total:             math.Round(apcPayment + passThrough),
		},
	}, nil
}

// CheckTptEligibility evaluates the four TPT criteria for a technology.
func (s *Service) CheckTptEligibility(req TptEligibilityRequest) (*TptEligibility, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}

	category := req.Category
	if category == "" {
		category = "device"
	}

	var criteria []Criterion
	overallEligible := true
	needsReview := false

	// 1. Newness within the pass-through window.
	yearsOld := s.yearsSince(req.FDAApprovalDate)
	maxYears := s.tptMaxYears()
	withinWord := "within"
	if yearsOld > float64(maxYears) {
		withinWord = "exceeds"
	}
	newness := Criterion{
		Criterion:   "Newness",
		Description: fmt.Sprintf("Recent FDA approval (within %d-year window)", maxYears),
		Met:         yearsOld <= float64(maxYears),
		Details:     fmt.Sprintf("Approved %.1f years ago - %s %d-year window", yearsOld, withinWord, maxYears),
	}
	criteria = append(criteria, newness)
	if !newness.Met {
		overallEligible = false
	}

	// 2. Category must be a device, drug, or biological.
	validCategory := false
	switch strings.ToLower(category) {
	case "device", "drug", "biological":
		validCategory = true
	}
	validWord := "Valid"
	if !validCategory {
		validWord = "Invalid"
	}
	categoryCriterion := Criterion{
		Criterion:   "Eligible Category",
		Description: "Must be a device, drug, or biological",
		Met:         validCategory,
		Details:     fmt.Sprintf("Category: %s - %s", category, validWord),
	}
	criteria = append(criteria, categoryCriterion)
	if !categoryCriterion.Met {
		overallEligible = false
	}

	// 3. Cost significance relative to the APC payment.
	apcPayment := s.tpt.APCBasePayments[req.APCCode]
	costSignificant := apcPayment > 0 && req.DeviceCost > apcPayment*s.cfg.TptCostSignificance
	costDetails := "APC payment not specified"
	if apcPayment > 0 {
		costDetails = fmt.Sprintf("Device cost ($%s) is %.1f%% of APC payment", money(req.DeviceCost), req.DeviceCost/apcPayment*100)
	}
	costCriterion := Criterion{
		Criterion:   "Cost Significance",
		Description: "Device cost represents significant portion of procedure cost",
		Met:         costSignificant,
		Details:     costDetails,
	}
	criteria = append(criteria, costCriterion)
	if !costCriterion.Met {
		needsReview = true
	}

	// 4. Not already packaged. Always assumed for new items, which forces
	// manual review.
	criteria = append(criteria, Criterion{
		Criterion:   "Not Packaged",
		Description: "Device/drug not already packaged into APC payment",
		Met:         true,
		Details:     "Requires CMS verification - assumed not currently packaged for new approvals",
	})
	needsReview = true

	var potential *TptPayment
	if overallEligible || needsReview {
		if p, err := s.CalculateTptPayment(TptCalculateRequest{DeviceCost: req.DeviceCost, APCCode: req.APCCode}); err == nil {
			potential = p
		}
	}

	status := deriveStatus(overallEligible, needsReview)

	return &TptEligibility{
		Status:      status,
		StatusLabel: status.Label(),
		Technology: Technology{
			Name:            req.DeviceName,
			Manufacturer:    req.Manufacturer,
			DeviceCost:      req.DeviceCost,
			Category:        category,
			FDAApprovalDate: req.FDAApprovalDate,
			FDAApprovalType: req.FDAApprovalType,
		},
		EligibilityCriteria: criteria,
		CriteriaMetCount:    metCount(criteria),
		TotalCriteria:       len(criteria),
		PotentialPayment:    potential,
		Recommendations:     tptRecommendations(criteria, status),
	}, nil
}

// ApprovedNtapTechnologies returns the approved NTAP list for the fiscal year.
func (s *Service) ApprovedNtapTechnologies() (*ApprovedList, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	return &ApprovedList{
		FiscalYear:   s.ntap.FiscalYear,
		LastUpdated:  s.ntap.LastUpdated,
		Technologies: s.ntap.Technologies,
		TotalCount:   len(s.ntap.Technologies),
	}, nil
}

// ApprovedTptTechnologies returns the approved TPT list for the calendar year.
func (s *Service) ApprovedTptTechnologies() (*ApprovedList, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	return &ApprovedList{
		FiscalYear:   s.tpt.FiscalYear,
		LastUpdated:  s.tpt.LastUpdated,
		MaxDuration:  s.tptMaxYears(),
		Technologies: s.tpt.Technologies,
		TotalCount:   len(s.tpt.Technologies),
	}, nil
}

// AvailableDRGs lists the DRG codes with known base payments, sorted by code.
func (s *Service) AvailableDRGs() ([]CodePayment, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	return sortedPayments(s.ntap.DRGBasePayments), nil
}

// AvailableAPCs lists the APC codes with known base payments, sorted by code.
func (s *Service) AvailableAPCs() ([]CodePayment, error) {
	if !s.ready.Load() {
		return nil, ErrNotReady
	}
	return sortedPayments(s.tpt.APCBasePayments), nil
}

func sortedPayments(m map[string]float64) []CodePayment {
	out := make([]CodePayment, 0, len(m))
	for code, payment := range m {
		out = append(out, CodePayment{Code: code, Payment: payment})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// yearsSince returns the age of an ISO date in fractional years. Unparseable
// or missing dates count as brand new.
func (s *Service) yearsSince(date string) float64 {
	if date == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		t, err = time.Parse("2006-01-02", date)
		if err != nil {
			return 0
		}
	}
	days := s.now().Sub(t).Hours() / 24
	return days / 365.25
}

func matchImprovements(claims []string) []string {
	var valid []string
	for _, claim := range claims {
		lower := strings.ToLower(claim)
		for _, cat := range clinicalImprovementCategories {
			catLower := strings.ToLower(cat)
			if strings.Contains(lower, catLower) || strings.Contains(catLower, lower) {
				valid = append(valid, claim)
				break
			}
		}
	}
	return valid
}

func deriveStatus(overallEligible, needsReview bool) Status {
	switch {
	case overallEligible && !needsReview:
		return LikelyEligible
	case overallEligible || needsReview:
		return NeedsReview
	}
	return NotEligible
}

func metCount(criteria []Criterion) int {
	n := 0
	for _, c := range criteria {
		if c.Met {
			n++
		}
	}
	return n
}

func ntapRecommendations(criteria []Criterion, status Status) []string {
	recommendations := []string{}
	for _, c := range criteria {
		if c.Met {
			continue
		}
		switch c.Criterion {
		case "Newness":
			recommendations = append(recommendations, "Consider applying in next fiscal year if technology becomes newly eligible")
		case "Cost Threshold":
			recommendations = append(recommendations, "Review device pricing or identify additional costs that may be included")
		case "Substantial Clinical Improvement":
			recommendations = append(recommendations,
				"Compile clinical trial data demonstrating improvement over existing treatments",
				"Document specific clinical benefits (mortality, complications, outcomes)")
		}
	}
	if status == LikelyEligible {
		recommendations = append(recommendations,
			"Prepare formal NTAP application for CMS submission",
			"Gather supporting clinical documentation and cost data")
	}
	return recommendations
}

func tptRecommendations(criteria []Criterion, status Status) []string {
	recommendations := []string{}
	for _, c := range criteria {
		if c.Met {
			continue
		}
		switch c.Criterion {
		case "Newness":
			recommendations = append(recommendations, "Pass-through status may have expired - verify with CMS")
		case "Cost Significance":
			recommendations = append(recommendations, "Consider if separate payment is warranted given cost relative to APC")
		}
	}
	if status == LikelyEligible || status == NeedsReview {
		recommendations = append(recommendations,
			"Prepare HCPCS code application if not already assigned",
			"Submit pass-through application to CMS with supporting cost data")
	}
	return recommendations
}

// money formats a dollar amount with thousands separators and no cents.
func money(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
