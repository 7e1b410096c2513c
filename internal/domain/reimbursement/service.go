package reimbursement

import (
	"fmt"
	"sort"

	"github.com/rim/rim/internal/domain/codes"
)

// CodeResolver resolves a code string to its detail view. Satisfied by the
// codes service.
type CodeResolver interface {
	GetCode(code string) (*codes.CodeDetail, error)
}

// Thresholds are the margin-ratio boundaries of the profitability bands.
// Both boundaries are inclusive.
type Thresholds struct {
	ProfitableMin float64 // margin/total at or above this is profitable
	BreakEvenMin  float64 // margin/total at or above this is break-even
}

// Service computes reimbursement scenarios. Stateless: every call builds a
// fresh result from the resolved code record and the request inputs.
type Service struct {
	resolver   CodeResolver
	thresholds Thresholds
}

// NewService creates a reimbursement service.
func NewService(resolver CodeResolver, thresholds Thresholds) *Service {
	return &Service{resolver: resolver, thresholds: thresholds}
}

// Classify buckets a margin against the total payment. When total is zero
// there is no ratio to judge, so the sign of the margin decides.
func (s *Service) Classify(margin, totalPayment float64) Classification {
	if totalPayment == 0 {
		if margin >= 0 {
			return BreakEven
		}
		return Loss
	}

	ratio := margin / totalPayment
	switch {
	case ratio >= s.thresholds.ProfitableMin:
		return Profitable
	case ratio >= s.thresholds.BreakEvenMin:
		return BreakEven
	}
	return Loss
}

func marginPercentage(margin, totalPayment float64) string {
	pct := 0.0
	if totalPayment > 0 {
		pct = margin / totalPayment * 100
	}
	return fmt.Sprintf("%.1f", pct)
}

// Calculate validates the request, resolves the code, and computes the
// scenario. Returns a *ValidationError for bad input and codes.ErrNotFound
// (wrapped) when the code does not exist.
func (s *Service) Calculate(req *ScenarioRequest) (*ScenarioResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	detail, err := s.resolver.GetCode(req.Code)
	if err != nil {
		return nil, fmt.Errorf("resolve code %s: %w", req.Code, err)
	}

	site, _ := NormalizeSite(req.SiteOfService)
	return s.calculate(req, detail, site), nil
}

func (s *Service) calculate(req *ScenarioRequest, detail *codes.CodeDetail, site Site) *ScenarioResult {
	basePayment := detail.Payments.ForSite(site.Key)
	addOn := req.NtapAddOn
	if addOn < 0 {
		addOn = 0
	}
	total := basePayment + addOn
	margin := total - req.DeviceCost

	addOnSource := "Not applied"
	if addOn > 0 {
		addOnSource = "New Technology Add-on Payment"
	}

	return &ScenarioResult{
		Code:             detail.Code,
		Description:      detail.Description,
		SiteOfService:    site.Name,
		SiteKey:          site.Key,
		BasePayment:      basePayment,
		AddOnPayment:     addOn,
		TotalPayment:     total,
		DeviceCost:       req.DeviceCost,
		Margin:           margin,
		MarginPercentage: marginPercentage(margin, total),
		Classification:   s.Classify(margin, total),
		Breakdown: Breakdown{
			BasePayment:  BreakdownItem{Label: "Base Payment", Value: basePayment, Source: detail.Code + " @ " + site.Name},
			AddOnPayment: BreakdownItem{Label: "NTAP Add-On", Value: addOn, Source: addOnSource},
			TotalPayment: BreakdownItem{Label: "Total Payment", Value: total, Formula: "Base + Add-On"},
			DeviceCost:   BreakdownItem{Label: "Device Cost", Value: req.DeviceCost, Source: "User provided"},
			Margin:       BreakdownItem{Label: "Margin", Value: margin, Formula: "Total Payment - Device Cost"},
		},
		CodeDetails: CodeDetails{
			Type:        detail.Type,
			Category:    detail.Category,
			AllPayments: detail.Payments,
			APC:         detail.Optional.APC,
		},
	}
}

// CompareAllSites computes the scenario for every canonical site and ranks
// the results by margin, best first. Sites with no payment entry are still
// included with a zero base payment.
func (s *Service) CompareAllSites(code string, deviceCost, ntapAddOn float64) (*Comparison, error) {
	if code == "" {
		return nil, &ValidationError{Errors: []string{"Code is required"}}
	}
	if deviceCost < 0 || ntapAddOn < 0 {
		return nil, &ValidationError{Errors: []string{"Device cost and NTAP add-on must be non-negative numbers"}}
	}

	detail, err := s.resolver.GetCode(code)
	if err != nil {
		return nil, fmt.Errorf("resolve code %s: %w", code, err)
	}

	comparisons := make([]SiteComparison, 0, len(sites))
	for _, site := range sites {
		req := &ScenarioRequest{Code: code, SiteOfService: site.Key, DeviceCost: deviceCost, NtapAddOn: ntapAddOn}
		result := s.calculate(req, detail, site)
		comparisons = append(comparisons, SiteComparison{
			Site:             result.SiteOfService,
			SiteKey:          result.SiteKey,
			BasePayment:      result.BasePayment,
			TotalPayment:     result.TotalPayment,
			Margin:           result.Margin,
			MarginPercentage: result.MarginPercentage,
			Classification:   result.Classification,
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].Margin > comparisons[j].Margin
	})

	cmp := &Comparison{
		Code:        detail.Code,
		Description: detail.Description,
		DeviceCost:  deviceCost,
		NtapAddOn:   ntapAddOn,
		Comparisons: comparisons,
	}
	if len(comparisons) > 0 {
		cmp.BestSite = &comparisons[0]
		cmp.WorstSite = &comparisons[len(comparisons)-1]
	}
	return cmp, nil
}

// GetThresholds describes the classification bands for API consumers.
func (s *Service) GetThresholds() map[Classification]ThresholdInfo {
	return map[Classification]ThresholdInfo{
		Profitable: {
			Condition: fmt.Sprintf("Margin > %g%% of Total Payment", s.thresholds.ProfitableMin*100),
			Color:     "green",
			Label:     "Profitable",
		},
		BreakEven: {
			Condition: fmt.Sprintf("Margin between %g%% and %g%%", s.thresholds.BreakEvenMin*100, s.thresholds.ProfitableMin*100),
			Color:     "yellow",
			Label:     "Break-Even",
		},
		Loss: {
			Condition: fmt.Sprintf("Margin < %g%% of Total Payment", s.thresholds.BreakEvenMin*100),
			Color:     "red",
			Label:     "Loss",
		},
	}
}
