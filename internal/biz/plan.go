package biz

import (
	"sort"
	"strings"

	"clinicflow/subscription-service/internal/errors"

	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanFree         PlanID = "free"
	PlanEssential    PlanID = "essential"
	PlanProfessional PlanID = "professional"
	PlanAdvanced     PlanID = "advanced"
	PlanPremium      PlanID = "premium"
)

// Feature is a gated capability key.
type Feature string

const (
	FeatureFiles              Feature = "files"
	FeatureReports            Feature = "reports"
	FeatureWhatsAppView       Feature = "whatsapp_view"
	FeatureWhatsAppScheduling Feature = "whatsapp_scheduling"
	FeatureAIAssistant        Feature = "ai_assistant"
	FeaturePrioritySupport    Feature = "priority_support"
)

// AllFeatures is the closed feature set in display order.
var AllFeatures = []Feature{
	FeatureFiles,
	FeatureReports,
	FeatureWhatsAppView,
	FeatureWhatsAppScheduling,
	FeatureAIAssistant,
	FeaturePrioritySupport,
}

// PatientLimit is a positive patient cap or UnlimitedPatients.
type PatientLimit int

// UnlimitedPatients marks a plan without a patient cap.
const UnlimitedPatients PatientLimit = -1

func (l PatientLimit) IsUnlimited() bool { return l == UnlimitedPatients }

// Plan is a catalog entry. Plans are immutable; callers receive copies.
type Plan struct {
	ID           PlanID
	Name         string
	Tier         int
	MonthlyPrice decimal.Decimal
	Currency     string
	PatientLimit PatientLimit
	Features     map[Feature]bool
}

// IsPaid reports whether the plan is billed. Only paid plans can be trialed.
func (p Plan) IsPaid() bool { return p.ID != PlanFree }

// HasFeature reports whether the plan unlocks the feature.
func (p Plan) HasFeature(f Feature) bool { return p.Features[f] }

func (p Plan) clone() Plan {
	features := make(map[Feature]bool, len(p.Features))
	for k, v := range p.Features {
		features[k] = v
	}
	p.Features = features
	return p
}

// Catalog is the read-only plan table. Changing prices or feature sets is a redeploy.
type Catalog struct {
	plans map[PlanID]Plan
}

// NewCatalog builds a catalog from plan definitions. Every plan must declare
// every feature so lookups never fall back to an implicit default.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[PlanID]Plan, len(plans))}
	for _, p := range plans {
		if _, dup := c.plans[p.ID]; dup {
			return nil, errors.InvalidArgument("duplicate plan %q in catalog", p.ID)
		}
		if p.PatientLimit == 0 || p.PatientLimit < UnlimitedPatients {
			return nil, errors.InvalidArgument("plan %q has invalid patient limit %d", p.ID, p.PatientLimit)
		}
		if p.MonthlyPrice.IsNegative() {
			return nil, errors.InvalidArgument("plan %q has negative price", p.ID)
		}
		for _, f := range AllFeatures {
			if _, ok := p.Features[f]; !ok {
				return nil, errors.InvalidArgument("plan %q does not declare feature %q", p.ID, f)
			}
		}
		c.plans[p.ID] = p.clone()
	}
	if _, ok := c.plans[PlanFree]; !ok {
		return nil, errors.InvalidArgument("catalog must contain the %q plan", PlanFree)
	}
	return c, nil
}

// GetPlan returns the plan for id or an UnknownPlan error.
func (c *Catalog) GetPlan(id PlanID) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, errors.UnknownPlan("unknown plan %q", id)
	}
	return p.clone(), nil
}

// ListPlans returns all plans ordered by tier.
func (c *Catalog) ListPlans() []Plan {
	plans := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		plans = append(plans, p.clone())
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Tier < plans[j].Tier })
	return plans
}

// CheapestPlanWith returns the lowest tier plan that unlocks f.
func (c *Catalog) CheapestPlanWith(f Feature) (Plan, bool) {
	for _, p := range c.ListPlans() {
		if p.HasFeature(f) {
			return p, true
		}
	}
	return Plan{}, false
}

// ParsePlanID normalizes and validates a plan id coming from outside the process.
func (c *Catalog) ParsePlanID(raw string) (PlanID, error) {
	id := PlanID(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := c.plans[id]; !ok {
		return "", errors.UnknownPlan("unknown plan %q", raw)
	}
	return id, nil
}

// ParseFeature validates a feature key against the closed feature set.
func ParseFeature(raw string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllFeatures {
		if f == known {
			return f, nil
		}
	}
	return "", errors.UnknownFeature("unknown feature %q", raw)
}

func features(files, reports, waView, waScheduling, ai, support bool) map[Feature]bool {
	return map[Feature]bool{
		FeatureFiles:              files,
		FeatureReports:            reports,
		FeatureWhatsAppView:       waView,
		FeatureWhatsAppScheduling: waScheduling,
		FeatureAIAssistant:        ai,
		FeaturePrioritySupport:    support,
	}
}

// DefaultPlans is the product plan table.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:           PlanFree,
			Name:         "Free",
			Tier:         0,
			MonthlyPrice: decimal.Zero,
			Currency:     "BRL",
			PatientLimit: 5,
			Features:     features(false, false, false, false, false, false),
		},
		{
			ID:           PlanEssential,
			Name:         "Essential",
			Tier:         1,
			MonthlyPrice: decimal.RequireFromString("49.90"),
			Currency:     "BRL",
			PatientLimit: 50,
			Features:     features(true, true, false, false, false, false),
		},
		{
			ID:           PlanProfessional,
			Name:         "Professional",
			Tier:         2,
			MonthlyPrice: decimal.RequireFromString("99.90"),
			Currency:     "BRL",
			PatientLimit: 200,
			Features:     features(true, true, true, false, false, false),
		},
		{
			ID:           PlanAdvanced,
			Name:         "Advanced",
			Tier:         3,
			MonthlyPrice: decimal.RequireFromString("149.90"),
			Currency:     "BRL",
			PatientLimit: 500,
			Features:     features(true, true, true, true, true, false),
		},
		{
			ID:           PlanPremium,
			Name:         "Premium",
			Tier:         4,
			MonthlyPrice: decimal.RequireFromString("249.90"),
			Currency:     "BRL",
			PatientLimit: UnlimitedPatients,
			Features:     features(true, true, true, true, true, true),
		},
	}
}

// DefaultCatalog returns the catalog built from DefaultPlans.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPlans()...)
	if err != nil {
		panic(err)
	}
	return c
}
