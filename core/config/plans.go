package config

// PlanID identifies a subscription plan. Plan values arrive from the remote
// API inside the cached user profile; unknown values rank below every known
// plan rather than failing.
type PlanID string

const (
	PlanFree       PlanID = "free"
	PlanStarter    PlanID = "starter"
	PlanGrowth     PlanID = "growth"
	PlanEnterprise PlanID = "enterprise"
)

// Feature is a plan-gated capability flag.
type Feature string

const (
	FeaturePDFReports      Feature = "pdf_reports"
	FeatureCustomQuestions Feature = "custom_questions"
	FeatureBulkInvites     Feature = "bulk_invites"
	FeatureAPIAccess       Feature = "api_access"
	FeatureCustomBranding  Feature = "custom_branding"
	FeatureATSIntegration  Feature = "ats_integration"
)

// Plan describes a subscription tier and the limits the UI enforces locally.
// Authoritative enforcement happens server-side; these values drive gating
// and upgrade prompts only.
type Plan struct {
	ID             PlanID
	Name           string
	MaxAssessments int // -1 means unlimited
	MaxCandidates  int // -1 means unlimited
	Features       []Feature
}

// planRanks orders plans for sufficiency checks. Unknown plans rank below free.
var planRanks = map[PlanID]int{
	PlanFree:       0,
	PlanStarter:    1,
	PlanGrowth:     2,
	PlanEnterprise: 3,
}

var plans = map[PlanID]Plan{
	PlanFree: {
		ID:             PlanFree,
		Name:           "Free",
		MaxAssessments: 3,
		MaxCandidates:  25,
	},
	PlanStarter: {
		ID:             PlanStarter,
		Name:           "Starter",
		MaxAssessments: 10,
		MaxCandidates:  250,
		Features:       []Feature{FeaturePDFReports, FeatureCustomQuestions},
	},
	PlanGrowth: {
		ID:             PlanGrowth,
		Name:           "Growth",
		MaxAssessments: 50,
		MaxCandidates:  2500,
		Features: []Feature{
			FeaturePDFReports, FeatureCustomQuestions,
			FeatureBulkInvites, FeatureAPIAccess,
		},
	},
	PlanEnterprise: {
		ID:             PlanEnterprise,
		Name:           "Enterprise",
		MaxAssessments: -1,
		MaxCandidates:  -1,
		Features: []Feature{
			FeaturePDFReports, FeatureCustomQuestions,
			FeatureBulkInvites, FeatureAPIAccess,
			FeatureCustomBranding, FeatureATSIntegration,
		},
	},
}

// Known reports whether the plan ID is a recognized tier.
func (p PlanID) Known() bool {
	_, ok := planRanks[p]
	return ok
}

// AtLeast reports whether plan p ranks at or above the required plan.
// Unknown plans never satisfy a requirement; an unknown requirement is
// satisfied by nothing.
func (p PlanID) AtLeast(required PlanID) bool {
	pr, ok := planRanks[p]
	if !ok {
		return false
	}
	rr, ok := planRanks[required]
	if !ok {
		return false
	}
	return pr >= rr
}

// PlanByID returns the plan definition for the given ID.
func PlanByID(id PlanID) (Plan, bool) {
	p, ok := plans[id]
	return p, ok
}

// Plans returns all known plans ordered from lowest to highest tier.
func Plans() []Plan {
	ordered := []PlanID{PlanFree, PlanStarter, PlanGrowth, PlanEnterprise}
	out := make([]Plan, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, plans[id])
	}
	return out
}

// HasFeature reports whether the plan includes the given feature flag.
func (p Plan) HasFeature(f Feature) bool {
	for _, have := range p.Features {
		if have == f {
			return true
		}
	}
	return false
}
