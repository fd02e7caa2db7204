package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/authcore/core/config"
)

func TestPlanID_AtLeast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		plan     config.PlanID
		required config.PlanID
		want     bool
	}{
		{"same tier", config.PlanStarter, config.PlanStarter, true},
		{"higher tier", config.PlanEnterprise, config.PlanFree, true},
		{"lower tier", config.PlanFree, config.PlanGrowth, false},
		{"unknown plan never satisfies", config.PlanID("trial"), config.PlanFree, false},
		{"unknown requirement never satisfied", config.PlanEnterprise, config.PlanID("trial"), false},
		{"empty plan", config.PlanID(""), config.PlanFree, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.plan.AtLeast(tt.required))
		})
	}
}

func TestPlanRegistry(t *testing.T) {
	t.Parallel()

	t.Run("known plans resolve", func(t *testing.T) {
		t.Parallel()

		for _, id := range []config.PlanID{
			config.PlanFree, config.PlanStarter, config.PlanGrowth, config.PlanEnterprise,
		} {
			plan, ok := config.PlanByID(id)
			require.True(t, ok, "plan %q", id)
			assert.Equal(t, id, plan.ID)
			assert.True(t, id.Known())
		}
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		_, ok := config.PlanByID("legacy")
		assert.False(t, ok)
		assert.False(t, config.PlanID("legacy").Known())
	})

	t.Run("plans ordered by tier", func(t *testing.T) {
		t.Parallel()

		all := config.Plans()
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.True(t, all[i].ID.AtLeast(all[i-1].ID),
				"plan %q should rank at least %q", all[i].ID, all[i-1].ID)
		}
	})

	t.Run("feature gating widens with tier", func(t *testing.T) {
		t.Parallel()

		free, _ := config.PlanByID(config.PlanFree)
		growth, _ := config.PlanByID(config.PlanGrowth)
		enterprise, _ := config.PlanByID(config.PlanEnterprise)

		assert.False(t, free.HasFeature(config.FeaturePDFReports))
		assert.True(t, growth.HasFeature(config.FeatureAPIAccess))
		assert.False(t, growth.HasFeature(config.FeatureCustomBranding))
		assert.True(t, enterprise.HasFeature(config.FeatureCustomBranding))
	})
}
