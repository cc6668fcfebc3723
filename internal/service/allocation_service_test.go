package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferTaskSkills(t *testing.T) {
	t.Parallel()

	t.Run("finds skills mentioned in title and description", func(t *testing.T) {
		reqs := inferTaskSkills("Fix the Python API", "The django endpoint returns 500s.")

		require.Equal(t, []skillRequirement{
			{Name: "Python", Level: 2},
			{Name: "API", Level: 2},
		}, reqs)
	})

	t.Run("repeated mentions raise the required level", func(t *testing.T) {
		reqs := inferTaskSkills("Add unit test coverage", "integration testing for the checkout flow")

		require.Len(t, reqs, 1)
		require.Equal(t, "Testing", reqs[0].Name)
		// test, testing, unit test, integration
		require.Equal(t, 4, reqs[0].Level)
	})

	t.Run("plain text infers nothing", func(t *testing.T) {
		reqs := inferTaskSkills("Update onboarding doc", "Rewrite the welcome page copy.")

		require.Empty(t, reqs)
	})
}

func TestSkillMatchScore(t *testing.T) {
	t.Parallel()

	t.Run("defaults to half when the task infers no requirements", func(t *testing.T) {
		require.InDelta(t, 0.5, skillMatchScore(nil, nil), 1e-9)
	})

	t.Run("meeting a requirement scores full", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Python", Level: 2}}
		levels := map[string]float64{"python": 3}

		require.InDelta(t, 1.0, skillMatchScore(reqs, levels), 1e-9)
	})

	t.Run("partial skill scores proportionally weighted by demand", func(t *testing.T) {
		reqs := []skillRequirement{
			{Name: "Python", Level: 4},
			{Name: "SQL", Level: 1},
		}
		levels := map[string]float64{"python": 2, "sql": 1}

		// (0.5*4 + 1.0*1) / 5
		require.InDelta(t, 0.6, skillMatchScore(reqs, levels), 1e-9)
	})

	t.Run("missing skill contributes nothing", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Go", Level: 2}}

		require.InDelta(t, 0.0, skillMatchScore(reqs, map[string]float64{}), 1e-9)
	})
}

func TestGrowthScore(t *testing.T) {
	t.Parallel()

	t.Run("defaults to half when the task infers no requirements", func(t *testing.T) {
		require.InDelta(t, 0.5, growthScore(nil, nil), 1e-9)
	})

	t.Run("a brand new skill is the biggest growth opportunity", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Docker", Level: 3}}

		require.InDelta(t, 0.8, growthScore(reqs, map[string]float64{}), 1e-9)
	})

	t.Run("a gap below the requirement scores by half the gap", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Python", Level: 3}}
		levels := map[string]float64{"python": 2}

		require.InDelta(t, 0.5, growthScore(reqs, levels), 1e-9)
	})

	t.Run("large gaps are capped", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Python", Level: 5}}
		levels := map[string]float64{"python": 1}

		require.InDelta(t, 0.6, growthScore(reqs, levels), 1e-9)
	})

	t.Run("already qualified means little growth", func(t *testing.T) {
		reqs := []skillRequirement{{Name: "Python", Level: 2}}
		levels := map[string]float64{"python": 4}

		require.InDelta(t, 0.1, growthScore(reqs, levels), 1e-9)
	})
}

func TestWorkloadScore(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, workloadScore(0, 5), 1e-9)
	require.InDelta(t, 0.6, workloadScore(2, 5), 1e-9)
	require.InDelta(t, 0.0, workloadScore(5, 5), 1e-9)
	// over capacity never goes negative
	require.InDelta(t, 0.0, workloadScore(7, 5), 1e-9)
}

func TestCollaborationScore(t *testing.T) {
	t.Parallel()

	t.Run("neutral when the project has no other members", func(t *testing.T) {
		require.InDelta(t, 0.5, collaborationScore(0, false), 1e-9)
	})

	t.Run("scales with shared collaborators and caps at one", func(t *testing.T) {
		require.InDelta(t, 0.0, collaborationScore(0, true), 1e-9)
		require.InDelta(t, 2.0/3.0, collaborationScore(2, true), 1e-9)
		require.InDelta(t, 1.0, collaborationScore(5, true), 1e-9)
	})
}

func TestOverallScore(t *testing.T) {
	t.Parallel()

	// 0.4*1 + 0.2*1 + 0.2*0.5 + 0.1*0.5 + 0.1*1
	require.InDelta(t, 0.85, overallScore(1, 1, 0.5, 0.5, 1), 1e-9)
	require.InDelta(t, 1.0, overallScore(1, 1, 1, 1, 1), 1e-9)
	require.InDelta(t, 0.0, overallScore(0, 0, 0, 0, 0), 1e-9)
}

func TestBuildReason(t *testing.T) {
	t.Parallel()

	t.Run("strong candidate", func(t *testing.T) {
		reason := buildReason("ana", 0.9, 0.8, 0.7)

		require.Equal(t, "ana: Strong skill match, low current workload, excellent growth opportunity", reason)
	})

	t.Run("middling candidate", func(t *testing.T) {
		reason := buildReason("raj", 0.7, 0.5, 0.4)

		require.Equal(t, "raj: Good skill match, moderate workload, some growth potential", reason)
	})

	t.Run("stretch assignment with a full plate", func(t *testing.T) {
		reason := buildReason("kim", 0.2, 0.1, 0.2)

		require.Equal(t, "kim: Skill development opportunity, high workload", reason)
	})
}
