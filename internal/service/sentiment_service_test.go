package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeText(t *testing.T) {
	t.Parallel()

	t.Run("neutral text stays at the baseline", func(t *testing.T) {
		result := AnalyzeText("Deployed the staging build this morning.")

		require.InDelta(t, 0.5, result.Score, 1e-9)
		require.Equal(t, "neutral", result.Tone)
		require.Equal(t, "low", result.Urgency)
		require.Zero(t, result.BlockerHits)
	})

	t.Run("positive keywords raise the score", func(t *testing.T) {
		result := AnalyzeText("Great news, the migration is complete and everything looks good!")

		// three positive hits: great, complete, good
		require.InDelta(t, 0.8, result.Score, 1e-9)
		require.Equal(t, "positive", result.Tone)
		require.Equal(t, "low", result.Urgency)
	})

	t.Run("negative keywords lower the score", func(t *testing.T) {
		result := AnalyzeText("I'm frustrated and worried, we are behind schedule.")

		// three negative hits: frustrated, worried, behind
		require.InDelta(t, 0.2, result.Score, 1e-9)
		require.Equal(t, "negative", result.Tone)
	})

	t.Run("equal positive and negative hits cancel out", func(t *testing.T) {
		result := AnalyzeText("The demo went great but I'm worried about the deadline.")

		require.InDelta(t, 0.5, result.Score, 1e-9)
		require.Equal(t, "neutral", result.Tone)
	})

	t.Run("blocker keywords subtract and drive urgency", func(t *testing.T) {
		result := AnalyzeText("I'm blocked on the API issue and stuck waiting for help.")

		require.Equal(t, 4, result.BlockerHits)
		// 0.5 - min(0.2, 4*0.05)
		require.InDelta(t, 0.3, result.Score, 1e-9)
		require.Equal(t, "negative", result.Tone)
		require.Equal(t, "high", result.Urgency)
	})

	t.Run("one blocker hit means medium urgency", func(t *testing.T) {
		result := AnalyzeText("Small problem with the linter config.")

		require.Equal(t, 1, result.BlockerHits)
		require.Equal(t, "medium", result.Urgency)
		require.InDelta(t, 0.45, result.Score, 1e-9)
	})

	t.Run("positive adjustment is capped at 0.4", func(t *testing.T) {
		result := AnalyzeText("great awesome excellent good happy thanks love amazing perfect")

		require.InDelta(t, 0.9, result.Score, 1e-9)
	})

	t.Run("score never drops below zero", func(t *testing.T) {
		result := AnalyzeText("frustrated angry disappointed sad worried blocked stuck unable failed broken")

		require.InDelta(t, 0.0, result.Score, 1e-9)
		require.Equal(t, "negative", result.Tone)
		require.Equal(t, "high", result.Urgency)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		result := AnalyzeText("BLOCKED ON REVIEW")

		require.Equal(t, 1, result.BlockerHits)
	})

	t.Run("matched keywords are reported sorted", func(t *testing.T) {
		result := AnalyzeText("stuck and blocked")

		require.Equal(t, []string{"blocked", "stuck"}, result.Keywords)
	})
}

func TestRiskScore(t *testing.T) {
	t.Parallel()

	t.Run("healthy window scores low", func(t *testing.T) {
		require.InDelta(t, 0.14, riskScore(0.8, 0, 10), 1e-9)
	})

	t.Run("low sentiment with frequent blockers crosses the alert threshold", func(t *testing.T) {
		// (1-0.3)*0.7 + (5/10)*0.3 = 0.64
		risk := riskScore(0.3, 5, 10)
		require.InDelta(t, 0.64, risk, 1e-9)
		require.GreaterOrEqual(t, risk, alertRiskThreshold)
	})

	t.Run("empty window does not divide by zero", func(t *testing.T) {
		require.InDelta(t, 0.35, riskScore(0.5, 0, 0), 1e-9)
	})
}

func TestToneForScore(t *testing.T) {
	t.Parallel()

	require.Equal(t, "positive", toneForScore(0.61))
	require.Equal(t, "neutral", toneForScore(0.6))
	require.Equal(t, "neutral", toneForScore(0.4))
	require.Equal(t, "negative", toneForScore(0.39))
}
