package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamiq/internal/model"
)

func trendSeries(scores ...float64) []model.TrendBucket {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	buckets := make([]model.TrendBucket, 0, len(scores))
	for i, score := range scores {
		buckets = append(buckets, model.TrendBucket{
			Day:          base.AddDate(0, 0, i),
			AverageScore: score,
			MessageCount: 3,
		})
	}
	return buckets
}

func TestTrendLabel(t *testing.T) {
	t.Parallel()

	t.Run("too few buckets reads as stable", func(t *testing.T) {
		require.Equal(t, "stable", trendLabel(nil))
		require.Equal(t, "stable", trendLabel(trendSeries(0.2, 0.9)))
	})

	t.Run("rising series is improving", func(t *testing.T) {
		require.Equal(t, "improving", trendLabel(trendSeries(0.3, 0.5, 0.7)))
	})

	t.Run("falling series is declining", func(t *testing.T) {
		require.Equal(t, "declining", trendLabel(trendSeries(0.8, 0.5, 0.3)))
	})

	t.Run("small movement stays stable", func(t *testing.T) {
		require.Equal(t, "stable", trendLabel(trendSeries(0.5, 0.52, 0.55)))
	})
}

func TestTopBlockerTerms(t *testing.T) {
	t.Parallel()

	t.Run("counts each keyword once per message and ranks by frequency", func(t *testing.T) {
		contents := []string{
			"blocked blocked blocked on the deploy",
			"still blocked, this is a problem",
			"problem with the staging cluster",
		}

		terms := topBlockerTerms(contents, 3)

		require.Equal(t, []termCount{
			{Term: "blocked", Count: 2},
			{Term: "problem", Count: 2},
		}, terms)
	})

	t.Run("ties break alphabetically and the list is capped", func(t *testing.T) {
		contents := []string{"stuck", "blocked", "issue"}

		terms := topBlockerTerms(contents, 2)

		require.Equal(t, []termCount{
			{Term: "blocked", Count: 1},
			{Term: "issue", Count: 1},
		}, terms)
	})

	t.Run("no blocker language yields nothing", func(t *testing.T) {
		require.Empty(t, topBlockerTerms([]string{"all good here"}, 3))
	})
}

func TestComposeRetro(t *testing.T) {
	t.Parallel()

	t.Run("a healthy period celebrates shipped work", func(t *testing.T) {
		highlights, lowlights, actions := composeRetro(retroInputs{
			DoneCount:    7,
			DoneTitles:   []string{"Ship login page", "Fix flaky CI"},
			AvgSentiment: 0.7,
			Trend:        "improving",
		})

		require.Equal(t, []string{
			"Shipped: Ship login page",
			"Shipped: Fix flaky CI",
			"...and 5 more tasks completed",
			"Team sentiment improved over the period",
		}, highlights)
		require.Empty(t, lowlights)
		require.Equal(t, []string{"Keep the current cadence"}, actions)
	})

	t.Run("a rough period surfaces blockers and low mood", func(t *testing.T) {
		highlights, lowlights, actions := composeRetro(retroInputs{
			BlockedCount:  2,
			BlockedTitles: []string{"Migrate billing"},
			AvgSentiment:  0.32,
			Trend:         "declining",
			TopBlockers:   []termCount{{Term: "stuck", Count: 4}},
		})

		require.Equal(t, []string{"No completed tasks this period"}, highlights)
		require.Equal(t, []string{
			"Blocked: Migrate billing",
			"Team sentiment declined over the period",
			"Average sentiment was low (0.32)",
		}, lowlights)
		require.Equal(t, []string{
			`Address recurring blocker theme "stuck" (4 mentions)`,
			"Clear 2 blocked tasks",
		}, actions)
	})
}
