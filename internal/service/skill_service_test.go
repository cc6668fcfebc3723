package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"teamiq/internal/model"
)

func TestBlendProficiency(t *testing.T) {
	t.Parallel()

	t.Run("no evidence means zero proficiency", func(t *testing.T) {
		require.InDelta(t, 0.0, blendProficiency(model.ActivityStats{}), 1e-9)
	})

	t.Run("saturating every component yields the maximum", func(t *testing.T) {
		stats := model.ActivityStats{
			Commits:        20,
			LinesChanged:   1000,
			Reviews:        20,
			TasksCompleted: 20,
			Collaborations: 10,
		}

		require.InDelta(t, 10.0, blendProficiency(stats), 1e-9)
	})

	t.Run("commit volume alone is worth at most three points", func(t *testing.T) {
		require.InDelta(t, 3.0, blendProficiency(model.ActivityStats{Commits: 500}), 1e-9)
	})

	t.Run("components blend by weight", func(t *testing.T) {
		// Each counter sits at half its cap.
		stats := model.ActivityStats{
			Commits:      10,
			LinesChanged: 500,
			Reviews:      10,
		}

		// 10 * (0.3*0.5 + 0.2*0.5 + 0.2*0.5)
		require.InDelta(t, 3.5, blendProficiency(stats), 1e-9)
	})

	t.Run("evidence beyond the caps does not inflate the score", func(t *testing.T) {
		modest := model.ActivityStats{LinesChanged: 1000}
		prolific := model.ActivityStats{LinesChanged: 50000}

		require.InDelta(t, blendProficiency(modest), blendProficiency(prolific), 1e-9)
	})
}
