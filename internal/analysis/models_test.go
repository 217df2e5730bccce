// ABOUTME: Tests for model coercion and deterministic fallbacks
// ABOUTME: Covers default filling, malformed entries, and budget scaling

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alvee0033/bizpilot/internal/wizard"
)

func TestCoerceModelsFillsDefaults(t *testing.T) {
	doc := map[string]any{
		"models": []any{
			map[string]any{
				"id": "abc", "name": "Lean", "risk": "Low", "horizon": "12m",
				"revenue6m": float64(5000), "cac": float64(12), "margin": 0.3,
				"why": "cheap", "suitableFor": "students",
			},
			map[string]any{"name": "Balanced"},
			"not an object",
		},
	}
	models := CoerceModels(doc, "idea1", "6m")
	require.Len(t, models, 3)

	assert.Equal(t, "abc", models[0].ID)
	assert.Equal(t, 5000, models[0].Revenue6m)
	assert.Equal(t, 12, models[0].CAC)
	assert.Equal(t, 0.3, models[0].Margin)
	assert.Equal(t, "12m", models[0].Horizon)

	assert.Equal(t, "idea1:m1", models[1].ID)
	assert.Equal(t, "Balanced", models[1].Name)
	assert.Equal(t, "Medium", models[1].Risk)
	assert.Equal(t, "6m", models[1].Horizon)
	assert.Equal(t, 0, models[1].Revenue6m)
	assert.Equal(t, 0.25, models[1].Margin)

	assert.Equal(t, "idea1:m2", models[2].ID)
	assert.Equal(t, "Model", models[2].Name)
}

func TestCoerceModelsEmptyHorizonDefaults(t *testing.T) {
	doc := map[string]any{"models": []any{map[string]any{}}}
	models := CoerceModels(doc, "x", "")
	require.Len(t, models, 1)
	assert.Equal(t, "6m", models[0].Horizon)
}

func TestCoerceModelsNoArray(t *testing.T) {
	assert.Empty(t, CoerceModels(map[string]any{"models": "nope"}, "x", "6m"))
	assert.Empty(t, CoerceModels(map[string]any{}, "x", "6m"))
}

func TestFallbackModelsDeterministic(t *testing.T) {
	draft := wizard.Default()
	draft.Budget = 10000

	models := FallbackModels("idea1", draft)
	require.Len(t, models, 3)

	assert.Equal(t, "idea1:lean", models[0].ID)
	assert.Equal(t, 6000, models[0].Revenue6m)
	assert.Equal(t, 10, models[0].CAC)
	assert.Equal(t, 0.22, models[0].Margin)

	assert.Equal(t, "idea1:balanced", models[1].ID)
	assert.Equal(t, 8500, models[1].Revenue6m)
	assert.Equal(t, 9, models[1].CAC)
	assert.Equal(t, 0.28, models[1].Margin)

	assert.Equal(t, "idea1:aggressive", models[2].ID)
	assert.Equal(t, 11000, models[2].Revenue6m)
	assert.Equal(t, 8, models[2].CAC)
	assert.Equal(t, 0.32, models[2].Margin)
}

func TestFallbackModelsZeroBudgetUsesDefault(t *testing.T) {
	draft := wizard.Draft{}
	models := FallbackModels("x", draft)
	require.Len(t, models, 3)
	assert.Equal(t, 6000, models[0].Revenue6m)
	assert.Equal(t, "6m", models[0].Horizon)
}

func TestFallbackResultMeta(t *testing.T) {
	res := fallbackResult("x", wizard.Default(), errTimeout)
	assert.Equal(t, "Balanced", res.Meta.Recommended)
	assert.Equal(t, "AI service unavailable. Showing fallback.", res.Meta.Notes)
	assert.Equal(t, "timeout", res.Err)
	assert.Contains(t, res.Raw, "models")
}
