// ABOUTME: Model variant coercion, deterministic fallbacks, and comparison
// ABOUTME: Turns untrusted API output into well-formed variants and ranks them

package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/Alvee0033/bizpilot/internal/state"
	"github.com/Alvee0033/bizpilot/internal/wizard"
)

// Result is one completed analysis, successful or fallback. Err carries the
// failure reason when the fallback path produced the models.
type Result struct {
	Models []state.ModelVariant
	Meta   state.AnalysisMeta
	Raw    map[string]any
	Err    string
}

// Ranked is one entry of a model comparison ranking.
type Ranked struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Pros  string  `json:"pros"`
	Cons  string  `json:"cons"`
}

// Comparison is the outcome of ranking model variants against each other.
type Comparison struct {
	BestName   string
	BestReason string
	Ranking    []Ranked
	Raw        map[string]any
}

// CoerceModels extracts the models array from an untrusted API document and
// fills every missing or mistyped field with a safe default. Entries that
// are not objects become all-default variants.
func CoerceModels(doc map[string]any, ideaID, horizon string) []state.ModelVariant {
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	raw, _ := doc["models"].([]any)
	models := make([]state.ModelVariant, 0, len(raw))
	for idx, entry := range raw {
		m, _ := entry.(map[string]any)
		models = append(models, state.ModelVariant{
			ID:          stringOr(m["id"], fmt.Sprintf("%s:m%d", ideaID, idx)),
			Name:        stringOr(m["name"], "Model"),
			Risk:        stringOr(m["risk"], "Medium"),
			Horizon:     stringOr(m["horizon"], horizon),
			Revenue6m:   int(math.Round(numberOr(m["revenue6m"], 0))),
			CAC:         int(math.Round(numberOr(m["cac"], 0))),
			Margin:      numberOr(m["margin"], 0.25),
			Why:         stringOr(m["why"], ""),
			SuitableFor: stringOr(m["suitableFor"], ""),
		})
	}
	return models
}

// FallbackModels produces the three deterministic variants used when the
// content API is unavailable. Numbers scale off the draft budget.
func FallbackModels(ideaID string, draft wizard.Draft) []state.ModelVariant {
	base := draft.Budget
	if base <= 0 {
		base = wizard.DefaultBudget
	}
	horizon := draft.Preferences.Horizon
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	return []state.ModelVariant{
		{
			ID: ideaID + ":lean", Name: "Lean", Risk: "Low", Horizon: horizon,
			Revenue6m: int(math.Round(base * 0.6)), CAC: 10, Margin: 0.22,
			Why: "Fallback lean plan", SuitableFor: "Conservative budgets",
		},
		{
			ID: ideaID + ":balanced", Name: "Balanced", Risk: "Medium", Horizon: horizon,
			Revenue6m: int(math.Round(base * 0.85)), CAC: 9, Margin: 0.28,
			Why: "Fallback balanced plan", SuitableFor: "Moderate budgets",
		},
		{
			ID: ideaID + ":aggressive", Name: "Aggressive", Risk: "High", Horizon: horizon,
			Revenue6m: int(math.Round(base * 1.1)), CAC: 8, Margin: 0.32,
			Why: "Fallback aggressive plan", SuitableFor: "Growth-first",
		},
	}
}

func fallbackResult(ideaID string, draft wizard.Draft, cause error) Result {
	models := FallbackModels(ideaID, draft)
	meta := state.AnalysisMeta{
		Recommended: "Balanced",
		Notes:       "AI service unavailable. Showing fallback.",
	}
	res := Result{
		Models: models,
		Meta:   meta,
		Raw: map[string]any{
			"models":      modelsAsDocs(models),
			"recommended": meta.Recommended,
			"notes":       meta.Notes,
		},
	}
	if cause != nil {
		res.Err = cause.Error()
	}
	return res
}

// Analyze performs one synchronous analysis call. A failed or malformed API
// response never surfaces as an error; it degrades to the deterministic
// fallback variants with the cause recorded on the result.
func Analyze(ctx context.Context, gen Generator, req Request) Result {
	parts := append([]Part{{Text: analysisPrompt(req)}}, attachmentParts(req.Draft)...)
	doc, err := gen.GenerateJSON(ctx, parts)
	if err != nil {
		return fallbackResult(req.IdeaID, req.Draft, err)
	}
	return Result{
		Models: CoerceModels(doc, req.IdeaID, req.Draft.Preferences.Horizon),
		Meta: state.AnalysisMeta{
			Recommended: stringOr(doc["recommended"], ""),
			Notes:       stringOr(doc["notes"], ""),
		},
		Raw: doc,
	}
}

// Compare asks the content API to rank the given variants. On failure it
// falls back to a deterministic ranking that scores variants by position.
func Compare(ctx context.Context, gen Generator, ideaName string, models []state.ModelVariant, draft wizard.Draft, gps *state.GPS) Comparison {
	prompt := comparisonPrompt(ideaName, models, draft, gps)
	doc, err := gen.GenerateJSON(ctx, []Part{{Text: prompt}})
	if err != nil {
		ranking := positionRanking(models, "Fallback")
		best := "Model"
		if len(ranking) > 0 {
			best = ranking[0].Name
		}
		return Comparison{
			BestName:   best,
			BestReason: "AI unavailable (fallback).",
			Ranking:    ranking,
			Raw: map[string]any{
				"best":    map[string]any{"name": best, "reason": "fallback"},
				"ranking": ranking,
			},
		}
	}

	cmp := Comparison{Raw: doc}
	if best, ok := doc["best"].(map[string]any); ok {
		cmp.BestName = stringOr(best["name"], "")
		cmp.BestReason = stringOr(best["reason"], "")
	}
	if cmp.BestName == "" && len(models) > 0 {
		cmp.BestName = models[0].Name
	}
	if raw, ok := doc["ranking"].([]any); ok {
		for _, entry := range raw {
			r, _ := entry.(map[string]any)
			cmp.Ranking = append(cmp.Ranking, Ranked{
				Name:  stringOr(r["name"], ""),
				Score: numberOr(r["score"], 0),
				Pros:  stringOr(r["pros"], ""),
				Cons:  stringOr(r["cons"], ""),
			})
		}
	} else {
		cmp.Ranking = positionRanking(models, "")
	}
	return cmp
}

func positionRanking(models []state.ModelVariant, pros string) []Ranked {
	ranking := make([]Ranked, 0, len(models))
	for i, m := range models {
		ranking = append(ranking, Ranked{Name: m.Name, Score: float64(50 - i*10), Pros: pros})
	}
	return ranking
}

func modelsAsDocs(models []state.ModelVariant) []any {
	docs := make([]any, 0, len(models))
	for _, m := range models {
		docs = append(docs, state.Doc(m))
	}
	return docs
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// numberOr mirrors loose numeric coercion: any JSON number counts, zero and
// non-numbers fall back.
func numberOr(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		if n != 0 {
			return n
		}
	case int:
		if n != 0 {
			return float64(n)
		}
	case int64:
		if n != 0 {
			return float64(n)
		}
	}
	return fallback
}
