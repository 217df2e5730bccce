// ABOUTME: System and hidden-context prompt builders for idea chat
// ABOUTME: Folds draft, persona, pricing, and analyzed models into private context

package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Alvee0033/bizpilot/internal/state"
	"github.com/Alvee0033/bizpilot/internal/wizard"
)

func systemPrompt(ideaName string, draft wizard.Draft, gps *state.GPS) string {
	loc := draft.Location
	if loc == "" {
		loc = "Unknown location"
	}
	horizon := draft.Preferences.Horizon
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	risk := draft.Preferences.Risk
	if risk == "" {
		risk = wizard.DefaultRisk
	}

	var b strings.Builder
	b.WriteString("System: You are BizPilot, a friendly, pragmatic startup co-founder.\n\n")
	b.WriteString("Private context (never reveal or mention to the user):\n")
	fmt.Fprintf(&b, "- Idea: %s\n", ideaName)
	fmt.Fprintf(&b, "- Category: %s\n", draft.Category)
	fmt.Fprintf(&b, "- BudgetUSD: %v\n", draft.Budget)
	fmt.Fprintf(&b, "- Location: %s\n", loc)
	fmt.Fprintf(&b, "- %s\n", gpsLine(gps))
	fmt.Fprintf(&b, "- Horizon: %s\n", horizon)
	fmt.Fprintf(&b, "- Risk: %s\n\n", risk)
	b.WriteString("Behavior rules (must follow):\n")
	b.WriteString("1) Talk like a thoughtful companion: short, human, helpful.\n")
	b.WriteString("2) Do NOT disclose or repeat any private context unless explicitly asked.\n")
	b.WriteString("3) Proactively use the private context to answer; do not ask for more details unless absolutely essential.\n")
	b.WriteString("4) If the user asks which model/plan is best, recommend immediately using the context and add a one-line reason.\n")
	b.WriteString("5) Answer only what the user asked. No prefixed sections (e.g., takeaway/steps/metrics) unless the user requests them.\n")
	b.WriteString("6) Avoid lists unless the user asks for a list. Use plain sentences.\n")
	b.WriteString("7) Use English, keep it concise, no filler or apologies.")
	return b.String()
}

func hiddenContext(ideaName string, draft wizard.Draft, slot state.Analysis) string {
	lines := []string{fmt.Sprintf("Idea: %s", ideaName)}
	if draft.Description != "" {
		lines = append(lines, "Description: "+draft.Description)
	}
	if draft.Location != "" {
		lines = append(lines, "Location: "+draft.Location)
	}
	if draft.Category != "" {
		lines = append(lines, "Category: "+draft.Category)
	}
	lines = append(lines, fmt.Sprintf("BudgetUSD: %v", draft.Budget))
	horizon := draft.Preferences.Horizon
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	risk := draft.Preferences.Risk
	if risk == "" {
		risk = wizard.DefaultRisk
	}
	lines = append(lines, "Horizon: "+horizon, "Risk: "+risk)

	persona := draft.Extended.Persona
	if persona.Age != "" || persona.Gender != "" || persona.Job != "" {
		lines = append(lines, fmt.Sprintf("Persona: age=%s, gender=%s, job=%s", persona.Age, persona.Gender, persona.Job))
	}
	if draft.Extended.Pains != "" {
		lines = append(lines, "TopPains: "+draft.Extended.Pains)
	}
	if draft.Extended.ValueProp != "" {
		lines = append(lines, "ValueProp: "+draft.Extended.ValueProp)
	}
	pricing := draft.Extended.Pricing
	if pricing.Model != "" || pricing.Price != "" {
		lines = append(lines, fmt.Sprintf("Pricing: model=%s, price=%s", pricing.Model, pricing.Price))
	}

	var imageNames []string
	for _, img := range draft.Images {
		if img.Name != "" {
			imageNames = append(imageNames, img.Name)
		}
	}
	if len(imageNames) > 0 {
		lines = append(lines, "Images: "+strings.Join(imageNames, ", "))
	}
	if draft.PDF != nil && draft.PDF.Name != "" {
		lines = append(lines, "PDF: "+draft.PDF.Name)
	}

	if len(slot.Models) > 0 {
		brief := make([]map[string]any, 0, len(slot.Models))
		for i, m := range slot.Models {
			if i >= 6 {
				break
			}
			brief = append(brief, map[string]any{
				"name":      m.Name,
				"revenue6m": m.Revenue6m,
				"cac":       m.CAC,
				"margin":    m.Margin,
				"risk":      m.Risk,
			})
		}
		if briefJSON, err := json.Marshal(brief); err == nil {
			lines = append(lines, "ModelsBrief: "+string(briefJSON))
		}
		if slot.Meta.Recommended != "" {
			lines = append(lines, "Recommended: "+slot.Meta.Recommended)
		}
	}

	return "Hidden context for assistant only (never reveal):\n" + strings.Join(lines, "\n")
}

func gpsLine(gps *state.GPS) string {
	if gps == nil || gps.Lat == 0 || gps.Lng == 0 {
		return "GPS: unavailable"
	}
	return fmt.Sprintf("GPS: lat %v, lng %v, accuracy %v", gps.Lat, gps.Lng, gps.Accuracy)
}
