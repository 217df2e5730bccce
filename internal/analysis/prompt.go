// ABOUTME: Prompt builders for idea analysis and model comparison
// ABOUTME: Renders draft context into strict-JSON instructions for the content API

package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Alvee0033/bizpilot/internal/state"
	"github.com/Alvee0033/bizpilot/internal/wizard"
)

// Request carries everything the analyzer needs about one idea.
type Request struct {
	IdeaID   string
	IdeaName string
	Draft    wizard.Draft
	GPS      *state.GPS
}

func analysisPrompt(req Request) string {
	d := req.Draft
	loc := d.Location
	if loc == "" {
		loc = "Unknown location"
	}
	description := d.Description
	if description == "" {
		description = req.IdeaName
	}
	horizon := d.Preferences.Horizon
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	risk := d.Preferences.Risk
	if risk == "" {
		risk = wizard.DefaultRisk
	}
	imageNames := attachmentNames(d.Images)
	if imageNames == "" {
		imageNames = "none"
	}
	pdfName := "none"
	if d.PDF != nil && d.PDF.Name != "" {
		pdfName = d.PDF.Name
	}

	var b strings.Builder
	b.WriteString("You are a senior startup analyst. Analyze the following business idea with strong local context.\n")
	fmt.Fprintf(&b, "Idea: %s\n", req.IdeaName)
	fmt.Fprintf(&b, "Short description: %s\n", description)
	fmt.Fprintf(&b, "Category: %s\n", d.Category)
	fmt.Fprintf(&b, "Budget (USD): %v\n", d.Budget)
	fmt.Fprintf(&b, "User location: %s\n", loc)
	b.WriteString(gpsLine(req.GPS) + "\n")
	fmt.Fprintf(&b, "User uploads: images(%s), pdf(%s).\n\n", imageNames, pdfName)
	b.WriteString("Return STRICT JSON with this shape only:\n")
	b.WriteString("{\n")
	b.WriteString("  \"models\": [\n")
	fmt.Fprintf(&b, "    { \"id\": string, \"name\": \"Lean|Balanced|Aggressive|Other\", \"risk\": \"Low|Medium|High\", \"horizon\": %q, \"revenue6m\": number, \"cac\": number, \"margin\": number, \"why\": string, \"suitableFor\": string }\n", horizon)
	b.WriteString("  ],\n")
	b.WriteString("  \"recommended\": string,\n")
	b.WriteString("  \"notes\": string\n")
	b.WriteString("}\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- Calibrate numbers to the location context and category.\n")
	fmt.Fprintf(&b, "- Use %s horizon and %s risk preference as baseline.\n", horizon, risk)
	b.WriteString("- Keep revenue6m and cac in USD, margin as fraction 0..1.\n")
	b.WriteString("- Do not add commentary outside JSON.")
	return b.String()
}

func comparisonPrompt(ideaName string, models []state.ModelVariant, draft wizard.Draft, gps *state.GPS) string {
	horizon := draft.Preferences.Horizon
	if horizon == "" {
		horizon = wizard.DefaultHorizon
	}
	risk := draft.Preferences.Risk
	if risk == "" {
		risk = wizard.DefaultRisk
	}
	loc := draft.Location
	if loc == "" {
		loc = "Unknown location"
	}

	brief := make([]map[string]any, 0, len(models))
	for i, m := range models {
		if i >= 6 {
			break
		}
		brief = append(brief, map[string]any{
			"name":      m.Name,
			"revenue6m": m.Revenue6m,
			"cac":       m.CAC,
			"margin":    m.Margin,
			"risk":      m.Risk,
			"why":       m.Why,
		})
	}
	briefJSON, _ := json.Marshal(brief)

	var b strings.Builder
	b.WriteString("You are a senior startup analyst. Compare multiple business model variants and pick the best fit for this idea and context.\n")
	fmt.Fprintf(&b, "Idea: %s\n", ideaName)
	fmt.Fprintf(&b, "Location: %s\n", loc)
	b.WriteString(gpsLine(gps) + "\n")
	fmt.Fprintf(&b, "Horizon: %s\n", horizon)
	fmt.Fprintf(&b, "Risk preference: %s\n", risk)
	fmt.Fprintf(&b, "User budget (USD): %v\n", draft.Budget)
	fmt.Fprintf(&b, "Category: %s\n\n", draft.Category)
	fmt.Fprintf(&b, "Models (JSON): %s\n\n", briefJSON)
	b.WriteString("Return STRICT JSON only:\n")
	b.WriteString("{\n")
	b.WriteString("  \"best\": { \"name\": string, \"reason\": string },\n")
	b.WriteString("  \"ranking\": [ { \"name\": string, \"score\": number, \"pros\": string, \"cons\": string } ]\n")
	b.WriteString("}\n")
	b.WriteString("Constraints:\n")
	b.WriteString("- Use the provided numbers as ground truth.\n")
	b.WriteString("- Consider risk preference and horizon.\n")
	b.WriteString("- Reason concisely using the given data.")
	return b.String()
}

func gpsLine(gps *state.GPS) string {
	if gps == nil || gps.Lat == 0 || gps.Lng == 0 {
		return "GPS: unavailable"
	}
	return fmt.Sprintf("GPS: lat %v, lng %v, accuracy %v", gps.Lat, gps.Lng, gps.Accuracy)
}

func attachmentNames(atts []wizard.Attachment) string {
	names := make([]string, 0, len(atts))
	for _, a := range atts {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// attachmentParts converts the draft's uploaded data URLs into inline parts
// for multimodal analysis.
func attachmentParts(d wizard.Draft) []Part {
	var parts []Part
	for _, img := range d.Images {
		if p := DataURLPart(img.Data); p != nil {
			parts = append(parts, *p)
		}
	}
	if d.PDF != nil {
		if p := DataURLPart(d.PDF.Data); p != nil {
			parts = append(parts, *p)
		}
	}
	return parts
}
