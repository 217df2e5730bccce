// ABOUTME: Tests for the wizard shape normalizer
// ABOUTME: Covers default substitution, recursive normalization, and idempotence

package wizard

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redecode round-trips a Draft through its document form, the way the state
// store stores and re-reads it.
func redecode(t *testing.T, d Draft) map[string]any {
	t.Helper()
	data, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestNormalize_NilInputYieldsDefaults(t *testing.T) {
	d := Normalize(nil)

	assert.Equal(t, Default(), d)
	assert.Equal(t, DefaultLocation, d.Location)
	assert.Equal(t, float64(DefaultBudget), d.Budget)
	assert.Equal(t, DefaultCategory, d.Category)
	assert.Equal(t, DefaultHorizon, d.Preferences.Horizon)
	assert.Equal(t, DefaultRisk, d.Preferences.Risk)
	assert.Equal(t, DefaultPricingModel, d.Extended.Pricing.Model)
}

func TestNormalize_WrongTypeTakesDefaultNotCoercion(t *testing.T) {
	d := Normalize(map[string]any{"budget": "ten thousand"})

	assert.Equal(t, float64(10000), d.Budget, "numeric string must not be parsed")
}

func TestNormalize_WrongTypesAcrossFields(t *testing.T) {
	d := Normalize(map[string]any{
		"title":    42,
		"location": true,
		"category": []any{"Fashion"},
		"preferences": map[string]any{
			"horizon": 6,
			"risk":    "aggressive",
		},
	})

	assert.Empty(t, d.Title)
	assert.Equal(t, DefaultLocation, d.Location)
	assert.Equal(t, DefaultCategory, d.Category)
	assert.Equal(t, DefaultHorizon, d.Preferences.Horizon)
	assert.Equal(t, "aggressive", d.Preferences.Risk, "well-typed sibling fields survive")
}

func TestNormalize_PartialNestedRecords(t *testing.T) {
	d := Normalize(map[string]any{
		"extended": map[string]any{
			"persona": map[string]any{"age": "25-34"},
			"pricing": map[string]any{"price": "49"},
		},
	})

	assert.Equal(t, "25-34", d.Extended.Persona.Age)
	assert.Empty(t, d.Extended.Persona.Gender)
	assert.Equal(t, DefaultPricingModel, d.Extended.Pricing.Model)
	assert.Equal(t, "49", d.Extended.Pricing.Price)
}

func TestNormalize_PreservesAttachments(t *testing.T) {
	d := Normalize(map[string]any{
		"images": []any{
			map[string]any{"name": "storefront.jpg", "data": "data:image/jpeg;base64,xyz"},
			"not an attachment",
		},
		"pdf": map[string]any{"name": "plan.pdf", "data": "data:application/pdf;base64,abc"},
	})

	require.Len(t, d.Images, 1)
	assert.Equal(t, "storefront.jpg", d.Images[0].Name)
	require.NotNil(t, d.PDF)
	assert.Equal(t, "plan.pdf", d.PDF.Name)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"budget": "ten thousand", "title": 42},
		{"title": "Eco Shoes", "budget": float64(25000), "preferences": map[string]any{"risk": "bold"}},
		{"images": []any{map[string]any{"name": "a.png", "data": "data:image/png;base64,aa"}}},
		{"voiceNoteBlobUrl": "blob:abc123"},
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(redecode(t, once))
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Normalize not idempotent for %v (-once +twice):\n%s", in, diff)
		}
	}
}

func TestNormalize_EveryFieldDefined(t *testing.T) {
	doc := redecode(t, Normalize(map[string]any{"title": "x"}))

	for _, key := range []string{
		"title", "description", "location", "budget", "category",
		"voiceNoteBlobUrl", "images", "pdf", "preferences", "extended",
	} {
		assert.Contains(t, doc, key)
	}
	ext := doc["extended"].(map[string]any)
	for _, key := range []string{"persona", "pains", "valueProp", "pricing"} {
		assert.Contains(t, ext, key)
	}
}

func TestNormalize_VoiceNoteKept(t *testing.T) {
	d := Normalize(map[string]any{"voiceNoteBlobUrl": "blob:abc"})

	require.NotNil(t, d.VoiceNoteURL)
	assert.Equal(t, "blob:abc", *d.VoiceNoteURL)

	assert.Nil(t, Normalize(map[string]any{"voiceNoteBlobUrl": 1}).VoiceNoteURL)
}
