// ABOUTME: Core data model for the bizpilot client state tree
// ABOUTME: Defines Profile, IdeaRecord, Analysis and ModelVariant types plus document conversion helpers

package state

import "encoding/json"

// StorageKey is the single mirror slot holding the serialized state tree.
const StorageKey = "bp_store_v1"

// Top-level section names of the state tree.
const (
	SectionProfile       = "profile"
	SectionIdeas         = "ideaCollection"
	SectionWizard        = "wizardDraft"
	SectionAnalysis      = "analysisByIdea"
	SectionSelectedModel = "selectedModelByIdea"
)

// UserRef identifies the signed-in user. It is locally sourced and never
// written to or read back from the remote profile document.
type UserRef struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Profile holds per-user settings plus the transient user identity.
type Profile struct {
	Language string   `json:"language"`
	Stage    string   `json:"stage"`
	User     *UserRef `json:"user"`
}

// IdeaRecord is one entry in the idea collection. IDs are generated
// client-side and globally unique.
type IdeaRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdeaCollection holds the ordered idea list, the current selection and the
// dashboard filter string. Item order is insertion order.
type IdeaCollection struct {
	Items      []IdeaRecord `json:"items"`
	SelectedID string       `json:"selectedId"`
	Filter     string       `json:"filter"`
}

// ModelVariant is one business-model projection for an idea, either produced
// by the content API or by the deterministic fallback.
type ModelVariant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Risk        string  `json:"risk"`
	Horizon     string  `json:"horizon"`
	Revenue6m   int     `json:"revenue6m"`
	CAC         int     `json:"cac"`
	Margin      float64 `json:"margin"`
	Why         string  `json:"why"`
	SuitableFor string  `json:"suitableFor"`
}

// AnalysisMeta carries the recommendation and free-form notes of an analysis.
type AnalysisMeta struct {
	Recommended string `json:"recommended"`
	Notes       string `json:"notes"`
}

// Analysis is the per-idea analysis slot. StartedAt is the attempt token
// guarding the timeout-vs-response race: only the writer holding the current
// token may commit a result.
type Analysis struct {
	Loading   bool           `json:"loading"`
	StartedAt int64          `json:"startedAt,omitempty"`
	Models    []ModelVariant `json:"models,omitempty"`
	Meta      AnalysisMeta   `json:"meta,omitzero"`
	Error     string         `json:"error,omitempty"`
}

// ChatMessage is one turn of an idea's assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GPS is an optional location hint attached to analysis requests and idea
// asset documents.
type GPS struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Doc converts a typed record into its document form (map tree) via a JSON
// round trip, suitable for passing to Store.Set as part of a partial update.
func Doc(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// decode converts a document subtree into a typed record. Fields with
// mismatched types are left at their zero value rather than failing the
// whole decode.
func decode(v any, dst any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Unmarshal errors on individual fields still populate the rest.
	_ = json.Unmarshal(data, dst)
}
