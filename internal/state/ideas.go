// ABOUTME: Idea collection operations: create, delete with selection reassign, filter
// ABOUTME: Implements the union-by-id merge used during remote reconciliation

package state

import (
	"strings"
	"unicode/utf8"
)

// maxIdeaNameLen is the display-name budget; longer names are truncated with
// an ellipsis.
const maxIdeaNameLen = 60

// AddIdea appends a new idea with the given name and selects it.
func (s *Store) AddIdea(name string) IdeaRecord {
	rec := IdeaRecord{ID: s.newID(), Name: name}
	items := append(s.Ideas().Items, rec)
	s.setIdeas(items, rec.ID)
	return rec
}

// AddIdeaFromDraft creates an idea named after the current wizard draft:
// title, falling back to description, falling back to "New Idea". The new
// idea becomes the selection.
func (s *Store) AddIdeaFromDraft() IdeaRecord {
	draft := s.Wizard()
	name := strings.TrimSpace(draft.Title)
	if name == "" {
		name = strings.TrimSpace(draft.Description)
	}
	if name == "" {
		name = "New Idea"
	}
	return s.AddIdea(truncateName(name))
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxIdeaNameLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxIdeaNameLen-3]) + "…"
}

// DeleteIdea removes the idea with the given id. If it was selected, the
// selection moves to the first remaining item, or clears when none remain.
func (s *Store) DeleteIdea(id string) {
	col := s.Ideas()
	items := make([]IdeaRecord, 0, len(col.Items))
	for _, it := range col.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	selected := col.SelectedID
	if selected == id {
		selected = ""
		if len(items) > 0 {
			selected = items[0].ID
		}
	}
	s.setIdeas(items, selected)
}

// SelectIdea makes the given id the current selection.
func (s *Store) SelectIdea(id string) {
	s.Set(map[string]any{SectionIdeas: map[string]any{"selectedId": id}})
}

// SetFilter updates the dashboard filter string.
func (s *Store) SetFilter(q string) {
	s.Set(map[string]any{SectionIdeas: map[string]any{"filter": q}})
}

// FilteredIdeas returns the items whose names contain the current filter,
// case-insensitively, in display order.
func (s *Store) FilteredIdeas() []IdeaRecord {
	col := s.Ideas()
	q := strings.ToLower(col.Filter)
	if q == "" {
		return col.Items
	}
	out := make([]IdeaRecord, 0, len(col.Items))
	for _, it := range col.Items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

// MergeRemoteIdeas folds a remotely fetched idea list into the local one by
// id: local items keep their order, remote items overwrite names for shared
// ids, remote-only ids are appended in remote order, and local-only ids are
// preserved. The remote list never wholesale-replaces local items. If
// nothing is selected afterwards, the first merged item becomes selected.
func (s *Store) MergeRemoteIdeas(remote []IdeaRecord) {
	col := s.Ideas()

	index := make(map[string]int, len(col.Items))
	merged := make([]IdeaRecord, 0, len(col.Items)+len(remote))
	for _, it := range col.Items {
		if it.ID == "" {
			continue
		}
		index[it.ID] = len(merged)
		merged = append(merged, it)
	}
	for _, it := range remote {
		if it.ID == "" {
			continue
		}
		name := it.Name
		if name == "" {
			name = "Idea"
		}
		if i, ok := index[it.ID]; ok {
			merged[i].Name = name
			continue
		}
		index[it.ID] = len(merged)
		merged = append(merged, IdeaRecord{ID: it.ID, Name: name})
	}

	selected := col.SelectedID
	if selected == "" && len(merged) > 0 {
		selected = merged[0].ID
	}
	s.setIdeas(merged, selected)
}

// SelectFirstIfNone selects the first idea when nothing is selected yet.
func (s *Store) SelectFirstIfNone() {
	col := s.Ideas()
	if col.SelectedID == "" && len(col.Items) > 0 {
		s.SelectIdea(col.Items[0].ID)
	}
}

// setIdeas writes the whole collection in one partial so the items array
// replaces wholesale rather than merging element-by-element.
func (s *Store) setIdeas(items []IdeaRecord, selectedID string) {
	docs := make([]any, len(items))
	for i, it := range items {
		docs[i] = Doc(it)
	}
	var selected any
	if selectedID != "" {
		selected = selectedID
	}
	s.Set(map[string]any{SectionIdeas: map[string]any{
		"items":      docs,
		"selectedId": selected,
	}})
}
