// ABOUTME: Tests for remote reconciliation and write-through persistence
// ABOUTME: Covers apply ordering, union-by-id, per-artifact failure isolation

package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alvee0033/bizpilot/internal/mirror"
	"github.com/Alvee0033/bizpilot/internal/state"
)

const testUID = "user-1"

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestSyncer(t *testing.T) (*Syncer, *state.Store, *MockDocuments) {
	t.Helper()
	st := state.New(mirror.NewMemory())
	docs := NewMockDocuments()
	return NewSyncer(st, docs, WithClock(fixedClock)), st, docs
}

func TestReconcile_AppliesProfileSettableFieldsOnly(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	docs.WriteDoc(context.Background(), "users/"+testUID, Document{
		"language": "bn",
		"stage":    "Growth",
		"user":     map[string]any{"uid": "intruder"},
	}, false)

	st.Set(map[string]any{state.SectionProfile: map[string]any{
		"user": state.Doc(state.UserRef{UID: testUID}),
	}})
	s.Reconcile(context.Background(), testUID)

	p := st.Profile()
	assert.Equal(t, "bn", p.Language)
	assert.Equal(t, "Growth", p.Stage)
	require.NotNil(t, p.User)
	assert.Equal(t, testUID, p.User.UID, "remote user field must never be applied")
}

func TestReconcile_PartialProfileKeepsLocalValues(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	docs.WriteDoc(context.Background(), "users/"+testUID, Document{"stage": "Growth"}, false)

	st.Set(map[string]any{state.SectionProfile: map[string]any{"language": "bn"}})
	s.Reconcile(context.Background(), testUID)

	p := st.Profile()
	assert.Equal(t, "bn", p.Language, "field absent from the remote doc keeps its local value")
	assert.Equal(t, "Growth", p.Stage)
}

func TestReconcile_MistypedProfileFieldsSkipped(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	docs.WriteDoc(context.Background(), "users/"+testUID, Document{"stage": 42, "language": ""}, false)

	st.Set(map[string]any{state.SectionProfile: map[string]any{
		"language": "bn",
		"stage":    "Launch",
	}})
	s.Reconcile(context.Background(), testUID)

	p := st.Profile()
	assert.Equal(t, "bn", p.Language)
	assert.Equal(t, "Launch", p.Stage)
}

func TestReconcile_WizardNormalizedAfterRawMerge(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	docs.WriteDoc(context.Background(), "users/"+testUID+"/wizard/default", Document{
		"title":  "Eco Shoes",
		"budget": "lots", // half-populated remote doc with a bad type
	}, false)

	s.Reconcile(context.Background(), testUID)

	draft := st.Wizard()
	assert.Equal(t, "Eco Shoes", draft.Title)
	assert.Equal(t, float64(10000), draft.Budget, "bad remote type replaced by default")
	// The stored document is fully shaped, not just the typed view.
	assert.Contains(t, st.WizardRaw(), "extended")
}

func TestReconcile_IdeasUnionByID(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	st.Set(map[string]any{state.SectionIdeas: map[string]any{
		"items":      []any{map[string]any{"id": "1", "name": "A"}},
		"selectedId": nil,
	}})
	ctx := context.Background()
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/1", Document{"name": "A2", "createdAt": "2025-01-01T00:00:00Z"}, false)
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/2", Document{"name": "B", "createdAt": "2025-01-02T00:00:00Z"}, false)

	s.Reconcile(ctx, testUID)

	col := st.Ideas()
	require.Len(t, col.Items, 2)
	assert.Equal(t, state.IdeaRecord{ID: "1", Name: "A2"}, col.Items[0])
	assert.Equal(t, state.IdeaRecord{ID: "2", Name: "B"}, col.Items[1])
	assert.Equal(t, "1", col.SelectedID)
}

func TestReconcile_CollectionOrderedByCreation(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	st.Set(map[string]any{state.SectionIdeas: map[string]any{"items": []any{}, "selectedId": nil}})
	ctx := context.Background()
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/newer", Document{"name": "Newer", "createdAt": "2025-03-01T00:00:00Z"}, false)
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/older", Document{"name": "Older", "createdAt": "2025-01-01T00:00:00Z"}, false)

	s.Reconcile(ctx, testUID)

	col := st.Ideas()
	require.Len(t, col.Items, 2)
	assert.Equal(t, "Older", col.Items[0].Name)
	assert.Equal(t, "Newer", col.Items[1].Name)
}

func TestReconcile_ArtifactFailureIsolated(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	ctx := context.Background()
	docs.WriteDoc(ctx, "users/"+testUID, Document{"language": "bn", "stage": "Idea"}, false)
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/1", Document{"name": "Survivor", "createdAt": "2025-01-01T00:00:00Z"}, false)
	docs.FailPaths = []string{"users/" + testUID + "/wizard"}
	docs.FailErr = errors.New("permission denied")

	require.NotPanics(t, func() { s.Reconcile(ctx, testUID) })

	assert.Equal(t, "bn", st.Profile().Language, "profile still applied")
	ids := make([]string, 0)
	for _, it := range st.Ideas().Items {
		ids = append(ids, it.ID)
	}
	assert.Contains(t, ids, "1", "ideas still merged")
}

func TestReconcile_NothingRemoteLeavesLocalAlone(t *testing.T) {
	s, st, _ := newTestSyncer(t)
	before := len(st.Ideas().Items)

	s.Reconcile(context.Background(), testUID)

	col := st.Ideas()
	assert.Len(t, col.Items, before)
	assert.Equal(t, col.Items[0].ID, col.SelectedID, "first idea selected when none was")
}

func TestSaveProfile_WritesSettableFields(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	st.Set(map[string]any{state.SectionProfile: map[string]any{"language": "bn", "stage": "MVP"}})

	s.SaveProfile(context.Background(), testUID)

	doc, err := docs.ReadDoc(context.Background(), "users/"+testUID)
	require.NoError(t, err)
	assert.Equal(t, "bn", doc["language"])
	assert.Equal(t, "MVP", doc["stage"])
	assert.Equal(t, "2025-06-01T12:00:00Z", doc["updatedAt"])
}

func TestSaveIdeas_OneDocumentPerIdea(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	st.Set(map[string]any{state.SectionIdeas: map[string]any{"items": []any{
		map[string]any{"id": "a", "name": "First"},
		map[string]any{"id": "b", "name": "Second"},
	}}})

	s.SaveIdeas(context.Background(), testUID)

	doc, err := docs.ReadDoc(context.Background(), "users/"+testUID+"/ideas/a")
	require.NoError(t, err)
	assert.Equal(t, "First", doc["name"])
	snaps, err := docs.ReadCollection(context.Background(), "users/"+testUID+"/ideas", orderField)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestDeleteIdea_RemovesRemoteDoc(t *testing.T) {
	s, _, docs := newTestSyncer(t)
	ctx := context.Background()
	docs.WriteDoc(ctx, "users/"+testUID+"/ideas/gone", Document{"name": "Gone"}, false)

	s.DeleteIdea(ctx, testUID, "gone")

	_, err := docs.ReadDoc(ctx, "users/"+testUID+"/ideas/gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveIdeaAssets_CopiesWizardUploads(t *testing.T) {
	s, st, docs := newTestSyncer(t)
	st.Set(map[string]any{state.SectionWizard: map[string]any{
		"images": []any{map[string]any{"name": "shop.jpg", "data": "data:image/jpeg;base64,xx"}},
		"pdf":    map[string]any{"name": "plan.pdf", "data": "data:application/pdf;base64,yy"},
	}})

	s.SaveIdeaAssets(context.Background(), testUID, "idea-1", &state.GPS{Lat: 23.78, Lng: 90.4})

	doc, err := docs.ReadDoc(context.Background(), "users/"+testUID+"/ideas/idea-1")
	require.NoError(t, err)
	photos := doc["photos"].([]any)
	require.Len(t, photos, 1)
	require.NotNil(t, doc["pdf"])
	gps := doc["gps"].(map[string]any)
	assert.Equal(t, 23.78, gps["lat"])
}

func TestSaveChat_PersistsHistory(t *testing.T) {
	s, _, docs := newTestSyncer(t)

	s.SaveChat(context.Background(), testUID, "idea-1", []state.ChatMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	})

	doc, err := docs.ReadDoc(context.Background(), "users/"+testUID+"/ideas/idea-1")
	require.NoError(t, err)
	chat := doc["chat"].([]any)
	require.Len(t, chat, 2)
	first := chat[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
}
