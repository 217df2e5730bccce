// ABOUTME: Remote reconciliation loader and write-through persistence for user data
// ABOUTME: Fetches profile/wizard/ideas concurrently and merges them into the state store

package remote

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alvee0033/bizpilot/internal/state"
)

// orderField is the creation-timestamp field idea collections are ordered by.
const orderField = "createdAt"

// Syncer reconciles remote documents with the local state store and mirrors
// local changes back. Every operation is best-effort: fetch and write
// failures are logged and swallowed, never raised to the caller's render
// path.
type Syncer struct {
	store  *state.Store
	docs   Documents
	logger *slog.Logger
	now    func() time.Time
}

// SyncerOption configures the Syncer during construction.
type SyncerOption func(*Syncer)

// WithSyncerLogger configures structured logging.
func WithSyncerLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a Syncer over the given store and document backend.
func NewSyncer(st *state.Store, docs Documents, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store: st,
		docs:  docs,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "sync")
	return s
}

// Reconcile loads the user's remote profile, wizard draft, and idea
// collection and folds them into the local store. Called once per session,
// after local state has been loaded from the mirror and the user identity is
// known.
//
// The three fetches run concurrently and fail independently. Apply order
// matters because Set is last-write-wins: the raw remote wizard is merged
// first and the shape normalizer runs strictly after it, so half-populated
// remote fields end up with defaults instead of holes.
func (s *Syncer) Reconcile(ctx context.Context, uid string) {
	var (
		profile Document
		wiz     Document
		ideas   []Snapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := s.docs.ReadDoc(gctx, profilePath(uid))
		if err != nil {
			s.fetchFailed("profile", err)
			return nil
		}
		profile = doc
		return nil
	})
	g.Go(func() error {
		doc, err := s.docs.ReadDoc(gctx, wizardPath(uid))
		if err != nil {
			s.fetchFailed("wizard", err)
			return nil
		}
		wiz = doc
		return nil
	})
	ideasOK := false
	g.Go(func() error {
		snaps, err := s.docs.ReadCollection(gctx, ideasPath(uid), orderField)
		if err != nil {
			s.fetchFailed("ideas", err)
			return nil
		}
		ideas = snaps
		ideasOK = true
		return nil
	})
	_ = g.Wait()

	if profile != nil {
		s.applyProfile(profile)
	}
	if wiz != nil {
		s.store.Set(map[string]any{state.SectionWizard: map[string]any(wiz)})
		s.store.EnsureWizardShape()
	}
	if ideasOK {
		records := make([]state.IdeaRecord, 0, len(ideas))
		for _, snap := range ideas {
			name, _ := snap.Data["name"].(string)
			records = append(records, state.IdeaRecord{ID: snap.ID, Name: name})
		}
		s.store.MergeRemoteIdeas(records)
	}
	s.store.SelectFirstIfNone()
}

// applyProfile merges the settable profile fields into the store. Only
// fields the remote document actually carries are applied; absent or
// mistyped fields keep their local values. The transient user field is
// locally sourced and never taken from the remote document.
func (s *Syncer) applyProfile(doc Document) {
	partial := map[string]any{}
	if language, ok := doc["language"].(string); ok && language != "" {
		partial["language"] = language
	}
	if stage, ok := doc["stage"].(string); ok && stage != "" {
		partial["stage"] = stage
	}
	if len(partial) == 0 {
		return
	}
	s.store.Set(map[string]any{state.SectionProfile: partial})
}

func (s *Syncer) fetchFailed(artifact string, err error) {
	if err == nil {
		return
	}
	level := slog.LevelWarn
	if err == ErrNotFound {
		level = slog.LevelDebug
	}
	s.logger.Log(context.Background(), level, "remote fetch skipped", "artifact", artifact, "error", err)
}

// SaveProfile mirrors the local profile settings to the remote store.
func (s *Syncer) SaveProfile(ctx context.Context, uid string) {
	p := s.store.Profile()
	err := s.docs.WriteDoc(ctx, profilePath(uid), Document{
		"language":  p.Language,
		"stage":     p.Stage,
		"updatedAt": s.timestamp(),
	}, true)
	s.writeFailed("profile", err)
}

// SaveWizard mirrors the current wizard draft document to the remote store.
func (s *Syncer) SaveWizard(ctx context.Context, uid string) {
	doc := Document(s.store.WizardRaw())
	if doc == nil {
		doc = Document{}
	}
	doc = cloneDoc(doc)
	doc["updatedAt"] = s.timestamp()
	err := s.docs.WriteDoc(ctx, wizardPath(uid), doc, true)
	s.writeFailed("wizard", err)
}

// SaveIdeas mirrors every local idea as its own remote document.
func (s *Syncer) SaveIdeas(ctx context.Context, uid string) {
	ts := s.timestamp()
	for _, it := range s.store.Ideas().Items {
		err := s.docs.WriteDoc(ctx, ideaPath(uid, it.ID), Document{
			"name":      it.Name,
			"createdAt": ts,
		}, true)
		s.writeFailed("idea", err)
	}
}

// DeleteIdea removes an idea document from the remote store.
func (s *Syncer) DeleteIdea(ctx context.Context, uid, ideaID string) {
	s.writeFailed("idea delete", s.docs.DeleteDoc(ctx, ideaPath(uid, ideaID)))
}

// ReadIdea fetches a single idea document, including any saved assets.
func (s *Syncer) ReadIdea(ctx context.Context, uid, ideaID string) (Document, error) {
	return s.docs.ReadDoc(ctx, ideaPath(uid, ideaID))
}

// SaveChat persists an idea's chat history onto its document.
func (s *Syncer) SaveChat(ctx context.Context, uid, ideaID string, history []state.ChatMessage) {
	msgs := make([]any, len(history))
	for i, m := range history {
		msgs[i] = state.Doc(m)
	}
	err := s.docs.WriteDoc(ctx, ideaPath(uid, ideaID), Document{
		"chat":          msgs,
		"chatUpdatedAt": s.timestamp(),
	}, true)
	s.writeFailed("chat", err)
}

// SaveIdeaAssets copies the wizard's uploaded photos and pdf, plus an
// optional GPS fix, onto the idea document. Inline data URLs are stored
// directly; there is no separate blob storage.
func (s *Syncer) SaveIdeaAssets(ctx context.Context, uid, ideaID string, gps *state.GPS) {
	draft := s.store.Wizard()

	photos := make([]any, 0, len(draft.Images))
	for _, img := range draft.Images {
		if img.Data == "" && img.URL == "" {
			continue
		}
		photos = append(photos, state.Doc(img))
	}
	doc := Document{
		"photos":    photos,
		"pdf":       nil,
		"gps":       nil,
		"updatedAt": s.timestamp(),
	}
	if draft.PDF != nil && (draft.PDF.Data != "" || draft.PDF.URL != "") {
		doc["pdf"] = state.Doc(*draft.PDF)
	}
	if gps != nil {
		doc["gps"] = state.Doc(*gps)
	}
	s.writeFailed("idea assets", s.docs.WriteDoc(ctx, ideaPath(uid, ideaID), doc, true))
}

func (s *Syncer) writeFailed(artifact string, err error) {
	if err != nil {
		s.logger.Warn("remote write failed", "artifact", artifact, "error", err)
	}
}

func (s *Syncer) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
