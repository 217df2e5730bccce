// ABOUTME: Composition root wiring the store, mirror, remote sync, analysis, and chat
// ABOUTME: Owns the signed-in user lifecycle and per-idea chat history

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alvee0033/bizpilot/internal/analysis"
	"github.com/Alvee0033/bizpilot/internal/chat"
	"github.com/Alvee0033/bizpilot/internal/config"
	"github.com/Alvee0033/bizpilot/internal/identity"
	"github.com/Alvee0033/bizpilot/internal/mirror"
	"github.com/Alvee0033/bizpilot/internal/remote"
	"github.com/Alvee0033/bizpilot/internal/state"
)

// Session is one running app instance: a store backed by the local mirror,
// optionally synced to the remote document store, with analysis and chat
// services bound to it.
type Session struct {
	logger   *slog.Logger
	store    *state.Store
	mirror   *mirror.SQLite
	syncer   *remote.Syncer
	analyzer *analysis.Analyzer
	chat     *chat.Service

	mu      sync.Mutex
	history map[string][]state.ChatMessage
}

// New builds a session from configuration. The remote syncer is only wired
// when remote.base_url is configured; everything else works offline.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	db, err := mirror.NewSQLite(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening mirror: %w", err)
	}

	st := state.New(db, state.WithLogger(logger))

	s := &Session{
		logger:  logger.With("component", "session"),
		store:   st,
		mirror:  db,
		history: make(map[string][]state.ChatMessage),
	}

	if cfg.Remote.BaseURL != "" {
		clientOpts := []remote.ClientOption{remote.WithLogger(logger)}
		if cfg.Remote.Timeout > 0 {
			clientOpts = append(clientOpts, remote.WithTimeout(cfg.Remote.Timeout))
		}
		client, err := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, clientOpts...)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating remote client: %w", err)
		}
		s.syncer = remote.NewSyncer(st, client, remote.WithSyncerLogger(logger))
	}

	contentOpts := []analysis.ClientOption{analysis.WithLogger(logger)}
	if cfg.Content.JSONTimeout > 0 && cfg.Content.TextTimeout > 0 {
		contentOpts = append(contentOpts, analysis.WithTimeouts(cfg.Content.JSONTimeout, cfg.Content.TextTimeout))
	}
	gen := analysis.NewClient(cfg.Content.Endpoint, cfg.Content.APIKey, contentOpts...)

	analyzerOpts := []analysis.AnalyzerOption{analysis.WithAnalyzerLogger(logger)}
	if cfg.Analysis.FallbackTimeout > 0 {
		analyzerOpts = append(analyzerOpts, analysis.WithFallbackTimeout(cfg.Analysis.FallbackTimeout))
	}
	if s.syncer != nil {
		analyzerOpts = append(analyzerOpts, analysis.WithAssetReader(s.syncer))
	}
	s.analyzer = analysis.NewAnalyzer(st, gen, analyzerOpts...)

	s.chat = chat.New(st, gen, chat.WithLogger(logger))

	return s, nil
}

// Close waits for in-flight analyses and releases the mirror database.
func (s *Session) Close() error {
	s.analyzer.Wait()
	return s.mirror.Close()
}

// Store exposes the reactive state store.
func (s *Session) Store() *state.Store {
	return s.store
}

// SignIn parses the provider ID token, records the user on the profile, and
// reconciles local state with the user's remote documents.
func (s *Session) SignIn(ctx context.Context, idToken string) (state.UserRef, error) {
	user, err := identity.FromIDToken(idToken, nil)
	if err != nil {
		return state.UserRef{}, err
	}
	s.store.Set(map[string]any{
		state.SectionProfile: map[string]any{"user": state.Doc(user)},
	})
	s.logger.Info("signed in", "uid", user.UID)

	s.Reconcile(ctx)
	return user, nil
}

// SignOut clears the signed-in user. Local state stays intact.
func (s *Session) SignOut() {
	s.store.Set(map[string]any{
		state.SectionProfile: map[string]any{"user": nil},
	})
	s.logger.Info("signed out")
}

// uid returns the signed-in user's id, or "" when signed out.
func (s *Session) uid() string {
	profile := s.store.Profile()
	if profile.User == nil {
		return ""
	}
	return profile.User.UID
}

// Reconcile folds the signed-in user's remote documents into local state.
// A no-op when offline or signed out.
func (s *Session) Reconcile(ctx context.Context) {
	uid := s.uid()
	if s.syncer == nil || uid == "" {
		return
	}
	s.syncer.Reconcile(ctx, uid)
}

// Push mirrors the current profile, wizard draft, and ideas to the remote
// store. A no-op when offline or signed out.
func (s *Session) Push(ctx context.Context) {
	uid := s.uid()
	if s.syncer == nil || uid == "" {
		return
	}
	s.syncer.SaveProfile(ctx, uid)
	s.syncer.SaveWizard(ctx, uid)
	s.syncer.SaveIdeas(ctx, uid)
}

// DeleteIdea removes the idea locally and, when signed in, remotely.
func (s *Session) DeleteIdea(ctx context.Context, ideaID string) {
	s.store.DeleteIdea(ideaID)
	s.mu.Lock()
	delete(s.history, ideaID)
	s.mu.Unlock()
	if uid := s.uid(); s.syncer != nil && uid != "" {
		s.syncer.DeleteIdea(ctx, uid, ideaID)
	}
}

// PushAssets mirrors the draft's uploads and an optional GPS fix onto the
// idea's remote document. A no-op when offline or signed out.
func (s *Session) PushAssets(ctx context.Context, ideaID string, gps *state.GPS) {
	if uid := s.uid(); s.syncer != nil && uid != "" {
		s.syncer.SaveIdeaAssets(ctx, uid, ideaID, gps)
	}
}

// Analyze starts a background analysis for the idea if none exists yet.
func (s *Session) Analyze(ctx context.Context, ideaID string, gps *state.GPS) bool {
	return s.analyzer.EnsureAnalysis(ctx, ideaID, gps)
}

// RetryAnalysis discards any previous result and analyzes the idea again.
func (s *Session) RetryAnalysis(ctx context.Context, ideaID string, gps *state.GPS) bool {
	return s.analyzer.Retry(ctx, ideaID, gps)
}

// WaitForAnalyses blocks until all in-flight analyses have committed.
func (s *Session) WaitForAnalyses() {
	s.analyzer.Wait()
}

// CompareModels ranks an idea's analyzed variants and selects the best one.
func (s *Session) CompareModels(ctx context.Context, ideaID string, gps *state.GPS) (analysis.Comparison, bool) {
	return s.analyzer.CompareModels(ctx, ideaID, gps)
}

// Chat sends a user message about the idea and returns the assistant's
// reply. History is kept per idea and mirrored to the remote store when
// signed in.
func (s *Session) Chat(ctx context.Context, ideaID, message string, gps *state.GPS) chat.Reply {
	s.mu.Lock()
	s.history[ideaID] = append(s.history[ideaID], state.ChatMessage{Role: "user", Content: message})
	history := append([]state.ChatMessage(nil), s.history[ideaID]...)
	s.mu.Unlock()

	reply := s.chat.Reply(ctx, ideaID, gps, history)

	s.mu.Lock()
	s.history[ideaID] = append(s.history[ideaID], state.ChatMessage{Role: "assistant", Content: reply.Text})
	history = append([]state.ChatMessage(nil), s.history[ideaID]...)
	s.mu.Unlock()

	if uid := s.uid(); s.syncer != nil && uid != "" {
		s.syncer.SaveChat(ctx, uid, ideaID, history)
	}
	return reply
}

// History returns a copy of the idea's chat history.
func (s *Session) History(ideaID string) []state.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]state.ChatMessage(nil), s.history[ideaID]...)
}
