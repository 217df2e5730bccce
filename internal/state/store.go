// ABOUTME: Reactive state store owning the canonical in-memory state tree
// ABOUTME: Merge-on-write Set, synchronous ordered subscriber notify, mirror write-through

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alvee0033/bizpilot/internal/mirror"
	"github.com/Alvee0033/bizpilot/internal/wizard"
)

// Listener receives the new state tree after each Set. Listeners run
// synchronously, in subscription order, before Set returns. A listener must
// not mutate the tree, and must not retain it: the view is only valid until
// the next Set, which merges into the same maps in place. Deep-copy anything
// kept past the callback.
type Listener func(tree map[string]any)

// Store owns the state tree. All mutation goes through Set; every other
// component either reads the tree or submits partial updates.
type Store struct {
	mu        sync.Mutex
	tree      map[string]any
	mirror    mirror.Mirror
	logger    *slog.Logger
	newID     func() string
	nextSubID int
	subs      []subscription
}

type subscription struct {
	id int
	fn Listener
}

// Option configures the Store during construction.
type Option func(*Store)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator overrides the id generator, used by tests for
// deterministic ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a Store backed by m. Saved state is loaded from the mirror and
// merged over the built-in defaults; a missing or corrupt blob means a fresh
// default tree. The mirror is never the source of a hard error here.
func New(m mirror.Mirror, opts ...Option) *Store {
	s := &Store{
		mirror: m,
		newID:  NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "state")

	s.tree = s.defaultTree()
	s.load()
	return s
}

// defaultTree builds the initial document: seeded sample ideas, an empty
// selection, and a fully-defaulted wizard draft.
func (s *Store) defaultTree() map[string]any {
	items := []any{
		Doc(IdeaRecord{ID: s.newID(), Name: "Eco Shoes - Dhaka"}),
		Doc(IdeaRecord{ID: s.newID(), Name: "Cloud Kitchen - Banani"}),
		Doc(IdeaRecord{ID: s.newID(), Name: "Freelance Dev Agency"}),
	}
	return map[string]any{
		SectionProfile: map[string]any{
			"language": "en",
			"stage":    "Idea",
			"user":     nil,
		},
		SectionIdeas: map[string]any{
			"items":      items,
			"selectedId": nil,
			"filter":     "",
		},
		SectionWizard:        Doc(wizard.Default()),
		SectionAnalysis:      map[string]any{},
		SectionSelectedModel: map[string]any{},
	}
}

func (s *Store) load() {
	raw, err := s.mirror.GetItem(StorageKey)
	if err != nil {
		if !errors.Is(err, mirror.ErrNotFound) {
			s.logger.Warn("mirror read failed, starting fresh", "error", err)
		}
		return
	}
	var saved map[string]any
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Warn("corrupt mirror blob, starting fresh", "error", err)
		return
	}
	s.tree = deepMerge(s.tree, saved)
}

// Get returns the current tree. The returned value is a read-only view that
// is only valid until the next Set, which merges into the same maps in
// place; callers must not mutate it and must deep-copy anything they keep
// across calls or hand to another goroutine.
func (s *Store) Get() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Set merges partial into the tree, persists the result to the mirror, then
// notifies every subscriber synchronously in subscription order. Persistence
// failures are logged and swallowed: the in-memory update still takes effect
// and is still broadcast. A panicking listener does not stop the others and
// never propagates to the caller.
func (s *Store) Set(partial map[string]any) {
	s.mu.Lock()
	s.tree = deepMerge(s.tree, partial)
	s.persistLocked()
	tree := s.tree
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		s.notify(sub, tree)
	}
}

func (s *Store) notify(sub subscription, tree map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("subscriber panicked", "sub_id", sub.id, "panic", r)
		}
	}()
	sub.fn(tree)
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.tree)
	if err != nil {
		s.logger.Warn("state serialization failed", "error", err)
		return
	}
	if err := s.mirror.SetItem(StorageKey, string(data)); err != nil {
		s.logger.Warn("mirror write failed", "error", err)
	}
}

// Subscribe registers fn and returns a handle that removes it. Registering
// the same function twice registers it twice.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// GenerateID produces a globally-unique opaque identifier.
func (s *Store) GenerateID() string {
	return s.newID()
}

// NewID returns a UUID, falling back to a textual timestamp id when the
// random source is unavailable.
func NewID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("id_%d", time.Now().UnixNano())
	}
	return id.String()
}

// Profile decodes the profile section.
func (s *Store) Profile() Profile {
	var p Profile
	decode(s.Get()[SectionProfile], &p)
	return p
}

// Ideas decodes the idea collection section.
func (s *Store) Ideas() IdeaCollection {
	var c IdeaCollection
	decode(s.Get()[SectionIdeas], &c)
	return c
}

// Wizard returns the wizard draft, normalized. Reading through the
// normalizer means callers always see a fully-populated record even if the
// underlying document is partial.
func (s *Store) Wizard() wizard.Draft {
	return wizard.Normalize(s.Get()[SectionWizard])
}

// WizardRaw returns the wizard section document as stored, without
// normalization. Used when mirroring the draft to the remote store.
func (s *Store) WizardRaw() map[string]any {
	m, _ := s.Get()[SectionWizard].(map[string]any)
	return m
}

// EnsureWizardShape re-normalizes the wizard section in place. Used after a
// raw remote wizard document has been merged in, so half-populated fields
// get their defaults. Must run strictly after the raw merge; Set is
// last-write-wins.
func (s *Store) EnsureWizardShape() {
	s.Set(map[string]any{SectionWizard: Doc(s.Wizard())})
}

// Analysis decodes the analysis slot for the given idea. The second return
// is false when no slot exists.
func (s *Store) Analysis(ideaID string) (Analysis, bool) {
	section, _ := s.Get()[SectionAnalysis].(map[string]any)
	raw, ok := section[ideaID]
	if !ok {
		return Analysis{}, false
	}
	var a Analysis
	decode(raw, &a)
	return a, true
}

// SelectedModel returns the selected model id for the given idea, if any.
func (s *Store) SelectedModel(ideaID string) string {
	section, _ := s.Get()[SectionSelectedModel].(map[string]any)
	id, _ := section[ideaID].(string)
	return id
}

// SelectModel records the selected model for an idea.
func (s *Store) SelectModel(ideaID, modelID string) {
	s.Set(map[string]any{SectionSelectedModel: map[string]any{ideaID: modelID}})
}
