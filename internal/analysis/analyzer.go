// ABOUTME: Background analysis orchestration over the reactive store
// ABOUTME: Enforces single in-flight attempts per idea and first-writer-wins commits

package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Alvee0033/bizpilot/internal/state"
	"github.com/Alvee0033/bizpilot/internal/wizard"
)

// DefaultFallbackTimeout bounds how long an idea stays in the loading state
// before the deterministic fallback is committed.
const DefaultFallbackTimeout = 12 * time.Second

// errTimeout marks the fallback commit produced by the watchdog timer.
var errTimeout = errors.New("timeout")

// AssetReader fetches a single remote idea document. The analyzer uses it to
// pick up photos and a GPS fix saved on a previous session when the local
// draft has no uploads.
type AssetReader interface {
	ReadIdea(ctx context.Context, uid, ideaID string) (map[string]any, error)
}

// Analyzer drives idea analysis in the background and writes results into
// the store's per-idea analysis slots.
type Analyzer struct {
	store   *state.Store
	gen     Generator
	assets  AssetReader
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	// commitMu serializes result commits so the token check and the store
	// write are atomic against the watchdog.
	commitMu sync.Mutex
	wg       sync.WaitGroup
}

// AnalyzerOption configures the Analyzer during construction.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerLogger configures structured logging.
func WithAnalyzerLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// WithFallbackTimeout overrides the loading watchdog duration.
func WithFallbackTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.timeout = d }
}

// WithAssetReader enables enrichment from remotely saved idea assets.
func WithAssetReader(r AssetReader) AnalyzerOption {
	return func(a *Analyzer) { a.assets = r }
}

// WithAnalyzerClock overrides the attempt-token clock, for tests.
func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer bound to a store and a content generator.
func NewAnalyzer(store *state.Store, gen Generator, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		store:   store,
		gen:     gen,
		timeout: DefaultFallbackTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.logger = a.logger.With("component", "analyzer")
	return a
}

// EnsureAnalysis starts a background analysis for the idea unless one is
// already loaded or in flight. Returns true when a new attempt was started.
func (a *Analyzer) EnsureAnalysis(ctx context.Context, ideaID string, gps *state.GPS) bool {
	if ideaID == "" {
		return false
	}
	a.commitMu.Lock()
	if cur, ok := a.store.Analysis(ideaID); ok && (len(cur.Models) > 0 || cur.Loading) {
		a.commitMu.Unlock()
		return false
	}
	token := a.now().UnixNano()
	a.store.Set(map[string]any{
		state.SectionAnalysis: map[string]any{
			ideaID: state.Doc(state.Analysis{Loading: true, StartedAt: token}),
		},
	})
	a.commitMu.Unlock()

	req := a.buildRequest(ctx, ideaID, gps)
	a.logger.Info("analysis started", "idea", ideaID)

	a.wg.Add(1)
	go a.run(ctx, token, req)
	return true
}

// Retry discards any previous result for the idea and starts a fresh
// attempt.
func (a *Analyzer) Retry(ctx context.Context, ideaID string, gps *state.GPS) bool {
	if ideaID == "" {
		return false
	}
	a.commitMu.Lock()
	a.store.Set(map[string]any{
		state.SectionAnalysis: map[string]any{ideaID: nil},
	})
	a.commitMu.Unlock()
	return a.EnsureAnalysis(ctx, ideaID, gps)
}

// CompareModels ranks the idea's analyzed variants and selects the best one
// in the store. Returns false when the idea has no completed analysis.
func (a *Analyzer) CompareModels(ctx context.Context, ideaID string, gps *state.GPS) (Comparison, bool) {
	cur, ok := a.store.Analysis(ideaID)
	if !ok || len(cur.Models) == 0 {
		return Comparison{}, false
	}
	req := a.buildRequest(ctx, ideaID, gps)
	cmp := Compare(ctx, a.gen, req.IdeaName, cur.Models, req.Draft, req.GPS)
	for _, m := range cur.Models {
		if m.Name == cmp.BestName {
			a.store.SelectModel(ideaID, m.ID)
			break
		}
	}
	return cmp, true
}

// Wait blocks until all in-flight analyses have committed. Used on
// shutdown and in tests.
func (a *Analyzer) Wait() {
	a.wg.Wait()
}

func (a *Analyzer) run(ctx context.Context, token int64, req Request) {
	defer a.wg.Done()

	watchdog := time.AfterFunc(a.timeout, func() {
		a.commit(req.IdeaID, token, fallbackResult(req.IdeaID, req.Draft, errTimeout))
	})
	defer watchdog.Stop()

	res := Analyze(ctx, a.gen, req)
	a.commit(req.IdeaID, token, res)
}

// commit writes a result into the idea's slot. Only the first writer for a
// given attempt token wins; later results for the same token and results
// for superseded tokens are discarded.
func (a *Analyzer) commit(ideaID string, token int64, res Result) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	cur, ok := a.store.Analysis(ideaID)
	if !ok || !cur.Loading || cur.StartedAt != token {
		a.logger.Debug("stale analysis result discarded", "idea", ideaID)
		return
	}
	a.store.Set(map[string]any{
		state.SectionAnalysis: map[string]any{
			ideaID: state.Doc(state.Analysis{
				StartedAt: token,
				Models:    res.Models,
				Meta:      res.Meta,
				Error:     res.Err,
			}),
		},
	})
	if res.Err != "" {
		a.logger.Warn("analysis fell back", "idea", ideaID, "error", res.Err)
		return
	}
	a.logger.Info("analysis completed", "idea", ideaID, "models", len(res.Models))
}

// buildRequest snapshots everything the analysis prompt needs. When the
// local draft has no uploads it tries the remotely saved idea assets.
func (a *Analyzer) buildRequest(ctx context.Context, ideaID string, gps *state.GPS) Request {
	req := Request{
		IdeaID:   ideaID,
		IdeaName: "Idea",
		Draft:    a.store.Wizard(),
		GPS:      gps,
	}
	for _, item := range a.store.Ideas().Items {
		if item.ID == ideaID {
			req.IdeaName = item.Name
			break
		}
	}
	if a.assets == nil || len(req.Draft.Images) > 0 || req.Draft.PDF != nil {
		return req
	}
	profile := a.store.Profile()
	if profile.User == nil || profile.User.UID == "" {
		return req
	}
	doc, err := a.assets.ReadIdea(ctx, profile.User.UID, ideaID)
	if err != nil {
		a.logger.Debug("idea assets unavailable", "idea", ideaID, "error", err)
		return req
	}
	enrichFromAssets(&req, doc)
	return req
}

func enrichFromAssets(req *Request, doc map[string]any) {
	if photos, ok := doc["photos"].([]any); ok {
		for _, p := range photos {
			m, ok := p.(map[string]any)
			if !ok {
				continue
			}
			att := attachmentFromDoc(m)
			if att.Data != "" || att.URL != "" {
				req.Draft.Images = append(req.Draft.Images, att)
			}
		}
	}
	if pdf, ok := doc["pdf"].(map[string]any); ok {
		att := attachmentFromDoc(pdf)
		if att.Data != "" || att.URL != "" {
			req.Draft.PDF = &att
		}
	}
	if req.GPS == nil {
		if g, ok := doc["gps"].(map[string]any); ok {
			gps := state.GPS{
				Lat:      numberOr(g["lat"], 0),
				Lng:      numberOr(g["lng"], 0),
				Accuracy: numberOr(g["accuracy"], 0),
			}
			if gps.Lat != 0 && gps.Lng != 0 {
				req.GPS = &gps
			}
		}
	}
}

func attachmentFromDoc(m map[string]any) wizard.Attachment {
	return wizard.Attachment{
		Name: stringOr(m["name"], "image"),
		Data: stringOr(m["data"], ""),
		URL:  stringOr(m["url"], ""),
	}
}
