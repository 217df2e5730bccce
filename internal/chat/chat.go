// ABOUTME: Conversational assistant scoped to a single idea
// ABOUTME: Builds hidden-context prompts, windows history, and renders replies

package chat

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/Alvee0033/bizpilot/internal/analysis"
	"github.com/Alvee0033/bizpilot/internal/state"
)

// historyWindow caps how many trailing messages are replayed into the
// prompt.
const historyWindow = 12

// FallbackReply is returned when the content API call fails.
const FallbackReply = "The AI service is temporarily unavailable. Try again shortly."

// Reply is one assistant turn: the raw text and its rendered HTML.
type Reply struct {
	Text string
	HTML string
}

// Service answers chat messages about an idea, using the store's draft and
// analysis as private context the assistant never reveals.
type Service struct {
	store  *state.Store
	gen    analysis.Generator
	logger *slog.Logger
}

// Option configures the Service during construction.
type Option func(*Service)

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a chat service bound to a store and a content generator.
func New(store *state.Store, gen analysis.Generator, opts ...Option) *Service {
	s := &Service{store: store, gen: gen}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "chat")
	return s
}

// Reply produces the assistant's next turn for the idea given the
// conversation so far. The last user message is expected to already be in
// history. API failures degrade to a canned reply, never an error.
func (s *Service) Reply(ctx context.Context, ideaID string, gps *state.GPS, history []state.ChatMessage) Reply {
	ideaName := "Idea"
	for _, item := range s.store.Ideas().Items {
		if item.ID == ideaID {
			ideaName = item.Name
			break
		}
	}
	draft := s.store.Wizard()

	parts := []analysis.Part{
		{Text: systemPrompt(ideaName, draft, gps)},
	}
	if slot, ok := s.store.Analysis(ideaID); ok {
		parts = append(parts, analysis.Part{Text: hiddenContext(ideaName, draft, slot)})
	} else {
		parts = append(parts, analysis.Part{Text: hiddenContext(ideaName, draft, state.Analysis{})})
	}

	for _, img := range draft.Images {
		if p := analysis.DataURLPart(img.Data); p != nil {
			parts = append(parts, *p)
		}
	}
	if draft.PDF != nil {
		if p := analysis.DataURLPart(draft.PDF.Data); p != nil {
			parts = append(parts, *p)
		}
	}

	window := history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	for _, msg := range window {
		if msg.Role == "" || msg.Content == "" {
			continue
		}
		tag := "Assistant"
		if msg.Role == "user" {
			tag = "User"
		}
		parts = append(parts, analysis.Part{Text: "\n" + tag + ": " + msg.Content})
	}
	parts = append(parts, analysis.Part{Text: "\nAssistant: Provide the next best response now."})

	text, err := s.gen.GenerateText(ctx, parts)
	if err != nil {
		s.logger.Warn("chat reply failed", "idea", ideaID, "error", err)
		return Reply{Text: FallbackReply, HTML: renderHTML(FallbackReply)}
	}
	text = strings.TrimSpace(text)
	return Reply{Text: text, HTML: renderHTML(text)}
}

// renderHTML converts a markdown reply to HTML for display surfaces.
// Conversion failures fall back to the raw text.
func renderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return markdown
	}
	return strings.TrimSpace(buf.String())
}
