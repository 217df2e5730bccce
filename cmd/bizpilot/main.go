// ABOUTME: Entry point for the bizpilot assistant
// ABOUTME: Subcommands for inspecting state, syncing, analyzing ideas, and chat

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/Alvee0033/bizpilot/internal/config"
	"github.com/Alvee0033/bizpilot/internal/session"
	"github.com/Alvee0033/bizpilot/internal/state"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _     _          _ _       _
 | |__ (_)____ __ (_) | ___ | |_
 | '_ \| |_  /'_ \| | |/ _ \| __|
 | |_) | |/ /| |_)| | | (_) | |_
 |_.__/|_/___| .__/|_|_|\___/ \__|
             |_|
`

// getConfigPath returns the path to the bizpilot config file.
// Priority: BIZPILOT_CONFIG env var > XDG_CONFIG_HOME/bizpilot/config.yaml > ~/.config/bizpilot/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BIZPILOT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "bizpilot", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: bizpilot <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  show                 Print the current profile, ideas, and draft")
		fmt.Println("  sync                 Sign in and reconcile with the remote store")
		fmt.Println("  add NAME             Add a new idea")
		fmt.Println("  delete IDEA_ID       Delete an idea")
		fmt.Println("  analyze [IDEA_ID]    Analyze the selected (or given) idea")
		fmt.Println("  compare [IDEA_ID]    Rank the analyzed model variants")
		fmt.Println("  chat MESSAGE         Ask the assistant about the selected idea")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "show":
		err = runShow(ctx)
	case "sync":
		err = runSync(ctx)
	case "add":
		err = runAdd(ctx, os.Args[2:])
	case "delete":
		err = runDelete(ctx, os.Args[2:])
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "compare":
		err = runCompare(ctx, os.Args[2:])
	case "chat":
		err = runChat(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openSession loads config and builds the session. The caller must Close it.
func openSession() (*session.Session, *config.Config, error) {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	s, err := session.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func runShow(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	green := color.New(color.FgGreen)
	st := s.Store()

	profile := st.Profile()
	green.Print("    ▶ ")
	if profile.User != nil {
		fmt.Printf("User:     %s <%s>\n", profile.User.DisplayName, profile.User.Email)
	} else {
		fmt.Println("User:     signed out")
	}
	green.Print("    ▶ ")
	fmt.Printf("Language: %s   Stage: %s\n", profile.Language, profile.Stage)

	draft := st.Wizard()
	green.Print("    ▶ ")
	fmt.Printf("Draft:    %s / %s / $%.0f\n", draft.Location, draft.Category, draft.Budget)

	fmt.Println()
	ideas := st.Ideas()
	for _, item := range ideas.Items {
		marker := "  "
		if item.ID == ideas.SelectedID {
			marker = color.GreenString("* ")
		}
		fmt.Printf("    %s%s  %s\n", marker, item.ID, item.Name)
		if slot, ok := st.Analysis(item.ID); ok && len(slot.Models) > 0 {
			for _, m := range slot.Models {
				gray.Printf("         %-12s rev6m=$%d cac=$%d margin=%.2f risk=%s\n",
					m.Name, m.Revenue6m, m.CAC, m.Margin, m.Risk)
			}
		}
	}
	return nil
}

func runSync(ctx context.Context) error {
	s, cfg, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if cfg.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is not configured")
	}

	idToken := os.Getenv("BIZPILOT_ID_TOKEN")
	if idToken == "" {
		return fmt.Errorf("BIZPILOT_ID_TOKEN is not set")
	}

	user, err := s.SignIn(ctx, idToken)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.Push(ctx)

	fmt.Printf("synced as %s (%d ideas)\n", user.UID, len(s.Store().Ideas().Items))
	return nil
}

func runAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bizpilot add NAME")
	}

	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	rec := s.Store().AddIdea(strings.Join(args, " "))
	s.Push(ctx)
	fmt.Printf("added %s  %s\n", rec.ID, rec.Name)
	return nil
}

func runDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bizpilot delete IDEA_ID")
	}

	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.DeleteIdea(ctx, args[0])
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

// targetIdea resolves an optional idea-id argument against the selection.
func targetIdea(st *state.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if id := st.Ideas().SelectedID; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no idea selected")
}

func runAnalyze(ctx context.Context, args []string) error {
	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ideaID, err := targetIdea(s.Store(), args)
	if err != nil {
		return err
	}

	if !s.Analyze(ctx, ideaID, nil) {
		fmt.Println("analysis already available; use compare to rank it")
		return nil
	}
	s.WaitForAnalyses()

	slot, ok := s.Store().Analysis(ideaID)
	if !ok {
		return fmt.Errorf("no analysis produced for %s", ideaID)
	}
	if slot.Error != "" {
		color.Yellow("fallback models (%s)", slot.Error)
	}
	for _, m := range slot.Models {
		fmt.Printf("  %-12s rev6m=$%d cac=$%d margin=%.2f risk=%-6s %s\n",
			m.Name, m.Revenue6m, m.CAC, m.Margin, m.Risk, m.Why)
	}
	if slot.Meta.Recommended != "" {
		color.Green("recommended: %s", slot.Meta.Recommended)
		if slot.Meta.Notes != "" {
			fmt.Printf("  %s\n", slot.Meta.Notes)
		}
	}
	return nil
}

func runCompare(ctx context.Context, args []string) error {
	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ideaID, err := targetIdea(s.Store(), args)
	if err != nil {
		return err
	}

	cmp, ok := s.CompareModels(ctx, ideaID, nil)
	if !ok {
		return fmt.Errorf("idea %s has no completed analysis; run analyze first", ideaID)
	}
	for _, r := range cmp.Ranking {
		fmt.Printf("  %5.1f  %-12s %s\n", r.Score, r.Name, r.Pros)
	}
	color.Green("best: %s", cmp.BestName)
	if cmp.BestReason != "" {
		fmt.Printf("  %s\n", cmp.BestReason)
	}
	return nil
}

func runChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bizpilot chat MESSAGE")
	}

	s, _, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ideaID, err := targetIdea(s.Store(), nil)
	if err != nil {
		return err
	}

	reply := s.Chat(ctx, ideaID, strings.Join(args, " "), nil)
	fmt.Println(reply.Text)
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
