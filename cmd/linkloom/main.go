package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/linkloom/internal/briefing"
	"github.com/pbaille/linkloom/internal/classifier"
	"github.com/pbaille/linkloom/internal/config"
	"github.com/pbaille/linkloom/internal/ident"
	"github.com/pbaille/linkloom/internal/logger"
	"github.com/pbaille/linkloom/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "linkloom",
		Short:        "Collect links and notes into shareable briefings",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(newCmd())
	rootCmd.AddCommand(useCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(titleCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(itemsCmd())
	rootCmd.AddCommand(sourceCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(shareCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// app bundles what every command needs
type app struct {
	cfg   *config.Config
	log   logger.Logger
	kv    *store.SQLite
	store *briefing.Store
	clf   *classifier.Classifier
	ids   ident.Provider
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	kv, err := store.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	ids := ident.System{}
	st, err := briefing.Open(kv,
		briefing.WithKey(cfg.Storage.Key),
		briefing.WithProvider(ids),
		briefing.WithLogger(log.With(logger.String("component", "store"))),
	)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   log,
		kv:    kv,
		store: st,
		clf:   classifier.New(ids),
		ids:   ids,
	}, nil
}

// openSession opens the app and prepares the state for use
func openSession() (*app, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	if err := a.store.Init(nil); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.kv.Close()
}

// requireActive returns an error when no briefing is selected
func (a *app) requireActive() error {
	if _, ok := a.store.Active(); !ok {
		return fmt.Errorf("no active briefing; use 'linkloom new' or 'linkloom use'")
	}
	return nil
}

// readInput joins args, or reads stdin when args are empty or "-"
func readInput(in io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
