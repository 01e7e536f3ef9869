package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/guestdist/internal/api"
	"github.com/iishyfishyy/guestdist/internal/calculator"
	"github.com/iishyfishyy/guestdist/internal/config"
	"github.com/iishyfishyy/guestdist/internal/distance"
	"github.com/iishyfishyy/guestdist/internal/history"
	"github.com/iishyfishyy/guestdist/internal/logging"
	"github.com/iishyfishyy/guestdist/internal/source"
	"github.com/iishyfishyy/guestdist/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"

	// CLI flags
	debug        bool
	configPath   string
	serveAddr    string
	rankFrom     string
	rankTable    bool
	rankCopy     bool
	importFrom   string
	importTo     string
	historyLimit int
)

func main() {
	defer exitOnFatal()

	rootCmd := &cobra.Command{
		Use:           "guestdist",
		Short:         "Match guests by how close their thematic scores are",
		Long:          "guestdist keeps guest scores per thematic in memory and ranks the closest other guests for each queried guest",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.guestdist/config.yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")

	rankCmd := &cobra.Command{
		Use:   "rank [guest ids...]",
		Short: "Rank the closest other guests of each queried guest",
		RunE:  runRank,
	}
	rankCmd.Flags().StringVarP(&rankFrom, "from", "f", "", "Dataset to load (.yaml or .db), overrides the configured source")
	rankCmd.Flags().BoolVarP(&rankTable, "table", "t", false, "Print a table instead of JSON")
	rankCmd.Flags().BoolVar(&rankCopy, "copy", false, "Copy the JSON result to the clipboard")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML dataset into a SQLite database",
		Args:  cobra.NoArgs,
		RunE:  runImport,
	}
	importCmd.Flags().StringVar(&importFrom, "from", "", "YAML dataset to read")
	importCmd.Flags().StringVar(&importTo, "to", "", "SQLite database to write")
	_ = importCmd.MarkFlagRequired("from")
	_ = importCmd.MarkFlagRequired("to")

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Edit the guestdist configuration interactively",
		Args:  cobra.NoArgs,
		RunE:  runConfigure,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rank runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 for all)")

	rootCmd.AddCommand(serveCmd, rankCmd, importCmd, configureCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err.Error())
		os.Exit(1)
	}
}

// exitOnFatal turns a fatal store fault into a logged, non-zero exit
func exitOnFatal() {
	r := recover()
	if r == nil {
		return
	}
	if !distance.IsFatal(r) {
		panic(r)
	}
	logging.Error().Err(r.(error)).Msg("Fatal store fault")
	os.Exit(2)
}

// loadConfig reads the configuration and sets up logging from it
func loadConfig() (*config.Config, error) {
	if debug {
		path := configPath
		if path == "" {
			path, _ = config.GetConfigPath()
		}
		fmt.Fprintf(os.Stderr, "[DEBUG] Config: loading from %s\n", path)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: cfg.Log.Format})

	return cfg, nil
}

// newCalculator builds a calculator and loads src into it, if any
func newCalculator(ctx context.Context, cfg *config.Config, src source.Source) (*calculator.Calculator, error) {
	calc := calculator.New(logging.Logger())
	calc.SetParallelism(cfg.Engine.Parallelism)

	if src == nil {
		return calc, nil
	}
	if err := calc.Load(ctx, src); err != nil {
		return nil, err
	}
	return calc, nil
}

// sourceForPath picks a source by file extension
func sourceForPath(path string) (source.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return source.FromConfig(config.SourceConfig{Kind: config.SourceSQLite, Path: path})
	default:
		return source.FromConfig(config.SourceConfig{Kind: config.SourceYAML, Path: path})
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.FromConfig(cfg.Source)
	if err != nil {
		return err
	}
	if src != nil {
		defer src.Close()
	}

	calc, err := newCalculator(ctx, cfg, src)
	if err != nil {
		return err
	}

	return api.NewServer(cfg.Server, calc).Run(ctx)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	guestIDs := ui.ParseGuestIDs(strings.Join(args, " "))
	if len(guestIDs) == 0 {
		if !ui.IsTerminal() {
			return errors.New("no guest ids given")
		}
		if guestIDs, err = ui.PromptGuestIDs(); err != nil {
			return err
		}
	}

	var src source.Source
	if rankFrom != "" {
		src, err = sourceForPath(rankFrom)
	} else {
		src, err = source.FromConfig(cfg.Source)
	}
	if err != nil {
		return err
	}
	srcName := "empty"
	if src != nil {
		srcName = src.Name()
		defer src.Close()
	} else {
		ui.ShowWarning("No source configured; ranking over an empty store")
	}

	if debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] Rank: %d guests from %s\n", len(guestIDs), srcName)
	}

	calc, err := newCalculator(cmd.Context(), cfg, src)
	if err != nil {
		return err
	}

	start := time.Now()
	matches := calc.RankMatches(guestIDs)
	took := time.Since(start)

	result := calculator.EncodeDistances(matches)
	if rankTable {
		if err := ui.RenderDistances(os.Stdout, matches); err != nil {
			return err
		}
	} else {
		fmt.Println(result)
	}

	if rankCopy {
		if err := clipboard.WriteAll(result); err != nil {
			ui.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
		} else {
			ui.ShowSuccess("Result copied to clipboard!")
		}
	}

	if cfg.History.Enabled {
		entry := history.NewEntry(srcName, guestIDs, len(matches), took)
		if err := history.Record(entry); err != nil {
			// Log error but don't fail
			fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
		}
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	ds, err := source.NewYAMLSource(importFrom).Read()
	if err != nil {
		return err
	}

	db, err := source.NewSQLiteSource(importTo)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", importTo, err)
	}
	defer db.Close()

	if err := db.Write(cmd.Context(), ds); err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	ui.ShowSuccess(fmt.Sprintf("Imported %d scores, %d thematics and %d other guests into %s",
		ds.ScoreCount(), len(ds.Thematics), len(ds.OtherGuests), importTo))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	hist, err := history.Load()
	if err != nil {
		return err
	}

	entries := hist.Last(historyLimit)
	if len(entries) == 0 {
		ui.ShowInfo("No rank runs recorded yet")
		return nil
	}

	ui.ShowSection("Rank History")
	for _, e := range entries {
		fmt.Printf("%s  %s ago\n", e.Timestamp.Format("2006-01-02 15:04:05"), formatDuration(e.Timestamp))
		fmt.Printf("   Guests: %s\n", strings.Join(e.GuestIDs, ", "))
		fmt.Printf("   Source: %s\n", e.Source)
		fmt.Printf("   Matches: %d in %dms\n\n", e.Results, e.DurationMS)
	}

	return nil
}

// formatDuration formats a time.Time as "X ago"
func formatDuration(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "moments"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
