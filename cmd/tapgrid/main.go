// Package main provides the CLI entrypoint for tapgrid.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tapgrid/internal/batch"
	"github.com/verte-zerg/tapgrid/internal/clock"
	"github.com/verte-zerg/tapgrid/internal/config"
	"github.com/verte-zerg/tapgrid/internal/difficulty"
	"github.com/verte-zerg/tapgrid/internal/game"
	"github.com/verte-zerg/tapgrid/internal/model"
	"github.com/verte-zerg/tapgrid/internal/stats"
	"github.com/verte-zerg/tapgrid/internal/store"
	"github.com/verte-zerg/tapgrid/internal/tui"
)

var (
	gameDuration    time.Duration
	gameBatchWindow time.Duration
	gameSeed        int64
	gameFastMs      float64
	gameSlowMs      float64
	gameWindow      int
	gameDebug       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tapgrid",
		Short:         "Adaptive reaction game on a 4x3 grid",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGameCmd,
	}

	rootCmd.Flags().DurationVar(&gameDuration, "duration", game.DefaultDuration, "session length")
	rootCmd.Flags().DurationVar(&gameBatchWindow, "batch-window", batch.DefaultWindow, "quiet period that groups touches into one submission")
	rootCmd.Flags().Int64Var(&gameSeed, "seed", 0, "random seed for rounds (0 = time based)")
	rootCmd.Flags().Float64Var(&gameFastMs, "fast-ms", difficulty.DefaultFastMs, "average latency below which rounds get harder")
	rootCmd.Flags().Float64Var(&gameSlowMs, "slow-ms", difficulty.DefaultSlowMs, "average latency above which rounds get easier")
	rootCmd.Flags().IntVar(&gameWindow, "window", difficulty.DefaultWindow, "number of recent latencies averaged")
	rootCmd.Flags().BoolVar(&gameDebug, "debug", false, "write a debug log to "+config.DefaultLogPath())

	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runGameCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyDurationConfig(cmd, "duration", &gameDuration, fileCfg.Game.DurationSec, time.Second)
	applyDurationConfig(cmd, "batch-window", &gameBatchWindow, fileCfg.Game.BatchWindowMs, time.Millisecond)
	applyInt64Config(cmd, "seed", &gameSeed, fileCfg.Game.Seed)
	applyFloatConfig(cmd, "fast-ms", &gameFastMs, fileCfg.Difficulty.FastMs)
	applyFloatConfig(cmd, "slow-ms", &gameSlowMs, fileCfg.Difficulty.SlowMs)
	applyIntConfig(cmd, "window", &gameWindow, fileCfg.Difficulty.Window)

	tick := clock.DefaultTickInterval
	if fileCfg.Game.TickMs != nil {
		tick = time.Duration(*fileCfg.Game.TickMs) * time.Millisecond
	}

	cfg := model.Config{
		Duration:    gameDuration,
		BatchWindow: gameBatchWindow,
		TickEvery:   tick,
		Seed:        gameSeed,
		FastMs:      gameFastMs,
		SlowMs:      gameSlowMs,
		Window:      gameWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	closeLog, err := setupLogging(gameDebug)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.OpenMemory()
	if err != nil {
		return fmt.Errorf("failed to open round journal: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close round journal: %v\n", cerr)
		}
	}()

	ui := tui.NewModel(tui.Options{Config: cfg, Store: st})
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	ui.Bind(program.Send)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	summary, err := st.SessionSummary(context.Background(), ui.Snapshot().Session)
	if err != nil {
		logErrf("failed to summarize session: %v\n", err)
		return nil
	}
	if summary.Rounds == 0 {
		return nil
	}
	if err := stats.RenderSummary(cmd.OutOrStdout(), summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// setupLogging points the standard logger at the debug file, or discards it.
// The alt screen owns the terminal while the game runs.
func setupLogging(debug bool) (func(), error) {
	if !debug {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "tapgrid")
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close debug log: %v\n", cerr)
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *int, unit time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * unit
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tapgrid configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# duration = %d            # Session length in seconds
# batch-window-ms = %d     # Quiet period that groups touches into one submission
# tick-ms = %d            # How often the countdown refreshes
# seed = 0                # Random seed for rounds (0 = time based)

[difficulty]
# fast-ms = %.0f           # Average latency below which rounds get harder
# slow-ms = %.0f           # Average latency above which rounds get easier
# window = %d               # Number of recent latencies averaged
`,
		int(game.DefaultDuration/time.Second),
		batch.DefaultWindow.Milliseconds(),
		clock.DefaultTickInterval.Milliseconds(),
		difficulty.DefaultFastMs,
		difficulty.DefaultSlowMs,
		difficulty.DefaultWindow,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Duration < time.Second {
		return fmt.Errorf("--duration must be at least 1s")
	}
	if cfg.BatchWindow <= 0 || cfg.BatchWindow > time.Second {
		return fmt.Errorf("--batch-window must be between 1ms and 1s")
	}
	if cfg.TickEvery <= 0 || cfg.TickEvery > time.Second {
		return fmt.Errorf("tick-ms must be between 1 and 1000")
	}
	if cfg.FastMs <= 0 {
		return fmt.Errorf("--fast-ms must be > 0")
	}
	if cfg.SlowMs < cfg.FastMs {
		return fmt.Errorf("--slow-ms must be >= --fast-ms")
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
