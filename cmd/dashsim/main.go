// Package main provides the CLI entrypoint for dashsim.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dashsim/internal/config"
	"github.com/verte-zerg/dashsim/internal/logger"
	"github.com/verte-zerg/dashsim/internal/metrics"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/session"
	"github.com/verte-zerg/dashsim/internal/telemetry"
	"github.com/verte-zerg/dashsim/internal/tui"
)

const (
	defaultSpeed       = "normal"
	defaultLogLevel    = "info"
	defaultChartWindow = 1
)

var (
	simSpeed    string
	simSeed     int64
	simOverheat float64
	simLowFuel  float64
	simRPMLimit float64

	logLevel    string
	logFile     string
	metricsFile string

	dashExportDir string
	dashAutostart bool
	dashWindow    int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultThresholds()
	rootCmd := &cobra.Command{
		Use:           "dashsim",
		Short:         "Simulated vehicle telemetry dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&simSpeed, "speed", defaultSpeed, "refresh speed (slow, normal, fast)")
	pf.Int64Var(&simSeed, "seed", 0, "random seed (0 picks one from the clock)")
	pf.Float64Var(&simOverheat, "overheat", defaults.OverheatTemp, "overheat alert threshold (°C)")
	pf.Float64Var(&simLowFuel, "low-fuel", defaults.LowFuel, "low fuel alert threshold (%)")
	pf.Float64Var(&simRPMLimit, "rpm-limit", defaults.RPMLimit, "engine RPM alert threshold")
	pf.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "log file (default: XDG state dir for the dashboard, stderr otherwise)")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	rootCmd.Flags().StringVar(&dashExportDir, "export-dir", "", "directory for CSV exports (default: XDG data dir)")
	rootCmd.Flags().BoolVar(&dashAutostart, "autostart", false, "start the simulation immediately")
	rootCmd.Flags().IntVar(&dashWindow, "window", defaultChartWindow, "moving average window for charts")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveSimulation(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "export-dir", &dashExportDir, fileCfg.Dashboard.ExportDir)
	if dashExportDir == "" {
		dashExportDir = config.DefaultExportDir()
	}
	if dashWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}

	// The TUI owns the terminal, so logs always go to a file here.
	path := logFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	f, err := logger.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}()
	logger.Init(logLevel, f)
	log := logger.WithComponent("cli")

	cfg.Seed = resolveSeed(cfg.Seed, time.Now())
	sess := session.New(telemetry.NewWithSeed(cfg.Seed), cfg)
	rec := attachMetrics(sess)

	log.Info().
		Str("speed", cfg.Speed.String()).
		Int64("seed", cfg.Seed).
		Str("export_dir", dashExportDir).
		Msg("dashboard starting")

	m := tui.NewModel(sess, tui.Options{
		ExportDir:   dashExportDir,
		Autostart:   dashAutostart,
		ChartWindow: dashWindow,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	log.Info().Int("samples", sess.Len()).Msg("dashboard stopped")
	return writeMetrics(rec)
}

// resolveSimulation merges the config file into unset flags and validates
// the simulation settings.
func resolveSimulation(cmd *cobra.Command, fileCfg config.FileConfig) (model.SimulationConfig, error) {
	applyStringConfig(cmd, "speed", &simSpeed, fileCfg.Dashboard.Speed)
	applyInt64Config(cmd, "seed", &simSeed, fileCfg.Dashboard.Seed)
	applyFloatConfig(cmd, "overheat", &simOverheat, fileCfg.Alerts.Overheat)
	applyFloatConfig(cmd, "low-fuel", &simLowFuel, fileCfg.Alerts.LowFuel)
	applyFloatConfig(cmd, "rpm-limit", &simRPMLimit, fileCfg.Alerts.RPMLimit)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Logging.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Logging.File)
	applyStringConfig(cmd, "metrics-file", &metricsFile, fileCfg.Metrics.Textfile)

	speed, err := model.ParseSpeedMode(simSpeed)
	if err != nil {
		return model.SimulationConfig{}, fmt.Errorf("invalid --speed: %w", err)
	}
	cfg := model.SimulationConfig{
		Speed: speed,
		Seed:  simSeed,
		Thresholds: model.Thresholds{
			OverheatTemp: simOverheat,
			LowFuel:      simLowFuel,
			RPMLimit:     simRPMLimit,
		},
	}
	if err := validateConfig(cfg); err != nil {
		return model.SimulationConfig{}, err
	}
	return cfg, nil
}

// setupHeadlessLogging sends logs to stderr unless a log file is configured.
// The returned func closes the file, if any.
func setupHeadlessLogging() (func(), error) {
	if logFile == "" {
		logger.Init(logLevel, os.Stderr)
		return func() {}, nil
	}
	f, err := logger.OpenFile(logFile)
	if err != nil {
		return nil, err
	}
	logger.Init(logLevel, f)
	return func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}, nil
}

func attachMetrics(sess *session.Session) *metrics.Metrics {
	if metricsFile == "" {
		return nil
	}
	rec := metrics.New()
	sess.SetRecorder(rec)
	return rec
}

// resolveSeed keeps a fixed seed and otherwise derives one from now, so the
// chosen seed can be logged and replayed.
func resolveSeed(seed int64, now time.Time) int64 {
	if seed != 0 {
		return seed
	}
	return now.UnixNano()
}

func writeMetrics(rec *metrics.Metrics) error {
	if rec == nil {
		return nil
	}
	if err := rec.WriteTextfile(metricsFile); err != nil {
		return err
	}
	log := logger.WithComponent("cli")
	log.Debug().Str("path", metricsFile).Msg("metrics written")
	return nil
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
	if err := ensureConfigFile(path); err != nil {
		return err
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

// ensureConfigFile writes the commented template unless path already exists.
func ensureConfigFile(path string) error {
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
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
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
	defaults := model.DefaultThresholds()
	return fmt.Sprintf(`# dashsim configuration
# Uncomment a value to enable it. CLI flags override config values.

[dashboard]
# speed = %q          # Refresh speed: slow (2s), normal (1s), fast (300ms)
# seed = 0                # Random seed, 0 picks one from the clock
# export-dir = %q

[alerts]
# overheat = %.1f         # Engine temperature alert (°C)
# low-fuel = %.1f          # Fuel level alert (%%)
# rpm-limit = %.1f       # Engine RPM alert

[logging]
# level = %q            # debug, info, warn, error
# file = %q

[metrics]
# textfile = ""           # Prometheus textfile written on exit
`,
		defaultSpeed,
		config.DefaultExportDir(),
		defaults.OverheatTemp,
		defaults.LowFuel,
		defaults.RPMLimit,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.SimulationConfig) error {
	th := cfg.Thresholds
	if th.OverheatTemp <= 0 {
		return fmt.Errorf("--overheat must be > 0")
	}
	if th.LowFuel <= 0 || th.LowFuel > model.FuelBounds.Max {
		return fmt.Errorf("--low-fuel must be between 0 and %.0f", model.FuelBounds.Max)
	}
	if th.RPMLimit <= 0 {
		return fmt.Errorf("--rpm-limit must be > 0")
	}
	return nil
}

func logErrf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort write to stderr.
		_ = err
	}
}
