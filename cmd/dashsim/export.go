package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/dashsim/internal/config"
	"github.com/verte-zerg/dashsim/internal/export"
	"github.com/verte-zerg/dashsim/internal/logger"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/session"
	"github.com/verte-zerg/dashsim/internal/store"
	"github.com/verte-zerg/dashsim/internal/telemetry"
)

const defaultExportSamples = 300

var (
	exportSamples int
	exportOut     string
	exportStart   string
)

type outputKind int

const (
	outputCSV outputKind = iota
	outputSQLite
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a headless simulation and write CSV or a SQLite snapshot",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().IntVar(&exportSamples, "samples", defaultExportSamples, "number of readings to generate")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (.csv, .db, .sqlite)")
	cmd.Flags().StringVar(&exportStart, "start", "", "timestamp of the initial reading (RFC3339, default: now)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveSimulation(cmd, fileCfg)
	if err != nil {
		return err
	}
	closeLog, err := setupHeadlessLogging()
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.WithComponent("export")

	if exportSamples <= 0 {
		return fmt.Errorf("--samples must be > 0")
	}
	if strings.TrimSpace(exportOut) == "" {
		return fmt.Errorf("--out is required")
	}
	kind, err := outputKindFor(exportOut)
	if err != nil {
		return err
	}
	start := time.Now()
	if exportStart != "" {
		start, err = time.Parse(time.RFC3339, exportStart)
		if err != nil {
			return fmt.Errorf("invalid --start value: %w", err)
		}
	}
	cfg.Seed = resolveSeed(cfg.Seed, start)

	sess := newSimulation(cfg, start)
	rec := attachMetrics(sess)
	simulate(sess, exportSamples)

	id, err := writeOutput(cmd.Context(), kind, exportOut, sess)
	if err != nil {
		return err
	}
	log.Info().
		Int("samples", sess.Len()).
		Int64("seed", cfg.Seed).
		Str("path", exportOut).
		Msg("export written")
	if id != "" {
		logErrf(os.Stderr, "Wrote %d readings to %s (session %s)\n", sess.Len(), exportOut, id)
	} else {
		logErrf(os.Stderr, "Wrote %d readings to %s\n", sess.Len(), exportOut)
	}
	return writeMetrics(rec)
}

// newSimulation builds a session on a synthetic clock that advances by the
// speed mode's interval per reading, starting at start.
func newSimulation(cfg model.SimulationConfig, start time.Time) *session.Session {
	sess := session.New(telemetry.NewWithSeed(cfg.Seed), cfg)
	interval := cfg.Speed.Interval()
	next := start
	sess.SetClock(func() time.Time {
		at := next
		next = next.Add(interval)
		return at
	})
	return sess
}

func simulate(sess *session.Session, n int) {
	sess.Start()
	for i := 0; i < n; i++ {
		sess.Step()
	}
	sess.Stop()
}

func outputKindFor(path string) (outputKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return outputCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return outputSQLite, nil
	default:
		return 0, fmt.Errorf("unsupported output %q (use .csv, .db or .sqlite)", path)
	}
}

// writeOutput stores the session history. SQLite snapshots return the
// stored session ID.
func writeOutput(ctx context.Context, kind outputKind, path string, sess *session.Session) (string, error) {
	history := sess.History()
	if kind == outputCSV {
		if err := export.WriteFile(path, history); err != nil {
			return "", fmt.Errorf("failed to write csv: %w", err)
		}
		return "", nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			// Best-effort close after the snapshot is committed.
			_ = cerr
		}
	}()
	rec := model.SessionRecord{
		StartedAt: sess.StartedAt(),
		EndedAt:   sess.Current().Timestamp,
		Speed:     sess.Speed(),
		Seed:      sess.Seed(),
		Samples:   len(history),
	}
	id, err := st.SaveSession(ctx, rec, history)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return id, nil
}
