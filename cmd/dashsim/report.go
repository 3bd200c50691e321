package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/dashsim/internal/config"
	"github.com/verte-zerg/dashsim/internal/export"
	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/stats"
	"github.com/verte-zerg/dashsim/internal/store"
)

const (
	defaultReportWindow = 5
	defaultReportRows   = 10
	defaultReportHeight = 8
)

var (
	reportID     string
	reportList   bool
	reportWindow int
	reportRows   int
	reportHeight int
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Print KPIs, charts and the last readings of a CSV export or SQLite snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportID, "id", "", "session ID inside a snapshot (default: latest)")
	cmd.Flags().BoolVar(&reportList, "list", false, "list sessions stored in a snapshot")
	cmd.Flags().IntVar(&reportWindow, "window", defaultReportWindow, "moving average window")
	cmd.Flags().IntVar(&reportRows, "last", defaultReportRows, "number of trailing readings to print")
	cmd.Flags().IntVar(&reportHeight, "height", defaultReportHeight, "chart height in rows")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
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

	if reportWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	if reportHeight < 2 {
		return fmt.Errorf("--height must be >= 2")
	}

	out := cmd.OutOrStdout()
	path := args[0]
	kind, err := outputKindFor(path)
	if err != nil {
		return err
	}
	if reportList {
		if kind != outputSQLite {
			return fmt.Errorf("--list needs a SQLite snapshot, got %s", path)
		}
		return listSnapshot(cmd.Context(), out, path)
	}
	report, err := loadReport(cmd.Context(), kind, path, reportID, cfg.Thresholds)
	if err != nil {
		return err
	}
	width, useColor := outputWidth(out)
	if err := report.Render(out, reportWindow, width, reportHeight, reportRows, useColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func loadReport(ctx context.Context, kind outputKind, path, id string, th model.Thresholds) (stats.Report, error) {
	// store.Open would create a missing snapshot, so check first.
	if _, err := os.Stat(path); err != nil {
		return stats.Report{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if kind == outputCSV {
		history, err := export.ReadFile(path)
		if err != nil {
			return stats.Report{}, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(history) == 0 {
			return stats.Report{}, fmt.Errorf("no readings in %s", path)
		}
		return stats.NewReport(history, th), nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			// Best-effort close for read-only access.
			_ = cerr
		}
	}()
	report, err := stats.BuildReport(ctx, st, id, th)
	if err != nil {
		return stats.Report{}, fmt.Errorf("failed to build report: %w", err)
	}
	return report, nil
}

func listSnapshot(ctx context.Context, w io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			// Best-effort close for read-only access.
			_ = cerr
		}
	}()
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions stored.")
		return err
	}
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s  %s  %-6s  seed=%d  samples=%d\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Speed, s.Seed, s.Samples); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// outputWidth returns the terminal width and whether to color plots when w
// is a terminal. Other writers get the plot defaults without color.
func outputWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, true
	}
	return width, os.Getenv("NO_COLOR") == ""
}
