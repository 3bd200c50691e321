package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/dashsim/internal/model"
	"github.com/verte-zerg/dashsim/internal/store"
)

// Report contains precomputed data for offline rendering.
type Report struct {
	SessionID string
	History    []model.Reading
	Thresholds model.Thresholds
	KPI        model.KPI
}

// NewReport summarizes an in-memory history.
func NewReport(history []model.Reading, th model.Thresholds) Report {
	return Report{
		History:    history,
		Thresholds: th,
		KPI:        Summarize(history, th),
	}
}

// BuildReport loads a stored session. An empty id selects the latest one.
func BuildReport(ctx context.Context, st *store.Store, id string, th model.Thresholds) (Report, error) {
	if id == "" {
		latest, err := st.LatestSessionID(ctx)
		if err != nil {
			return Report{}, err
		}
		id = latest
	}
	history, err := st.LoadReadings(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if len(history) == 0 {
		return Report{}, fmt.Errorf("session %s has no readings", id)
	}
	report := NewReport(history, th)
	report.SessionID = id
	return report, nil
}

// Render prints summary, charts and the last rows of the report.
func (r Report) Render(w io.Writer, window, totalWidth, height, lastRows int, useColor bool) error {
	if r.SessionID != "" {
		if _, err := fmt.Fprintf(w, "Session %s\n\n", r.SessionID); err != nil {
			return err
		}
	}
	if err := RenderSummary(w, r.KPI); err != nil {
		return err
	}
	trendWidth := fallbackTermWidth
	if totalWidth > 0 {
		trendWidth = totalWidth
	}
	trendWidth = max(trendWidth-trendLabelWidth-1, minChartWidth)
	if err := RenderTrends(w, r.History, trendWidth); err != nil {
		return err
	}
	if err := RenderCharts(w, r.History, r.Thresholds, window, totalWidth, height, useColor); err != nil {
		return err
	}
	return RenderLog(w, r.History, lastRows)
}
