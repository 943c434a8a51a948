package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"pokematch-server/matcherrors"
	"pokematch-server/score"
)

// RenderRecentGamesChart writes an HTML line chart of the recent games'
// times and move counts to w.
func RenderRecentGamesChart(w io.Writer, view score.ProfileView) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "PokéMatch: " + view.PlayerName,
			Width:     "900px",
			Height:    "400px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Recent games",
			Subtitle: "Best " + view.FormattedBestTime + ", average " + view.FormattedAverageTime,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	labels := make([]string, len(view.RecentGames))
	times := make([]opts.LineData, len(view.RecentGames))
	moves := make([]opts.LineData, len(view.RecentGames))
	for i, g := range view.RecentGames {
		labels[i] = strconv.Itoa(i+1) + ". " + g.Date
		times[i] = opts.LineData{Value: g.Time, Name: g.FormattedTime}
		moves[i] = opts.LineData{Value: g.Moves}
	}

	line.SetXAxis(labels).
		AddSeries("Time (s)", times).
		AddSeries("Moves", moves).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(false),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)

	return line.Render(w)
}

// ProfileChart serves the recent games chart as an HTML page.
func (h *Handler) ProfileChart(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := h.Board.Profile(r.Context())
	if err != nil && !errors.Is(err, matcherrors.ErrStorageRead) {
		slog.Error("load profile for chart", "tag", "api", "err", err)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderRecentGamesChart(w, view); err != nil {
		slog.Warn("render chart", "tag", "api", "err", err)
	}
}
