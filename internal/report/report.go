// Package report renders fit and evaluation results for the terminal.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pendulab/internal/metrics"
	"github.com/san-kum/pendulab/internal/optim"
)

type Renderer struct {
	panel   lipgloss.Style
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	errored lipgloss.Style
}

func NewRenderer(t Theme) *Renderer {
	return &Renderer{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		label:   lipgloss.NewStyle().Foreground(t.Muted),
		value:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		muted:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		success: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		errored: lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

func (r *Renderer) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		r.label.Width(14).Render(label),
		r.value.Render(value),
	)
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.6g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Fit renders the optimizer outcome.
func (r *Renderer) Fit(res *optim.FitResult) string {
	status := r.warning.Render(res.Status)
	if res.Converged {
		status = r.success.Render(res.Status)
	}

	lines := []string{
		r.title.Render("fit"),
		r.row("initial", formatVector(res.Initial)),
		r.row("objective", fmt.Sprintf("%.6g", res.Objective)),
		r.row("iterations", fmt.Sprintf("%d", res.Iterations)),
		r.row("evaluations", fmt.Sprintf("%d", res.Evaluations)),
		lipgloss.JoinHorizontal(lipgloss.Top, r.label.Width(14).Render("status"), status),
		"",
		r.Params(res.Map(), res.Names),
	}
	return r.panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Params renders values in the order of names, or sorted by key when names
// is empty.
func (r *Renderer) Params(values map[string]float64, names []string) string {
	if len(names) == 0 {
		for k := range values {
			names = append(names, k)
		}
		sort.Strings(names)
	}

	lines := []string{r.header.Render("parameters")}
	for _, n := range names {
		lines = append(lines, r.row(n, fmt.Sprintf("%.6g", values[n])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Evaluation renders the objective value and per-episode residual stats.
// A value equal to penalty is flagged as a failed simulation.
func (r *Renderer) Evaluation(value, penalty float64, summaries [][]metrics.Summary) string {
	v := r.value.Render(fmt.Sprintf("%.6g", value))
	if value == penalty {
		v = r.errored.Render(fmt.Sprintf("%.6g (simulation failed)", value))
	}

	lines := []string{
		r.title.Render("evaluation"),
		lipgloss.JoinHorizontal(lipgloss.Top, r.label.Width(14).Render("objective"), v),
		r.row("episodes", fmt.Sprintf("%d", len(summaries))),
	}
	if len(summaries) > 0 {
		lines = append(lines, "", r.Metrics(summaries))
	}
	return r.panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

var metricColumns = []string{"episode", "channel", "mae", "rmse", "max", "bias", "std"}

// Metrics renders one row per episode and channel.
func (r *Renderer) Metrics(summaries [][]metrics.Summary) string {
	rows := [][]string{metricColumns}
	for i, eps := range summaries {
		for _, s := range eps {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i),
				s.Channel,
				formatStat(s.MAE),
				formatStat(s.RMSE),
				formatStat(s.MaxAbs),
				formatStat(s.Bias),
				formatStat(s.StdDev),
			})
		}
	}

	widths := make([]int, len(metricColumns))
	for _, row := range rows {
		for j, cell := range row {
			if w := lipgloss.Width(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			style := r.value
			if j < 2 {
				style = r.label
			}
			if i == 0 {
				style = r.title
			}
			cells[j] = style.Width(widths[j] + 2).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

// Hint renders a muted footer line.
func (r *Renderer) Hint(format string, args ...any) string {
	return r.muted.Render(fmt.Sprintf(format, args...))
}
