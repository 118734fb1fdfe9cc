package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
)

// summaryModel is a tiny Bubbletea model whose sole purpose is to produce a
// styled View() string; it is never driven through an interactive
// tea.Program, matching the non-interactive rendering path the teacher's
// apply command takes when stdout isn't a terminal.
type summaryModel struct {
	result *release.PipelineResult
	styles summaryStyles
}

type summaryStyles struct {
	header  lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
}

func newSummaryStyles() summaryStyles {
	disabled := os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd()))
	render := func(s lipgloss.Style) lipgloss.Style {
		if disabled {
			return s.UnsetForeground().UnsetBold()
		}
		return s
	}
	return summaryStyles{
		header:  render(lipgloss.NewStyle().Bold(true)),
		ok:      render(lipgloss.NewStyle().Foreground(lipgloss.Color("2"))),
		failed:  render(lipgloss.NewStyle().Foreground(lipgloss.Color("1"))),
		skipped: render(lipgloss.NewStyle().Foreground(lipgloss.Color("3"))),
	}
}

func (m summaryModel) Init() tea.Cmd                           { return nil }
func (m summaryModel) Update(tea.Msg) (tea.Model, tea.Cmd)      { return m, nil }

func (m summaryModel) View() string {
	var b strings.Builder

	status := string(m.result.Status)
	statusStyle := m.styles.ok
	if m.result.Status == release.RunAborted {
		statusStyle = m.styles.failed
	}
	fmt.Fprintf(&b, "%s %s (plan %s)\n", m.styles.header.Render("release"), statusStyle.Render(status), m.result.PlanHash)

	var changed, skipped, failed int
	for _, step := range m.result.Steps {
		switch {
		case step.Skipped:
			skipped++
			fmt.Fprintf(&b, "  %s %-20s skipped (dry run)\n", m.styles.skipped.Render("-"), step.Step)
			continue
		case step.Failed():
			failed++
		default:
			changed++
		}

		marker := m.styles.ok.Render("✓")
		if step.Failed() {
			marker = m.styles.failed.Render("x")
		}
		fmt.Fprintf(&b, "  %s %-20s", marker, step.Step)
		for _, inv := range step.Invocations {
			fmt.Fprintf(&b, " %s:%s", inv.PluginID, invocationGlyph(inv.Outcome))
		}
		fmt.Fprintln(&b)
	}

	total := len(m.result.Steps)
	done := changed + failed + skipped
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	fmt.Fprintf(&b, "%s %s\n", bar.ViewAs(ratio), m.styles.header.Render(fmt.Sprintf("%d/%d steps", done, total)))

	fmt.Fprintf(&b, "%s changed=%d skipped=%d failed=%d\n", m.styles.header.Render("summary"), changed, skipped, failed)
	return b.String()
}

func invocationGlyph(outcome rplugin.Outcome) string {
	switch outcome {
	case rplugin.OutcomeOk:
		return "ok"
	case rplugin.OutcomeSkipped:
		return "skip"
	default:
		return "failed"
	}
}

// renderSummary builds the model and prints its View() once, without
// driving an interactive tea.Program loop.
func renderSummary(result *release.PipelineResult) string {
	model := summaryModel{result: result, styles: newSummaryStyles()}
	return model.View()
}
