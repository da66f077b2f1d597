// internal/tui/dashboard.go
//
// The dashboard shows the user's learning path with per-module completion.
// Both resources load through the reconciler, so the screen distinguishes
// fresh data, a stale cached copy (offline), an authoritative "no path yet",
// and a hard failure. Marking a module complete is a mutate: the checkbox
// only flips once the backend confirms.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/model"
	"github.com/kindrove/pathway/internal/reconcile"
)

// dashLoadedMsg carries one reconciled dashboard load.
type dashLoadedMsg struct {
	nav      int
	path     reconcile.Result[model.LearningPath]
	progress reconcile.Result[model.Progress]
}

// progressSavedMsg reports the outcome of a mark-complete mutate.
type progressSavedMsg struct {
	nav      int
	progress model.Progress
	err      error
}

// exportDoneMsg reports where the CSV landed.
type exportDoneMsg struct {
	nav  int
	path string
	err  error
}

// pathDeletedMsg reports the outcome of deleting the saved path.
type pathDeletedMsg struct {
	nav int
	err error
}

type dashboardModel struct {
	loading  bool
	cursor   int
	bar      progress.Model
	path     reconcile.Result[model.LearningPath]
	progress reconcile.Result[model.Progress]
	saving   bool
	confirm  bool // pending y/N for path delete
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
	}
}

// load fetches path and progress through the reconciler in one command.
func (m *dashboardModel) load(a *App) tea.Cmd {
	m.loading = true
	m.saving = false
	m.confirm = false
	nav := a.nav
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		path := reconcile.Fetch(ctx, a.rec, reconcile.ResourceLearningPath, username,
			func(ctx context.Context) (model.LearningPath, error) {
				return a.client.UserPath(ctx, username)
			})
		progress := reconcile.Fetch(ctx, a.rec, reconcile.ResourceProgress, username,
			func(ctx context.Context) (model.Progress, error) {
				return a.client.Progress(ctx, username)
			})
		return dashLoadedMsg{nav: nav, path: path, progress: progress}
	}
}

// markComplete flips one module through the backend and re-caches the
// server-returned progress.
func (a *App) markComplete(idx int) tea.Cmd {
	m := &a.dash
	if m.saving || m.progress.Status == reconcile.StatusFailed {
		return nil
	}
	next := m.progress.Value
	if next.Username == "" {
		next.Username = a.sess.Username()
	}
	if next.TotalModules == 0 {
		next.TotalModules = len(m.path.Value.Modules)
	}
	if next.IsCompleted(idx) {
		return nil
	}
	next = next.MarkCompleted(idx)
	m.saving = true
	nav := a.nav
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		saved, err := reconcile.Mutate(ctx, a.rec, reconcile.ResourceProgress, username,
			func(ctx context.Context) (model.Progress, error) {
				return a.client.UpdateProgress(ctx, next)
			})
		return progressSavedMsg{nav: nav, progress: saved, err: err}
	}
}

func (a *App) exportPath() tea.Cmd {
	lp := a.dash.path.Value
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		out, err := a.exporter.Export(ctx, lp)
		return exportDoneMsg{nav: nav, path: out, err: err}
	}
}

func (a *App) deletePath() tea.Cmd {
	nav := a.nav
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		err := a.client.DeletePath(ctx, username)
		if err == nil {
			for _, kind := range []string{reconcile.ResourceLearningPath, reconcile.ResourceProgress} {
				if ierr := a.rec.Invalidate(kind, username); ierr != nil {
					a.log.Warn("cache invalidate failed", zap.String("kind", kind), zap.Error(ierr))
				}
			}
		}
		return pathDeletedMsg{nav: nav, err: err}
	}
}

func (a *App) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.dash

	switch msg := msg.(type) {
	case dashLoadedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		m.path = msg.path
		m.progress = msg.progress
		if m.cursor >= len(m.path.Value.Modules) {
			m.cursor = 0
		}
		return a, nil

	case progressSavedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.saving = false
		if msg.err != nil {
			return a, a.errToast("Couldn't save progress", msg.err)
		}
		m.progress.Value = msg.progress
		m.progress.Status = reconcile.StatusFresh
		if msg.progress.Done() {
			return a, a.showToast("Path complete, congratulations!")
		}
		return a, nil

	case exportDoneMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		if msg.err != nil {
			return a, a.errToast("Export failed", msg.err)
		}
		return a, a.showToast("Exported to " + msg.path)

	case pathDeletedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		if msg.err != nil {
			return a, a.errToast("Couldn't delete path", msg.err)
		}
		return a, tea.Batch(a.showToast("Learning path deleted"), m.load(a))

	case tea.KeyMsg:
		if m.confirm {
			switch msg.String() {
			case "y", "Y":
				m.confirm = false
				return a, a.deletePath()
			default:
				m.confirm = false
				return a, nil
			}
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.path.Value.Modules)-1 {
				m.cursor++
			}
		case "enter", " ":
			if m.hasPath() {
				return a, a.markComplete(m.cursor)
			}
		case "q":
			return a, a.switchTo(stateTopicSelect)
		case "g":
			return a, a.switchTo(stateGenerate)
		case "b":
			return a, a.switchTo(stateLeaderboard)
		case "e":
			if m.hasPath() {
				return a, a.exportPath()
			}
		case "x":
			if m.hasPath() {
				m.confirm = true
			}
		case "a":
			if a.sess.IsAdmin() {
				return a, a.switchTo(stateAdminMenu)
			}
		case "r":
			return a, m.load(a)
		case "ctrl+l":
			a.sess.Logout()
			return a, a.switchTo(stateLogin)
		}
	}
	return a, nil
}

func (m *dashboardModel) hasPath() bool {
	return m.path.Status == reconcile.StatusFresh || m.path.Status == reconcile.StatusStale
}

func (a *App) viewDashboard() string {
	m := &a.dash

	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard — " + a.sess.Username()))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(subtleStyle.Render("Loading your learning path..."))
		return b.String()
	}

	switch m.path.Status {
	case reconcile.StatusAbsent:
		b.WriteString("No learning path yet.\n\n")
		b.WriteString("Take a quiz (q) or generate one directly (g) to get started.")
	case reconcile.StatusFailed:
		b.WriteString(errorStyle.Render("Couldn't reach the backend and nothing is cached yet."))
		b.WriteString("\n" + subtleStyle.Render("Press r to retry."))
	default:
		if m.path.Status == reconcile.StatusStale {
			b.WriteString(staleBadgeStyle.Render(
				fmt.Sprintf("OFFLINE — showing data cached %s", m.path.WrittenAt.Format("Jan 2 15:04"))))
			b.WriteString("\n")
		}
		b.WriteString(m.renderPath())
	}

	if m.confirm {
		b.WriteString("\n" + errorStyle.Render("Delete your saved learning path? (y/N)"))
	}
	if m.saving {
		b.WriteString("\n" + subtleStyle.Render("Saving..."))
	}

	b.WriteString("\n" + helpStyle.Render(m.helpLine(a.sess.IsAdmin())))
	return b.String()
}

func (m *dashboardModel) renderPath() string {
	lp := m.path.Value
	p := m.progress.Value

	var b strings.Builder
	b.WriteString(selectedStyle.Render(lp.Title))
	if lp.SkillLevel != "" {
		b.WriteString(subtleStyle.Render("  [" + lp.SkillLevel + "]"))
	}
	b.WriteString("\n")
	if lp.Description != "" {
		b.WriteString(subtleStyle.Render(lp.Description) + "\n")
	}
	b.WriteString(fmt.Sprintf("%s  %d/%d modules, %.0f%%\n\n",
		m.bar.ViewAs(p.OverallProgress/100), len(p.CompletedModules), len(lp.Modules), p.OverallProgress))

	for i, mod := range lp.Modules {
		check := "[ ]"
		style := subtleStyle
		if p.IsCompleted(i) {
			check = "[x]"
			style = doneStyle
		}
		line := fmt.Sprintf("%s %d. %s (%sh)", check, i+1, mod.Title, trimFloat(mod.Hours))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + style.Render(line)
		}
		b.WriteString(line + "\n")
		if i == m.cursor && mod.Description != "" {
			b.WriteString(subtleStyle.Render("      "+mod.Description) + "\n")
		}
	}
	return b.String()
}

func (m *dashboardModel) helpLine(admin bool) string {
	if !m.hasPath() {
		return "q quiz • g generate • b leaderboard • r refresh • ctrl+l logout"
	}
	h := "enter complete module • e export csv • x delete path • q quiz • g generate • b leaderboard"
	if admin {
		h += " • a admin"
	}
	return h + " • ctrl+l logout"
}

// trimFloat prints hours without trailing zeros (2, 2.5).
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}
