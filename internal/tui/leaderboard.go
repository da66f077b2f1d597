// internal/tui/leaderboard.go
//
// The gamification leaderboard. Read-only; rows come pre-sorted from the
// backend and the signed-in user's row is marked.

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kindrove/pathway/internal/model"
)

type leaderboardLoadedMsg struct {
	nav     int
	entries []model.LeaderboardEntry
	err     error

	// rank is the signed-in user's own standing; rankErr means it is not
	// available (404 until the first points land) and the line is omitted.
	rank    model.Rank
	rankErr error
}

type leaderboardModel struct {
	loading bool
	tbl     table.Model
	width   int
	height  int
	rank    model.Rank
	hasRank bool
}

func newLeaderboardModel() leaderboardModel {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "User", Width: 20},
		{Title: "Points", Width: 8},
		{Title: "Level", Width: 6},
		{Title: "Streak", Width: 7},
	}
	tbl := table.New(table.WithColumns(columns), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("212"))
	tbl.SetStyles(styles)
	return leaderboardModel{tbl: tbl}
}

func (m *leaderboardModel) resize(w, h int) {
	m.width = w
	m.height = h
	if h > 8 {
		m.tbl.SetHeight(h - 6)
	}
}

func (m *leaderboardModel) load(a *App) tea.Cmd {
	m.loading = true
	m.hasRank = false
	nav := a.nav
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		entries, err := a.client.Leaderboard(ctx)
		rank, rankErr := a.client.Rank(ctx, username)
		return leaderboardLoadedMsg{nav: nav, entries: entries, err: err, rank: rank, rankErr: rankErr}
	}
}

func (a *App) updateLeaderboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.board

	switch msg := msg.(type) {
	case leaderboardLoadedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load the leaderboard", msg.err)
		}
		me := a.sess.Username()
		rows := make([]table.Row, len(msg.entries))
		for i, e := range msg.entries {
			name := e.Username
			if e.Username == me {
				name = "» " + name
			}
			rows[i] = table.Row{
				fmt.Sprint(i + 1),
				name,
				fmt.Sprint(e.TotalPoints),
				fmt.Sprint(e.Level),
				fmt.Sprint(e.CurrentStreak),
			}
		}
		m.tbl.SetRows(rows)
		if msg.rankErr == nil {
			m.rank = msg.rank
			m.hasRank = true
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "b":
			return a, a.switchTo(stateDashboard)
		case "r":
			return a, m.load(a)
		}
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return a, cmd
}

func (a *App) viewLeaderboard() string {
	m := &a.board
	if m.loading {
		return subtleStyle.Render("Loading leaderboard...")
	}
	out := titleStyle.Render("Leaderboard") + "\n" + m.tbl.View() + "\n"
	if m.hasRank {
		out += selectedStyle.Render(fmt.Sprintf("Your rank: #%d", m.rank.Rank)) +
			subtleStyle.Render(fmt.Sprintf("  level %d, %d pts", m.rank.Level, m.rank.TotalPoints)) + "\n"
	}
	return out + helpStyle.Render("r refresh • esc back")
}
