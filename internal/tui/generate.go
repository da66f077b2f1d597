// internal/tui/generate.go
//
// Direct path generation, the no-quiz route: pick a skill level, list some
// interests, set a weekly budget, and the backend builds the path. The
// generated path is saved to the account and written through the cache
// before the dashboard loads it.

package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kindrove/pathway/internal/model"
	"github.com/kindrove/pathway/internal/reconcile"
)

var skillLevels = []string{"beginner", "intermediate", "advanced"}

type pathGeneratedMsg struct {
	nav int
	err error
}

type generateModel struct {
	username string
	skill    int // index into skillLevels
	inputs   []textinput.Model
	focus    int
	busy     bool
	inline   string
}

func newGenerateModel(username string) generateModel {
	interests := textinput.New()
	interests.Placeholder = "interests, comma separated (go, sql, docker)"
	interests.CharLimit = 200

	hours := textinput.New()
	hours.Placeholder = "weekly hours (1-100)"
	hours.CharLimit = 3

	target := textinput.New()
	target.Placeholder = "goal, optional (backend developer)"
	target.CharLimit = 120

	m := generateModel{
		username: username,
		inputs:   []textinput.Model{interests, hours, target},
	}
	m.inputs[0].Focus()
	return m
}

func (m *generateModel) focusCmd() tea.Cmd { return textinput.Blink }

func (m *generateModel) setFocus(i int) {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// request builds the payload, or an inline error message.
func (m *generateModel) request() (model.GenerateRequest, string) {
	var req model.GenerateRequest
	req.Name = m.username
	req.SkillLevel = skillLevels[m.skill]
	for _, part := range strings.Split(m.inputs[0].Value(), ",") {
		if s := strings.TrimSpace(part); s != "" {
			req.Interests = append(req.Interests, s)
		}
	}
	if len(req.Interests) == 0 {
		return req, "List at least one interest"
	}
	hours, err := strconv.Atoi(strings.TrimSpace(m.inputs[1].Value()))
	if err != nil || hours < 1 || hours > 100 {
		return req, "Weekly hours must be a number between 1 and 100"
	}
	req.WeeklyHours = hours
	req.Target = strings.TrimSpace(m.inputs[2].Value())
	return req, ""
}

// generate asks the backend for a path, saves it to the account, and
// writes it through the cache so the dashboard has it immediately.
func (a *App) generate(req model.GenerateRequest) tea.Cmd {
	a.gen.busy = true
	nav := a.nav
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		lp, err := a.client.GeneratePath(ctx, req)
		if err != nil {
			return pathGeneratedMsg{nav: nav, err: err}
		}
		saved, err := a.client.SavePath(ctx, username, lp)
		if err != nil {
			return pathGeneratedMsg{nav: nav, err: err}
		}
		reconcile.Put(a.rec, reconcile.ResourceLearningPath, username, saved)
		seed := model.Progress{Username: username, TotalModules: len(saved.Modules)}
		reconcile.Mutate(ctx, a.rec, reconcile.ResourceProgress, username,
			func(ctx context.Context) (model.Progress, error) {
				return a.client.UpdateProgress(ctx, seed)
			})
		return pathGeneratedMsg{nav: nav}
	}
}

func (a *App) updateGenerate(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.gen

	switch msg := msg.(type) {
	case pathGeneratedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.busy = false
		if msg.err != nil {
			return a, a.errToast("Couldn't generate a path", msg.err)
		}
		cmd := a.switchTo(stateDashboard)
		return a, tea.Batch(cmd, a.showToast("Learning path ready"))

	case tea.KeyMsg:
		if m.busy {
			return a, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return a, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return a, nil
		case "left":
			m.skill = (m.skill + len(skillLevels) - 1) % len(skillLevels)
			return a, nil
		case "right":
			m.skill = (m.skill + 1) % len(skillLevels)
			return a, nil
		case "enter":
			if m.focus < len(m.inputs)-1 {
				m.setFocus(m.focus + 1)
				return a, nil
			}
			req, inline := m.request()
			if inline != "" {
				m.inline = inline
				return a, nil
			}
			m.inline = ""
			return a, a.generate(req)
		case "esc":
			return a, a.switchTo(stateDashboard)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return a, cmd
}

func (a *App) viewGenerate() string {
	m := &a.gen

	var b strings.Builder
	b.WriteString(titleStyle.Render("Generate a learning path"))
	b.WriteString("\n\nSkill level: ")
	for i, lvl := range skillLevels {
		if i == m.skill {
			b.WriteString(selectedStyle.Render("[" + lvl + "]"))
		} else {
			b.WriteString(subtleStyle.Render(" " + lvl + " "))
		}
	}
	b.WriteString(subtleStyle.Render("  (left/right)"))
	b.WriteString("\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View() + "\n")
	}
	if m.busy {
		b.WriteString("\n" + subtleStyle.Render("Generating..."))
	}
	if m.inline != "" {
		b.WriteString("\n" + errorStyle.Render(m.inline))
	}
	b.WriteString("\n" + helpStyle.Render("enter generate • tab next field • esc back"))
	return boxStyle.Render(b.String())
}
