// internal/tui/auth.go
//
// The login / register / forgot-password screens. One authModel serves all
// three; mode tells it which fields to show. Validation errors from the
// session layer render inline under the form rather than as a toast, so the
// user can fix the field they're on.

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kindrove/pathway/internal/api"
)

// authDoneMsg reports the outcome of a login/register/forgot attempt.
type authDoneMsg struct {
	nav  int
	mode appState
	err  error
}

type authModel struct {
	mode    appState
	inputs  []textinput.Model
	focus   int
	busy    bool
	inline  string // inline error under the form
	suggest string // non-error hint, e.g. "account created"
}

func newAuthModel() authModel {
	m := authModel{mode: stateLogin}
	m.build()
	return m
}

// build lays out the inputs for the current mode.
func (m *authModel) build() {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 50

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	switch m.mode {
	case stateRegister:
		confirm := textinput.New()
		confirm.Placeholder = "confirm password"
		confirm.EchoMode = textinput.EchoPassword
		confirm.EchoCharacter = '•'
		m.inputs = []textinput.Model{username, password, confirm}
	case stateForgot:
		m.inputs = []textinput.Model{username}
	default:
		m.inputs = []textinput.Model{username, password}
	}
	m.focus = 0
	m.inputs[0].Focus()
}

func (m *authModel) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (m *authModel) setFocus(i int) {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *authModel) value(i int) string {
	return strings.TrimSpace(m.inputs[i].Value())
}

func (a *App) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.auth

	switch msg := msg.(type) {
	case authDoneMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.busy = false
		if msg.err != nil {
			// Bad credentials come back as Unauthorized on /auth/login and
			// do not tear the session down; everything renders inline here.
			switch api.KindOf(msg.err) {
			case api.KindUnauthorized:
				m.inline = "Invalid username or password"
			case api.KindValidation:
				m.inline = msg.err.Error()
			default:
				m.inline = "Backend unreachable, try again"
			}
			return a, nil
		}
		switch msg.mode {
		case stateLogin:
			return a, a.switchTo(stateDashboard)
		case stateRegister:
			cmd := a.switchTo(stateLogin)
			a.auth.suggest = "Account created, sign in to continue"
			return a, cmd
		default: // forgot
			cmd := a.switchTo(stateLogin)
			a.auth.suggest = "If the account exists, a reset link was sent"
			return a, cmd
		}

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
		case "enter":
			if m.focus < len(m.inputs)-1 {
				m.setFocus(m.focus + 1)
				return a, nil
			}
			return a, a.submitAuth()
		case "ctrl+r":
			if m.mode == stateLogin {
				return a, a.switchTo(stateRegister)
			}
		case "ctrl+f":
			if m.mode == stateLogin {
				return a, a.switchTo(stateForgot)
			}
		case "esc":
			if m.mode != stateLogin {
				return a, a.switchTo(stateLogin)
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return a, cmd
}

// submitAuth fires the network call for the current mode.
func (a *App) submitAuth() tea.Cmd {
	m := &a.auth
	m.busy = true
	m.inline = ""
	m.suggest = ""
	nav := a.nav
	mode := m.mode

	username := m.value(0)
	var password, confirm string
	if len(m.inputs) > 1 {
		password = m.inputs[1].Value()
	}
	if len(m.inputs) > 2 {
		confirm = m.inputs[2].Value()
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		var err error
		switch mode {
		case stateRegister:
			err = a.sess.Register(ctx, username, password, confirm)
		case stateForgot:
			err = a.sess.ForgotPassword(ctx, username)
		default:
			err = a.sess.Login(ctx, username, password)
		}
		return authDoneMsg{nav: nav, mode: mode, err: err}
	}
}

func (a *App) viewAuth() string {
	m := &a.auth

	var b strings.Builder
	switch m.mode {
	case stateRegister:
		b.WriteString(titleStyle.Render("Create your pathway account"))
	case stateForgot:
		b.WriteString(titleStyle.Render("Reset password"))
	default:
		b.WriteString(titleStyle.Render("Sign in to pathway"))
	}
	b.WriteString("\n\n")

	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n" + subtleStyle.Render("Working..."))
	}
	if m.inline != "" {
		b.WriteString("\n" + errorStyle.Render(m.inline))
	}
	if m.suggest != "" {
		b.WriteString("\n" + doneStyle.Render(m.suggest))
	}

	var help string
	switch m.mode {
	case stateLogin:
		help = "enter submit • ctrl+r register • ctrl+f forgot password • ctrl+c quit"
	default:
		help = "enter submit • esc back to sign in • ctrl+c quit"
	}
	b.WriteString("\n" + helpStyle.Render(help))

	return boxStyle.Render(b.String())
}
