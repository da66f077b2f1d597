// internal/tui/admin.go
//
// Admin console: stats overview plus CRUD over topics, questions, and
// users. Destructive actions ask for y/N first. A 403 means the backend
// revoked the role mid-session; it surfaces as a toast and the screen
// stays up — only a 401 tears the session down.

package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kindrove/pathway/internal/model"
)

type adminStatsMsg struct {
	nav   int
	stats model.AdminStats
	err   error
}

type adminTopicsMsg struct {
	nav    int
	topics []model.Topic
	err    error
}

type adminQuestionsMsg struct {
	nav       int
	questions []model.Question
	err       error
}

type adminUsersMsg struct {
	nav   int
	users []model.User
	err   error
}

// adminMutatedMsg is the outcome of any admin write; on success the
// current list reloads.
type adminMutatedMsg struct {
	nav  int
	verb string
	err  error
}

// adminForm is an inline field editor for creating or updating a record.
type adminForm struct {
	title  string
	inputs []textinput.Model
	focus  int
	// editing holds the record id being updated; empty means create.
	editTopicID    string
	editQuestionID int64
}

type adminModel struct {
	loading bool
	width   int
	height  int

	stats     model.AdminStats
	topics    []model.Topic
	questions []model.Question
	users     []model.User

	cursor int
	// confirm is the pending destructive action's prompt; pendingConfirm is
	// the command armed behind the y/N.
	confirm        string
	pendingConfirm tea.Cmd
	form           *adminForm
	inline         string
}

func newAdminModel() adminModel {
	return adminModel{}
}

func (m *adminModel) resize(w, h int) {
	m.width = w
	m.height = h
}

func (m *adminModel) reset() {
	m.cursor = 0
	m.confirm = ""
	m.pendingConfirm = nil
	m.form = nil
	m.inline = ""
	m.loading = true
}

func (m *adminModel) loadStats(a *App) tea.Cmd {
	m.reset()
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		stats, err := a.client.AdminStats(ctx)
		return adminStatsMsg{nav: nav, stats: stats, err: err}
	}
}

func (m *adminModel) loadTopics(a *App) tea.Cmd {
	m.reset()
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		topics, err := a.client.AdminTopics(ctx)
		return adminTopicsMsg{nav: nav, topics: topics, err: err}
	}
}

func (m *adminModel) loadQuestions(a *App) tea.Cmd {
	m.reset()
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		questions, err := a.client.AdminQuestions(ctx)
		return adminQuestionsMsg{nav: nav, questions: questions, err: err}
	}
}

func (m *adminModel) loadUsers(a *App) tea.Cmd {
	m.reset()
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		users, err := a.client.AdminUsers(ctx)
		return adminUsersMsg{nav: nav, users: users, err: err}
	}
}

// mutate wraps one admin write in a command that reports back for reload.
func (a *App) adminMutate(verb string, fn func(ctx context.Context) error) tea.Cmd {
	a.admin.loading = true
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		return adminMutatedMsg{nav: nav, verb: verb, err: fn(ctx)}
	}
}

func (a *App) updateAdmin(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.admin

	switch msg := msg.(type) {
	case adminStatsMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load stats", msg.err)
		}
		m.stats = msg.stats
		return a, nil

	case adminTopicsMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load topics", msg.err)
		}
		m.topics = msg.topics
		m.clampCursor(len(m.topics))
		return a, nil

	case adminQuestionsMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load questions", msg.err)
		}
		m.questions = msg.questions
		m.clampCursor(len(m.questions))
		return a, nil

	case adminUsersMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load users", msg.err)
		}
		m.users = msg.users
		m.clampCursor(len(m.users))
		return a, nil

	case adminMutatedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't "+msg.verb, msg.err)
		}
		m.form = nil
		var reload tea.Cmd
		switch a.state {
		case stateAdminTopics:
			reload = m.loadTopics(a)
		case stateAdminQuestions:
			reload = m.loadQuestions(a)
		case stateAdminUsers:
			reload = m.loadUsers(a)
		}
		return a, tea.Batch(a.showToast(strings.ToUpper(msg.verb[:1])+msg.verb[1:]+" done"), reload)

	case tea.KeyMsg:
		if m.form != nil {
			return a.updateAdminForm(msg)
		}
		if m.confirm != "" {
			cmd := m.pendingConfirm
			m.confirm = ""
			m.pendingConfirm = nil
			if msg.String() == "y" || msg.String() == "Y" {
				return a, cmd
			}
			return a, nil
		}
		return a.updateAdminKeys(msg)
	}

	if m.form != nil {
		var cmd tea.Cmd
		m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateAdminKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := &a.admin

	switch msg.String() {
	case "esc":
		if a.state == stateAdminMenu {
			return a, a.switchTo(stateDashboard)
		}
		return a, a.switchTo(stateAdminMenu)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return a, nil
	case "down", "j":
		m.cursor++
		m.clampCursor(m.listLen(a.state))
		return a, nil
	}

	switch a.state {
	case stateAdminMenu:
		switch msg.String() {
		case "t":
			return a, a.switchTo(stateAdminTopics)
		case "q":
			return a, a.switchTo(stateAdminQuestions)
		case "u":
			return a, a.switchTo(stateAdminUsers)
		case "r":
			return a, m.loadStats(a)
		}

	case stateAdminTopics:
		switch msg.String() {
		case "n":
			m.form = newTopicForm(model.Topic{})
			return a, textinput.Blink
		case "e":
			if m.cursor < len(m.topics) {
				m.form = newTopicForm(m.topics[m.cursor])
				return a, textinput.Blink
			}
		case "d":
			if m.cursor < len(m.topics) {
				t := m.topics[m.cursor]
				m.confirm = fmt.Sprintf("Delete topic %q and its questions?", t.Name)
				m.pendingConfirm = a.adminMutate("delete topic", func(ctx context.Context) error {
					return a.client.AdminDeleteTopic(ctx, t.ID)
				})
			}
		}

	case stateAdminQuestions:
		switch msg.String() {
		case "n":
			m.form = newQuestionForm(model.Question{}, "")
			return a, textinput.Blink
		case "e":
			if m.cursor < len(m.questions) {
				m.form = newQuestionForm(m.questions[m.cursor], "")
				return a, textinput.Blink
			}
		case "d":
			if m.cursor < len(m.questions) {
				q := m.questions[m.cursor]
				m.confirm = fmt.Sprintf("Delete question #%d?", q.ID)
				m.pendingConfirm = a.adminMutate("delete question", func(ctx context.Context) error {
					return a.client.AdminDeleteQuestion(ctx, q.ID)
				})
			}
		}

	case stateAdminUsers:
		switch msg.String() {
		case "r":
			if m.cursor < len(m.users) {
				u := m.users[m.cursor]
				role := model.RoleAdmin
				if u.Role == model.RoleAdmin {
					role = model.RoleUser
				}
				m.confirm = fmt.Sprintf("Change %s's role to %s?", u.Username, role)
				m.pendingConfirm = a.adminMutate("change role", func(ctx context.Context) error {
					_, err := a.client.AdminSetUserRole(ctx, u.ID, role)
					return err
				})
			}
		case "d":
			if m.cursor < len(m.users) {
				u := m.users[m.cursor]
				m.confirm = fmt.Sprintf("Delete user %s? This cannot be undone.", u.Username)
				m.pendingConfirm = a.adminMutate("delete user", func(ctx context.Context) error {
					return a.client.AdminDeleteUser(ctx, u.ID)
				})
			}
		}
	}
	return a, nil
}

func (a *App) updateAdminForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := &a.admin
	f := m.form

	switch msg.String() {
	case "esc":
		m.form = nil
		m.inline = ""
		return a, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return a, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return a, nil
	case "enter":
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return a, nil
		}
		return a.submitAdminForm()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return a, cmd
}

func (a *App) submitAdminForm() (tea.Model, tea.Cmd) {
	m := &a.admin
	f := m.form

	switch a.state {
	case stateAdminTopics:
		t := model.Topic{
			ID:          f.editTopicID,
			Name:        strings.TrimSpace(f.inputs[0].Value()),
			Description: strings.TrimSpace(f.inputs[1].Value()),
		}
		if t.Name == "" {
			m.inline = "Name is required"
			return a, nil
		}
		m.inline = ""
		if f.editTopicID == "" {
			return a, a.adminMutate("create topic", func(ctx context.Context) error {
				_, err := a.client.AdminCreateTopic(ctx, t)
				return err
			})
		}
		return a, a.adminMutate("update topic", func(ctx context.Context) error {
			_, err := a.client.AdminUpdateTopic(ctx, t)
			return err
		})

	case stateAdminQuestions:
		in, inline := f.questionInput()
		if inline != "" {
			m.inline = inline
			return a, nil
		}
		m.inline = ""
		if f.editQuestionID == 0 {
			return a, a.adminMutate("create question", func(ctx context.Context) error {
				_, err := a.client.AdminAddQuestion(ctx, in)
				return err
			})
		}
		id := f.editQuestionID
		return a, a.adminMutate("update question", func(ctx context.Context) error {
			_, err := a.client.AdminUpdateQuestion(ctx, id, in)
			return err
		})
	}
	return a, nil
}

func newTopicForm(t model.Topic) *adminForm {
	name := textinput.New()
	name.Placeholder = "topic name"
	name.CharLimit = 100
	name.SetValue(t.Name)
	name.Focus()

	desc := textinput.New()
	desc.Placeholder = "description"
	desc.CharLimit = 300
	desc.SetValue(t.Description)

	title := "New topic"
	if t.ID != "" {
		title = "Edit topic " + t.ID
	}
	return &adminForm{title: title, inputs: []textinput.Model{name, desc}, editTopicID: t.ID}
}

func newQuestionForm(q model.Question, topicID string) *adminForm {
	topic := textinput.New()
	topic.Placeholder = "topic id"
	topic.CharLimit = 50
	topic.SetValue(topicID)
	topic.Focus()

	text := textinput.New()
	text.Placeholder = "question text"
	text.CharLimit = 500
	text.SetValue(q.Text)

	options := textinput.New()
	options.Placeholder = "options, separated by ; (a;b;c;d)"
	options.CharLimit = 500
	options.SetValue(strings.Join(q.Options, ";"))

	correct := textinput.New()
	correct.Placeholder = "correct option number (1-based)"
	correct.CharLimit = 2
	if q.ID != 0 {
		correct.SetValue(strconv.Itoa(q.CorrectIndex + 1))
	}

	title := "New question"
	if q.ID != 0 {
		title = fmt.Sprintf("Edit question #%d", q.ID)
	}
	return &adminForm{
		title:          title,
		inputs:         []textinput.Model{topic, text, options, correct},
		editQuestionID: q.ID,
	}
}

func (f *adminForm) setFocus(i int) {
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// questionInput parses the question form into an API payload.
func (f *adminForm) questionInput() (model.QuestionInput, string) {
	var in model.QuestionInput
	in.TopicID = strings.TrimSpace(f.inputs[0].Value())
	in.Text = strings.TrimSpace(f.inputs[1].Value())
	for _, part := range strings.Split(f.inputs[2].Value(), ";") {
		if s := strings.TrimSpace(part); s != "" {
			in.Options = append(in.Options, s)
		}
	}
	if in.Text == "" {
		return in, "Question text is required"
	}
	if len(in.Options) < 2 {
		return in, "At least two options are required"
	}
	n, err := strconv.Atoi(strings.TrimSpace(f.inputs[3].Value()))
	if err != nil || n < 1 || n > len(in.Options) {
		return in, fmt.Sprintf("Correct option must be between 1 and %d", len(in.Options))
	}
	in.CorrectIndex = n - 1
	return in, ""
}

func (m *adminModel) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *adminModel) listLen(state appState) int {
	switch state {
	case stateAdminTopics:
		return len(m.topics)
	case stateAdminQuestions:
		return len(m.questions)
	case stateAdminUsers:
		return len(m.users)
	default:
		return 0
	}
}

func (a *App) viewAdmin() string {
	m := &a.admin

	if m.loading {
		return subtleStyle.Render("Loading...")
	}
	if m.form != nil {
		return m.viewForm()
	}

	var b strings.Builder
	switch a.state {
	case stateAdminMenu:
		b.WriteString(titleStyle.Render("Admin"))
		b.WriteString(fmt.Sprintf("\nUsers: %d   Topics: %d   Questions: %d   Paths: %d\n\n",
			m.stats.TotalUsers, m.stats.TotalTopics, m.stats.TotalQuestions, m.stats.TotalPaths))
		b.WriteString("t  manage topics\nq  manage questions\nu  manage users\n")
		b.WriteString(helpStyle.Render("r refresh • esc back to dashboard"))

	case stateAdminTopics:
		b.WriteString(titleStyle.Render("Topics"))
		b.WriteString("\n")
		for i, t := range m.topics {
			line := fmt.Sprintf("%s — %s", t.Name, t.Description)
			if i == m.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		if len(m.topics) == 0 {
			b.WriteString(subtleStyle.Render("No topics yet.") + "\n")
		}
		b.WriteString(helpStyle.Render("n new • e edit • d delete • esc back"))

	case stateAdminQuestions:
		b.WriteString(titleStyle.Render("Questions"))
		b.WriteString("\n")
		for i, q := range m.questions {
			line := fmt.Sprintf("#%d %s (%d options)", q.ID, truncate(q.Text, 60), len(q.Options))
			if i == m.cursor {
				line = selectedStyle.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		if len(m.questions) == 0 {
			b.WriteString(subtleStyle.Render("No questions yet.") + "\n")
		}
		b.WriteString(helpStyle.Render("n new • e edit • d delete • esc back"))

	case stateAdminUsers:
		b.WriteString(titleStyle.Render("Users"))
		b.WriteString("\n")
		for i, u := range m.users {
			role := u.Role
			if u.Role == model.RoleAdmin {
				role = selectedStyle.Render(role)
			}
			line := fmt.Sprintf("%-20s %s", u.Username, role)
			if !u.Active {
				line += subtleStyle.Render("  (inactive)")
			}
			if i == m.cursor {
				line = selectedStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(helpStyle.Render("r toggle role • d delete • esc back"))
	}

	if m.confirm != "" {
		b.WriteString("\n" + errorStyle.Render(m.confirm+" (y/N)"))
	}
	if m.inline != "" {
		b.WriteString("\n" + errorStyle.Render(m.inline))
	}
	return b.String()
}

func (m *adminModel) viewForm() string {
	f := m.form
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View() + "\n")
	}
	if m.inline != "" {
		b.WriteString("\n" + errorStyle.Render(m.inline))
	}
	b.WriteString("\n" + helpStyle.Render("enter save • tab next field • esc cancel"))
	return boxStyle.Render(b.String())
}

// truncate shortens to n runes; byte slicing would split multibyte text.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
