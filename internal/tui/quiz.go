// internal/tui/quiz.go
//
// The quiz flow: pick a topic, answer its questions with a confidence level
// per answer, submit once, and land on the backend's verdict. The submit
// handler also writes the returned learning path through the cache and
// seeds a fresh progress record, so the dashboard is ready the moment the
// user goes back.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kindrove/pathway/internal/model"
	"github.com/kindrove/pathway/internal/quiz"
	"github.com/kindrove/pathway/internal/reconcile"
)

type topicsLoadedMsg struct {
	nav    int
	topics []model.Topic
	err    error
}

type questionsLoadedMsg struct {
	nav       int
	topic     model.Topic
	questions []model.Question
	err       error
}

type quizSubmittedMsg struct {
	nav    int
	result model.QuizResult
	err    error
}

type topicItem struct{ t model.Topic }

func (i topicItem) Title() string       { return i.t.Name }
func (i topicItem) Description() string { return i.t.Description }
func (i topicItem) FilterValue() string { return i.t.Name }

type quizModel struct {
	loading bool
	ready   bool // topics list built
	topics  list.Model
	sess    *quiz.Session
	option  int // option cursor on the current question
	inline  string
	result  model.QuizResult
}

// loadTopics fetches the topic catalogue for the selection list.
func (m *quizModel) loadTopics(a *App) tea.Cmd {
	m.loading = true
	m.ready = false
	m.inline = ""
	m.sess = nil
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		topics, err := a.client.Topics(ctx)
		return topicsLoadedMsg{nav: nav, topics: topics, err: err}
	}
}

func (a *App) loadQuestions(t model.Topic) tea.Cmd {
	a.quiz.loading = true
	nav := a.nav
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		qs, err := a.client.Questions(ctx, t.ID)
		return questionsLoadedMsg{nav: nav, topic: t, questions: qs, err: err}
	}
}

// submitQuiz sends the answers once and reconciles the outcome. The
// backend's verdict carries the generated path; caching it here means the
// dashboard serves it even if the next fetch happens offline.
func (a *App) submitQuiz() tea.Cmd {
	m := &a.quiz
	sub, err := m.sess.Submission(a.sess.Username(), "", quiz.DefaultWeeklyHours)
	if err != nil {
		m.inline = err.Error()
		if missing := m.sess.Unanswered(); len(missing) > 0 {
			m.inline = fmt.Sprintf("Answer question(s) %s before submitting", joinInts(missing))
		}
		return nil
	}
	m.loading = true
	m.inline = ""
	nav := a.nav
	topicID := m.sess.Topic.ID
	username := a.sess.Username()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.APITimeout)
		defer cancel()
		result, err := a.client.SubmitQuiz(ctx, topicID, sub)
		if err == nil && result.LearningPath != nil {
			reconcile.Put(a.rec, reconcile.ResourceLearningPath, username, *result.LearningPath)
			seed := model.Progress{
				Username:     username,
				TotalModules: len(result.LearningPath.Modules),
			}
			reconcile.Mutate(ctx, a.rec, reconcile.ResourceProgress, username,
				func(ctx context.Context) (model.Progress, error) {
					return a.client.UpdateProgress(ctx, seed)
				})
		}
		return quizSubmittedMsg{nav: nav, result: result, err: err}
	}
}

func (a *App) updateQuiz(msg tea.Msg) (tea.Model, tea.Cmd) {
	m := &a.quiz

	switch msg := msg.(type) {
	case topicsLoadedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load topics", msg.err)
		}
		items := make([]list.Item, len(msg.topics))
		for i, t := range msg.topics {
			items[i] = topicItem{t}
		}
		m.topics = list.New(items, list.NewDefaultDelegate(), a.width, max(a.height-4, 10))
		m.topics.Title = "Pick a quiz topic"
		m.topics.SetShowStatusBar(false)
		m.ready = true
		return a, nil

	case questionsLoadedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Couldn't load questions", msg.err)
		}
		sess, err := quiz.New(msg.topic, msg.questions)
		if err != nil {
			return a, a.showToast("That topic has no questions yet")
		}
		m.sess = sess
		m.option = 0
		a.state = stateQuiz
		return a, nil

	case quizSubmittedMsg:
		if a.stale(msg.nav) {
			return a, nil
		}
		m.loading = false
		if msg.err != nil {
			return a, a.errToast("Submit failed", msg.err)
		}
		m.result = msg.result
		a.state = stateQuizResult
		return a, nil

	case tea.KeyMsg:
		switch a.state {
		case stateTopicSelect:
			return a.updateTopicSelect(msg)
		case stateQuiz:
			return a.updateQuizQuestion(msg)
		default:
			switch msg.String() {
			case "enter", "esc":
				return a, a.switchTo(stateDashboard)
			}
			return a, nil
		}
	}

	if a.state == stateTopicSelect && m.ready {
		var cmd tea.Cmd
		m.topics, cmd = m.topics.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateTopicSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := &a.quiz
	switch msg.String() {
	case "enter":
		if m.ready {
			if it, ok := m.topics.SelectedItem().(topicItem); ok {
				return a, a.loadQuestions(it.t)
			}
		}
		return a, nil
	case "esc":
		return a, a.switchTo(stateDashboard)
	}
	if !m.ready || m.loading {
		return a, nil
	}
	var cmd tea.Cmd
	m.topics, cmd = m.topics.Update(msg)
	return a, cmd
}

func (a *App) updateQuizQuestion(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m := &a.quiz
	if m.loading || m.sess == nil {
		return a, nil
	}
	q, _ := m.sess.Current()

	switch msg.String() {
	case "up", "k":
		if m.option > 0 {
			m.option--
		}
	case "down", "j":
		if m.option < len(q.Options)-1 {
			m.option++
		}
	case "enter", " ":
		m.sess.Answer(m.option)
	case "+", "=":
		m.sess.SetConfidence(m.sess.Confidence() + 10)
	case "-":
		m.sess.SetConfidence(m.sess.Confidence() - 10)
	case "right", "n":
		if err := m.sess.Next(); err != nil {
			m.inline = "Answer this question first"
		} else {
			m.syncOption()
			m.inline = ""
		}
	case "left", "p":
		m.sess.Prev()
		m.syncOption()
		m.inline = ""
	case "s":
		if m.sess.OnLast() || m.sess.Complete() {
			return a, a.submitQuiz()
		}
	case "esc":
		return a, a.switchTo(stateDashboard)
	}
	return a, nil
}

// syncOption moves the option cursor to the stored answer when revisiting.
func (m *quizModel) syncOption() {
	if sel := m.sess.SelectedOption(); sel >= 0 {
		m.option = sel
	} else {
		m.option = 0
	}
}

func (a *App) viewQuiz() string {
	m := &a.quiz
	switch a.state {
	case stateTopicSelect:
		if !m.ready {
			return subtleStyle.Render("Loading topics...")
		}
		return m.topics.View() + "\n" + helpStyle.Render("enter start quiz • esc back")
	case stateQuizResult:
		return m.viewResult()
	default:
		return m.viewQuestion()
	}
}

func (m *quizModel) viewQuestion() string {
	if m.sess == nil || m.loading {
		return subtleStyle.Render("Loading questions...")
	}
	q, idx := m.sess.Current()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s — question %d of %d",
		m.sess.Topic.Name, idx+1, len(m.sess.Questions))))
	b.WriteString("\n" + q.Text + "\n\n")

	sel := m.sess.SelectedOption()
	for i, opt := range q.Options {
		marker := "( )"
		if i == sel {
			marker = "(•)"
		}
		line := fmt.Sprintf("%s %s", marker, opt)
		if i == m.option {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(fmt.Sprintf("\nConfidence: %d%%  (+/- to adjust)\n", m.sess.Confidence()))
	if m.inline != "" {
		b.WriteString(errorStyle.Render(m.inline) + "\n")
	}

	help := "enter select • n/p navigate • esc abandon"
	if m.sess.OnLast() {
		help = "enter select • p back • s submit • esc abandon"
	}
	b.WriteString(helpStyle.Render(help))
	return boxStyle.Render(b.String())
}

func (m *quizModel) viewResult() string {
	r := m.result

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quiz result"))
	b.WriteString(fmt.Sprintf("\nScore: %.0f%% (%d/%d correct)\n", r.Score, r.Correct, r.Total))
	b.WriteString("Assessed level: " + selectedStyle.Render(r.InferredSkill) + "\n")
	if r.LearningPath != nil {
		b.WriteString(fmt.Sprintf("\nYour path %q is ready: %d modules, ~%d weeks.\n",
			r.LearningPath.Title, len(r.LearningPath.Modules), r.LearningPath.EstimatedWeeks))
	}
	b.WriteString("\n" + helpStyle.Render("enter go to dashboard"))
	return boxStyle.Render(b.String())
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
