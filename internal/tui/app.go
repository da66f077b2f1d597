// internal/tui/app.go
//
// The main TUI for pathway, following The Elm Architecture bubbletea uses:
// Model (state) -> Update (messages) -> View (render). One App model owns
// which screen is visible; each screen keeps its own sub-state in a file of
// its own.
//
// All remote work happens inside tea.Cmd goroutines that deliver messages
// back to the single Update loop, so screen state is never touched
// concurrently. Navigating away does not cancel in-flight requests; a late
// response still writes through the cache (harmless, last writer wins) but
// is dropped before it can touch the state of a screen that is gone — every
// async message carries the nav generation it was fired under.

package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/config"
	"github.com/kindrove/pathway/internal/export"
	"github.com/kindrove/pathway/internal/reconcile"
	"github.com/kindrove/pathway/internal/session"
)

// appState represents which screen we're on.
type appState int

const (
	stateLogin appState = iota
	stateRegister
	stateForgot
	stateDashboard
	stateTopicSelect
	stateQuiz
	stateQuizResult
	stateGenerate
	stateLeaderboard
	stateAdminMenu
	stateAdminTopics
	stateAdminQuestions
	stateAdminUsers
)

// toastTTL is how long a status toast stays on screen.
const toastTTL = 3 * time.Second

// toastClearMsg expires a toast; the id guards against an old timer wiping
// a newer toast.
type toastClearMsg struct{ id int }

// sessionExpiredMsg is raised when the api client's 401 hook fired.
type sessionExpiredMsg struct{}

// App is the main application model.
type App struct {
	state appState

	// nav increments on every screen change; async messages stamped with an
	// older value are ignored (their cache write-through already happened).
	nav int

	cfg      *config.Config
	log      *zap.Logger
	client   *api.Client
	sess     *session.Session
	rec      *reconcile.Reconciler
	exporter *export.Exporter

	width  int
	height int

	toast   string
	toastID int

	auth  authModel
	dash  dashboardModel
	quiz  quizModel
	gen   generateModel
	board leaderboardModel
	admin adminModel
}

// NewApp wires the application together.
func NewApp(cfg *config.Config, log *zap.Logger, client *api.Client, sess *session.Session, rec *reconcile.Reconciler, exporter *export.Exporter) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		state:    stateLogin,
		cfg:      cfg,
		log:      log,
		client:   client,
		sess:     sess,
		rec:      rec,
		exporter: exporter,
	}
	a.auth = newAuthModel()
	a.dash = newDashboardModel()
	a.board = newLeaderboardModel()
	a.admin = newAdminModel()

	// A persisted identity skips the login screen; the dashboard then
	// renders cached data immediately and refreshes in the background.
	if sess.Resume() && !sess.TokenExpired() {
		a.state = stateDashboard
	}
	return a
}

// Init fires the first fetch when we resume straight into the dashboard.
func (a *App) Init() tea.Cmd {
	if a.state == stateDashboard {
		return a.dash.load(a)
	}
	return a.auth.focusCmd()
}

// Update is the single message loop.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.board.resize(msg.Width, msg.Height)
		a.admin.resize(msg.Width, msg.Height)
		return a, nil

	case toastClearMsg:
		if msg.id == a.toastID {
			a.toast = ""
		}
		return a, nil

	case sessionExpiredMsg:
		// A 401 cleared the identity under us; bounce to login.
		cmd := a.switchTo(stateLogin)
		return a, tea.Batch(cmd, a.showToast("Session expired, please sign in again"))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	// The session hook can fire mid-command; poll it before dispatching.
	if a.state >= stateDashboard && a.sess.Expired() {
		return a.Update(sessionExpiredMsg{})
	}

	switch a.state {
	case stateLogin, stateRegister, stateForgot:
		return a.updateAuth(msg)
	case stateDashboard:
		return a.updateDashboard(msg)
	case stateTopicSelect, stateQuiz, stateQuizResult:
		return a.updateQuiz(msg)
	case stateGenerate:
		return a.updateGenerate(msg)
	case stateLeaderboard:
		return a.updateLeaderboard(msg)
	default:
		return a.updateAdmin(msg)
	}
}

// View renders the active screen plus the shared chrome.
func (a *App) View() string {
	var body string
	switch a.state {
	case stateLogin, stateRegister, stateForgot:
		body = a.viewAuth()
	case stateDashboard:
		body = a.viewDashboard()
	case stateTopicSelect, stateQuiz, stateQuizResult:
		body = a.viewQuiz()
	case stateGenerate:
		body = a.viewGenerate()
	case stateLeaderboard:
		body = a.viewLeaderboard()
	default:
		body = a.viewAdmin()
	}
	if a.toast != "" {
		body += "\n" + toastStyle.Render(a.toast)
	}
	return body
}

// switchTo changes screens and invalidates in-flight async messages.
func (a *App) switchTo(state appState) tea.Cmd {
	a.state = state
	a.nav++
	switch state {
	case stateLogin, stateRegister, stateForgot:
		a.auth = newAuthModel()
		a.auth.mode = state
		a.auth.build()
		return a.auth.focusCmd()
	case stateDashboard:
		return a.dash.load(a)
	case stateTopicSelect:
		return a.quiz.loadTopics(a)
	case stateGenerate:
		a.gen = newGenerateModel(a.sess.Username())
		return a.gen.focusCmd()
	case stateLeaderboard:
		return a.board.load(a)
	case stateAdminMenu:
		return a.admin.loadStats(a)
	case stateAdminTopics:
		return a.admin.loadTopics(a)
	case stateAdminQuestions:
		return a.admin.loadQuestions(a)
	case stateAdminUsers:
		return a.admin.loadUsers(a)
	}
	return nil
}

// stale reports whether an async message belongs to a screen we left.
func (a *App) stale(nav int) bool { return nav != a.nav }

// showToast displays a transient status line that clears itself.
func (a *App) showToast(text string) tea.Cmd {
	a.toast = text
	a.toastID++
	id := a.toastID
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastClearMsg{id} })
}

// errToast routes a classified error to a status line. NotFound is not an
// error surface and never lands here; callers render the empty state.
func (a *App) errToast(prefix string, err error) tea.Cmd {
	kind := api.KindOf(err)
	a.log.Warn("ui error",
		zap.String("screen", stateName(a.state)),
		zap.String("kind", kind.String()),
		zap.Error(err))
	switch kind {
	case api.KindForbidden:
		return a.showToast(prefix + ": you don't have permission for that")
	case api.KindValidation:
		var ae *api.Error
		if errors.As(err, &ae) {
			return a.showToast(prefix + ": " + ae.Message)
		}
		return a.showToast(prefix + ": invalid input")
	default:
		return a.showToast(prefix + ": backend unreachable, try again")
	}
}

func stateName(s appState) string {
	switch s {
	case stateLogin:
		return "login"
	case stateRegister:
		return "register"
	case stateForgot:
		return "forgot"
	case stateDashboard:
		return "dashboard"
	case stateTopicSelect:
		return "topics"
	case stateQuiz:
		return "quiz"
	case stateQuizResult:
		return "quiz_result"
	case stateGenerate:
		return "generate"
	case stateLeaderboard:
		return "leaderboard"
	case stateAdminMenu:
		return "admin"
	case stateAdminTopics:
		return "admin_topics"
	case stateAdminQuestions:
		return "admin_questions"
	case stateAdminUsers:
		return "admin_users"
	default:
		return "unknown"
	}
}
