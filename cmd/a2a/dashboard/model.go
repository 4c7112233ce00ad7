// Package dashboard provides the interactive TUI for the A2A client. The
// interface is split across multiple files:
//   - model.go: Types, construction, Init
//   - update.go: Update loop and key handling
//   - commands.go: tea.Cmd builders for async work
//   - view.go: Rendering functions
//   - styles.go: lipgloss styles
package dashboard

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"a2aclient/internal/app"
	"a2aclient/internal/github"
	"a2aclient/internal/types"
)

// Tab identifies one dashboard view.
type Tab int

const (
	TabOrchestration Tab = iota
	TabMissions
	TabCore
	TabWorkflow
	TabCode
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabOrchestration:
		return "orchestration"
	case TabMissions:
		return "missions"
	case TabCore:
		return "core"
	case TabWorkflow:
		return "workflow"
	case TabCode:
		return "code"
	}
	return "unknown"
}

// missionInputStage tracks the two-step mission creation prompt.
type missionInputStage int

const (
	missionIdle missionInputStage = iota
	missionName
	missionObjective
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	app *app.App

	tab    Tab
	width  int
	height int
	ready  bool

	chatVP    viewport.Model
	openaiVP  viewport.Model
	consoleVP viewport.Model
	input     textinput.Model
	renderer  *glamour.TermRenderer

	// missions tab
	missionCursor  int
	missionStage   missionInputStage
	pendingMission string

	// orchestration tab
	agentCursor int

	// code tab
	repoPath     string
	repoEntries  []types.RepoEntry
	repoCursor   int
	repoFile     *github.FileContent
	repoFileName string
	repoErr      error
}

// New builds the dashboard model around an assembled application.
func New(a *app.App) Model {
	input := textinput.New()
	input.Placeholder = "Type a message, /openai <prompt>, /imagine <prompt>..."
	input.CharLimit = 4096
	input.Focus()

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return Model{
		app:      a,
		tab:      TabOrchestration,
		input:    input,
		renderer: renderer,
		repoPath: "",
	}
}

// Init subscribes to application change notifications.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.app.Events()))
}

// Run launches the dashboard and blocks until exit.
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
