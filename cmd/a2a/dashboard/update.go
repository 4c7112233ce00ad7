package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"a2aclient/internal/app"
	"a2aclient/internal/types"
	"a2aclient/internal/workflow"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshPanels()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab:
			m.tab = (m.tab + 1) % tabCount
			m.refreshPanels()
			return m, m.enterTab()
		case tea.KeyShiftTab:
			m.tab = (m.tab + tabCount - 1) % tabCount
			m.refreshPanels()
			return m, m.enterTab()
		case tea.KeyUp, tea.KeyDown:
			return m.handleCursor(msg), nil
		case tea.KeyEnter:
			return m.handleEnter()
		}
		switch msg.String() {
		case "ctrl+o":
			if m.tab == TabOrchestration {
				return m, m.openCursorAgent()
			}
		case "ctrl+d":
			if m.tab == TabOrchestration || m.tab == TabCore {
				return m, m.delegateLastSecondary()
			}
		case "ctrl+n":
			if m.tab == TabMissions {
				m.missionStage = missionName
				m.input.Placeholder = "Mission name"
				m.input.SetValue("")
				return m, nil
			}
		case "ctrl+s":
			if m.tab == TabWorkflow {
				m.app.Workflow.Start(workflow.StartOptions{})
				return m, nil
			}
		case "ctrl+r":
			if m.tab == TabCode {
				return m, m.loadRepo(m.repoPath)
			}
		}

	case appEventMsg:
		if msg.event == app.EventShowMissions {
			m.tab = TabMissions
		}
		m.refreshPanels()
		return m, waitForEvent(m.app.Events())

	case chatDoneMsg:
		m.refreshPanels()
		return m, nil

	case repoListMsg:
		m.repoPath = msg.path
		m.repoEntries = msg.entries
		m.repoCursor = 0
		m.repoFile = nil
		m.repoErr = msg.err
		return m, nil

	case repoFileMsg:
		if msg.err != nil {
			m.repoErr = msg.err
			return m, nil
		}
		m.repoErr = nil
		m.repoFileName = msg.name
		m.repoFile = &msg.file
		return m, nil
	}

	m.input, tiCmd = m.input.Update(msg)
	vp := m.activeViewport()
	*vp, vpCmd = vp.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// layout sizes the panels for the current terminal dimensions.
func (m *Model) layout() {
	contentHeight := m.height - 6
	if contentHeight < 3 {
		contentHeight = 3
	}
	half := m.width / 2

	m.chatVP = viewport.New(half, contentHeight)
	m.openaiVP = viewport.New(m.width-half, contentHeight)
	m.consoleVP = viewport.New(m.width, contentHeight)
	m.input.Width = m.width - 4
}

// activeViewport returns the viewport scrolled by the current tab.
func (m *Model) activeViewport() *viewport.Model {
	switch m.tab {
	case TabWorkflow:
		return &m.consoleVP
	default:
		return &m.chatVP
	}
}

// refreshPanels re-renders every viewport from application state.
func (m *Model) refreshPanels() {
	if !m.ready {
		return
	}
	m.chatVP.SetContent(m.renderPrimaryThread())
	m.chatVP.GotoBottom()
	m.openaiVP.SetContent(m.renderSecondaryThread())
	m.openaiVP.GotoBottom()
	m.consoleVP.SetContent(m.renderConsole())
	m.consoleVP.GotoBottom()
}

// enterTab runs a tab's entry action.
func (m *Model) enterTab() tea.Cmd {
	if m.tab == TabCode && m.repoEntries == nil && m.repoErr == nil {
		return m.loadRepo(m.repoPath)
	}
	return nil
}

// handleCursor moves the per-tab selection cursors.
func (m Model) handleCursor(msg tea.KeyMsg) Model {
	delta := 1
	if msg.Type == tea.KeyUp {
		delta = -1
	}
	switch m.tab {
	case TabMissions:
		m.missionCursor = clamp(m.missionCursor+delta, 0, len(m.app.Missions.Missions())-1)
	case TabOrchestration:
		m.agentCursor = clamp(m.agentCursor+delta, 0, len(m.app.Registry.Agents())-1)
	case TabCode:
		m.repoCursor = clamp(m.repoCursor+delta, 0, len(m.repoEntries)-1)
	default:
		m.activeViewport().LineDown(1)
		if delta < 0 {
			m.activeViewport().LineUp(2)
		}
	}
	return m
}

// handleEnter dispatches the input line or the cursored selection for the
// active tab.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	switch m.tab {
	case TabMissions:
		switch m.missionStage {
		case missionName:
			if text == "" {
				return m, nil
			}
			m.pendingMission = text
			m.missionStage = missionObjective
			m.input.Placeholder = "Mission objective"
			m.input.SetValue("")
			return m, nil
		case missionObjective:
			m.app.Missions.Create(m.pendingMission, text)
			m.missionStage = missionIdle
			m.pendingMission = ""
			m.resetPlaceholder()
			m.input.SetValue("")
			m.refreshPanels()
			return m, nil
		default:
			missions := m.app.Missions.Missions()
			if len(missions) > 0 && m.missionCursor < len(missions) {
				m.app.Missions.Select(missions[m.missionCursor])
				m.refreshPanels()
			}
			return m, nil
		}

	case TabWorkflow:
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.app.Console.Exec(text)
		m.refreshPanels()
		return m, nil

	case TabCode:
		if len(m.repoEntries) > 0 && m.repoCursor < len(m.repoEntries) {
			entry := m.repoEntries[m.repoCursor]
			if entry.Type == types.RepoDir {
				return m, m.loadRepo(entry.Path)
			}
			return m, m.loadRepoFile(entry)
		}
		return m, nil

	default:
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		if cmd, ok := m.runChatAction(text); ok {
			return m, cmd
		}
		return m, m.sendChat(text)
	}
}

func (m *Model) resetPlaceholder() {
	m.input.Placeholder = "Type a message, /openai <prompt>, /imagine <prompt>..."
}

// openCursorAgent starts a conversation with the highlighted agent.
func (m Model) openCursorAgent() tea.Cmd {
	agents := m.app.Registry.Agents()
	if len(agents) == 0 || m.agentCursor >= len(agents) {
		return nil
	}
	agent := agents[m.agentCursor]
	return func() tea.Msg {
		m.app.Chat.OpenAgent(agent)
		return chatDoneMsg{}
	}
}

// delegateLastSecondary hands the newest OpenAI reply to the engaged agent.
func (m Model) delegateLastSecondary() tea.Cmd {
	secondary := m.app.Chat.Secondary()
	for i := len(secondary) - 1; i >= 0; i-- {
		if secondary[i].Sender == types.SenderOpenAI && !secondary[i].Pending {
			msg := secondary[i]
			return func() tea.Msg {
				m.app.Chat.Delegate(msg)
				return chatDoneMsg{}
			}
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
