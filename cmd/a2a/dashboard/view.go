package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"a2aclient/internal/types"
)

func (m Model) View() string {
	if !m.ready {
		return "Starting A2A dashboard..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, int(tabCount))
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	missionLabel := "no mission"
	if ms, ok := m.app.Missions.Active(); ok {
		missionLabel = ms.Name
	}
	right := dimStyle.Render("mission: " + missionLabel)

	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("A2A Client"),
		"  ",
		lipgloss.JoinHorizontal(lipgloss.Center, tabs...),
		"  ",
		right,
	)
}

func (m Model) renderContent() string {
	switch m.tab {
	case TabOrchestration:
		left := panelStyle.Width(m.chatVP.Width).Render(m.renderAgentList())
		right := panelStyle.Width(m.openaiVP.Width).Render(m.chatVP.View())
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case TabMissions:
		return panelStyle.Width(m.width - 2).Render(m.renderMissions())
	case TabCore:
		left := panelStyle.Width(m.chatVP.Width).Render(m.chatVP.View())
		right := panelStyle.Width(m.openaiVP.Width).Render(m.openaiVP.View())
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case TabWorkflow:
		left := panelStyle.Width(m.chatVP.Width).Render(m.renderWorkflow())
		right := panelStyle.Width(m.openaiVP.Width).Render(m.consoleVP.View())
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case TabCode:
		left := panelStyle.Width(m.chatVP.Width).Render(m.renderRepoListing())
		right := panelStyle.Width(m.openaiVP.Width).Render(m.renderRepoFile())
		return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	return ""
}

func (m Model) renderFooter() string {
	var help string
	switch m.tab {
	case TabOrchestration:
		help = "tab: switch view | up/down: select agent | ctrl+o: talk to agent | ctrl+d: delegate | enter: send | ctrl+c: quit"
	case TabMissions:
		help = "tab: switch view | up/down: select | enter: activate | ctrl+n: new mission | ctrl+c: quit"
	case TabCore:
		help = "tab: switch view | enter: send | /openai <p>, /imagine <p> | ctrl+d: delegate | ctrl+c: quit"
	case TabWorkflow:
		help = "tab: switch view | enter: run console command | ctrl+s: start workflow | ctrl+c: quit"
	case TabCode:
		help = "tab: switch view | up/down: select | enter: open | ctrl+r: refresh | ctrl+c: quit"
	}
	return dimStyle.Render(help)
}

// =============================================================================
// PANEL CONTENT
// =============================================================================

func (m Model) renderPrimaryThread() string {
	msgs := m.app.Chat.Primary()
	if len(msgs) == 0 {
		return dimStyle.Render("No messages yet. Select a mission and talk to an agent.")
	}
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m Model) renderSecondaryThread() string {
	msgs := m.app.Chat.Secondary()
	if len(msgs) == 0 {
		return dimStyle.Render("No OpenAI messages. Use /openai <prompt> or /imagine <prompt>.")
	}
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m Model) renderMessage(msg types.ChatMessage) string {
	var style lipgloss.Style
	switch msg.Sender {
	case types.SenderUser:
		style = senderUserStyle
	case types.SenderAI:
		style = senderAIStyle
	case types.SenderAgent:
		style = senderAgentStyle
	case types.SenderOpenAI:
		style = senderOpenAIStyle
	default:
		style = senderSystemStyle
	}

	var b strings.Builder
	b.WriteString(style.Render(string(msg.Sender)))
	b.WriteString(": ")

	text := msg.Text
	if msg.Sender == types.SenderAgent || msg.Sender == types.SenderAI {
		if rendered, err := m.safeRenderMarkdown(text); err == nil {
			text = rendered
		}
	}
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n")

	if msg.ImageURL != "" {
		b.WriteString(dimStyle.Render("  [inline image attached]"))
		b.WriteString("\n")
	}
	if msg.Hint != nil {
		b.WriteString(hintStyle.Render(fmt.Sprintf("  hint> %s", msg.Hint.User)))
		b.WriteString("\n")
	}
	return b.String()
}

// safeRenderMarkdown renders agent replies through glamour, recovering to the
// raw text on any panic inside the renderer.
func (m Model) safeRenderMarkdown(content string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = content
			err = fmt.Errorf("markdown render panic: %v", r)
		}
	}()
	if m.renderer == nil {
		return content, nil
	}
	out, rerr := m.renderer.Render(content)
	if rerr != nil {
		return content, rerr
	}
	return strings.TrimSpace(out), nil
}

func (m Model) renderConsole() string {
	lines := m.app.Console.Lines()
	if len(lines) == 0 {
		return dimStyle.Render("Console ready. Type 'help' for commands.")
	}
	var b strings.Builder
	for _, line := range lines {
		var style lipgloss.Style
		switch line.Kind {
		case types.CmdInput:
			style = consoleInputStyle
		case types.CmdSystem, types.CmdGitHub:
			style = consoleSystemStyle
		case types.CmdAgent:
			style = consoleAgentStyle
		case types.CmdError:
			style = consoleErrorStyle
		default:
			style = consoleInfoStyle
		}
		b.WriteString(style.Render(line.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderAgentList() string {
	agents := m.app.Registry.Agents()
	engaged, hasEngaged := m.app.Chat.EngagedAgent()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Agent Fleet"))
	b.WriteString("\n\n")
	for i, agent := range agents {
		prefix := "  "
		if i == m.agentCursor {
			prefix = cursorStyle.Render("> ")
		}
		status := statusOnline.Render(string(agent.Status))
		if agent.Status != types.StatusOnline {
			status = statusOff.Render(string(agent.Status))
		}
		marker := ""
		if hasEngaged && engaged.ID == agent.ID {
			marker = cursorStyle.Render(" [chatting]")
		}
		b.WriteString(fmt.Sprintf("%s%s (%s) %s%s\n", prefix, agent.Name, agent.ID, status, marker))
		b.WriteString(dimStyle.Render("    " + truncate(agent.Description, 70)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMissions() string {
	missions := m.app.Missions.Missions()
	activeID, _ := m.app.Missions.ActiveID()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Mission Control"))
	b.WriteString("\n\n")

	switch m.missionStage {
	case missionName:
		b.WriteString("Creating mission. Enter a name below.\n\n")
	case missionObjective:
		b.WriteString(fmt.Sprintf("Creating mission %q. Enter the objective below.\n\n", m.pendingMission))
	}

	if len(missions) == 0 {
		b.WriteString(dimStyle.Render("No missions yet. Press ctrl+n to create one."))
		return b.String()
	}
	for i, ms := range missions {
		prefix := "  "
		if i == m.missionCursor {
			prefix = cursorStyle.Render("> ")
		}
		marker := ""
		if ms.ID == activeID {
			marker = cursorStyle.Render(" [active]")
		}
		b.WriteString(fmt.Sprintf("%s%s%s\n", prefix, ms.Name, marker))
		b.WriteString(dimStyle.Render("    " + ms.Objective))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderWorkflow() string {
	flow := m.app.Workflow.Flow()
	current, running := m.app.Workflow.CurrentStep()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Workflow: " + flow.Meta.FlowName))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Owner: " + flow.Meta.Owner))
	b.WriteString("\n\n")
	for _, step := range flow.Steps {
		marker := "  "
		if running && step.ID == current.ID {
			marker = cursorStyle.Render("▶ ")
		}
		b.WriteString(fmt.Sprintf("%sStep %d: %s [%s]\n", marker, step.ID, strings.ReplaceAll(step.Name, "_", " "), step.Agent))
	}
	b.WriteString("\n")
	if m.app.Workflow.Running() {
		b.WriteString(cursorStyle.Render("Running..."))
	} else {
		b.WriteString(dimStyle.Render("Idle. Press ctrl+s to start."))
	}
	return b.String()
}

func (m Model) renderRepoListing() string {
	var b strings.Builder
	path := m.repoPath
	if path == "" {
		path = "/"
	}
	b.WriteString(titleStyle.Render("Repository: " + path))
	b.WriteString("\n\n")

	if m.repoErr != nil {
		b.WriteString(errStyle.Render(m.repoErr.Error()))
		return b.String()
	}
	if len(m.repoEntries) == 0 {
		b.WriteString(dimStyle.Render("No entries. Press ctrl+r to load."))
		return b.String()
	}
	for i, entry := range m.repoEntries {
		prefix := "  "
		if i == m.repoCursor {
			prefix = cursorStyle.Render("> ")
		}
		name := entry.Name
		if entry.Type == types.RepoDir {
			name += "/"
		}
		b.WriteString(prefix + name + "\n")
	}
	return b.String()
}

func (m Model) renderRepoFile() string {
	if m.repoFile == nil {
		return dimStyle.Render("Select a file to view its contents.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.repoFileName))
	b.WriteString("\n\n")
	b.WriteString(m.repoFile.Content)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
