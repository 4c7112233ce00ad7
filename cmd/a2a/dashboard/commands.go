package dashboard

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"a2aclient/internal/app"
	"a2aclient/internal/github"
	"a2aclient/internal/types"
)

// appEventMsg carries one change notification from the application.
type appEventMsg struct {
	event app.Event
}

// chatDoneMsg signals a completed chat round trip.
type chatDoneMsg struct{}

// repoListMsg carries a repository directory listing.
type repoListMsg struct {
	path    string
	entries []types.RepoEntry
	err     error
}

// repoFileMsg carries one fetched repository file.
type repoFileMsg struct {
	name string
	file github.FileContent
	err  error
}

// waitForEvent blocks on the application's event stream.
func waitForEvent(events <-chan app.Event) tea.Cmd {
	return func() tea.Msg {
		return appEventMsg{event: <-events}
	}
}

// sendChat routes one input line through the conversation controller. The
// provider round trip happens off the UI goroutine.
func (m Model) sendChat(text string) tea.Cmd {
	return func() tea.Msg {
		m.app.Chat.Send(context.Background(), text)
		return chatDoneMsg{}
	}
}

// runChatAction dispatches the chat-panel slash actions that are not plain
// messages.
func (m Model) runChatAction(text string) (tea.Cmd, bool) {
	switch {
	case text == "/hint":
		return func() tea.Msg {
			m.app.Chat.RequestHint(context.Background())
			return chatDoneMsg{}
		}, true
	case strings.HasPrefix(text, "/simulate "):
		desc := strings.TrimSpace(strings.TrimPrefix(text, "/simulate "))
		return func() tea.Msg {
			m.app.Chat.SimulateTask(context.Background(), desc)
			return chatDoneMsg{}
		}, true
	case strings.HasPrefix(text, "/connect "):
		desc := strings.TrimSpace(strings.TrimPrefix(text, "/connect "))
		return func() tea.Msg {
			m.app.Chat.ConnectAgents(context.Background(), desc)
			return chatDoneMsg{}
		}, true
	}
	return nil, false
}

// loadRepo lists a repository directory.
func (m Model) loadRepo(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.app.ListRepo(context.Background(), path)
		return repoListMsg{path: path, entries: entries, err: err}
	}
}

// loadRepoFile fetches one repository file.
func (m Model) loadRepoFile(entry types.RepoEntry) tea.Cmd {
	return func() tea.Msg {
		file, err := m.app.GetRepoFile(context.Background(), entry.Path)
		return repoFileMsg{name: entry.Name, file: file, err: err}
	}
}
