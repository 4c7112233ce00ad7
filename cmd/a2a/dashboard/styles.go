package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("245"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("232")).
			Background(lipgloss.Color("51"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	senderUserStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	senderAIStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	senderAgentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	senderSystemStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	senderOpenAIStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))

	hintStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("245"))

	consoleInputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	consoleSystemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	consoleAgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	consoleInfoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	consoleErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	statusOnline = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	statusOff    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)
