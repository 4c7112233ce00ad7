// Package types defines the shared data model for the A2A client dashboard:
// agents, missions, chat messages, console commands, and settings bundles.
package types

import "fmt"

// AgentStatus is the availability of an agent.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "Online"
	StatusOffline AgentStatus = "Offline"
)

// MultiModalInferences flags which modalities an agent can infer over.
type MultiModalInferences struct {
	Text  bool `json:"text"`
	Image bool `json:"image"`
	Audio bool `json:"audio"`
}

// Bindings holds the routing identifiers an agent is reachable through.
type Bindings struct {
	Domain        string `json:"domain"`
	Service       string `json:"service"`
	OpenAIBinding string `json:"openai_binding"`
	GeminiProxy   string `json:"gemini_proxy"`
}

// AgentConfig is the editable configuration block of an agent.
type AgentConfig struct {
	MultiModalInferences  MultiModalInferences `json:"multiModalInferences"`
	Bindings              Bindings             `json:"bindings"`
	OrchestrationPriority int                  `json:"orchestrationPriority"` // 1..10
}

// Agent is a simulated persona with routing metadata. Agents do not execute
// real actions; their replies are LLM output or canned text.
type Agent struct {
	ID            string      `json:"id"` // stable slug, immutable
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Status        AgentStatus `json:"status"`
	OpenAIBinding string      `json:"openai_binding"`
	GeminiProxy   string      `json:"gemini_proxy"`
	Duties        []string    `json:"duties"`
	Config        AgentConfig `json:"config"`
}

// Mission is an operator-defined unit of work that scopes one conversation
// thread and one console log.
type Mission struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Objective string `json:"objective"`
	CreatedAt int64  `json:"createdAt"` // unix milliseconds
}

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser   Sender = "User"
	SenderAI     Sender = "AI"
	SenderSystem Sender = "System"
	SenderAgent  Sender = "Agent"
	SenderOpenAI Sender = "OpenAI"
)

// Hint is a three-part suggestion attached asynchronously to a chat message.
// Immutable once attached.
type Hint struct {
	User   string `json:"user"`
	AI     string `json:"ai"`
	System string `json:"system"`
}

// ChatMessage is one turn in a conversation thread. MissionID is nil for the
// unscoped secondary (OpenAI) thread.
type ChatMessage struct {
	ID        int64   `json:"id"`
	MissionID *string `json:"missionId"`
	Sender    Sender  `json:"sender"`
	Text      string  `json:"text"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	Hint      *Hint   `json:"hint,omitempty"`
	Pending   bool    `json:"pending,omitempty"` // in-flight placeholder
}

// CommandKind is the rendering type of a console line.
type CommandKind string

const (
	CmdInput  CommandKind = "input"
	CmdSystem CommandKind = "system"
	CmdAgent  CommandKind = "agent"
	CmdAI     CommandKind = "ai"
	CmdError  CommandKind = "error"
	CmdInfo   CommandKind = "info"
	CmdGitHub CommandKind = "github"
)

// Command is one rendered line in the operator console. Lines with a nil
// MissionID are global and visible in every mission scope.
type Command struct {
	Kind      CommandKind `json:"type"`
	Text      string      `json:"text"`
	MissionID *string     `json:"missionId"`
}

// APIKeys is the settings bundle holding credentials for the secondary
// provider and the repository collaborator.
type APIKeys struct {
	OpenAI      string `json:"openai"`
	GitHubToken string `json:"githubToken"`
	GitHubRepo  string `json:"githubRepo"` // "owner/repo"
}

// CustomInstructions is the settings bundle holding the two configurable
// system instructions.
type CustomInstructions struct {
	AI     string `json:"ai"`
	System string `json:"system"`
}

// RepoEntryType distinguishes files from directories in repository listings.
type RepoEntryType string

const (
	RepoFile RepoEntryType = "file"
	RepoDir  RepoEntryType = "dir"
)

// RepoEntry is one directory entry returned by the repository collaborator.
type RepoEntry struct {
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	SHA         string        `json:"sha"`
	Size        int64         `json:"size"`
	Type        RepoEntryType `json:"type"`
	DownloadURL string        `json:"download_url"`
}

// String renders a short identity for console listings.
func (a Agent) String() string {
	return fmt.Sprintf("%s (%s) - Status: %s", a.Name, a.ID, a.Status)
}
