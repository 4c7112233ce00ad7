// Package console implements the operator terminal: a scrollback of typed
// commands and system responses, an in-memory scratch file system, and the
// command interpreter that drives agent delegation and the workflow player.
package console

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"a2aclient/internal/logging"
	"a2aclient/internal/registry"
	"a2aclient/internal/types"
	"a2aclient/internal/workflow"
)

// Config wires the interpreter's collaborators.
type Config struct {
	Registry *registry.Registry
	Player   *workflow.Player

	ActiveMissionID func() (string, bool)
	// EngagedAgentID returns the chat-engaged agent used as the delegate-task
	// fallback target.
	EngagedAgentID func() (string, bool)
	Notify         func()

	// AckDelay paces the simulated agent acknowledgement of delegate-task.
	// Zero means immediate.
	AckDelay time.Duration
}

// Console owns the scrollback and the scratch file system.
type Console struct {
	mu    sync.Mutex
	cfg   Config
	lines []types.Command
	files map[string]string

	wg sync.WaitGroup
}

// New builds a console with the seeded scratch files.
func New(cfg Config) *Console {
	if cfg.Notify == nil {
		cfg.Notify = func() {}
	}
	return &Console{
		cfg: cfg,
		files: map[string]string{
			"welcome.txt": "Welcome to the A2A simulated file system! Try the `ls` command.",
			"readme.md":   "# A2A Commands\n\n- `ls`: list files\n- `cat <file>`: view file\n- `touch <file>`: create file\n- `rm <file>`: delete file",
		},
	}
}

// SetPlayer installs the workflow player driven by the flow command. The
// player emits through Append, so it is built after the console and wired in
// here.
func (c *Console) SetPlayer(p *workflow.Player) {
	c.mu.Lock()
	c.cfg.Player = p
	c.mu.Unlock()
}

// Wait blocks until pending delegation acknowledgements have landed.
func (c *Console) Wait() { c.wg.Wait() }

// Lines returns the scrollback visible in the active mission scope: lines
// scoped to the active mission plus global (nil-scoped) lines.
func (c *Console) Lines() []types.Command {
	active, hasActive := c.cfg.ActiveMissionID()
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := make([]types.Command, 0, len(c.lines))
	for _, line := range c.lines {
		if line.MissionID == nil || (hasActive && *line.MissionID == active) {
			visible = append(visible, line)
		}
	}
	return visible
}

// Append adds one line in the active mission scope.
func (c *Console) Append(kind types.CommandKind, text string) {
	line := types.Command{Kind: kind, Text: text}
	if id, ok := c.cfg.ActiveMissionID(); ok {
		line.MissionID = &id
	}
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.cfg.Notify()
}

// Reset discards the whole scrollback. Mission selection calls this before
// announcing the new scope.
func (c *Console) Reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	c.cfg.Notify()
}

// clearActiveScope drops the lines visible in the current scope, keeping
// other missions' history.
func (c *Console) clearActiveScope() {
	active, hasActive := c.cfg.ActiveMissionID()
	c.mu.Lock()
	kept := c.lines[:0]
	for _, line := range c.lines {
		if line.MissionID == nil || (hasActive && *line.MissionID == active) {
			continue
		}
		kept = append(kept, line)
	}
	c.lines = kept
	c.mu.Unlock()
	c.cfg.Notify()
}

// Files returns the scratch file names in lexicographic order.
func (c *Console) Files() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.files))
	for name := range c.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// COMMAND TYPE
// =============================================================================

// command is the parsed form of one console input. Exactly one variant is
// populated; kind selects it.
type command struct {
	kind commandKind
	raw  string

	// delegate-task
	agentID string
	task    string
	domain  string

	// file commands and simulation stubs
	arg string

	// flow
	flowArgs []string
}

type commandKind int

const (
	cmdHelp commandKind = iota
	cmdListAgents
	cmdClear
	cmdDelegateTask
	cmdLs
	cmdCat
	cmdTouch
	cmdRm
	cmdSimStub
	cmdFlow
	cmdUnknown
	cmdParseError
)

// =============================================================================
// INTERPRETER
// =============================================================================

// Exec echoes the raw input and dispatches it.
func (c *Console) Exec(input string) {
	c.Append(types.CmdInput, "user@a2a-client:~$ "+input)
	logging.Console("exec: %s", input)

	cmd := c.parse(input)
	switch cmd.kind {
	case cmdDelegateTask:
		c.execDelegateTask(cmd)
	case cmdHelp:
		c.Append(types.CmdInfo, "Available commands:\ndelegate-task, list-agents, a2a, a2u, a2s, ls, cat, touch, rm, flow, clear, help")
	case cmdListAgents:
		c.Append(types.CmdInfo, "Registered Agents:")
		for _, agent := range c.cfg.Registry.Agents() {
			c.Append(types.CmdInfo, fmt.Sprintf("  - %s", agent))
		}
	case cmdClear:
		c.clearActiveScope()
	case cmdLs:
		files := c.Files()
		if len(files) == 0 {
			c.Append(types.CmdInfo, "Directory is empty.")
		} else {
			c.Append(types.CmdInfo, strings.Join(files, "\n"))
		}
	case cmdCat:
		c.execCat(cmd.arg)
	case cmdTouch:
		c.execTouch(cmd.arg)
	case cmdRm:
		c.execRm(cmd.arg)
	case cmdSimStub:
		c.Append(types.CmdInfo, fmt.Sprintf("Command '%s' is being simulated.", cmd.arg))
	case cmdFlow:
		c.execFlow(cmd.flowArgs)
	case cmdParseError:
		c.Append(types.CmdError, cmd.raw)
	default:
		c.Append(types.CmdError, fmt.Sprintf("Error: Unknown command %q. Type 'help'.", cmd.raw))
	}
}

// parse strips a single leading slash and splits on spaces, resolving the
// closed set of console commands.
func (c *Console) parse(input string) command {
	input = strings.TrimPrefix(input, "/")
	parts := strings.Split(input, " ")
	name := parts[0]
	args := parts[1:]

	switch name {
	case "delegate-task":
		return c.parseDelegateTask(args)
	case "help":
		return command{kind: cmdHelp}
	case "list-agents":
		return command{kind: cmdListAgents}
	case "clear":
		return command{kind: cmdClear}
	case "ls":
		return command{kind: cmdLs}
	case "cat":
		if len(args) == 0 {
			return command{kind: cmdParseError, raw: "Usage: cat <filename>"}
		}
		return command{kind: cmdCat, arg: args[0]}
	case "touch":
		if len(args) == 0 {
			return command{kind: cmdParseError, raw: "Usage: touch <filename>"}
		}
		return command{kind: cmdTouch, arg: args[0]}
	case "rm":
		if len(args) == 0 {
			return command{kind: cmdParseError, raw: "Usage: rm <filename>"}
		}
		return command{kind: cmdRm, arg: args[0]}
	case "a2a", "a2u", "a2s":
		return command{kind: cmdSimStub, arg: name}
	case "flow":
		return command{kind: cmdFlow, flowArgs: args}
	default:
		return command{kind: cmdUnknown, raw: name}
	}
}

// parseDelegateTask resolves `delegate-task [agent-id] <task...> --domain
// <domain>`. A missing or unknown leading agent id falls back to the
// chat-engaged agent.
func (c *Console) parseDelegateTask(args []string) command {
	var agentID string
	taskParts := args
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		if _, ok := c.cfg.Registry.Get(args[0]); ok {
			agentID = args[0]
			taskParts = args[1:]
		}
	}
	if agentID == "" {
		engaged, ok := c.cfg.EngagedAgentID()
		if !ok {
			return command{kind: cmdParseError, raw: "Error: No agent specified or selected."}
		}
		agentID = engaged
	}

	domainIndex := -1
	for i, part := range taskParts {
		if part == "--domain" {
			domainIndex = i
			break
		}
	}
	if domainIndex == -1 || domainIndex+1 >= len(taskParts) {
		return command{kind: cmdParseError, raw: "Error: Usage: ... <task> --domain <domain_name>"}
	}
	task := strings.Join(taskParts[:domainIndex], " ")
	if task == "" {
		return command{kind: cmdParseError, raw: "Error: Task description cannot be empty."}
	}
	return command{
		kind:    cmdDelegateTask,
		agentID: agentID,
		task:    task,
		domain:  taskParts[domainIndex+1],
	}
}

func (c *Console) execDelegateTask(cmd command) {
	agent, ok := c.cfg.Registry.Get(cmd.agentID)
	if !ok {
		c.Append(types.CmdError, fmt.Sprintf("Error: Agent with ID %q not found.", cmd.agentID))
		return
	}
	c.Append(types.CmdSystem, fmt.Sprintf("System: Delegating task %q to %s...", cmd.task, agent.Name))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		time.Sleep(c.cfg.AckDelay)
		if agent.Status == types.StatusOnline {
			c.Append(types.CmdAgent, fmt.Sprintf("%s: Task %q received.", agent.Name, cmd.task))
			binding := agent.OpenAIBinding
			if binding == "" {
				binding = "N/A"
			}
			c.Append(types.CmdSystem, fmt.Sprintf("A2A Protocol: Task acknowledged. Routing via %s.", binding))
		} else {
			c.Append(types.CmdError, fmt.Sprintf("Error: %s is %s.", agent.Name, agent.Status))
		}
	}()
}

func (c *Console) execCat(name string) {
	c.mu.Lock()
	content, ok := c.files[name]
	c.mu.Unlock()
	if !ok {
		c.Append(types.CmdError, fmt.Sprintf("Error: File '%s' not found.", name))
		return
	}
	c.Append(types.CmdInfo, content)
}

func (c *Console) execTouch(name string) {
	c.mu.Lock()
	c.files[name] = ""
	c.mu.Unlock()
	c.Append(types.CmdSystem, fmt.Sprintf("File '%s' created.", name))
}

func (c *Console) execRm(name string) {
	c.mu.Lock()
	_, ok := c.files[name]
	if ok {
		delete(c.files, name)
	}
	c.mu.Unlock()
	if !ok {
		c.Append(types.CmdError, fmt.Sprintf("Error: File '%s' not found.", name))
		return
	}
	c.Append(types.CmdSystem, fmt.Sprintf("File '%s' removed.", name))
}

func (c *Console) execFlow(args []string) {
	if len(args) >= 2 && args[0] == "start" && args[1] == "GenerateMarketingVideo" {
		c.Append(types.CmdSystem, fmt.Sprintf("Command recognized. Initiating workflow: %s", args[1]))
		c.cfg.Player.Start(workflow.StartOptions{
			Source:    "s3://brand-assets/2025-Q3.zip",
			Objective: "45-sec hype reel for next Monday’s launch.",
		})
		return
	}
	c.Append(types.CmdError, "Usage: /flow start GenerateMarketingVideo")
}
