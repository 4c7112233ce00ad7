package console

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a2aclient/internal/registry"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
	"a2aclient/internal/workflow"
)

type fixture struct {
	console  *Console
	registry *registry.Registry
	player   *workflow.Player

	missionID string
	engagedID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "a2a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg, err := registry.Load(st)
	require.NoError(t, err)

	f := &fixture{registry: reg, missionID: "mission_1"}

	f.console = New(Config{
		Registry:        reg,
		ActiveMissionID: f.activeMission,
		EngagedAgentID:  f.engagedAgent,
	})

	f.player, err = workflow.New(workflow.Config{
		Emit:            f.console.Append,
		ActiveMissionID: f.activeMission,
	})
	require.NoError(t, err)
	f.console.SetPlayer(f.player)
	return f
}

func (f *fixture) activeMission() (string, bool) {
	return f.missionID, f.missionID != ""
}

func (f *fixture) engagedAgent() (string, bool) {
	return f.engagedID, f.engagedID != ""
}

func (f *fixture) texts() []string {
	lines := f.console.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func TestExecEchoesPrompt(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("help")

	texts := f.texts()
	require.NotEmpty(t, texts)
	assert.Equal(t, "user@a2a-client:~$ help", texts[0])
	assert.Equal(t, types.CmdInput, f.console.Lines()[0].Kind)
}

func TestLeadingSlashIsStripped(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("/help")

	texts := f.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Available commands:")
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("frobnicate now")

	texts := f.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, `Error: Unknown command "frobnicate". Type 'help'.`, texts[1])
}

func TestHelpListsCommands(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("help")

	texts := f.texts()
	assert.Equal(t, "Available commands:\ndelegate-task, list-agents, a2a, a2u, a2s, ls, cat, touch, rm, flow, clear, help", texts[1])
}

func TestListAgents(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("list-agents")

	texts := f.texts()
	require.Len(t, texts, 11)
	assert.Equal(t, "Registered Agents:", texts[1])
	assert.Equal(t, "  - Lyra (agent-lyra) - Status: Online", texts[2])
	assert.Equal(t, "  - GUAC (agent-guac) - Status: Online", texts[10])
}

func TestSimulationStubs(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []string{"a2a", "a2u", "a2s"} {
		f.console.Exec(cmd)
	}

	texts := f.texts()
	assert.Contains(t, texts, "Command 'a2a' is being simulated.")
	assert.Contains(t, texts, "Command 'a2u' is being simulated.")
	assert.Contains(t, texts, "Command 'a2s' is being simulated.")
}

func TestFileLifecycle(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("ls")
	assert.Equal(t, "readme.md\nwelcome.txt", f.texts()[1])

	f.console.Exec("touch notes.txt")
	assert.Contains(t, f.texts(), "File 'notes.txt' created.")

	f.console.Exec("cat welcome.txt")
	assert.Contains(t, f.texts(), "Welcome to the A2A simulated file system! Try the `ls` command.")

	f.console.Exec("cat missing.txt")
	assert.Contains(t, f.texts(), "Error: File 'missing.txt' not found.")

	f.console.Exec("rm notes.txt")
	assert.Contains(t, f.texts(), "File 'notes.txt' removed.")

	f.console.Exec("rm notes.txt")
	assert.Contains(t, f.texts(), "Error: File 'notes.txt' not found.")

	assert.Equal(t, []string{"readme.md", "welcome.txt"}, f.console.Files())
}

func TestFileCommandUsage(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("cat")
	assert.Contains(t, f.texts(), "Usage: cat <filename>")
	f.console.Exec("touch")
	assert.Contains(t, f.texts(), "Usage: touch <filename>")
	f.console.Exec("rm")
	assert.Contains(t, f.texts(), "Usage: rm <filename>")
}

func TestClearDropsActiveScopeOnly(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("help")
	require.NotEmpty(t, f.texts())

	// A line from another mission's scope survives clear.
	other := "mission_other"
	f.missionID = other
	f.console.Append(types.CmdSystem, "other scope line")
	f.missionID = "mission_1"

	f.console.Exec("clear")

	texts := f.texts()
	// Only the clear echo remains visible; the other mission's line is kept
	// in storage but not visible here.
	require.Len(t, texts, 0)

	f.missionID = other
	assert.Equal(t, []string{"other scope line"}, f.texts())
}

func TestDelegateTaskToNamedAgent(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("delegate-task agent-kara audit the logs --domain ai-intel.info")
	f.console.Wait()

	texts := f.texts()
	assert.Contains(t, texts, `System: Delegating task "audit the logs" to Kara...`)
	assert.Contains(t, texts, `Kara: Task "audit the logs" received.`)
	assert.Contains(t, texts, "A2A Protocol: Task acknowledged. Routing via asst_kara_openai.")
}

func TestDelegateTaskFallsBackToEngagedAgent(t *testing.T) {
	f := newFixture(t)
	f.engagedID = "agent-dude"

	f.console.Exec("delegate-task write launch copy --domain ai-intel.info")
	f.console.Wait()

	texts := f.texts()
	assert.Contains(t, texts, `System: Delegating task "write launch copy" to Dude...`)
}

func TestDelegateTaskWithoutAgent(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("delegate-task do something --domain d")
	f.console.Wait()

	assert.Contains(t, f.texts(), "Error: No agent specified or selected.")
}

func TestDelegateTaskRequiresDomain(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("delegate-task agent-lyra do something")

	assert.Contains(t, f.texts(), "Error: Usage: ... <task> --domain <domain_name>")
}

func TestDelegateTaskEmptyDescription(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("delegate-task agent-lyra --domain d")

	assert.Contains(t, f.texts(), "Error: Task description cannot be empty.")
}

func TestDelegateTaskOfflineAgent(t *testing.T) {
	f := newFixture(t)

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	lyra.Status = types.StatusOffline
	require.NoError(t, f.registry.Update(lyra))

	f.console.Exec("delegate-task agent-lyra check status --domain d")
	f.console.Wait()

	texts := f.texts()
	assert.Contains(t, texts, `System: Delegating task "check status" to Lyra...`)
	assert.Contains(t, texts, "Error: Lyra is Offline.")
	for _, text := range texts {
		assert.NotContains(t, text, "Task acknowledged")
	}
}

func TestFlowStartRunsWorkflow(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("flow start GenerateMarketingVideo")
	f.player.Wait()

	texts := f.texts()
	assert.Contains(t, texts, "Command recognized. Initiating workflow: GenerateMarketingVideo")
	assert.Contains(t, texts, "Workflow Starting: GenerateMarketingVideo")
	assert.Contains(t, texts, "  > Source assets: s3://brand-assets/2025-Q3.zip")
	assert.Contains(t, texts, "  > Target objective: 45-sec hype reel for next Monday’s launch.")
	assert.Contains(t, texts, "Owner: ANDIE, Trigger: on_demand (CLI)")
	assert.Contains(t, texts, "Workflow Finished Successfully: output: published ✅")
}

func TestFlowUsage(t *testing.T) {
	f := newFixture(t)

	f.console.Exec("flow stop GenerateMarketingVideo")
	assert.Contains(t, f.texts(), "Usage: /flow start GenerateMarketingVideo")

	f.console.Exec("flow start SomethingElse")
	texts := f.texts()
	assert.Equal(t, "Usage: /flow start GenerateMarketingVideo", texts[len(texts)-1])
}

func TestWorkflowWithoutMissionViaFlow(t *testing.T) {
	f := newFixture(t)
	f.missionID = ""

	f.console.Exec("flow start GenerateMarketingVideo")
	f.player.Wait()

	var found bool
	for _, line := range f.console.Lines() {
		if line.Text == "Cannot start workflow. No active mission selected." {
			found = true
			assert.Equal(t, types.CmdError, line.Kind)
		}
	}
	assert.True(t, found, strings.Join(f.texts(), "\n"))
}
