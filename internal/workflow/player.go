// Package workflow implements the scripted pipeline player. The bundled
// GenerateMarketingVideo document is parsed and validated once at
// construction; Start replays its steps into the console with simulated
// pacing. At most one replay runs at a time.
package workflow

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"a2aclient/internal/logging"
	"a2aclient/internal/types"
)

// Config wires the player's collaborators and pacing.
type Config struct {
	// Emit appends one line to the console log in the active mission scope.
	Emit func(kind types.CommandKind, text string)

	ActiveMissionID    func() (string, bool)
	RequestMissionsTab func()
	Notify             func()

	// HeaderDelay paces the gap between the header lines and the first step,
	// ActionDelay the gaps inside a step, HandoffDelay the gap between steps.
	// Zero means immediate.
	HeaderDelay  time.Duration
	ActionDelay  time.Duration
	HandoffDelay time.Duration
}

// StartOptions carries the optional provenance lines shown in the header.
type StartOptions struct {
	Source    string
	Objective string
}

// Player replays the bundled workflow document.
type Player struct {
	mu      sync.Mutex
	cfg     Config
	flow    types.Workflow
	running bool
	current *types.WorkflowStep

	wg sync.WaitGroup
}

// New parses and validates the bundled document, failing fast on a malformed
// workflow.
func New(cfg Config) (*Player, error) {
	if cfg.Notify == nil {
		cfg.Notify = func() {}
	}
	if cfg.RequestMissionsTab == nil {
		cfg.RequestMissionsTab = func() {}
	}

	flow, err := Parse([]byte(marketingVideoDocument))
	if err != nil {
		return nil, err
	}
	return &Player{cfg: cfg, flow: flow}, nil
}

// Parse decodes and validates one workflow document.
func Parse(data []byte) (types.Workflow, error) {
	var flow types.Workflow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return types.Workflow{}, fmt.Errorf("failed to parse workflow document: %w", err)
	}
	if flow.Meta.FlowName == "" {
		return types.Workflow{}, fmt.Errorf("workflow document missing meta.flow_name")
	}
	if len(flow.Steps) == 0 {
		return types.Workflow{}, fmt.Errorf("workflow %s has no steps", flow.Meta.FlowName)
	}
	for i, step := range flow.Steps {
		if step.ID == 0 || step.Name == "" || step.Agent == "" || step.Verb == "" || step.Input == "" || step.Output == "" {
			return types.Workflow{}, fmt.Errorf("workflow %s step %d is incomplete", flow.Meta.FlowName, i)
		}
	}
	return flow, nil
}

// Flow returns the parsed document.
func (p *Player) Flow() types.Workflow {
	return p.flow
}

// Running reports whether a replay is in progress.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// CurrentStep returns the step being replayed, if any.
func (p *Player) CurrentStep() (types.WorkflowStep, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return types.WorkflowStep{}, false
	}
	return *p.current, true
}

// Wait blocks until an in-flight replay finishes. Tests use it.
func (p *Player) Wait() { p.wg.Wait() }

// Start begins a replay. A second Start while running is a no-op; starting
// without an active mission emits an error line and steers the operator to
// the missions view.
func (p *Player) Start(opts StartOptions) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		logging.Workflow("Start ignored: already running")
		return
	}
	if _, ok := p.cfg.ActiveMissionID(); !ok {
		p.mu.Unlock()
		p.cfg.Emit(types.CmdError, "Cannot start workflow. No active mission selected.")
		p.cfg.RequestMissionsTab()
		return
	}
	p.running = true
	p.current = nil
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(opts)
}

func (p *Player) run(opts StartOptions) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.current = nil
		p.mu.Unlock()
		p.cfg.Notify()
	}()

	// Correlation token for grepping one replay out of the log file.
	runID := uuid.NewString()[:8]
	logging.Workflow("Replay %s started: %s", runID, p.flow.Meta.FlowName)
	p.cfg.Emit(types.CmdSystem, fmt.Sprintf("Workflow Starting: %s", p.flow.Meta.FlowName))
	if opts.Source != "" {
		p.cfg.Emit(types.CmdInfo, fmt.Sprintf("  > Source assets: %s", opts.Source))
	}
	if opts.Objective != "" {
		p.cfg.Emit(types.CmdInfo, fmt.Sprintf("  > Target objective: %s", opts.Objective))
	}
	trigger := "on_demand (UI)"
	if opts.Source != "" {
		trigger = "on_demand (CLI)"
	}
	p.cfg.Emit(types.CmdInfo, fmt.Sprintf("Owner: %s, Trigger: %s", p.flow.Meta.Owner, trigger))

	time.Sleep(p.cfg.HeaderDelay)

	for i := range p.flow.Steps {
		step := p.flow.Steps[i]
		p.mu.Lock()
		p.current = &step
		p.mu.Unlock()
		p.cfg.Notify()

		p.cfg.Emit(types.CmdSystem, fmt.Sprintf("Executing Step %d: %s", step.ID, strings.ReplaceAll(step.Name, "_", " ")))
		time.Sleep(p.cfg.ActionDelay)
		p.cfg.Emit(types.CmdAgent, fmt.Sprintf("[%s] Action: %s", step.Agent, step.Verb))
		time.Sleep(p.cfg.ActionDelay)
		p.cfg.Emit(types.CmdInfo, fmt.Sprintf("  -> Input: %s", step.Input))
		p.cfg.Emit(types.CmdInfo, fmt.Sprintf("  <- Output: %s", step.Output))
		if step.HandoverTo != "" {
			p.cfg.Emit(types.CmdSystem, fmt.Sprintf("Handing over to: %s", step.HandoverTo))
		}
		time.Sleep(p.cfg.HandoffDelay)
	}

	p.cfg.Emit(types.CmdSystem, "Workflow Finished Successfully: output: published ✅")
	logging.Workflow("Replay %s finished: %s", runID, p.flow.Meta.FlowName)
}
