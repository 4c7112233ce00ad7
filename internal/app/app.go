// Package app assembles the dashboard's state machine: store, settings,
// agent registry, mission manager, chat controller, workflow player, console,
// and the repository collaborator. The TUI talks only to this package.
package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"a2aclient/internal/config"
	"a2aclient/internal/console"
	"a2aclient/internal/conversation"
	"a2aclient/internal/gemini"
	"a2aclient/internal/github"
	"a2aclient/internal/logging"
	"a2aclient/internal/mission"
	"a2aclient/internal/openai"
	"a2aclient/internal/registry"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
	"a2aclient/internal/workflow"
)

// Event is a change notification delivered to the TUI.
type Event int

const (
	// EventStateChanged signals that any visible state moved.
	EventStateChanged Event = iota
	// EventShowMissions signals that a policy rejection wants the missions
	// view in front.
	EventShowMissions
)

// Settings store row names.
const (
	settingAPIKeys      = "apiKeys"
	settingInstructions = "customInstructions"
)

// App is the root application state.
type App struct {
	cfg   *config.Config
	store *store.Store

	Registry *registry.Registry
	Missions *mission.Manager
	Chat     *conversation.Controller
	Workflow *workflow.Player
	Console  *console.Console

	github *github.Client

	mu           sync.RWMutex
	keys         types.APIKeys
	instructions types.CustomInstructions

	events chan Event
}

// New opens the store and assembles all controllers. The persisted mission
// list's first entry is selected on startup when one exists.
func New(cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:          cfg,
		store:        st,
		github:       github.NewClient(),
		keys:         cfg.Keys,
		instructions: cfg.Instructions,
		events:       make(chan Event, 64),
	}
	if err := a.loadSettings(); err != nil {
		st.Close()
		return nil, err
	}

	var g errgroup.Group
	g.Go(func() error {
		reg, err := registry.Load(st)
		if err == nil {
			a.Registry = reg
		}
		return err
	})
	g.Go(func() error {
		mm, err := mission.Load(st)
		if err == nil {
			a.Missions = mm
		}
		return err
	})
	if err := g.Wait(); err != nil {
		st.Close()
		return nil, err
	}

	a.Chat, err = conversation.New(conversation.Config{
		Store:              st,
		Registry:           a.Registry,
		Primary:            gemini.NewClient(cfg.GeminiAPIKey),
		Secondary:          openai.NewClient(),
		Keys:               a.Keys,
		Instructions:       a.Instructions,
		ActiveMissionID:    func() (string, bool) { return a.Missions.ActiveID() },
		RequestMissionsTab: a.requestMissions,
		Notify:             a.notify,
		DelegateDelay:      cfg.StepDelay,
		IntroDelay:         cfg.IntroDelay,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	a.Console = console.New(console.Config{
		Registry:        a.Registry,
		ActiveMissionID: func() (string, bool) { return a.Missions.ActiveID() },
		EngagedAgentID: func() (string, bool) {
			agent, ok := a.Chat.EngagedAgent()
			return agent.ID, ok
		},
		Notify:   a.notify,
		AckDelay: cfg.DelegationDelay,
	})

	a.Workflow, err = workflow.New(workflow.Config{
		Emit:               a.Console.Append,
		ActiveMissionID:    func() (string, bool) { return a.Missions.ActiveID() },
		RequestMissionsTab: a.requestMissions,
		Notify:             a.notify,
		HeaderDelay:        2 * cfg.StepDelay,
		ActionDelay:        cfg.StepDelay,
		HandoffDelay:       3 * cfg.StepDelay,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	a.Console.SetPlayer(a.Workflow)

	a.Missions.SetOnSelect(func(ms types.Mission) {
		a.Chat.ClearEngaged()
		a.Chat.ReloadForMission(ms.ID)
		a.Console.Reset()
		a.Console.Append(types.CmdSystem, fmt.Sprintf("Mission %q selected. Objective: %s", ms.Name, ms.Objective))
		a.notify()
	})

	if missions := a.Missions.Missions(); len(missions) > 0 {
		a.Missions.Select(missions[0])
	}

	logging.Boot("Application assembled (agents=%d missions=%d)", len(a.Registry.Agents()), len(a.Missions.Missions()))
	return a, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// Events is the change notification stream the TUI subscribes to.
func (a *App) Events() <-chan Event { return a.events }

func (a *App) notify() { a.send(EventStateChanged) }

func (a *App) requestMissions() { a.send(EventShowMissions) }

// send never blocks; a full buffer drops the event since a pending
// notification already forces a refresh.
func (a *App) send(ev Event) {
	select {
	case a.events <- ev:
	default:
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

// loadSettings restores the persisted settings bundles over the config-file
// and environment defaults.
func (a *App) loadSettings() error {
	var keys types.APIKeys
	found, err := a.store.GetSetting(settingAPIKeys, &keys)
	if err != nil {
		return fmt.Errorf("failed to load api keys: %w", err)
	}
	if found {
		a.keys = keys
	}

	var instructions types.CustomInstructions
	found, err = a.store.GetSetting(settingInstructions, &instructions)
	if err != nil {
		return fmt.Errorf("failed to load custom instructions: %w", err)
	}
	if found {
		a.instructions = instructions
	}
	return nil
}

// Keys returns the current credential bundle.
func (a *App) Keys() types.APIKeys {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.keys
}

// SaveKeys replaces and persists the credential bundle.
func (a *App) SaveKeys(keys types.APIKeys) {
	a.mu.Lock()
	a.keys = keys
	a.mu.Unlock()
	if err := a.store.PutSetting(settingAPIKeys, keys); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to persist api keys: %v", err)
	}
	a.notify()
}

// Instructions returns the current instruction bundle.
func (a *App) Instructions() types.CustomInstructions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.instructions
}

// SaveInstructions replaces and persists the instruction bundle. Empty
// fields fall back to the defaults.
func (a *App) SaveInstructions(instructions types.CustomInstructions) {
	if instructions.AI == "" {
		instructions.AI = config.DefaultAIInstruction
	}
	if instructions.System == "" {
		instructions.System = config.DefaultSystemInstruction
	}
	a.mu.Lock()
	a.instructions = instructions
	a.mu.Unlock()
	if err := a.store.PutSetting(settingInstructions, instructions); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to persist custom instructions: %v", err)
	}
	a.notify()
}

// =============================================================================
// REPOSITORY
// =============================================================================

// ListRepo lists a repository directory.
func (a *App) ListRepo(ctx context.Context, path string) ([]types.RepoEntry, error) {
	return a.github.ListContents(ctx, a.Keys(), path)
}

// GetRepoFile fetches one repository file.
func (a *App) GetRepoFile(ctx context.Context, path string) (github.FileContent, error) {
	return a.github.GetFile(ctx, a.Keys(), path)
}

// SaveRepoFile creates or updates one repository file.
func (a *App) SaveRepoFile(ctx context.Context, path, content, commitMessage, sha string) error {
	return a.github.PutFile(ctx, a.Keys(), path, content, commitMessage, sha)
}

// DeleteRepoFile removes one repository file.
func (a *App) DeleteRepoFile(ctx context.Context, path, commitMessage, sha string) error {
	return a.github.DeleteFile(ctx, a.Keys(), path, commitMessage, sha)
}
