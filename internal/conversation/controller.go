// Package conversation implements the dual-thread chat controller: the
// mission-scoped primary thread (Gemini, agent personas, hints) and the
// unscoped secondary thread (OpenAI chat and image generation).
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"a2aclient/internal/logging"
	"a2aclient/internal/registry"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
)

// PrimaryProvider is the mission-thread model backend.
type PrimaryProvider interface {
	SendMessage(ctx context.Context, prompt string, history []types.ChatMessage, aiInstruction string) (string, error)
	GenerateHints(ctx context.Context, history []types.ChatMessage, agentName, lastResponse, systemInstruction string) (*types.Hint, error)
	SimulateTask(ctx context.Context, taskPrompt, agentName, systemInstruction string) (string, error)
}

// SecondaryProvider is the unscoped-thread backend. Its operations resolve to
// display text rather than errors.
type SecondaryProvider interface {
	SendMessage(ctx context.Context, prompt string, history []types.ChatMessage, apiKey string) string
	GenerateImage(ctx context.Context, prompt, apiKey string) string
}

// Config wires the controller's collaborators.
type Config struct {
	Store     *store.Store
	Registry  *registry.Registry
	Primary   PrimaryProvider
	Secondary SecondaryProvider

	Keys            func() types.APIKeys
	Instructions    func() types.CustomInstructions
	ActiveMissionID func() (string, bool)

	// RequestMissionsTab is invoked when a mission-policy rejection should
	// steer the operator to the missions view.
	RequestMissionsTab func()
	// Notify signals that visible state changed.
	Notify func()

	// DelegateDelay paces the simulated hand-off of a delegated message;
	// IntroDelay paces an engaged agent's greeting. Zero means immediate.
	DelegateDelay time.Duration
	IntroDelay    time.Duration
}

// Controller owns both chat threads and the engaged-agent selection. All
// mutations go through its mutex; asynchronous work (delegation pacing,
// agent intros, hint generation) re-enters through the same mutex.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	primary   []types.ChatMessage
	secondary []types.ChatMessage
	engagedID string
	nextID    int64

	wg sync.WaitGroup
}

// New builds a controller, restoring the secondary thread and resuming the
// message id sequence from the store.
func New(cfg Config) (*Controller, error) {
	if cfg.Notify == nil {
		cfg.Notify = func() {}
	}
	if cfg.RequestMissionsTab == nil {
		cfg.RequestMissionsTab = func() {}
	}

	secondary, err := cfg.Store.MessagesUnscoped()
	if err != nil {
		return nil, fmt.Errorf("failed to load secondary thread: %w", err)
	}
	maxID, err := cfg.Store.MaxMessageID()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id sequence: %w", err)
	}
	return &Controller{cfg: cfg, secondary: secondary, nextID: maxID}, nil
}

// Wait blocks until all in-flight asynchronous work has finished. Tests use
// it to observe quiesced state.
func (c *Controller) Wait() { c.wg.Wait() }

// Primary returns a copy of the active mission's thread.
func (c *Controller) Primary() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatMessage(nil), c.primary...)
}

// Secondary returns a copy of the unscoped thread.
func (c *Controller) Secondary() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatMessage(nil), c.secondary...)
}

// EngagedAgent returns the agent an open conversation is pinned to.
func (c *Controller) EngagedAgent() (types.Agent, bool) {
	c.mu.Lock()
	id := c.engagedID
	c.mu.Unlock()
	if id == "" {
		return types.Agent{}, false
	}
	return c.cfg.Registry.Get(id)
}

// ClearEngaged drops the engaged agent. Mission selection calls this.
func (c *Controller) ClearEngaged() {
	c.mu.Lock()
	c.engagedID = ""
	c.mu.Unlock()
}

// ReloadForMission replaces the primary thread with the stored messages of
// the given mission. Load failure leaves an empty thread and is logged.
func (c *Controller) ReloadForMission(missionID string) {
	msgs, err := c.cfg.Store.MessagesByMission(missionID)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Failed to reload thread for %s: %v", missionID, err)
		msgs = nil
	}
	c.mu.Lock()
	c.primary = msgs
	c.mu.Unlock()
	c.cfg.Notify()
}

// Send routes one operator input: the /openai and /imagine escapes go to the
// secondary thread regardless of mission state; everything else requires an
// active mission and flows through the primary provider.
func (c *Controller) Send(ctx context.Context, input string) {
	if _, ok := c.cfg.ActiveMissionID(); !ok &&
		!strings.HasPrefix(input, "/openai") && !strings.HasPrefix(input, "/imagine") {
		c.appendPrimary(types.ChatMessage{
			Sender: types.SenderSystem,
			Text:   "Please select or create a mission before sending a message.",
		})
		c.cfg.RequestMissionsTab()
		return
	}

	switch {
	case strings.HasPrefix(input, "/openai "):
		c.sendSecondary(ctx, strings.TrimSpace(input[len("/openai "):]))
	case strings.HasPrefix(input, "/imagine "):
		c.imagineSecondary(ctx, strings.TrimSpace(input[len("/imagine "):]))
	default:
		c.sendPrimary(ctx, input)
	}
}

func (c *Controller) sendPrimary(ctx context.Context, input string) {
	engaged, isEngaged := c.EngagedAgent()
	history := c.Primary()
	c.appendPrimary(types.ChatMessage{Sender: types.SenderUser, Text: input})

	text, err := c.cfg.Primary.SendMessage(ctx, input, history, c.cfg.Instructions().AI)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Primary send failed: %v", err)
		text = fmt.Sprintf("AI: An error occurred while fetching the response. Please check your API key and network connection. Details: %v", err)
	}

	sender := types.SenderAI
	if isEngaged {
		sender = types.SenderAgent
	}
	reply := c.appendPrimary(types.ChatMessage{Sender: sender, Text: text})
	if isEngaged && err == nil {
		c.generateHintsAsync(history, engaged.Name, text, reply)
	}
}

func (c *Controller) sendSecondary(ctx context.Context, prompt string) {
	history := c.Secondary()
	c.appendSecondary(types.ChatMessage{Sender: types.SenderUser, Text: prompt})
	response := c.cfg.Secondary.SendMessage(ctx, prompt, history, c.cfg.Keys().OpenAI)
	c.appendSecondary(types.ChatMessage{Sender: types.SenderOpenAI, Text: response})
}

func (c *Controller) imagineSecondary(ctx context.Context, prompt string) {
	c.appendSecondary(types.ChatMessage{Sender: types.SenderUser, Text: "/imagine " + prompt})
	pending := c.appendTransient(types.ChatMessage{
		Sender:  types.SenderOpenAI,
		Text:    "Generating image...",
		Pending: true,
	})

	result := c.cfg.Secondary.GenerateImage(ctx, prompt, c.cfg.Keys().OpenAI)

	c.removeSecondary(pending.ID)
	if strings.HasPrefix(result, "data:image") {
		c.appendSecondary(types.ChatMessage{
			Sender:   types.SenderOpenAI,
			Text:     fmt.Sprintf("Image generated for: %q", prompt),
			ImageURL: result,
		})
	} else {
		c.appendSecondary(types.ChatMessage{Sender: types.SenderOpenAI, Text: result})
	}
}

// Delegate copies a secondary-thread message to the engaged agent in the
// primary thread after a simulated hand-off delay.
func (c *Controller) Delegate(msg types.ChatMessage) {
	agent, ok := c.EngagedAgent()
	if !ok {
		c.appendPrimary(types.ChatMessage{
			Sender: types.SenderSystem,
			Text:   "Error: Please select an agent from the fleet below before delegating.",
		})
		return
	}

	taskText := fmt.Sprintf("Task delegated from OpenAI: %q", msg.Text)
	if msg.ImageURL != "" {
		taskText += "\nAn image was included."
	}
	c.appendPrimary(types.ChatMessage{
		Sender: types.SenderSystem,
		Text:   fmt.Sprintf("Delegating to %s...", agent.Name),
	})

	history := c.Primary()
	imageURL := msg.ImageURL
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		time.Sleep(c.cfg.DelegateDelay)
		delegated := c.appendPrimary(types.ChatMessage{
			Sender:   types.SenderAgent,
			Text:     taskText,
			ImageURL: imageURL,
		})
		c.attachHints(history, agent.Name, taskText, delegated)
	}()
}

// OpenAgent pins the conversation to an agent and plays its greeting.
func (c *Controller) OpenAgent(agent types.Agent) {
	if _, ok := c.cfg.ActiveMissionID(); !ok {
		c.appendPrimary(types.ChatMessage{
			Sender: types.SenderSystem,
			Text:   "Please select or create a mission before starting a conversation.",
		})
		c.cfg.RequestMissionsTab()
		return
	}

	c.mu.Lock()
	c.engagedID = agent.ID
	c.mu.Unlock()
	logging.Chat("Conversation opened with %s", agent.ID)

	c.appendPrimary(types.ChatMessage{
		Sender: types.SenderSystem,
		Text:   fmt.Sprintf("Conversation started with %s.", agent.Name),
	})

	history := c.Primary()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		time.Sleep(c.cfg.IntroDelay)
		intro := fmt.Sprintf("Hello! I am %s. %s. How may I help you today?", agent.Name, agent.Description)
		msg := c.appendPrimary(types.ChatMessage{Sender: types.SenderAgent, Text: intro})
		c.attachHints(history, agent.Name, intro, msg)
	}()
}

// RequestHint asks the hint engine for a fresh suggestion based on the last
// model turn. No-op without an engaged agent.
func (c *Controller) RequestHint(ctx context.Context) {
	agent, ok := c.EngagedAgent()
	if !ok {
		return
	}
	c.appendPrimary(types.ChatMessage{
		Sender: types.SenderSystem,
		Text:   "Generating a new hint for you...",
	})

	history := c.Primary()
	lastResponse := "What should I do next?"
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == types.SenderAgent || history[i].Sender == types.SenderAI {
			lastResponse = history[i].Text
			break
		}
	}

	hint, err := c.cfg.Primary.GenerateHints(ctx, history, agent.Name, lastResponse, c.cfg.Instructions().System)
	if err != nil || hint == nil || hint.User == "" {
		if err != nil {
			logging.Get(logging.CategoryChat).Error("Hint request failed: %v", err)
		}
		c.appendPrimary(types.ChatMessage{
			Sender: types.SenderSystem,
			Text:   "Could not generate a hint at this time.",
		})
		return
	}
	c.appendPrimary(types.ChatMessage{
		Sender: types.SenderSystem,
		Text:   "Suggestion: " + hint.User,
	})
}

// SimulateTask plays out a task execution narrative for the engaged agent.
func (c *Controller) SimulateTask(ctx context.Context, taskDescription string) {
	c.simulate(ctx, taskDescription, "Simulating task for %s: %q")
}

// ConnectAgents plays out a collaborative task narrative involving other
// family members.
func (c *Controller) ConnectAgents(ctx context.Context, taskDescription string) {
	c.simulate(ctx, taskDescription, "Simulating collaborative task for %s: %q")
}

func (c *Controller) simulate(ctx context.Context, taskDescription, announceFormat string) {
	agent, ok := c.EngagedAgent()
	if !ok {
		return
	}
	c.appendPrimary(types.ChatMessage{
		Sender: types.SenderSystem,
		Text:   fmt.Sprintf(announceFormat, agent.Name, taskDescription),
	})

	history := c.Primary()
	text, err := c.cfg.Primary.SimulateTask(ctx, taskDescription, agent.Name, c.cfg.Instructions().System)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Task simulation failed: %v", err)
		text = fmt.Sprintf("AI: An error occurred during the simulation. Details: %v", err)
	}
	msg := c.appendPrimary(types.ChatMessage{Sender: types.SenderAgent, Text: text})
	if err == nil {
		c.generateHintsAsync(history, agent.Name, text, msg)
	}
}

// =============================================================================
// THREAD MUTATION
// =============================================================================

// appendPrimary stamps an id and the active mission scope, persists, and
// publishes the message on the primary thread. A primary line with no mission
// scope (a policy rejection) stays in memory only: unscoped persisted rows
// belong to the secondary thread.
func (c *Controller) appendPrimary(msg types.ChatMessage) types.ChatMessage {
	if id, ok := c.cfg.ActiveMissionID(); ok {
		msg.MissionID = &id
	}
	c.mu.Lock()
	c.nextID++
	msg.ID = c.nextID
	c.primary = append(c.primary, msg)
	c.mu.Unlock()

	if msg.MissionID != nil {
		c.persist(msg)
	}
	c.cfg.Notify()
	return msg
}

func (c *Controller) appendSecondary(msg types.ChatMessage) types.ChatMessage {
	c.mu.Lock()
	c.nextID++
	msg.ID = c.nextID
	c.secondary = append(c.secondary, msg)
	c.mu.Unlock()

	c.persist(msg)
	c.cfg.Notify()
	return msg
}

// appendTransient adds a secondary-thread placeholder that is never
// persisted.
func (c *Controller) appendTransient(msg types.ChatMessage) types.ChatMessage {
	c.mu.Lock()
	c.nextID++
	msg.ID = c.nextID
	c.secondary = append(c.secondary, msg)
	c.mu.Unlock()
	c.cfg.Notify()
	return msg
}

func (c *Controller) removeSecondary(id int64) {
	c.mu.Lock()
	for i, m := range c.secondary {
		if m.ID == id {
			c.secondary = append(c.secondary[:i], c.secondary[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.cfg.Notify()
}

func (c *Controller) persist(msg types.ChatMessage) {
	if err := c.cfg.Store.PutMessage(msg); err != nil {
		logging.Get(logging.CategoryChat).Error("Failed to persist message %d: %v", msg.ID, err)
	}
}

// =============================================================================
// HINTS
// =============================================================================

// generateHintsAsync resolves a contextual hint in the background and merges
// it into the target message.
func (c *Controller) generateHintsAsync(history []types.ChatMessage, agentName, lastResponse string, target types.ChatMessage) {
	token := uuid.NewString()[:8]
	logging.ChatDebug("hint %s requested for message %d", token, target.ID)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.attachHints(history, agentName, lastResponse, target)
		logging.ChatDebug("hint %s resolved for message %d", token, target.ID)
	}()
}

// attachHints merges a resolved hint into the message it was generated for,
// keyed by id. The merge is durable even if the operator has switched
// missions and the message is no longer in the visible thread. A hint never
// overwrites an existing one.
func (c *Controller) attachHints(history []types.ChatMessage, agentName, lastResponse string, target types.ChatMessage) {
	hint, err := c.cfg.Primary.GenerateHints(context.Background(), history, agentName, lastResponse, c.cfg.Instructions().System)
	if err != nil {
		logging.ChatDebug("Hint generation failed for message %d: %v", target.ID, err)
		return
	}
	if hint == nil {
		return
	}

	c.mu.Lock()
	for i := range c.primary {
		if c.primary[i].ID == target.ID {
			if c.primary[i].Hint != nil {
				c.mu.Unlock()
				return
			}
			c.primary[i].Hint = hint
			updated := c.primary[i]
			c.mu.Unlock()
			c.persist(updated)
			c.cfg.Notify()
			return
		}
	}
	c.mu.Unlock()

	// The message left the visible thread on a mission switch; merge into the
	// stored copy instead, still refusing to replace a resolved hint.
	stored, ok, err := c.cfg.Store.GetMessage(target.ID)
	if err != nil {
		logging.ChatDebug("Hint merge lookup failed for message %d: %v", target.ID, err)
		return
	}
	if !ok || stored.Hint != nil {
		return
	}
	stored.Hint = hint
	c.persist(stored)
}
