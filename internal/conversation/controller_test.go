package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"a2aclient/internal/registry"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePrimary scripts the mission-thread provider.
type fakePrimary struct {
	mu        sync.Mutex
	reply     string
	replyErr  error
	hint      *types.Hint
	hintErr   error
	narrative string

	sendCalls []string
	hintCalls []string
}

func (f *fakePrimary) SendMessage(_ context.Context, prompt string, _ []types.ChatMessage, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, prompt)
	return f.reply, f.replyErr
}

func (f *fakePrimary) GenerateHints(_ context.Context, _ []types.ChatMessage, agentName, _, _ string) (*types.Hint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hintCalls = append(f.hintCalls, agentName)
	return f.hint, f.hintErr
}

func (f *fakePrimary) SimulateTask(_ context.Context, _, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.narrative, nil
}

// fakeSecondary scripts the unscoped-thread provider.
type fakeSecondary struct {
	reply string
	image string
}

func (f *fakeSecondary) SendMessage(_ context.Context, _ string, _ []types.ChatMessage, _ string) string {
	return f.reply
}

func (f *fakeSecondary) GenerateImage(_ context.Context, _, _ string) string {
	return f.image
}

type fixture struct {
	ctrl      *Controller
	store     *store.Store
	registry  *registry.Registry
	primary   *fakePrimary
	secondary *fakeSecondary

	mu          sync.Mutex
	missionID   string
	tabRequests int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "a2a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg, err := registry.Load(st)
	require.NoError(t, err)

	f := &fixture{
		store:     st,
		registry:  reg,
		primary:   &fakePrimary{reply: "model reply", hint: &types.Hint{User: "u", AI: "a", System: "s"}},
		secondary: &fakeSecondary{reply: "openai reply", image: "data:image/png;base64,aGVsbG8="},
	}

	f.ctrl, err = New(Config{
		Store:        st,
		Registry:     reg,
		Primary:      f.primary,
		Secondary:    f.secondary,
		Keys:         func() types.APIKeys { return types.APIKeys{OpenAI: "sk-test"} },
		Instructions: func() types.CustomInstructions { return types.CustomInstructions{AI: "ai", System: "sys"} },
		ActiveMissionID: func() (string, bool) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.missionID, f.missionID != ""
		},
		RequestMissionsTab: func() {
			f.mu.Lock()
			f.tabRequests++
			f.mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(f.ctrl.Wait)
	return f
}

func (f *fixture) setMission(id string) {
	f.mu.Lock()
	f.missionID = id
	f.mu.Unlock()
}

func (f *fixture) tabCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tabRequests
}

func TestSendWithoutMissionIsRejected(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Send(context.Background(), "hello")

	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 1)
	assert.Equal(t, types.SenderSystem, msgs[0].Sender)
	assert.Equal(t, "Please select or create a mission before sending a message.", msgs[0].Text)
	assert.Nil(t, msgs[0].MissionID)
	assert.Equal(t, 1, f.tabCount())
	assert.Empty(t, f.primary.sendCalls)
}

func TestSendScopedToMission(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	f.ctrl.Send(context.Background(), "hello")

	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	require.NotNil(t, msgs[0].MissionID)
	assert.Equal(t, "mission_1", *msgs[0].MissionID)
	assert.Equal(t, types.SenderAI, msgs[1].Sender)
	assert.Equal(t, "model reply", msgs[1].Text)
	assert.Greater(t, msgs[1].ID, msgs[0].ID)
}

func TestSendWithEngagedAgentAttachesHint(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	f.ctrl.Send(context.Background(), "status report")
	f.ctrl.Wait()

	msgs := f.ctrl.Primary()
	last := msgs[len(msgs)-1]
	assert.Equal(t, types.SenderAgent, last.Sender)
	assert.Equal(t, "model reply", last.Text)
	require.NotNil(t, last.Hint)
	assert.Equal(t, "u", last.Hint.User)

	// The hint update is written through.
	stored, err := f.store.MessagesByMission("mission_1")
	require.NoError(t, err)
	assert.NotNil(t, stored[len(stored)-1].Hint)
}

func TestSendErrorBecomesReadableText(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")
	f.primary.replyErr = errors.New("boom")

	f.ctrl.Send(context.Background(), "hello")

	msgs := f.ctrl.Primary()
	last := msgs[len(msgs)-1]
	assert.Equal(t, types.SenderAI, last.Sender)
	assert.Equal(t, "AI: An error occurred while fetching the response. Please check your API key and network connection. Details: boom", last.Text)
}

func TestOpenAIBypassesMissionPolicy(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Send(context.Background(), "/openai what is up")

	assert.Empty(t, f.ctrl.Primary())
	assert.Zero(t, f.tabCount())

	msgs := f.ctrl.Secondary()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	assert.Equal(t, "what is up", msgs[0].Text)
	assert.Nil(t, msgs[0].MissionID)
	assert.Equal(t, types.SenderOpenAI, msgs[1].Sender)
	assert.Equal(t, "openai reply", msgs[1].Text)
}

func TestImagineReplacesPendingWithImage(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Send(context.Background(), "/imagine a red balloon")

	msgs := f.ctrl.Secondary()
	require.Len(t, msgs, 2)
	assert.Equal(t, "/imagine a red balloon", msgs[0].Text)
	assert.Equal(t, `Image generated for: "a red balloon"`, msgs[1].Text)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", msgs[1].ImageURL)
	for _, m := range msgs {
		assert.False(t, m.Pending)
	}
}

func TestImagineFailureShowsText(t *testing.T) {
	f := newFixture(t)
	f.secondary.image = "An error occurred while generating the image: rate limited"

	f.ctrl.Send(context.Background(), "/imagine a red balloon")

	msgs := f.ctrl.Secondary()
	require.Len(t, msgs, 2)
	assert.Equal(t, "An error occurred while generating the image: rate limited", msgs[1].Text)
	assert.Empty(t, msgs[1].ImageURL)
}

func TestDelegateWithoutAgent(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	f.ctrl.Delegate(types.ChatMessage{Sender: types.SenderOpenAI, Text: "analysis"})

	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Error: Please select an agent from the fleet below before delegating.", msgs[0].Text)
}

func TestDelegateHandsOffToEngagedAgent(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	kara, ok := f.registry.Get("agent-kara")
	require.True(t, ok)
	f.ctrl.OpenAgent(kara)
	f.ctrl.Wait()

	f.ctrl.Delegate(types.ChatMessage{
		Sender:   types.SenderOpenAI,
		Text:     "quarterly analysis",
		ImageURL: "data:image/png;base64,xyz",
	})
	f.ctrl.Wait()

	msgs := f.ctrl.Primary()
	var sysLine, agentLine *types.ChatMessage
	for i := range msgs {
		switch msgs[i].Text {
		case "Delegating to Kara...":
			sysLine = &msgs[i]
		case "Task delegated from OpenAI: \"quarterly analysis\"\nAn image was included.":
			agentLine = &msgs[i]
		}
	}
	require.NotNil(t, sysLine)
	assert.Equal(t, types.SenderSystem, sysLine.Sender)
	require.NotNil(t, agentLine)
	assert.Equal(t, types.SenderAgent, agentLine.Sender)
	assert.Equal(t, "data:image/png;base64,xyz", agentLine.ImageURL)
	assert.NotNil(t, agentLine.Hint)
}

func TestOpenAgentWithoutMission(t *testing.T) {
	f := newFixture(t)

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)

	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Please select or create a mission before starting a conversation.", msgs[0].Text)
	assert.Equal(t, 1, f.tabCount())
	_, engaged := f.ctrl.EngagedAgent()
	assert.False(t, engaged)
}

func TestOpenAgentIntroSequence(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	engaged, ok := f.ctrl.EngagedAgent()
	require.True(t, ok)
	assert.Equal(t, "agent-lyra", engaged.ID)

	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Conversation started with Lyra.", msgs[0].Text)
	assert.Equal(t, types.SenderAgent, msgs[1].Sender)
	assert.Equal(t, fmt.Sprintf("Hello! I am Lyra. %s. How may I help you today?", lyra.Description), msgs[1].Text)
	assert.NotNil(t, msgs[1].Hint)
}

func TestMissionSwitchReplaysThread(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_a")
	f.ctrl.Send(context.Background(), "first mission message")

	f.setMission("mission_b")
	f.ctrl.ReloadForMission("mission_b")
	assert.Empty(t, f.ctrl.Primary())

	f.ctrl.Send(context.Background(), "second mission message")
	require.Len(t, f.ctrl.Primary(), 2)

	f.setMission("mission_a")
	f.ctrl.ReloadForMission("mission_a")
	msgs := f.ctrl.Primary()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first mission message", msgs[0].Text)
	assert.Equal(t, "model reply", msgs[1].Text)
}

func TestStaleHintAppliesByID(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_a")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)

	// Block hint resolution until after the mission switch.
	release := make(chan struct{})
	blocking := &blockingPrimary{fakePrimary: f.primary, release: release}
	f.ctrl.cfg.Primary = blocking

	f.ctrl.OpenAgent(lyra)

	// Let the intro land in mission_a before switching; the hint is still
	// blocked at this point.
	require.Eventually(t, func() bool {
		msgs, err := f.store.MessagesByMission("mission_a")
		return err == nil && len(msgs) == 2
	}, time.Second, 5*time.Millisecond)

	f.setMission("mission_b")
	f.ctrl.ClearEngaged()
	f.ctrl.ReloadForMission("mission_b")
	close(release)
	f.ctrl.Wait()

	// The intro message of mission_a carries the hint durably.
	stored, err := f.store.MessagesByMission("mission_a")
	require.NoError(t, err)
	var found bool
	for _, m := range stored {
		if m.Sender == types.SenderAgent && m.Hint != nil {
			found = true
		}
	}
	assert.True(t, found)

	// The visible mission_b thread is untouched.
	assert.Empty(t, f.ctrl.Primary())
}

func TestStaleHintMergeKeepsFirstHint(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_a")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	msgs := f.ctrl.Primary()
	intro := msgs[len(msgs)-1]
	require.NotNil(t, intro.Hint)

	f.setMission("mission_b")
	f.ctrl.ClearEngaged()
	f.ctrl.ReloadForMission("mission_b")

	// A second resolution for the same message lands after the switch; the
	// stored hint must survive it.
	f.primary.mu.Lock()
	f.primary.hint = &types.Hint{User: "late duplicate"}
	f.primary.mu.Unlock()
	f.ctrl.attachHints(nil, lyra.Name, intro.Text, intro)

	stored, err := f.store.MessagesByMission("mission_a")
	require.NoError(t, err)
	last := stored[len(stored)-1]
	require.NotNil(t, last.Hint)
	assert.Equal(t, "u", last.Hint.User)
}

func TestRequestHint(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	f.ctrl.RequestHint(context.Background())

	msgs := f.ctrl.Primary()
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	assert.Contains(t, texts, "Generating a new hint for you...")
	assert.Contains(t, texts, "Suggestion: u")
}

func TestRequestHintFailure(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	f.primary.mu.Lock()
	f.primary.hint = nil
	f.primary.hintErr = errors.New("unavailable")
	f.primary.mu.Unlock()

	f.ctrl.RequestHint(context.Background())

	msgs := f.ctrl.Primary()
	assert.Equal(t, "Could not generate a hint at this time.", msgs[len(msgs)-1].Text)
}

func TestSimulateTask(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")
	f.primary.narrative = "step by step execution"

	andie, ok := f.registry.Get("agent-andie")
	require.True(t, ok)
	f.ctrl.OpenAgent(andie)
	f.ctrl.Wait()

	f.ctrl.SimulateTask(context.Background(), "render the promo")
	f.ctrl.Wait()

	msgs := f.ctrl.Primary()
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	assert.Contains(t, texts, `Simulating task for Andie: "render the promo"`)
	assert.Contains(t, texts, "step by step execution")
}

func TestConnectAgentsAnnouncement(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")
	f.primary.narrative = "collaboration plan"

	lyra, ok := f.registry.Get("agent-lyra")
	require.True(t, ok)
	f.ctrl.OpenAgent(lyra)
	f.ctrl.Wait()

	f.ctrl.ConnectAgents(context.Background(), "analyze Q3 with Dude")
	f.ctrl.Wait()

	msgs := f.ctrl.Primary()
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	assert.Contains(t, texts, `Simulating collaborative task for Lyra: "analyze Q3 with Dude"`)
}

func TestMessageIDsResumeAcrossRestart(t *testing.T) {
	f := newFixture(t)
	f.setMission("mission_1")
	f.ctrl.Send(context.Background(), "hello")
	f.ctrl.Wait()

	highest := f.ctrl.Primary()[len(f.ctrl.Primary())-1].ID

	ctrl2, err := New(Config{
		Store:           f.store,
		Registry:        f.registry,
		Primary:         f.primary,
		Secondary:       f.secondary,
		Keys:            func() types.APIKeys { return types.APIKeys{} },
		Instructions:    func() types.CustomInstructions { return types.CustomInstructions{} },
		ActiveMissionID: func() (string, bool) { return "mission_1", true },
	})
	require.NoError(t, err)
	ctrl2.ReloadForMission("mission_1")

	ctrl2.Send(context.Background(), "after restart")
	msgs := ctrl2.Primary()
	assert.Greater(t, msgs[len(msgs)-1].ID, highest)
}

func TestRejectionLinesStayOutOfSecondaryThread(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Send(context.Background(), "hello")
	f.ctrl.Send(context.Background(), "/openai what is up")

	// Restart on the same store: only the OpenAI exchange is restored into
	// the secondary thread, never the mission-policy rejection.
	ctrl2, err := New(Config{
		Store:           f.store,
		Registry:        f.registry,
		Primary:         f.primary,
		Secondary:       f.secondary,
		Keys:            func() types.APIKeys { return types.APIKeys{} },
		Instructions:    func() types.CustomInstructions { return types.CustomInstructions{} },
		ActiveMissionID: func() (string, bool) { return "", false },
	})
	require.NoError(t, err)

	msgs := ctrl2.Secondary()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	assert.Equal(t, "what is up", msgs[0].Text)
	assert.Equal(t, types.SenderOpenAI, msgs[1].Sender)
	for _, m := range msgs {
		assert.NotEqual(t, types.SenderSystem, m.Sender)
	}
}

// blockingPrimary delays hint resolution until released.
type blockingPrimary struct {
	*fakePrimary
	release <-chan struct{}
}

func (b *blockingPrimary) GenerateHints(ctx context.Context, history []types.ChatMessage, agentName, lastResponse, instr string) (*types.Hint, error) {
	<-b.release
	return b.fakePrimary.GenerateHints(ctx, history, agentName, lastResponse, instr)
}
