package runtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/TexhubPro/texhub-telegram-bot-builder/cache"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence/inmem"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/TexhubPro/texhub-telegram-bot-builder/plugin"
	"github.com/TexhubPro/texhub-telegram-bot-builder/record"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	mu      sync.Mutex
	clients []*platform.Fake
}

func (f *fakeFactory) new(token string, pollTimeout int) (platform.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	client := platform.NewFake()
	f.clients = append(f.clients, client)
	return client, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *fakeFactory) last() *platform.Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.clients) == 0 {
		return nil
	}
	return f.clients[len(f.clients)-1]
}

func newTestSupervisor(t *testing.T) (*Supervisor, *inmem.Storage, *fakeFactory) {
	t.Helper()
	storage := inmem.NewStorage()
	records, err := record.NewStore(t.TempDir())
	require.NoError(t, err)
	factory := &fakeFactory{}
	s := NewSupervisor(storage, cache.NewFlowCache(), records, plugin.NewRegistry(), factory.new, 30)
	return s, storage, factory
}

const welcomeFlow = `{
	"nodes": [
		{"id": "c", "data": {"kind": "command", "commandText": "/start"}},
		{"id": "m", "data": {"kind": "message", "messageText": "welcome"}}
	],
	"edges": [{"source": "c", "target": "m"}]
}`

func TestStartValidation(t *testing.T) {
	s, storage, factory := newTestSupervisor(t)

	err := s.Start("missing")
	require.True(t, persistence.IsNotFound(err))

	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Name: "bare"}))
	err = s.Start("b1")
	require.ErrorContains(t, err, "has no token")
	require.Zero(t, factory.count())
}

func TestStartStopLifecycle(t *testing.T) {
	s, storage, factory := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Token: "tok", Flow: json.RawMessage(welcomeFlow)}))

	require.NoError(t, s.Start("b1"))
	require.True(t, s.IsRunning("b1"))

	// A second start is a no-op, no new client is built.
	require.NoError(t, s.Start("b1"))
	require.Equal(t, 1, factory.count())

	bot, err := storage.GetBot("b1")
	require.NoError(t, err)
	require.Equal(t, model.BOT_STATUS_RUNNING, bot.Status)

	require.NoError(t, s.Stop("b1"))
	require.False(t, s.IsRunning("b1"))
	bot, err = storage.GetBot("b1")
	require.NoError(t, err)
	require.Equal(t, model.BOT_STATUS_STOPPED, bot.Status)

	// Stopping again only re-persists the status.
	require.NoError(t, s.Stop("b1"))
}

func TestDispatchDeliversCommandReply(t *testing.T) {
	s, storage, factory := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Token: "tok", Flow: json.RawMessage(welcomeFlow)}))
	require.NoError(t, s.Start("b1"))
	defer s.StopAll()

	client := factory.last()
	client.Events <- model.Update{Message: &model.Message{
		MessageID: 1,
		Chat:      model.Chat{ID: 42, Type: "private"},
		From:      &model.User{ID: 42, FirstName: "Ann"},
		Text:      "/start",
	}}

	require.Eventually(t, func() bool {
		for _, call := range client.Calls() {
			if call.Op == "text" && call.Text == "welcome" && call.ChatID == 42 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// The sender landed in the user store along the way.
	entry, err := storage.GetUser("b1", 42)
	require.NoError(t, err)
	require.Equal(t, "Ann", entry.FirstName)
}

func TestResumeStartsOnlyRunningBots(t *testing.T) {
	s, storage, factory := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "run", Token: "tok", Status: model.BOT_STATUS_RUNNING}))
	require.NoError(t, storage.SaveBot(model.Bot{ID: "parked", Token: "tok", Status: model.BOT_STATUS_STOPPED}))

	s.Resume()
	defer s.StopAll()

	require.True(t, s.IsRunning("run"))
	require.False(t, s.IsRunning("parked"))
	require.Equal(t, 1, factory.count())
}

func TestSaveFlowRefreshesCache(t *testing.T) {
	s, storage, _ := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Token: "tok"}))

	require.NoError(t, s.SaveFlow("b1", json.RawMessage(welcomeFlow)))

	bot, err := storage.GetBot("b1")
	require.NoError(t, err)
	require.JSONEq(t, welcomeFlow, string(bot.Flow))

	g := s.graph("b1")
	require.NotNil(t, g)
	_, ok := g.FindCommand("start")
	require.True(t, ok)

	require.True(t, persistence.IsNotFound(s.SaveFlow("missing", json.RawMessage(`{}`))))
}

func TestPollExitWindsDownTheBot(t *testing.T) {
	s, storage, factory := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Token: "tok", Flow: json.RawMessage(welcomeFlow)}))
	require.NoError(t, s.Start("b1"))

	s.mu.Lock()
	h := s.running["b1"]
	s.mu.Unlock()
	require.NotNil(t, h)

	// A dying transport closes the updates channel without anyone calling
	// Stop; the scheduler must not keep ticking for a dead poller.
	close(factory.last().Events)

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot goroutines did not wind down after the poll loop exited")
	}

	// A later Stop only cleans up bookkeeping.
	require.NoError(t, s.Stop("b1"))
	require.False(t, s.IsRunning("b1"))
}

func TestStopAllKeepsPersistedStatus(t *testing.T) {
	s, storage, _ := newTestSupervisor(t)
	require.NoError(t, storage.SaveBot(model.Bot{ID: "b1", Token: "tok", Flow: json.RawMessage(welcomeFlow)}))
	require.NoError(t, s.Start("b1"))

	s.StopAll()
	require.False(t, s.IsRunning("b1"))

	bot, err := storage.GetBot("b1")
	require.NoError(t, err)
	require.Equal(t, model.BOT_STATUS_RUNNING, bot.Status)
}
