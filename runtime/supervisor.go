package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/TexhubPro/texhub-telegram-bot-builder/cache"
	"github.com/TexhubPro/texhub-telegram-bot-builder/engine"
	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/TexhubPro/texhub-telegram-bot-builder/plugin"
	"github.com/TexhubPro/texhub-telegram-bot-builder/record"
	"github.com/TexhubPro/texhub-telegram-bot-builder/scheduler"
	"github.com/TexhubPro/texhub-telegram-bot-builder/status"
	"go.uber.org/zap"
)

const stopGrace = 5 * time.Second

type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns the lifecycle of every running bot: one poller goroutine
// and one scheduler loop per bot, started and stopped through here and
// nowhere else.
type Supervisor struct {
	storage     persistence.Storage
	flows       *cache.FlowCache
	records     *record.Store
	plugins     *plugin.Registry
	newClient   platform.Factory
	pollTimeout int

	mu      sync.Mutex
	running map[string]*handle
}

func NewSupervisor(storage persistence.Storage, flows *cache.FlowCache, records *record.Store, plugins *plugin.Registry, newClient platform.Factory, pollTimeout int) *Supervisor {
	return &Supervisor{
		storage:     storage,
		flows:       flows,
		records:     records,
		plugins:     plugins,
		newClient:   newClient,
		pollTimeout: pollTimeout,
		running:     make(map[string]*handle),
	}
}

// Start boots the bot's poller and scheduler. Starting a bot that is
// already running is a no-op; starting one without a token is an error.
func (s *Supervisor) Start(botID string) error {
	bot, err := s.storage.GetBot(botID)
	if err != nil {
		return err
	}
	if bot.Token == "" {
		return fmt.Errorf("bot %s has no token", botID)
	}
	s.mu.Lock()
	if _, ok := s.running[botID]; ok {
		s.mu.Unlock()
		return nil
	}
	client, err := s.newClient(bot.Token, s.pollTimeout)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	parsed := model.ParseFlow(bot.Flow)
	s.flows.Save(botID, &parsed)
	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}
	s.running[botID] = h
	s.mu.Unlock()

	if err := s.setBotStatus(botID, model.BOT_STATUS_RUNNING); err != nil {
		logger.Error("status persist failed", zap.String("bot", botID), zap.Error(err))
	}
	go s.run(ctx, *bot, client, h.done)
	logger.Info("bot started", zap.String("bot", botID), zap.String("name", bot.Name))
	return nil
}

func (s *Supervisor) run(ctx context.Context, bot model.Bot, client platform.Client, done chan struct{}) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(done)
	defer client.Close()

	me, err := client.Me(ctx)
	if err != nil {
		logger.Error("identity lookup failed", zap.String("bot", bot.ID), zap.Error(err))
	}
	statusSvc := status.NewService(bot.ID, me.ID, s.storage, client)
	eng := engine.New(bot.ID, s.records, statusSvc, s.plugins, client)
	exec := engine.NewExecutor(bot.ID, client)
	graphOf := func() *flow.Graph {
		return s.graph(bot.ID)
	}

	var wg sync.WaitGroup
	sched := scheduler.New(bot.ID, eng, exec, graphOf)
	sched.Start(ctx, &wg)

	d := &dispatcher{
		botID:    bot.ID,
		engine:   eng,
		executor: exec,
		status:   statusSvc,
		client:   client,
		graphOf:  graphOf,
	}
	for upd := range client.Updates(ctx) {
		d.Dispatch(ctx, upd)
	}
	// The poll transport can close on its own; the scheduler winds down
	// with it either way.
	cancel()
	wg.Wait()
	logger.Info("bot poller exited", zap.String("bot", bot.ID))
}

// graph returns the bot's current graph, preferring the cache and falling
// back to the stored flow.
func (s *Supervisor) graph(botID string) *flow.Graph {
	if f, ok := s.flows.Get(botID); ok {
		return flow.NewGraph(*f)
	}
	bot, err := s.storage.GetBot(botID)
	if err != nil {
		return nil
	}
	parsed := model.ParseFlow(bot.Flow)
	s.flows.Save(botID, &parsed)
	return flow.NewGraph(parsed)
}

// Stop cancels the bot's goroutines, waits up to the grace period and
// persists the stopped status. Stopping a stopped bot only re-persists
// the status.
func (s *Supervisor) Stop(botID string) error {
	s.mu.Lock()
	h, ok := s.running[botID]
	if ok {
		delete(s.running, botID)
	}
	s.mu.Unlock()
	if ok {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(stopGrace):
			logger.Warn("bot did not stop within grace period", zap.String("bot", botID))
		}
	}
	s.flows.Delete(botID)
	return s.setBotStatus(botID, model.BOT_STATUS_STOPPED)
}

func (s *Supervisor) IsRunning(botID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[botID]
	return ok
}

// Resume restarts every bot persisted as running, used at boot so a
// process restart does not silently park bots.
func (s *Supervisor) Resume() {
	bots, err := s.storage.ListBots()
	if err != nil {
		logger.Error("bot list failed on resume", zap.Error(err))
		return
	}
	for _, bot := range bots {
		if bot.Status != model.BOT_STATUS_RUNNING {
			continue
		}
		if err := s.Start(bot.ID); err != nil {
			logger.Error("bot resume failed", zap.String("bot", bot.ID), zap.Error(err))
		}
	}
}

// SaveFlow persists the new flow and refreshes the cache so a running bot
// picks it up on the next update or tick.
func (s *Supervisor) SaveFlow(botID string, raw json.RawMessage) error {
	if err := s.storage.SaveFlow(botID, raw); err != nil {
		return err
	}
	parsed := model.ParseFlow(raw)
	s.flows.Save(botID, &parsed)
	return nil
}

// StopAll shuts every running bot down, used on process shutdown. The
// persisted status stays "running" so Resume picks the bots up again.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	handles := make(map[string]*handle, len(s.running))
	for id, h := range s.running {
		handles[id] = h
	}
	s.running = make(map[string]*handle)
	s.mu.Unlock()
	for id, h := range handles {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(stopGrace):
			logger.Warn("bot did not stop within grace period", zap.String("bot", id))
		}
	}
}

func (s *Supervisor) setBotStatus(botID string, st model.BotStatus) error {
	bot, err := s.storage.GetBot(botID)
	if err != nil {
		return err
	}
	bot.Status = st
	return s.storage.SaveBot(*bot)
}
