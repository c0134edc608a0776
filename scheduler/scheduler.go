package scheduler

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TexhubPro/texhub-telegram-bot-builder/engine"
	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/util"
	"go.uber.org/zap"
)

const tickSeconds = 20

var datetimeLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04"}

// Scheduler drives the task nodes of one running bot. Every tick it
// re-reads the current graph, so flow edits apply without a restart.
// Last-run times live in process memory only; a restart re-arms interval
// and daily tasks.
type Scheduler struct {
	botID    string
	engine   *engine.Engine
	executor *engine.Executor
	graphOf  func() *flow.Graph
	lastRun  map[string]time.Time
	now      func() time.Time
}

func New(botID string, eng *engine.Engine, exec *engine.Executor, graphOf func() *flow.Graph) *Scheduler {
	return &Scheduler{
		botID:    botID,
		engine:   eng,
		executor: exec,
		graphOf:  graphOf,
		lastRun:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Start runs the tick loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, wg *sync.WaitGroup) {
	stop := make(chan struct{}, 1)
	worker := util.NewTickWorker("scheduler-"+s.botID, tickSeconds, stop, func() {
		s.RunPending(ctx)
	}, wg)
	worker.Start()
	go func() {
		<-ctx.Done()
		stop <- struct{}{}
	}()
}

// RunPending fires every task node that is due and records the run time,
// even when the traversal produced nothing to send.
func (s *Scheduler) RunPending(ctx context.Context) {
	g := s.graphOf()
	if g == nil {
		return
	}
	now := s.now()
	for _, task := range g.NodesOfKind(model.KIND_TASK) {
		if task.ID == "" {
			continue
		}
		last, hasRun := s.lastRun[task.ID]
		if !Due(task, now, last, hasRun) {
			continue
		}
		logger.Info("task due", zap.String("bot", s.botID), zap.String("task", task.ID))
		targets := s.engine.CollectScheduled(ctx, g, task.ID)
		s.executor.Run(ctx, g, nil, targets)
		s.lastRun[task.ID] = now
	}
}

// Due decides whether a task node should fire. Interval tasks fire when
// enough minutes elapsed since the last run (first tick counts). Daily
// tasks fire once per date after their configured time. Datetime tasks
// fire exactly once after their moment passes.
func Due(node model.Node, now time.Time, lastRun time.Time, hasRun bool) bool {
	switch node.Data.String("taskScheduleType") {
	case "daily":
		hour, minute := dailyTime(node)
		if now.Hour()*60+now.Minute() < hour*60+minute {
			return false
		}
		if !hasRun {
			return true
		}
		ly, lm, ld := lastRun.Date()
		ny, nm, nd := now.Date()
		return time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC).Before(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
	case "datetime":
		runAt, ok := runAtTime(node, now.Location())
		if !ok || hasRun {
			return false
		}
		return !now.Before(runAt)
	default:
		minutes := node.Data.Int64("taskIntervalMinutes", 60)
		if minutes < 1 {
			minutes = 60
		}
		if !hasRun {
			return true
		}
		return now.Sub(lastRun) >= time.Duration(minutes)*time.Minute
	}
}

func dailyTime(node model.Node) (int, int) {
	raw := node.Data.String("taskDailyTime")
	if raw == "" {
		return 10, 0
	}
	parts := strings.Split(raw, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 10, 0
	}
	minute := 0
	if len(parts) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			minute = m
		}
	}
	return hour, minute
}

func runAtTime(node model.Node, loc *time.Location) (time.Time, bool) {
	raw := node.Data.String("taskRunAt")
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
