package runtime

import (
	"context"
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/engine"
	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/TexhubPro/texhub-telegram-bot-builder/status"
	"go.uber.org/zap"
)

// dispatcher routes one bot's incoming updates into traversals. Trigger
// resolution for a message goes command node, then reply-button label,
// then every webhook node with the collected targets merged.
type dispatcher struct {
	botID    string
	engine   *engine.Engine
	executor *engine.Executor
	status   *status.Service
	client   platform.Client
	graphOf  func() *flow.Graph
}

func (d *dispatcher) Dispatch(ctx context.Context, upd model.Update) {
	switch {
	case upd.Message != nil:
		d.handleMessage(ctx, upd.Message)
	case upd.ChannelPost != nil:
		d.status.EnsureChat(ctx, upd.ChannelPost.Chat)
	case upd.Callback != nil:
		d.handleCallback(ctx, upd.Callback)
	}
}

func (d *dispatcher) handleMessage(ctx context.Context, msg *model.Message) {
	d.status.EnsureUser(ctx, msg.From)
	d.status.EnsureChat(ctx, msg.Chat)
	g := d.graphOf()
	if g == nil {
		return
	}
	userID := int64(0)
	if msg.From != nil {
		userID = msg.From.ID
	}

	if command := flow.NormalizeCommand(msg.Text); command != "" {
		if node, ok := g.FindCommand(command); ok {
			d.runFrom(ctx, g, node.ID, msg, userID)
			return
		}
	}
	if node, ok := g.FindReplyButton(msg.Text); ok {
		targets := d.engine.Collect(ctx, g, node.ID, msg, userID)
		if len(targets) > 0 {
			d.executor.Run(ctx, g, msg, targets)
			return
		}
	}
	var merged []engine.Target
	for _, webhook := range g.NodesOfKind(model.KIND_WEBHOOK) {
		merged = append(merged, d.engine.Collect(ctx, g, webhook.ID, msg, userID)...)
	}
	if len(merged) > 0 {
		d.executor.Run(ctx, g, msg, merged)
	}
}

func (d *dispatcher) handleCallback(ctx context.Context, cb *model.CallbackQuery) {
	d.status.EnsureUser(ctx, cb.From)
	if cb.Message != nil {
		d.status.EnsureChat(ctx, cb.Message.Chat)
	}
	if err := d.client.AnswerCallback(ctx, cb.ID); err != nil {
		logger.Debug("callback answer failed", zap.String("bot", d.botID), zap.Error(err))
	}
	data := strings.TrimSpace(cb.Data)
	if data == "" || cb.Message == nil {
		return
	}
	g := d.graphOf()
	if g == nil {
		return
	}
	// The callback message was authored by the bot; rendering and status
	// lookups must follow the human who pressed the button.
	msg := *cb.Message
	msg.From = cb.From
	userID := int64(0)
	if cb.From != nil {
		userID = cb.From.ID
	}

	if buttonID := strings.TrimPrefix(data, "btn:"); buttonID != data {
		d.runFrom(ctx, g, buttonID, &msg, userID)
		return
	}
	if strings.HasPrefix(data, "/") {
		if command := flow.NormalizeCommand(data); command != "" {
			if node, ok := g.FindCommand(command); ok {
				d.runFrom(ctx, g, node.ID, &msg, userID)
			}
		}
		return
	}
	if _, err := d.client.SendText(ctx, msg.Chat.ID, data, model.Markup{}); err != nil {
		logger.Error("callback echo failed", zap.String("bot", d.botID), zap.Error(err))
	}
}

func (d *dispatcher) runFrom(ctx context.Context, g *flow.Graph, startID string, msg *model.Message, userID int64) {
	targets := d.engine.Collect(ctx, g, startID, msg, userID)
	d.executor.Run(ctx, g, msg, targets)
}
