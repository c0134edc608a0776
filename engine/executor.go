package engine

import (
	"context"
	"sort"
	"time"

	"github.com/TexhubPro/texhub-telegram-bot-builder/analytics"
	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/markup"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/TexhubPro/texhub-telegram-bot-builder/template"
	"go.uber.org/zap"
)

var mediaURLField = map[string]string{
	model.KIND_IMAGE:    "imageUrls",
	model.KIND_VIDEO:    "videoUrls",
	model.KIND_AUDIO:    "audioUrls",
	model.KIND_DOCUMENT: "documentUrls",
}

// Executor delivers collected targets in delay order. Platform failures
// are logged and recorded, never propagated; one broken send must not
// starve the rest of the batch.
type Executor struct {
	botID  string
	client platform.Client
	sleep  func(ctx context.Context, d time.Duration) bool
}

func NewExecutor(botID string, client platform.Client) *Executor {
	return &Executor{
		botID:  botID,
		client: client,
		sleep:  waitFor,
	}
}

func waitFor(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Run sorts targets by delay and sleeps only the delta between consecutive
// delays, so two targets at 3s and 5s wait 3 then 2 seconds. A cancelled
// context abandons the remaining targets.
func (x *Executor) Run(ctx context.Context, g *flow.Graph, msg *model.Message, targets []Target) {
	if len(targets) == 0 {
		return
	}
	ordered := make([]Target, len(targets))
	copy(ordered, targets)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Delay < ordered[j].Delay })

	elapsed := 0.0
	for _, target := range ordered {
		if wait := target.Delay - elapsed; wait > 0 {
			if !x.sleep(ctx, time.Duration(wait*float64(time.Second))) {
				return
			}
			elapsed = target.Delay
		}
		x.deliver(ctx, g, msg, target)
	}
}

func (x *Executor) deliver(ctx context.Context, g *flow.Graph, msg *model.Message, target Target) {
	chatID := target.ChatID
	if chatID == 0 && msg != nil {
		chatID = msg.Chat.ID
	}
	if chatID == 0 {
		return
	}
	kind := target.Node.Data.Kind()
	renderCtx := template.Context{
		Message:   msg,
		Recipient: target.Entry,
		ChatID:    chatID,
		Row:       target.Row,
		Vars:      target.Vars,
	}

	var err error
	switch kind {
	case model.KIND_DELETE_MESSAGE:
		if msg == nil || msg.MessageID == 0 {
			return
		}
		err = x.client.DeleteMessage(ctx, msg.Chat.ID, msg.MessageID)
	case model.KIND_EDIT_MESSAGE:
		text := template.Render(target.Node.Data.String("editMessageText"), renderCtx)
		switch {
		case msg == nil || msg.MessageID == 0:
			// Scheduled sends carry no trigger message to edit, the edit
			// text goes out as a plain message instead.
			if text == "" {
				return
			}
			_, err = x.client.SendText(ctx, chatID, text, markup.Build(g, target.Node.ID))
		case msg.Text == "" && msg.Caption != "":
			err = x.client.EditCaption(ctx, msg.Chat.ID, msg.MessageID, text)
		default:
			err = x.client.EditText(ctx, msg.Chat.ID, msg.MessageID, text)
		}
	case model.KIND_MESSAGE:
		err = x.sendMessage(ctx, g, target.Node, chatID, renderCtx)
	case model.KIND_IMAGE, model.KIND_VIDEO, model.KIND_AUDIO, model.KIND_DOCUMENT:
		urls := target.Node.Data.StringList(mediaURLField[kind])
		if len(urls) == 0 {
			return
		}
		keyboard := markup.Build(g, target.Node.ID)
		_, err = x.client.SendMedia(ctx, chatID, kind, urls, "", keyboard)
	default:
		return
	}

	if err != nil {
		logger.Error("send failed", zap.String("bot", x.botID), zap.String("node", target.Node.ID), zap.Int64("chat", chatID), zap.Error(err))
		analytics.RecordSendFailure(x.botID, target.Node.ID, chatID, kind, err.Error())
		return
	}
	analytics.RecordSendSuccess(x.botID, target.Node.ID, chatID, kind)
}

// sendMessage sends a message node: rendered text rides as the caption of
// the first media batch, batches go out in image, video, audio, document
// order, the keyboard attaches to the first batch only, and bare text is
// sent only when no media child produced anything.
func (x *Executor) sendMessage(ctx context.Context, g *flow.Graph, node model.Node, chatID int64, renderCtx template.Context) error {
	text := template.Render(node.Data.String("messageText"), renderCtx)
	keyboard := markup.Build(g, node.ID)

	captionUsed := false
	markupUsed := false
	sentMedia := false
	var firstErr error
	for _, kind := range []string{model.KIND_IMAGE, model.KIND_VIDEO, model.KIND_AUDIO, model.KIND_DOCUMENT} {
		urls := childMediaURLs(g, node.ID, kind)
		if len(urls) == 0 {
			continue
		}
		sentMedia = true
		caption := ""
		if text != "" && !captionUsed {
			caption = text
		}
		batchMarkup := model.Markup{}
		if !markupUsed {
			batchMarkup = keyboard
		}
		if _, err := x.client.SendMedia(ctx, chatID, kind, urls, caption, batchMarkup); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		markupUsed = true
		if caption != "" {
			captionUsed = true
		}
	}
	if !sentMedia && text != "" {
		_, err := x.client.SendText(ctx, chatID, text, keyboard)
		return err
	}
	return firstErr
}

func childMediaURLs(g *flow.Graph, nodeID string, kind string) []string {
	var urls []string
	for _, edge := range g.Outgoing(nodeID) {
		child, ok := g.Node(edge.Target)
		if !ok || child.Data.Kind() != kind {
			continue
		}
		urls = append(urls, child.Data.StringList(mediaURLField[kind])...)
	}
	return urls
}
