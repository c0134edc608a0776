package markup

import (
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// Build assembles the keyboard attached to a content node from its button
// children. Explicit button_row groups take precedence over buttons wired
// directly to the content node; an inline keyboard wins over everything,
// then a reply_clear child, then a reply keyboard.
func Build(g *flow.Graph, contentNodeID string) model.Markup {
	var rowNodes []model.Node
	var directButtons []model.Node
	hasClear := false
	for _, edge := range g.Outgoing(contentNodeID) {
		target, ok := g.Node(edge.Target)
		if !ok {
			continue
		}
		switch target.Data.Kind() {
		case model.KIND_BUTTON_ROW:
			rowNodes = append(rowNodes, target)
		case model.KIND_MESSAGE_BUTTON, model.KIND_REPLY_BUTTON:
			directButtons = append(directButtons, target)
		case model.KIND_REPLY_CLEAR:
			hasClear = true
		}
	}

	var inlineRows [][]model.InlineButton
	var replyRows [][]model.ReplyButton
	if len(rowNodes) > 0 {
		for _, rowNode := range rowNodes {
			var inline []model.InlineButton
			var reply []model.ReplyButton
			for _, edge := range g.Outgoing(rowNode.ID) {
				button, ok := g.Node(edge.Target)
				if !ok {
					continue
				}
				switch button.Data.Kind() {
				case model.KIND_MESSAGE_BUTTON:
					if b, ok := inlineButton(button); ok {
						inline = append(inline, b)
					}
				case model.KIND_REPLY_BUTTON:
					if b, ok := replyButton(button); ok {
						reply = append(reply, b)
					}
				}
			}
			if len(inline) > 0 {
				inlineRows = append(inlineRows, inline)
			}
			if len(reply) > 0 {
				replyRows = append(replyRows, reply)
			}
		}
	} else {
		// Without explicit rows every direct button becomes its own row.
		for _, button := range directButtons {
			switch button.Data.Kind() {
			case model.KIND_MESSAGE_BUTTON:
				if b, ok := inlineButton(button); ok {
					inlineRows = append(inlineRows, []model.InlineButton{b})
				}
			case model.KIND_REPLY_BUTTON:
				if b, ok := replyButton(button); ok {
					replyRows = append(replyRows, []model.ReplyButton{b})
				}
			}
		}
	}

	if len(inlineRows) > 0 {
		return model.Markup{Inline: inlineRows}
	}
	if hasClear {
		return model.Markup{Clear: true}
	}
	if len(replyRows) > 0 {
		return model.Markup{Reply: replyRows}
	}
	return model.Markup{}
}

func buttonText(node model.Node) string {
	text := strings.TrimSpace(node.Data.String("buttonText"))
	if text == "" {
		text = strings.TrimSpace(node.Data.String("label"))
	}
	return text
}

func inlineButton(node model.Node) (model.InlineButton, bool) {
	text := buttonText(node)
	if text == "" {
		return model.InlineButton{}, false
	}
	action := strings.TrimSpace(node.Data.String("buttonAction"))
	switch action {
	case "url":
		if url := strings.TrimSpace(node.Data.String("buttonUrl")); url != "" {
			return model.InlineButton{Text: text, Action: model.BUTTON_ACTION_URL, URL: url}, true
		}
	case "web_app":
		if url := strings.TrimSpace(node.Data.String("buttonWebAppUrl")); url != "" {
			return model.InlineButton{Text: text, Action: model.BUTTON_ACTION_WEB_APP, WebAppURL: url}, true
		}
	case "copy":
		if copyText := strings.TrimSpace(node.Data.String("buttonCopyText")); copyText != "" {
			return model.InlineButton{Text: text, Action: model.BUTTON_ACTION_COPY, CopyText: copyText, CallbackData: callbackPayload(node.ID)}, true
		}
	}
	return model.InlineButton{Text: text, Action: model.BUTTON_ACTION_CALLBACK, CallbackData: callbackPayload(node.ID)}, true
}

func replyButton(node model.Node) (model.ReplyButton, bool) {
	text := buttonText(node)
	if text == "" {
		return model.ReplyButton{}, false
	}
	if strings.TrimSpace(node.Data.String("replyAction")) == "web_app" {
		if url := strings.TrimSpace(node.Data.String("replyWebAppUrl")); url != "" {
			return model.ReplyButton{Text: text, WebAppURL: url}, true
		}
	}
	return model.ReplyButton{Text: text}, true
}

// Telegram caps callback payloads at 64 bytes.
func callbackPayload(nodeID string) string {
	payload := "btn:" + nodeID
	if len(payload) > 64 {
		payload = payload[:64]
	}
	return payload
}
