package condition

import (
	"testing"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/stretchr/testify/require"
)

func conditionNode(data map[string]any) model.Node {
	data["kind"] = model.KIND_CONDITION
	return model.Node{ID: "c", Data: data}
}

func textMessage(text string) *model.Message {
	return &model.Message{
		Chat: model.Chat{ID: 1},
		From: &model.User{ID: 10},
		Text: text,
	}
}

func TestMatch(t *testing.T) {
	noStatus := func(int64) string { return "" }

	for scenario, fn := range map[string]func(t *testing.T){
		"text equals ignoring case": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "text", "conditionText": "Hello"})
			require.True(t, Match(node, textMessage("hello"), noStatus))
			require.False(t, Match(node, textMessage("hello there"), noStatus))
		},
		"empty text predicate never passes": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "text", "conditionText": ""})
			require.False(t, Match(node, textMessage(""), noStatus))
		},
		"text contains": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "text_contains", "conditionText": "ORDER"})
			require.True(t, Match(node, textMessage("my order 5"), noStatus))
			require.False(t, Match(node, textMessage("hi"), noStatus))
		},
		"status lookup": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "status", "conditionText": "vip"})
			require.True(t, Match(node, textMessage("x"), func(int64) string { return "VIP" }))
			require.False(t, Match(node, textMessage("x"), noStatus))
		},
		"caption counts as text": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "has_text"})
			msg := &model.Message{Chat: model.Chat{ID: 1}, Caption: "cap"}
			require.True(t, Match(node, msg, noStatus))
		},
		"has number finds digits anywhere": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionType": "has_number"})
			require.True(t, Match(node, textMessage("call 555"), noStatus))
			require.False(t, Match(node, textMessage("call me"), noStatus))
		},
		"length bound ands with has_text": func(t *testing.T) {
			node := conditionNode(map[string]any{
				"conditionType":        "has_text",
				"conditionLengthOp":    "gte",
				"conditionLengthValue": "5",
			})
			require.True(t, Match(node, textMessage("12345"), noStatus))
			require.False(t, Match(node, textMessage("1234"), noStatus))
		},
		"media predicates": func(t *testing.T) {
			photo := &model.Message{Chat: model.Chat{ID: 1}, PhotoFileID: "f"}
			require.True(t, Match(conditionNode(map[string]any{"conditionType": "has_photo"}), photo, noStatus))
			require.False(t, Match(conditionNode(map[string]any{"conditionType": "has_video"}), photo, noStatus))
		},
		"contact and location": func(t *testing.T) {
			msg := &model.Message{Chat: model.Chat{ID: 1}, HasContact: true}
			require.True(t, Match(conditionNode(map[string]any{"conditionType": "has_contact"}), msg, noStatus))
			require.False(t, Match(conditionNode(map[string]any{"conditionType": "has_location"}), msg, noStatus))
		},
		"legacy bare text equality": func(t *testing.T) {
			node := conditionNode(map[string]any{"conditionText": "yes"})
			require.True(t, Match(node, textMessage("YES"), noStatus))
		},
		"legacy flag bag ands together": func(t *testing.T) {
			node := conditionNode(map[string]any{
				"conditionHasText":   true,
				"conditionHasNumber": true,
			})
			require.True(t, Match(node, textMessage("a1"), noStatus))
			require.False(t, Match(node, textMessage("ab"), noStatus))
		},
		"no checks means false": func(t *testing.T) {
			node := conditionNode(map[string]any{})
			require.False(t, Match(node, textMessage("anything"), noStatus))
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestMatchEntry(t *testing.T) {
	node := conditionNode(map[string]any{"conditionType": "status", "conditionText": "vip"})
	require.True(t, MatchEntry(node, &model.UserEntry{UserID: 1, Status: "VIP"}))
	require.False(t, MatchEntry(node, &model.UserEntry{UserID: 1, Status: "basic"}))
	require.False(t, MatchEntry(node, nil))

	// Only status predicates apply without a live message.
	textNode := conditionNode(map[string]any{"conditionType": "text", "conditionText": "hi"})
	require.False(t, MatchEntry(textNode, &model.UserEntry{UserID: 1}))
}
