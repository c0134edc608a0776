package markup

import (
	"strings"
	"testing"

	"github.com/TexhubPro/texhub-telegram-bot-builder/flow"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/stretchr/testify/require"
)

func node(id, kind string, data map[string]any) model.Node {
	if data == nil {
		data = map[string]any{}
	}
	data["kind"] = kind
	return model.Node{ID: id, Data: data}
}

func TestBuildDirectButtons(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("b1", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "Open", "buttonAction": "url", "buttonUrl": "https://example.com"}),
			node("b2", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "Pick"}),
		},
		Edges: []model.Edge{
			{Source: "m", Target: "b1"},
			{Source: "m", Target: "b2"},
		},
	})

	built := Build(g, "m")
	require.Len(t, built.Inline, 2)
	require.Equal(t, model.BUTTON_ACTION_URL, built.Inline[0][0].Action)
	require.Equal(t, model.BUTTON_ACTION_CALLBACK, built.Inline[1][0].Action)
	require.Equal(t, "btn:b2", built.Inline[1][0].CallbackData)
}

func TestBuildButtonRowsTakePrecedence(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("row", model.KIND_BUTTON_ROW, nil),
			node("in-row", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "A"}),
			node("direct", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "B"}),
		},
		Edges: []model.Edge{
			{Source: "m", Target: "row"},
			{Source: "m", Target: "direct"},
			{Source: "row", Target: "in-row"},
		},
	})

	built := Build(g, "m")
	require.Len(t, built.Inline, 1)
	require.Equal(t, "A", built.Inline[0][0].Text)
}

func TestBuildInlineWinsOverReply(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("i", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "Inline"}),
			node("r", model.KIND_REPLY_BUTTON, map[string]any{"buttonText": "Reply"}),
		},
		Edges: []model.Edge{
			{Source: "m", Target: "i"},
			{Source: "m", Target: "r"},
		},
	})

	built := Build(g, "m")
	require.NotEmpty(t, built.Inline)
	require.Empty(t, built.Reply)
}

func TestBuildClearBeatsReply(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("c", model.KIND_REPLY_CLEAR, nil),
			node("r", model.KIND_REPLY_BUTTON, map[string]any{"buttonText": "Reply"}),
		},
		Edges: []model.Edge{
			{Source: "m", Target: "c"},
			{Source: "m", Target: "r"},
		},
	})

	built := Build(g, "m")
	require.True(t, built.Clear)
	require.Empty(t, built.Reply)
	require.Empty(t, built.Inline)
}

func TestBuildReplyKeyboard(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("r1", model.KIND_REPLY_BUTTON, map[string]any{"buttonText": "Catalog"}),
			node("r2", model.KIND_REPLY_BUTTON, map[string]any{"buttonText": "App", "replyAction": "web_app", "replyWebAppUrl": "https://app.example.com"}),
		},
		Edges: []model.Edge{
			{Source: "m", Target: "r1"},
			{Source: "m", Target: "r2"},
		},
	})

	built := Build(g, "m")
	require.Len(t, built.Reply, 2)
	require.Equal(t, "Catalog", built.Reply[0][0].Text)
	require.Equal(t, "https://app.example.com", built.Reply[1][0].WebAppURL)
}

func TestCallbackPayloadTruncated(t *testing.T) {
	longID := strings.Repeat("x", 100)
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node(longID, model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "Long"}),
		},
		Edges: []model.Edge{{Source: "m", Target: longID}},
	})

	built := Build(g, "m")
	require.Len(t, built.Inline[0][0].CallbackData, 64)
}

func TestButtonsWithoutTextAreDropped(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("b", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "  "}),
		},
		Edges: []model.Edge{{Source: "m", Target: "b"}},
	})

	built := Build(g, "m")
	require.True(t, built.IsZero())
}

func TestCopyActionFallsBackWithPayload(t *testing.T) {
	g := flow.NewGraph(model.Flow{
		Nodes: []model.Node{
			node("m", model.KIND_MESSAGE, nil),
			node("b", model.KIND_MESSAGE_BUTTON, map[string]any{"buttonText": "Copy", "buttonAction": "copy", "buttonCopyText": "PROMO"}),
		},
		Edges: []model.Edge{{Source: "m", Target: "b"}},
	})

	built := Build(g, "m")
	btn := built.Inline[0][0]
	require.Equal(t, model.BUTTON_ACTION_COPY, btn.Action)
	require.Equal(t, "PROMO", btn.CopyText)
	require.Equal(t, "btn:b", btn.CallbackData)
}
