package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonConversion(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"url button": func(t *testing.T) {
			btn := inlineButton(model.InlineButton{Text: "Open", Action: model.BUTTON_ACTION_URL, URL: "https://example.com"})
			require.NotNil(t, btn.URL)
			require.Equal(t, "https://example.com", *btn.URL)
		},
		"callback button": func(t *testing.T) {
			btn := inlineButton(model.InlineButton{Text: "Pick", Action: model.BUTTON_ACTION_CALLBACK, CallbackData: "btn:n1"})
			require.NotNil(t, btn.CallbackData)
			require.Equal(t, "btn:n1", *btn.CallbackData)
		},
		"web_app falls back to a url button": func(t *testing.T) {
			btn := inlineButton(model.InlineButton{Text: "App", Action: model.BUTTON_ACTION_WEB_APP, WebAppURL: "https://app.example.com"})
			require.NotNil(t, btn.URL)
			require.Equal(t, "https://app.example.com", *btn.URL)
			require.Nil(t, btn.CallbackData)
		},
		"copy falls back to a callback button": func(t *testing.T) {
			btn := inlineButton(model.InlineButton{Text: "Copy", Action: model.BUTTON_ACTION_COPY, CopyText: "PROMO", CallbackData: "btn:n2"})
			require.NotNil(t, btn.CallbackData)
			require.Equal(t, "btn:n2", *btn.CallbackData)
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestReplyMarkupConversion(t *testing.T) {
	rm := replyMarkup(model.Markup{Reply: [][]model.ReplyButton{
		{{Text: "Catalog"}},
		{{Text: "App", WebAppURL: "https://app.example.com"}},
	}})
	keyboard, ok := rm.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.True(t, keyboard.ResizeKeyboard)
	require.Len(t, keyboard.Keyboard, 2)
	require.Equal(t, "Catalog", keyboard.Keyboard[0][0].Text)
	// web_app reply buttons degrade to their label on this wrapper release.
	require.Equal(t, "App", keyboard.Keyboard[1][0].Text)
}

func TestClearMarkupConversion(t *testing.T) {
	rm := replyMarkup(model.Markup{Clear: true})
	remove, ok := rm.(tgbotapi.ReplyKeyboardRemove)
	require.True(t, ok)
	require.True(t, remove.RemoveKeyboard)

	require.Nil(t, replyMarkup(model.Markup{}))
}
