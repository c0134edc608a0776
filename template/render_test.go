package template

import (
	"testing"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	msg := &model.Message{
		MessageID: 42,
		Chat:      model.Chat{ID: 777},
		From:      &model.User{ID: 5, Username: "ann", FirstName: "Ann", LastName: "Lee"},
		Text:      "hello there",
	}

	for scenario, fn := range map[string]func(t *testing.T){
		"message placeholders": func(t *testing.T) {
			out := Render("{name} ({username}) said {text} in {chat_id}", Context{Message: msg})
			require.Equal(t, "Ann (@ann) said hello there in 777", out)
		},
		"unknown placeholder becomes empty": func(t *testing.T) {
			out := Render("x{nonsense}y", Context{Message: msg})
			require.Equal(t, "xy", out)
		},
		"recipient wins over message sender": func(t *testing.T) {
			recipient := &model.UserEntry{UserID: 9, FirstName: "Bob", Username: "bob"}
			out := Render("{first_name} {username}", Context{Message: msg, Recipient: recipient})
			require.Equal(t, "Bob @bob", out)
		},
		"row lookup is case insensitive": func(t *testing.T) {
			out := Render("{row[Phone]}", Context{Row: map[string]string{"phone": "555"}})
			require.Equal(t, "555", out)
		},
		"vars from plugins": func(t *testing.T) {
			out := Render("{var[score]}", Context{Vars: map[string]any{"Score": 12.0}})
			require.Equal(t, "12", out)
		},
		"missing row and var become empty": func(t *testing.T) {
			out := Render("{row[x]}-{var[y]}", Context{})
			require.Equal(t, "-", out)
		},
		"explicit chat id beats message chat": func(t *testing.T) {
			out := Render("{chat_id}", Context{Message: msg, ChatID: 123})
			require.Equal(t, "123", out)
		},
		"empty context renders nothing": func(t *testing.T) {
			out := Render("{text}{chat_id}{message_id}", Context{})
			require.Equal(t, "", out)
		},
		"full name joins what exists": func(t *testing.T) {
			partial := &model.Message{From: &model.User{FirstName: "Solo"}}
			out := Render("{full_name}", Context{Message: partial})
			require.Equal(t, "Solo", out)
		},
	} {
		t.Run(scenario, fn)
	}
}

func TestRenderMediaPlaceholders(t *testing.T) {
	msg := &model.Message{
		Chat:         model.Chat{ID: 1},
		PhotoFileID:  "ph1",
		ContactPhone: "12345",
		HasContact:   true,
		HasLocation:  true,
		LocationLat:  55.75,
		LocationLon:  37.61,
	}
	out := Render("{photo_id}|{contact_phone}|{location_lat}|{location_lon}", Context{Message: msg})
	require.Equal(t, "ph1|12345|55.75|37.61", out)
}
