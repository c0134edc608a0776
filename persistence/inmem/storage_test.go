package inmem

import (
	"encoding/json"
	"testing"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/stretchr/testify/require"
)

func TestBotLifecycle(t *testing.T) {
	s := NewStorage()

	_, err := s.GetBot("b1")
	require.True(t, persistence.IsNotFound(err))

	require.NoError(t, s.SaveBot(model.Bot{ID: "b2", Name: "second"}))
	require.NoError(t, s.SaveBot(model.Bot{ID: "b1", Name: "first"}))

	bot, err := s.GetBot("b1")
	require.NoError(t, err)
	require.Equal(t, "first", bot.Name)

	bots, err := s.ListBots()
	require.NoError(t, err)
	require.Len(t, bots, 2)
	require.Equal(t, "b1", bots[0].ID)

	require.NoError(t, s.DeleteBot("b1"))
	require.True(t, persistence.IsNotFound(s.DeleteBot("b1")))
}

func TestSaveFlow(t *testing.T) {
	s := NewStorage()
	raw := json.RawMessage(`{"nodes":[{"id":"n1","data":{"kind":"command"}}],"edges":[]}`)

	require.True(t, persistence.IsNotFound(s.SaveFlow("missing", raw)))

	require.NoError(t, s.SaveBot(model.Bot{ID: "b1"}))
	require.NoError(t, s.SaveFlow("b1", raw))

	bot, err := s.GetBot("b1")
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(bot.Flow))
}

func TestUserEntries(t *testing.T) {
	s := NewStorage()

	_, err := s.GetUser("b1", 10)
	require.True(t, persistence.IsNotFound(err))

	require.NoError(t, s.UpsertUser(model.UserEntry{BotID: "b1", UserID: 20, FirstName: "Bob"}))
	require.NoError(t, s.UpsertUser(model.UserEntry{BotID: "b1", UserID: 10, FirstName: "Ann"}))

	entry, err := s.GetUser("b1", 10)
	require.NoError(t, err)
	require.Equal(t, "Ann", entry.FirstName)
	require.False(t, entry.UpdatedAt.IsZero())

	users, err := s.ListUsers("b1")
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(10), users[0].UserID)

	// Another bot sees nothing.
	users, err = s.ListUsers("b2")
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestSetUserStatus(t *testing.T) {
	s := NewStorage()

	// Setting a status on an unseen user creates the entry.
	require.NoError(t, s.SetUserStatus("b1", 10, "  vip  "))
	entry, err := s.GetUser("b1", 10)
	require.NoError(t, err)
	require.Equal(t, "vip", entry.Status)

	require.NoError(t, s.UpsertUser(model.UserEntry{BotID: "b1", UserID: 10, FirstName: "Ann", Status: "vip"}))
	require.NoError(t, s.SetUserStatus("b1", 10, ""))
	entry, err = s.GetUser("b1", 10)
	require.NoError(t, err)
	require.Equal(t, "", entry.Status)
	require.Equal(t, "Ann", entry.FirstName)
}

func TestAdminChats(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.UpsertChat(model.ChatEntry{BotID: "b1", ChatID: -1, IsAdmin: true}))
	require.NoError(t, s.UpsertChat(model.ChatEntry{BotID: "b1", ChatID: -2, IsAdmin: false}))

	chats, err := s.ListAdminChats("b1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, int64(-1), chats[0].ChatID)
}

func TestDeleteBotDropsItsRecords(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.SaveBot(model.Bot{ID: "b1"}))
	require.NoError(t, s.UpsertUser(model.UserEntry{BotID: "b1", UserID: 10}))
	require.NoError(t, s.UpsertChat(model.ChatEntry{BotID: "b1", ChatID: -1, IsAdmin: true}))

	require.NoError(t, s.DeleteBot("b1"))

	users, err := s.ListUsers("b1")
	require.NoError(t, err)
	require.Empty(t, users)
	chats, err := s.ListAdminChats("b1")
	require.NoError(t, err)
	require.Empty(t, chats)
}
