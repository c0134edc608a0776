package status

import (
	"context"
	"testing"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence/inmem"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *inmem.Storage, *platform.Fake) {
	t.Helper()
	storage := inmem.NewStorage()
	client := platform.NewFake()
	return NewService("bot1", client.User.ID, storage, client), storage, client
}

func TestEnsureUser(t *testing.T) {
	svc, storage, client := newService(t)
	client.Photos[10] = "photo-1"

	svc.EnsureUser(context.Background(), &model.User{ID: 10, Username: "ann", FirstName: "Ann"})

	entry, err := storage.GetUser("bot1", 10)
	require.NoError(t, err)
	require.Equal(t, "ann", entry.Username)
	require.Equal(t, "photo-1", entry.PhotoFileID)

	// The status tag and photo survive a later upsert with fresh profile data.
	require.NoError(t, storage.SetUserStatus("bot1", 10, "vip"))
	client.Photos[10] = "photo-2"
	svc.EnsureUser(context.Background(), &model.User{ID: 10, Username: "ann_new"})

	entry, err = storage.GetUser("bot1", 10)
	require.NoError(t, err)
	require.Equal(t, "ann_new", entry.Username)
	require.Equal(t, "vip", entry.Status)
	require.Equal(t, "photo-1", entry.PhotoFileID)
}

func TestEnsureChat(t *testing.T) {
	svc, storage, client := newService(t)
	client.Members[-10] = platform.ChatMemberInfo{Status: "administrator"}
	client.Members[-20] = platform.ChatMemberInfo{Status: "member"}

	svc.EnsureChat(context.Background(), model.Chat{ID: -10, Type: "supergroup", Title: "Admins"})
	svc.EnsureChat(context.Background(), model.Chat{ID: -20, Type: "supergroup", Title: "Guests"})
	svc.EnsureChat(context.Background(), model.Chat{ID: 30, Type: "private"})

	chats, err := storage.ListAdminChats("bot1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Equal(t, int64(-10), chats[0].ChatID)
}

func TestStatusRoundTrip(t *testing.T) {
	svc, _, _ := newService(t)

	require.Equal(t, "", svc.GetStatus(10))
	svc.SetStatus(10, "lead")
	require.Equal(t, "lead", svc.GetStatus(10))
}

func TestIsSubscribed(t *testing.T) {
	svc, _, client := newService(t)

	for scenario, fn := range map[string]func(t *testing.T){
		"member counts": func(t *testing.T) {
			client.Members[-1] = platform.ChatMemberInfo{Status: "member"}
			require.True(t, svc.IsSubscribed(context.Background(), -1, 10))
		},
		"left does not": func(t *testing.T) {
			client.Members[-1] = platform.ChatMemberInfo{Status: "left"}
			require.False(t, svc.IsSubscribed(context.Background(), -1, 10))
		},
		"restricted follows the member flag": func(t *testing.T) {
			client.Members[-1] = platform.ChatMemberInfo{Status: "restricted", IsMember: true}
			require.True(t, svc.IsSubscribed(context.Background(), -1, 10))
			client.Members[-1] = platform.ChatMemberInfo{Status: "restricted"}
			require.False(t, svc.IsSubscribed(context.Background(), -1, 10))
		},
		"lookup failure counts as not subscribed": func(t *testing.T) {
			require.False(t, svc.IsSubscribed(context.Background(), -99, 10))
		},
	} {
		t.Run(scenario, fn)
	}
}
