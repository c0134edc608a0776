package platform

import (
	"context"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// ChatMemberInfo is the slice of chat membership the engine cares about.
type ChatMemberInfo struct {
	Status   string
	IsMember bool
}

// Client abstracts the messaging platform. The engine and runtime only
// talk to this interface; the telegram package provides the production
// implementation and the Fake stands in for it in tests.
type Client interface {
	Me(ctx context.Context) (model.User, error)
	SendText(ctx context.Context, chatID int64, text string, markup model.Markup) (int, error)
	SendMedia(ctx context.Context, chatID int64, kind string, urls []string, caption string, markup model.Markup) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID string) error
	ChatMember(ctx context.Context, chatID int64, userID int64) (ChatMemberInfo, error)
	ProfilePhotoID(ctx context.Context, userID int64) (string, error)
	Updates(ctx context.Context) <-chan model.Update
	Close()
}

// Factory builds a client from a bot token. The supervisor holds one so
// tests can swap the telegram transport for a Fake.
type Factory func(token string, pollTimeout int) (Client, error)
