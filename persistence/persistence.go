package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func IsNotFound(err error) bool {
	_, ok := err.(NotFoundError)
	return ok
}

// Storage is the read/write contract of the persistent store: bot records
// with their opaque flows, per (bot, user) status entries and per (bot, chat)
// admin entries. Implementations must tolerate concurrent access from the
// REST surface and every running bot.
type Storage interface {
	SaveBot(bot model.Bot) error
	GetBot(id string) (*model.Bot, error)
	ListBots() ([]model.Bot, error)
	DeleteBot(id string) error
	SaveFlow(botID string, flow json.RawMessage) error

	UpsertUser(entry model.UserEntry) error
	GetUser(botID string, userID int64) (*model.UserEntry, error)
	ListUsers(botID string) ([]model.UserEntry, error)
	SetUserStatus(botID string, userID int64, status string) error

	UpsertChat(entry model.ChatEntry) error
	ListAdminChats(botID string) ([]model.ChatEntry, error)
}
