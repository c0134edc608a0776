package status

import (
	"context"
	"strconv"
	"time"

	cc "github.com/patrickmn/go-cache"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"go.uber.org/zap"
)

// Service owns the per-bot user and chat records: who talked to the bot,
// their status tag, which group chats the bot administers, and channel
// membership checks for subscription gates.
type Service struct {
	botID     string
	botUserID int64
	storage   persistence.Storage
	client    platform.Client
	admins    *cc.Cache
}

func NewService(botID string, botUserID int64, storage persistence.Storage, client platform.Client) *Service {
	return &Service{
		botID:     botID,
		botUserID: botUserID,
		storage:   storage,
		client:    client,
		admins:    cc.New(5*time.Minute, 10*time.Minute),
	}
}

// EnsureUser upserts the sender's entry. The profile photo is fetched only
// the first time a user is seen; a fetch failure leaves it blank. The
// stored status tag survives the upsert.
func (s *Service) EnsureUser(ctx context.Context, user *model.User) {
	if user == nil || user.ID == 0 {
		return
	}
	entry := model.UserEntry{BotID: s.botID, UserID: user.ID}
	if existing, err := s.storage.GetUser(s.botID, user.ID); err == nil {
		entry.Status = existing.Status
		entry.PhotoFileID = existing.PhotoFileID
	}
	entry.Username = user.Username
	entry.FirstName = user.FirstName
	entry.LastName = user.LastName
	if entry.PhotoFileID == "" {
		photoID, err := s.client.ProfilePhotoID(ctx, user.ID)
		if err != nil {
			logger.Debug("profile photo fetch failed", zap.String("bot", s.botID), zap.Int64("user", user.ID), zap.Error(err))
		} else {
			entry.PhotoFileID = photoID
		}
	}
	if err := s.storage.UpsertUser(entry); err != nil {
		logger.Error("user upsert failed", zap.String("bot", s.botID), zap.Int64("user", user.ID), zap.Error(err))
	}
}

// EnsureChat records group, supergroup and channel chats where the bot is
// an administrator. The admin check is cached so a busy chat does not hit
// the platform on every update.
func (s *Service) EnsureChat(ctx context.Context, chat model.Chat) {
	switch chat.Type {
	case "group", "supergroup", "channel":
	default:
		return
	}
	if chat.ID == 0 {
		return
	}
	cacheKey := strconv.FormatInt(chat.ID, 10)
	isAdmin, cached := s.admins.Get(cacheKey)
	if !cached {
		member, err := s.client.ChatMember(ctx, chat.ID, s.botUserID)
		admin := err == nil && (member.Status == "administrator" || member.Status == "creator")
		s.admins.SetDefault(cacheKey, admin)
		isAdmin = admin
	}
	if !isAdmin.(bool) {
		return
	}
	entry := model.ChatEntry{
		BotID:    s.botID,
		ChatID:   chat.ID,
		Title:    chat.Title,
		Username: chat.Username,
		Type:     chat.Type,
		IsAdmin:  true,
	}
	if err := s.storage.UpsertChat(entry); err != nil {
		logger.Error("chat upsert failed", zap.String("bot", s.botID), zap.Int64("chat", chat.ID), zap.Error(err))
	}
}

func (s *Service) SetStatus(userID int64, status string) {
	if err := s.storage.SetUserStatus(s.botID, userID, status); err != nil {
		logger.Error("status set failed", zap.String("bot", s.botID), zap.Int64("user", userID), zap.Error(err))
	}
}

// GetStatus returns the stored status tag, empty when the user is unknown.
func (s *Service) GetStatus(userID int64) string {
	entry, err := s.storage.GetUser(s.botID, userID)
	if err != nil {
		return ""
	}
	return entry.Status
}

func (s *Service) ListUsers() []model.UserEntry {
	entries, err := s.storage.ListUsers(s.botID)
	if err != nil {
		logger.Error("user list failed", zap.String("bot", s.botID), zap.Error(err))
		return nil
	}
	return entries
}

func (s *Service) ListAdminChats() []model.ChatEntry {
	entries, err := s.storage.ListAdminChats(s.botID)
	if err != nil {
		logger.Error("chat list failed", zap.String("bot", s.botID), zap.Error(err))
		return nil
	}
	return entries
}

// IsSubscribed reports channel membership for subscription gates. Lookup
// failures count as not subscribed. Results are never cached, a user may
// join between two checks.
func (s *Service) IsSubscribed(ctx context.Context, chatID int64, userID int64) bool {
	member, err := s.client.ChatMember(ctx, chatID, userID)
	if err != nil {
		return false
	}
	switch member.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return member.IsMember
	}
	return false
}
