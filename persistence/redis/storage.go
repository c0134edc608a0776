package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/util"
	"go.uber.org/zap"
)

const BOT_RECORD string = "BOT"
const USER_ENTRY string = "USER"
const CHAT_ENTRY string = "CHAT"

var _ persistence.Storage = new(redisStorage)

// redisStorage keeps bots in one namespaced hash and user/chat entries in
// per-bot hashes, every value JSON encoded.
type redisStorage struct {
	*baseDao
	botEncoderDecoder  util.EncoderDecoder[model.Bot]
	userEncoderDecoder util.EncoderDecoder[model.UserEntry]
	chatEncoderDecoder util.EncoderDecoder[model.ChatEntry]
}

func NewRedisStorage(conf Config) *redisStorage {
	return &redisStorage{
		baseDao:            newBaseDao(conf),
		botEncoderDecoder:  util.NewJsonEncoderDecoder[model.Bot](),
		userEncoderDecoder: util.NewJsonEncoderDecoder[model.UserEntry](),
		chatEncoderDecoder: util.NewJsonEncoderDecoder[model.ChatEntry](),
	}
}

func (rs *redisStorage) SaveBot(bot model.Bot) error {
	key := rs.baseDao.getNamespaceKey(BOT_RECORD)
	ctx := context.Background()
	data, err := rs.botEncoderDecoder.Encode(bot)
	if err != nil {
		return err
	}
	if err := rs.redisClient.HSet(ctx, key, []string{bot.ID, string(data)}).Err(); err != nil {
		logger.Error("error in saving bot", zap.String("bot", bot.ID), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) GetBot(id string) (*model.Bot, error) {
	key := rs.baseDao.getNamespaceKey(BOT_RECORD)
	ctx := context.Background()
	botStr, err := rs.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, persistence.NotFoundError{Kind: "bot", Key: id}
		}
		logger.Error("error in getting bot", zap.String("bot", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rs.botEncoderDecoder.Decode([]byte(botStr))
}

func (rs *redisStorage) ListBots() ([]model.Bot, error) {
	key := rs.baseDao.getNamespaceKey(BOT_RECORD)
	ctx := context.Background()
	values, err := rs.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing bots", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.Bot, 0, len(values))
	for _, raw := range values {
		bot, err := rs.botEncoderDecoder.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, *bot)
	}
	return out, nil
}

func (rs *redisStorage) DeleteBot(id string) error {
	ctx := context.Background()
	removed, err := rs.redisClient.HDel(ctx, rs.baseDao.getNamespaceKey(BOT_RECORD), id).Result()
	if err != nil {
		logger.Error("error in deleting bot", zap.String("bot", id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if removed == 0 {
		return persistence.NotFoundError{Kind: "bot", Key: id}
	}
	rs.redisClient.Del(ctx, rs.baseDao.getNamespaceKey(USER_ENTRY, id))
	rs.redisClient.Del(ctx, rs.baseDao.getNamespaceKey(CHAT_ENTRY, id))
	return nil
}

func (rs *redisStorage) SaveFlow(botID string, flow json.RawMessage) error {
	bot, err := rs.GetBot(botID)
	if err != nil {
		return err
	}
	bot.Flow = flow
	return rs.SaveBot(*bot)
}

func (rs *redisStorage) UpsertUser(entry model.UserEntry) error {
	key := rs.baseDao.getNamespaceKey(USER_ENTRY, entry.BotID)
	ctx := context.Background()
	entry.UpdatedAt = time.Now()
	data, err := rs.userEncoderDecoder.Encode(entry)
	if err != nil {
		return err
	}
	field := strconv.FormatInt(entry.UserID, 10)
	if err := rs.redisClient.HSet(ctx, key, []string{field, string(data)}).Err(); err != nil {
		logger.Error("error in saving user entry", zap.String("bot", entry.BotID), zap.Int64("user", entry.UserID), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) GetUser(botID string, userID int64) (*model.UserEntry, error) {
	key := rs.baseDao.getNamespaceKey(USER_ENTRY, botID)
	ctx := context.Background()
	entryStr, err := rs.redisClient.HGet(ctx, key, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, persistence.NotFoundError{Kind: "user", Key: strconv.FormatInt(userID, 10)}
		}
		logger.Error("error in getting user entry", zap.String("bot", botID), zap.Int64("user", userID), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rs.userEncoderDecoder.Decode([]byte(entryStr))
}

func (rs *redisStorage) ListUsers(botID string) ([]model.UserEntry, error) {
	key := rs.baseDao.getNamespaceKey(USER_ENTRY, botID)
	ctx := context.Background()
	values, err := rs.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing user entries", zap.String("bot", botID), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.UserEntry, 0, len(values))
	for _, raw := range values {
		entry, err := rs.userEncoderDecoder.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (rs *redisStorage) SetUserStatus(botID string, userID int64, status string) error {
	entry, err := rs.GetUser(botID, userID)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}
		entry = &model.UserEntry{BotID: botID, UserID: userID}
	}
	entry.Status = strings.TrimSpace(status)
	return rs.UpsertUser(*entry)
}

func (rs *redisStorage) UpsertChat(entry model.ChatEntry) error {
	key := rs.baseDao.getNamespaceKey(CHAT_ENTRY, entry.BotID)
	ctx := context.Background()
	entry.UpdatedAt = time.Now()
	data, err := rs.chatEncoderDecoder.Encode(entry)
	if err != nil {
		return err
	}
	field := strconv.FormatInt(entry.ChatID, 10)
	if err := rs.redisClient.HSet(ctx, key, []string{field, string(data)}).Err(); err != nil {
		logger.Error("error in saving chat entry", zap.String("bot", entry.BotID), zap.Int64("chat", entry.ChatID), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) ListAdminChats(botID string) ([]model.ChatEntry, error) {
	key := rs.baseDao.getNamespaceKey(CHAT_ENTRY, botID)
	ctx := context.Background()
	values, err := rs.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing chat entries", zap.String("bot", botID), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var out []model.ChatEntry
	for _, raw := range values {
		entry, err := rs.chatEncoderDecoder.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		if entry.IsAdmin {
			out = append(out, *entry)
		}
	}
	return out, nil
}
