package inmem

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
)

var _ persistence.Storage = new(Storage)

// Storage keeps everything in process memory. Used for tests and for
// --storage-impl=memory single-node runs.
type Storage struct {
	mu    sync.RWMutex
	bots  map[string]model.Bot
	users map[string]map[int64]model.UserEntry
	chats map[string]map[int64]model.ChatEntry
}

func NewStorage() *Storage {
	return &Storage{
		bots:  make(map[string]model.Bot),
		users: make(map[string]map[int64]model.UserEntry),
		chats: make(map[string]map[int64]model.ChatEntry),
	}
}

func (s *Storage) SaveBot(bot model.Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[bot.ID] = bot
	return nil
}

func (s *Storage) GetBot(id string) (*model.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bot, ok := s.bots[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "bot", Key: id}
	}
	return &bot, nil
}

func (s *Storage) ListBots() ([]model.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Bot, 0, len(s.bots))
	for _, b := range s.bots {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].ID, out[j].ID) < 0 })
	return out, nil
}

func (s *Storage) DeleteBot(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bots[id]; !ok {
		return persistence.NotFoundError{Kind: "bot", Key: id}
	}
	delete(s.bots, id)
	delete(s.users, id)
	delete(s.chats, id)
	return nil
}

func (s *Storage) SaveFlow(botID string, flow json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bot, ok := s.bots[botID]
	if !ok {
		return persistence.NotFoundError{Kind: "bot", Key: botID}
	}
	bot.Flow = flow
	s.bots[botID] = bot
	return nil
}

func (s *Storage) UpsertUser(entry model.UserEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.users[entry.BotID]
	if !ok {
		byID = make(map[int64]model.UserEntry)
		s.users[entry.BotID] = byID
	}
	entry.UpdatedAt = time.Now()
	byID[entry.UserID] = entry
	return nil
}

func (s *Storage) GetUser(botID string, userID int64) (*model.UserEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.users[botID][userID]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "user", Key: botID}
	}
	return &entry, nil
}

func (s *Storage) ListUsers(botID string) ([]model.UserEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserEntry, 0, len(s.users[botID]))
	for _, e := range s.users[botID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Storage) SetUserStatus(botID string, userID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.users[botID]
	if !ok {
		byID = make(map[int64]model.UserEntry)
		s.users[botID] = byID
	}
	entry, ok := byID[userID]
	if !ok {
		entry = model.UserEntry{BotID: botID, UserID: userID}
	}
	entry.Status = strings.TrimSpace(status)
	entry.UpdatedAt = time.Now()
	byID[userID] = entry
	return nil
}

func (s *Storage) UpsertChat(entry model.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.chats[entry.BotID]
	if !ok {
		byID = make(map[int64]model.ChatEntry)
		s.chats[entry.BotID] = byID
	}
	entry.UpdatedAt = time.Now()
	byID[entry.ChatID] = entry
	return nil
}

func (s *Storage) ListAdminChats(botID string) ([]model.ChatEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ChatEntry
	for _, e := range s.chats[botID] {
		if e.IsAdmin {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}
