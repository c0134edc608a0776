package model

import "time"

// UserEntry is the per (bot, user) status record. Status is a free-text tag
// the flow author assigns; empty means "no status".
type UserEntry struct {
	BotID       string    `json:"bot_id"`
	UserID      int64     `json:"id"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhotoFileID string    `json:"photo_file_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *UserEntry) FullName() string {
	if e == nil {
		return ""
	}
	switch {
	case e.FirstName != "" && e.LastName != "":
		return e.FirstName + " " + e.LastName
	case e.FirstName != "":
		return e.FirstName
	default:
		return e.LastName
	}
}

func (e *UserEntry) Mention() string {
	if e == nil || e.Username == "" {
		return ""
	}
	return "@" + e.Username
}

// ChatEntry is recorded only for group/supergroup/channel chats where the
// bot is confirmed admin.
type ChatEntry struct {
	BotID     string    `json:"bot_id"`
	ChatID    int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	Username  string    `json:"username,omitempty"`
	Type      string    `json:"type,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	UpdatedAt time.Time `json:"updated_at"`
}
