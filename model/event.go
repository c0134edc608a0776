package model

import (
	"strconv"
	"strings"
)

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Message is the platform-neutral inbound event the engine evaluates.
type Message struct {
	MessageID      int
	Chat           Chat
	From           *User
	Text           string
	Caption        string
	PhotoFileID    string
	VideoFileID    string
	AudioFileID    string
	VoiceFileID    string
	DocumentFileID string
	StickerFileID  string
	HasContact     bool
	ContactPhone   string
	HasLocation    bool
	LocationLat    float64
	LocationLon    float64
}

// TextValue is the trimmed text or caption, whichever carries the content.
func (m *Message) TextValue() string {
	if m == nil {
		return ""
	}
	if strings.TrimSpace(m.Text) != "" {
		return strings.TrimSpace(m.Text)
	}
	return strings.TrimSpace(m.Caption)
}

func (m *Message) LatString() string {
	if m == nil || !m.HasLocation {
		return ""
	}
	return strconv.FormatFloat(m.LocationLat, 'f', -1, 64)
}

func (m *Message) LonString() string {
	if m == nil || !m.HasLocation {
		return ""
	}
	return strconv.FormatFloat(m.LocationLon, 'f', -1, 64)
}

type CallbackQuery struct {
	ID      string
	From    *User
	Message *Message
	Data    string
}

// Update is one inbound event from the messaging platform poll.
type Update struct {
	Message     *Message
	ChannelPost *Message
	Callback    *CallbackQuery
}
