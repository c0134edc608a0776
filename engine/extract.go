package engine

import (
	"strconv"
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// recordValueFromMessage pulls the field a record node captures out of the
// live trigger message.
func recordValueFromMessage(msg *model.Message, field string) string {
	if msg == nil {
		return ""
	}
	var from model.User
	if msg.From != nil {
		from = *msg.From
	}
	switch strings.TrimSpace(field) {
	case "text":
		return msg.TextValue()
	case "message_id":
		return strconv.Itoa(msg.MessageID)
	case "name", "first_name":
		return from.FirstName
	case "last_name":
		return from.LastName
	case "username":
		if from.Username == "" {
			return ""
		}
		return "@" + from.Username
	case "full_name":
		return strings.TrimSpace(strings.Join([]string{from.FirstName, from.LastName}, " "))
	case "chat_id":
		return strconv.FormatInt(msg.Chat.ID, 10)
	case "contact_phone":
		return msg.ContactPhone
	case "location_lat":
		return msg.LatString()
	case "location_lon":
		return msg.LonString()
	case "photo_id":
		return msg.PhotoFileID
	case "video_id":
		return msg.VideoFileID
	case "audio_id":
		return msg.AudioFileID
	case "voice_id":
		return msg.VoiceFileID
	case "document_id":
		return msg.DocumentFileID
	case "sticker_id":
		return msg.StickerFileID
	}
	return ""
}

// recordValueFromEntry is the scheduled-variant counterpart working off a
// stored recipient. Message-bound fields have no value there.
func recordValueFromEntry(entry *model.UserEntry, field string) string {
	if entry == nil {
		return ""
	}
	switch strings.TrimSpace(field) {
	case "name", "first_name":
		return entry.FirstName
	case "last_name":
		return entry.LastName
	case "username":
		return entry.Mention()
	case "full_name":
		return entry.FullName()
	case "chat_id":
		return strconv.FormatInt(entry.UserID, 10)
	}
	return ""
}
