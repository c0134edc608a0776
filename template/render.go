package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

// Context is the single shape the renderer reads. Live events populate
// Message; scheduled and broadcast sends populate Recipient instead. Row
// carries a resolved record-file match and Vars carries plugin outputs.
type Context struct {
	Message   *model.Message
	Recipient *model.UserEntry
	ChatID    int64
	Row       map[string]string
	Vars      map[string]any
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)
var rowRe = regexp.MustCompile(`\{row\[([^\]]+)\]\}`)
var varRe = regexp.MustCompile(`\{var\[([^\]]+)\]\}`)

// Render substitutes placeholders from the context. Unknown placeholders
// resolve to the empty string; rendering never fails.
func Render(text string, ctx Context) string {
	if text == "" {
		return ""
	}
	values := placeholderValues(ctx)

	result := rowRe.ReplaceAllStringFunc(text, func(match string) string {
		key := strings.ToLower(strings.TrimSpace(rowRe.FindStringSubmatch(match)[1]))
		for col, val := range ctx.Row {
			if strings.ToLower(col) == key {
				return val
			}
		}
		return ""
	})
	result = varRe.ReplaceAllStringFunc(result, func(match string) string {
		key := strings.ToLower(strings.TrimSpace(varRe.FindStringSubmatch(match)[1]))
		for name, val := range ctx.Vars {
			if strings.ToLower(name) == key {
				return fmt.Sprintf("%v", val)
			}
		}
		return ""
	})
	return placeholderRe.ReplaceAllStringFunc(result, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		return values[key]
	})
}

func placeholderValues(ctx Context) map[string]string {
	var firstName, lastName, username string
	if ctx.Recipient != nil {
		firstName = ctx.Recipient.FirstName
		lastName = ctx.Recipient.LastName
		username = ctx.Recipient.Username
	} else if ctx.Message != nil && ctx.Message.From != nil {
		firstName = ctx.Message.From.FirstName
		lastName = ctx.Message.From.LastName
		username = ctx.Message.From.Username
	}
	mention := ""
	if username != "" {
		mention = "@" + username
	}
	fullName := strings.TrimSpace(strings.Join([]string{firstName, lastName}, " "))

	chatID := ctx.ChatID
	if chatID == 0 && ctx.Message != nil {
		chatID = ctx.Message.Chat.ID
	}
	chatIDStr := ""
	if chatID != 0 {
		chatIDStr = strconv.FormatInt(chatID, 10)
	}

	m := ctx.Message
	messageID := ""
	if m != nil && m.MessageID != 0 {
		messageID = strconv.Itoa(m.MessageID)
	}
	values := map[string]string{
		"text":          m.TextValue(),
		"name":          firstName,
		"first_name":    firstName,
		"last_name":     lastName,
		"username":      mention,
		"full_name":     fullName,
		"chat_id":       chatIDStr,
		"message_id":    messageID,
		"contact_phone": "",
		"location_lat":  m.LatString(),
		"location_lon":  m.LonString(),
	}
	if m != nil {
		values["photo_id"] = m.PhotoFileID
		values["video_id"] = m.VideoFileID
		values["audio_id"] = m.AudioFileID
		values["voice_id"] = m.VoiceFileID
		values["document_id"] = m.DocumentFileID
		values["sticker_id"] = m.StickerFileID
		values["contact_phone"] = m.ContactPhone
	}
	return values
}
