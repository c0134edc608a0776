package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/platform"
	"go.uber.org/zap"
)

var _ platform.Client = new(Client)

// Client is the telegram implementation of platform.Client built on the
// Bot API long-polling transport.
type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

func NewClient(token string, pollTimeout int) (platform.Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Client{api: api, pollTimeout: pollTimeout}, nil
}

func (c *Client) Me(ctx context.Context) (model.User, error) {
	self := c.api.Self
	return model.User{
		ID:        self.ID,
		Username:  self.UserName,
		FirstName: self.FirstName,
		LastName:  self.LastName,
	}, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, markup model.Markup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if rm := replyMarkup(markup); rm != nil {
		msg.ReplyMarkup = rm
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) SendMedia(ctx context.Context, chatID int64, kind string, urls []string, caption string, markup model.Markup) (int, error) {
	if len(urls) == 0 {
		return 0, fmt.Errorf("no media urls for chat %d", chatID)
	}
	if len(urls) == 1 {
		return c.sendSingle(chatID, kind, urls[0], caption, markup)
	}
	return c.sendGroup(chatID, kind, urls, caption)
}

func (c *Client) sendSingle(chatID int64, kind string, url string, caption string, markup model.Markup) (int, error) {
	var chattable tgbotapi.Chattable
	rm := replyMarkup(markup)
	switch kind {
	case model.KIND_IMAGE:
		msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
		msg.Caption = caption
		if rm != nil {
			msg.ReplyMarkup = rm
		}
		chattable = msg
	case model.KIND_VIDEO:
		msg := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(url))
		msg.Caption = caption
		if rm != nil {
			msg.ReplyMarkup = rm
		}
		chattable = msg
	case model.KIND_AUDIO:
		msg := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(url))
		msg.Caption = caption
		if rm != nil {
			msg.ReplyMarkup = rm
		}
		chattable = msg
	case model.KIND_DOCUMENT:
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(url))
		msg.Caption = caption
		if rm != nil {
			msg.ReplyMarkup = rm
		}
		chattable = msg
	default:
		return 0, fmt.Errorf("unsupported media kind %s", kind)
	}
	sent, err := c.api.Send(chattable)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// sendGroup sends an album. The caption rides on the first item, that is
// where telegram displays it. Albums cannot carry keyboards.
func (c *Client) sendGroup(chatID int64, kind string, urls []string, caption string) (int, error) {
	media := make([]interface{}, 0, len(urls))
	for i, url := range urls {
		itemCaption := ""
		if i == 0 {
			itemCaption = caption
		}
		switch kind {
		case model.KIND_IMAGE:
			item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(url))
			item.Caption = itemCaption
			media = append(media, item)
		case model.KIND_VIDEO:
			item := tgbotapi.NewInputMediaVideo(tgbotapi.FileURL(url))
			item.Caption = itemCaption
			media = append(media, item)
		case model.KIND_AUDIO:
			item := tgbotapi.NewInputMediaAudio(tgbotapi.FileURL(url))
			item.Caption = itemCaption
			media = append(media, item)
		case model.KIND_DOCUMENT:
			item := tgbotapi.NewInputMediaDocument(tgbotapi.FileURL(url))
			item.Caption = itemCaption
			media = append(media, item)
		default:
			return 0, fmt.Errorf("unsupported media kind %s", kind)
		}
	}
	sent, err := c.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	if err != nil {
		return 0, err
	}
	if len(sent) == 0 {
		return 0, nil
	}
	return sent[0].MessageID, nil
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (c *Client) EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error {
	edit := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	_, err := c.api.Send(edit)
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func (c *Client) ChatMember(ctx context.Context, chatID int64, userID int64) (platform.ChatMemberInfo, error) {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return platform.ChatMemberInfo{}, err
	}
	return platform.ChatMemberInfo{Status: member.Status, IsMember: member.IsMember}, nil
}

func (c *Client) ProfilePhotoID(ctx context.Context, userID int64) (string, error) {
	photos, err := c.api.GetUserProfilePhotos(tgbotapi.NewUserProfilePhotos(userID))
	if err != nil {
		return "", err
	}
	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", nil
	}
	sizes := photos.Photos[0]
	return sizes[len(sizes)-1].FileID, nil
}

func (c *Client) Updates(ctx context.Context) <-chan model.Update {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = c.pollTimeout
	raw := c.api.GetUpdatesChan(cfg)
	out := make(chan model.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.api.StopReceivingUpdates()
				return
			case upd, ok := <-raw:
				if !ok {
					return
				}
				converted := convertUpdate(upd)
				if converted == nil {
					continue
				}
				select {
				case out <- *converted:
				case <-ctx.Done():
					c.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

func (c *Client) Close() {
	c.api.StopReceivingUpdates()
}

func convertUpdate(upd tgbotapi.Update) *model.Update {
	switch {
	case upd.Message != nil:
		return &model.Update{Message: convertMessage(upd.Message)}
	case upd.ChannelPost != nil:
		return &model.Update{ChannelPost: convertMessage(upd.ChannelPost)}
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		converted := &model.CallbackQuery{
			ID:   cb.ID,
			From: convertUser(cb.From),
			Data: cb.Data,
		}
		if cb.Message != nil {
			converted.Message = convertMessage(cb.Message)
		}
		return &model.Update{Callback: converted}
	}
	return nil
}

func convertMessage(msg *tgbotapi.Message) *model.Message {
	out := &model.Message{
		MessageID: msg.MessageID,
		Chat: model.Chat{
			ID:       msg.Chat.ID,
			Type:     msg.Chat.Type,
			Title:    msg.Chat.Title,
			Username: msg.Chat.UserName,
		},
		Text:    msg.Text,
		Caption: msg.Caption,
	}
	if msg.From != nil {
		out.From = convertUser(msg.From)
	}
	if len(msg.Photo) > 0 {
		out.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Video != nil {
		out.VideoFileID = msg.Video.FileID
	}
	if msg.Audio != nil {
		out.AudioFileID = msg.Audio.FileID
	}
	if msg.Voice != nil {
		out.VoiceFileID = msg.Voice.FileID
	}
	if msg.Document != nil {
		out.DocumentFileID = msg.Document.FileID
	}
	if msg.Sticker != nil {
		out.StickerFileID = msg.Sticker.FileID
	}
	if msg.Contact != nil {
		out.HasContact = true
		out.ContactPhone = msg.Contact.PhoneNumber
	}
	if msg.Location != nil {
		out.HasLocation = true
		out.LocationLat = msg.Location.Latitude
		out.LocationLon = msg.Location.Longitude
	}
	return out
}

func convertUser(u *tgbotapi.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func replyMarkup(markup model.Markup) interface{} {
	if markup.IsZero() {
		return nil
	}
	if len(markup.Inline) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(markup.Inline))
		for _, row := range markup.Inline {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, inlineButton(btn))
			}
			if len(buttons) > 0 {
				rows = append(rows, buttons)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if markup.Clear {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	if len(markup.Reply) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(markup.Reply))
		for _, row := range markup.Reply {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, btn := range row {
				if btn.WebAppURL != "" {
					// No web_app support in this wrapper release, the
					// button degrades to its plain label.
					logger.Debug("web_app reply button downgraded to text", zap.String("text", btn.Text))
				}
				buttons = append(buttons, tgbotapi.KeyboardButton{Text: btn.Text})
			}
			if len(buttons) > 0 {
				rows = append(rows, buttons)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.ResizeKeyboard = true
		return keyboard
	}
	return nil
}

func inlineButton(btn model.InlineButton) tgbotapi.InlineKeyboardButton {
	switch btn.Action {
	case model.BUTTON_ACTION_URL:
		return tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL)
	case model.BUTTON_ACTION_WEB_APP:
		// The bot api wrapper release predates web_app buttons, fall back
		// to a url button opening the app address.
		logger.Debug("web_app button downgraded to url", zap.String("text", btn.Text))
		return tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.WebAppURL)
	case model.BUTTON_ACTION_COPY:
		// The bot api wrapper has no copy_text button, fall back to a
		// callback button carrying the same payload.
		logger.Debug("copy button downgraded to callback", zap.String("text", btn.Text))
		return tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData)
	default:
		return tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData)
	}
}
