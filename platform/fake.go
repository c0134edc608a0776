package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
)

var _ Client = new(Fake)

// SentCall records one outbound operation performed on a Fake client.
type SentCall struct {
	Op        string
	ChatID    int64
	MessageID int
	Kind      string
	Text      string
	URLs      []string
	Markup    model.Markup
}

// Fake is an in-memory Client for tests. Every send is recorded in order
// and updates are pushed through the Events channel.
type Fake struct {
	mu      sync.Mutex
	calls   []SentCall
	nextID  int
	Events  chan model.Update
	User    model.User
	Members map[int64]ChatMemberInfo
	Photos  map[int64]string
	SendErr error
}

func NewFake() *Fake {
	return &Fake{
		Events:  make(chan model.Update, 16),
		User:    model.User{ID: 1, Username: "fake_bot"},
		Members: make(map[int64]ChatMemberInfo),
		Photos:  make(map[int64]string),
	}
}

func (f *Fake) record(call SentCall) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	call.MessageID = f.nextID
	f.calls = append(f.calls, call)
	return f.nextID
}

// Calls returns a copy of everything sent so far.
func (f *Fake) Calls() []SentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Me(ctx context.Context) (model.User, error) {
	return f.User, nil
}

func (f *Fake) SendText(ctx context.Context, chatID int64, text string, markup model.Markup) (int, error) {
	if f.SendErr != nil {
		return 0, f.SendErr
	}
	return f.record(SentCall{Op: "text", ChatID: chatID, Text: text, Markup: markup}), nil
}

func (f *Fake) SendMedia(ctx context.Context, chatID int64, kind string, urls []string, caption string, markup model.Markup) (int, error) {
	if f.SendErr != nil {
		return 0, f.SendErr
	}
	return f.record(SentCall{Op: "media", ChatID: chatID, Kind: kind, URLs: urls, Text: caption, Markup: markup}), nil
}

func (f *Fake) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	f.record(SentCall{Op: "edit_text", ChatID: chatID, Text: text})
	return nil
}

func (f *Fake) EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error {
	f.record(SentCall{Op: "edit_caption", ChatID: chatID, Text: caption})
	return nil
}

func (f *Fake) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	f.record(SentCall{Op: "delete", ChatID: chatID})
	return nil
}

func (f *Fake) AnswerCallback(ctx context.Context, callbackID string) error {
	return nil
}

func (f *Fake) ChatMember(ctx context.Context, chatID int64, userID int64) (ChatMemberInfo, error) {
	info, ok := f.Members[chatID]
	if !ok {
		return ChatMemberInfo{}, fmt.Errorf("chat %d unknown", chatID)
	}
	return info, nil
}

func (f *Fake) ProfilePhotoID(ctx context.Context, userID int64) (string, error) {
	return f.Photos[userID], nil
}

func (f *Fake) Updates(ctx context.Context) <-chan model.Update {
	out := make(chan model.Update)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-f.Events:
				if !ok {
					return
				}
				select {
				case out <- upd:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (f *Fake) Close() {}
