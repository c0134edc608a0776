package model

type InlineButtonAction string

const BUTTON_ACTION_CALLBACK InlineButtonAction = "callback"
const BUTTON_ACTION_URL InlineButtonAction = "url"
const BUTTON_ACTION_WEB_APP InlineButtonAction = "web_app"
const BUTTON_ACTION_COPY InlineButtonAction = "copy"

type InlineButton struct {
	Text         string
	Action       InlineButtonAction
	URL          string
	WebAppURL    string
	CopyText     string
	CallbackData string
}

type ReplyButton struct {
	Text      string
	WebAppURL string
}

// Markup is the platform-neutral keyboard attached to a send. Exactly one of
// Inline, Clear or Reply is meaningful; the builder enforces the priority.
type Markup struct {
	Inline [][]InlineButton
	Reply  [][]ReplyButton
	Clear  bool
}

func (m *Markup) IsZero() bool {
	return m == nil || (len(m.Inline) == 0 && len(m.Reply) == 0 && !m.Clear)
}
