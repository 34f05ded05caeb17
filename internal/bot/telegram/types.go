package telegram

// Update is one incoming event from the Bot API.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an incoming or referenced chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

// User identifies the acting party.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Chat is the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is an inline-button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Button is one inline keyboard button carrying a callback action.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// ReplyMarkup is the inline keyboard attached to an outbound message.
type ReplyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// Btn builds one button.
func Btn(text, data string) Button {
	return Button{Text: text, CallbackData: data}
}

// Keyboard builds a reply markup from button rows.
func Keyboard(rows ...[]Button) *ReplyMarkup {
	return &ReplyMarkup{InlineKeyboard: rows}
}
