// Package tgui provides small Telegram UI helpers: an inline keyboard
// builder and callback data encoding shared by the bot handlers.
package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Inline is a small builder for inline keyboards (ReplyMarkup).
// Rows are stored as tele.Row and applied via ReplyMarkup.Inline().
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends a new row of buttons to the keyboard.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Markup returns the underlying reply markup.
func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// Btn creates a callback button with raw callback_data.
// Use Data to build "action:payload" strings safely.
func Btn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

// URLBtn creates a URL button.
func URLBtn(text, url string) tele.Btn {
	return tele.Btn{Text: text, URL: url}
}

// WebAppBtn creates a button that opens a Telegram web app.
func WebAppBtn(text, url string) tele.Btn {
	return tele.Btn{Text: text, WebApp: &tele.WebApp{URL: url}}
}

// ConfirmRow builds a 2-button yes/no keyboard.
func ConfirmRow(yes, no tele.Btn) *Inline {
	return NewInline().Row(yes, no)
}
