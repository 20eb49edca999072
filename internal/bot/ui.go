package bot

import (
	"strings"

	"giftbot/internal/mailing"
	"giftbot/internal/texts"
	"giftbot/pkg/tgui"
)

// Callback actions of the mailing flow keyboards.
const (
	actMailButton  = "mail_btn"
	actMailKind    = "mail_kind"
	actMailConfirm = "mail_confirm"
)

// inlineUI renders the mailing flow keyboards with tgui.
type inlineUI struct{}

func (inlineUI) ButtonChoiceMarkup() any {
	return tgui.NewInline().Row(
		tgui.Btn("➕ Да", tgui.Data(actMailButton, "yes")),
		tgui.Btn("Без кнопки", tgui.Data(actMailButton, "no")),
	).Markup()
}

func (inlineUI) ButtonKindMarkup() any {
	return tgui.NewInline().Row(
		tgui.Btn("🔗 Ссылка", tgui.Data(actMailKind, "link")),
		tgui.Btn("🎁 Магазин", tgui.Data(actMailKind, "webapp")),
	).Markup()
}

func (inlineUI) ConfirmMarkup() any {
	return tgui.ConfirmRow(
		tgui.Btn("🚀 Отправить", tgui.Data(actMailConfirm, "send")),
		tgui.Btn("❌ Отменить", tgui.Data(actMailConfirm, "cancel")),
	).Markup()
}

func (inlineUI) PostButtonMarkup(b mailing.Button) any {
	switch b.Kind {
	case mailing.ButtonWebApp:
		return tgui.NewInline().Row(tgui.WebAppBtn(b.Label, b.Target)).Markup()
	default:
		return tgui.NewInline().Row(tgui.URLBtn(b.Label, b.Target)).Markup()
	}
}

// promptsFrom builds the mailing prompts from the text store. Missing
// keys fall back to the mailing package defaults.
func promptsFrom(txt *texts.Store) mailing.Prompts {
	return mailing.Prompts{
		AskContent:      txt.Get("mailing_ask_content"),
		AskButtonChoice: txt.Get("mailing_ask_button_choice"),
		AskButtonKind:   txt.Get("mailing_ask_button_kind"),
		AskButtonLabel:  txt.Get("mailing_ask_button_label"),
		AskButtonTarget: txt.Get("mailing_ask_button_target"),
		BadTarget:       txt.Get("mailing_bad_target"),
		AskConfirm:      txt.Get("mailing_ask_confirm"),
		PreviewFailed:   strings.ReplaceAll(txt.Get("mailing_preview_failed"), "{error}", "%v"),
		Started:         txt.Get("mailing_started"),
		Cancelled:       txt.Get("mailing_cancelled"),
		NothingActive:   txt.Get("mailing_nothing_active"),
		StoreDown:       txt.Get("mailing_store_down"),
	}
}

// UI returns the mailing keyboard renderer used by this router.
func UI() mailing.UI { return inlineUI{} }

// Prompts returns the mailing prompt set sourced from txt.
func Prompts(txt *texts.Store) mailing.Prompts { return promptsFrom(txt) }
