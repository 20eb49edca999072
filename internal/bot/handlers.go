package bot

import (
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"giftbot/internal/mailing"
	"giftbot/internal/storage"
	"giftbot/internal/transport"
	"giftbot/pkg/logx"
	"giftbot/pkg/tgui"
)

func (r *Router) onStart(c tele.Context) error {
	from := c.Sender()
	if from == nil {
		return nil
	}
	ctx, cancel := r.updateCtx()
	defer cancel()

	u := storage.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		JoinedAt:  time.Now(),
	}
	if err := r.store.Upsert(ctx, u); err != nil {
		// The welcome still goes out; the user retries /start later anyway.
		r.log.Warn("user upsert failed", logx.Int64("user_id", from.ID), logx.Err(err))
	}

	body := r.texts.Render("welcome", map[string]string{"first_name": from.FirstName})
	mk := tgui.NewInline().Row(tgui.WebAppBtn(r.texts.Get("welcome_button"), r.cfg.AppURL)).Markup()
	return c.Send(body, mk)
}

func (r *Router) onStats(c tele.Context) error {
	ctx, cancel := r.updateCtx()
	defer cancel()

	st, err := r.store.Statistics(ctx)
	if err != nil {
		r.log.Error("statistics query failed", logx.Err(err))
		return c.Send(r.texts.Get("mailing_store_down"))
	}
	return c.Send(r.statsCard(st))
}

func (r *Router) statsCard(st storage.Stats) string {
	return r.texts.Render("stats", map[string]string{
		"total":      strconv.Itoa(st.TotalUsers),
		"new_today":  strconv.Itoa(st.NewToday),
		"new_7d":     strconv.Itoa(st.NewLast7d),
		"new_30d":    strconv.Itoa(st.NewLast30d),
		"balance":    formatMoney(st.TotalBalance),
		"spent":      formatMoney(st.TotalSpent),
		"first_join": formatDay(st.FirstJoin),
		"last_join":  formatDay(st.LastJoin),
	})
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}

func (r *Router) onMailing(c tele.Context) error {
	ctx, cancel := r.updateCtx()
	defer cancel()
	r.mail.Begin(ctx, c.Sender().ID)
	return nil
}

func (r *Router) onCancel(c tele.Context) error {
	ctx, cancel := r.updateCtx()
	defer cancel()
	r.mail.Cancel(ctx, c.Sender().ID)
	return nil
}

func (r *Router) onText(c tele.Context) error {
	from := c.Sender()
	if from == nil || !r.isAdmin(from.ID) {
		return nil
	}
	ctx, cancel := r.updateCtx()
	defer cancel()
	r.mail.HandleText(ctx, from.ID, c.Text())
	return nil
}

func (r *Router) onMedia(c tele.Context) error {
	from := c.Sender()
	if from == nil || !r.isAdmin(from.ID) {
		return nil
	}
	item, ok := mediaItem(c.Message())
	if !ok {
		return nil
	}
	ctx, cancel := r.updateCtx()
	defer cancel()
	r.mail.HandleMedia(ctx, from.ID, c.Message().AlbumID, item)
	return nil
}

// mediaItem maps an incoming message to the gateway's media shape.
func mediaItem(m *tele.Message) (transport.MediaItem, bool) {
	if m == nil {
		return transport.MediaItem{}, false
	}
	switch {
	case m.Photo != nil:
		return transport.MediaItem{Kind: transport.MediaPhoto, AssetRef: m.Photo.FileID, Caption: m.Caption}, true
	case m.Video != nil:
		return transport.MediaItem{Kind: transport.MediaVideo, AssetRef: m.Video.FileID, Caption: m.Caption}, true
	case m.Document != nil:
		return transport.MediaItem{Kind: transport.MediaDocument, AssetRef: m.Document.FileID, Caption: m.Caption}, true
	}
	return transport.MediaItem{}, false
}

func (r *Router) onCallback(c tele.Context) error {
	cb := c.Callback()
	from := c.Sender()
	if cb == nil || from == nil {
		return nil
	}
	// Ack first so the button stops spinning even for ignored presses.
	defer func() { _ = c.Respond(&tele.CallbackResponse{}) }()

	if !r.isAdmin(from.ID) {
		return nil
	}

	action, payload := tgui.Split(cb.Data)
	ctx, cancel := r.updateCtx()
	defer cancel()

	switch action {
	case actMailButton:
		r.mail.ChooseAddButton(ctx, from.ID, payload == "yes")
	case actMailKind:
		kind := mailing.ButtonLink
		if payload == "webapp" {
			kind = mailing.ButtonWebApp
		}
		r.mail.ChooseKind(ctx, from.ID, kind)
	case actMailConfirm:
		if payload == "send" {
			r.mail.Confirm(ctx, from.ID)
		} else {
			r.mail.Cancel(ctx, from.ID)
		}
	default:
		r.log.Debug("unknown callback", logx.String("data", cb.Data), logx.Int64("from_id", from.ID))
	}
	return nil
}
