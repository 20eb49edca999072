// Package bot wires Telegram updates to the application: public
// commands, the admin mailing flow, and inline button callbacks.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"giftbot/internal/mailing"
	"giftbot/internal/storage"
	"giftbot/internal/texts"
	"giftbot/pkg/logx"
)

// Config tunes the router.
type Config struct {
	// AdminIDs lists the Telegram user ids allowed to run admin commands.
	AdminIDs []int64
	// AppURL is the shop web app opened by the /start button.
	AppURL string
	// RequestTimeout bounds storage work per update; 0 means 5s.
	RequestTimeout time.Duration
}

// Router registers telebot handlers and routes updates between the
// public surface and the mailing core.
type Router struct {
	bot   *tele.Bot
	mail  *mailing.Manager
	store storage.RecipientStore
	texts *texts.Store
	cfg   Config
	log   logx.Logger

	runCtx context.Context
}

func New(b *tele.Bot, mail *mailing.Manager, store storage.RecipientStore, txt *texts.Store, cfg Config, log logx.Logger) *Router {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &Router{
		bot:    b,
		mail:   mail,
		store:  store,
		texts:  txt,
		cfg:    cfg,
		log:    log,
		runCtx: context.Background(),
	}
}

// Start installs the lifecycle context used for per-update deadlines.
func (r *Router) Start(ctx context.Context) { r.runCtx = ctx }

// Register binds all handlers on the bot. Call once before polling.
func (r *Router) Register() {
	r.bot.Use(r.recoverMW, r.logMW)

	r.bot.Handle("/start", r.onStart)
	r.bot.Handle("/stats", r.adminOnly(r.onStats))
	r.bot.Handle("/mailing", r.adminOnly(r.onMailing))
	r.bot.Handle("/cancel", r.adminOnly(r.onCancel))

	r.bot.Handle(tele.OnText, r.onText)
	r.bot.Handle(tele.OnPhoto, r.onMedia)
	r.bot.Handle(tele.OnVideo, r.onMedia)
	r.bot.Handle(tele.OnDocument, r.onMedia)
	r.bot.Handle(tele.OnCallback, r.onCallback)
}

func (r *Router) isAdmin(id int64) bool {
	for _, a := range r.cfg.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func (r *Router) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || !r.isAdmin(c.Sender().ID) {
			return nil
		}
		return next(c)
	}
}

// updateCtx bounds one update's storage and send work.
func (r *Router) updateCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.runCtx, r.cfg.RequestTimeout)
}

func (r *Router) recoverMW(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("panic recovered",
					logx.Any("panic", p),
					logx.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return next(c)
	}
}

func (r *Router) logMW(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		err := next(c)
		d := time.Since(start)

		var fromID, chatID int64
		if c.Sender() != nil {
			fromID = c.Sender().ID
		}
		if c.Chat() != nil {
			chatID = c.Chat().ID
		}
		fields := []logx.Field{
			logx.Int64("chat_id", chatID),
			logx.Int64("from_id", fromID),
			logx.String("text", c.Text()),
			logx.Duration("dur", d),
		}
		if err != nil {
			r.log.Warn("update failed", append(fields, logx.Err(err))...)
		} else if d >= 750*time.Millisecond {
			r.log.Info("update ok", fields...)
		} else {
			r.log.Debug("update ok", fields...)
		}
		return err
	}
}
