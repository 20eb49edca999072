package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter implements transport.Gateway on top of telebot long polling.
type Adapter struct {
	cfg Config
	log logx.Logger

	bot *tele.Bot

	runMu     sync.Mutex
	runCancel context.CancelFunc
	runWG     sync.WaitGroup
	running   bool
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// Bot exposes the underlying telebot instance so the command router can
// register handlers. Handlers must be registered before Start.
func (a *Adapter) Bot() *tele.Bot { return a.bot }

func (a *Adapter) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.running {
		return nil
	}
	a.running = true
	rctx, cancel := context.WithCancel(ctx)
	a.runCancel = cancel

	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		go func() {
			<-rctx.Done()
			a.bot.Stop()
		}()
		a.log.Info("polling started")
		a.bot.Start() // blocks until Stop() called
	}()
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	cancel := a.runCancel
	a.runCancel = nil
	wasRunning := a.running
	a.running = false
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()

	// Grace window: keep shutdown snappy even if getUpdates long-poll is
	// still waiting.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()

	select {
	case <-done:
		a.log.Info("polling stopped")
		return nil
	case <-ctx.Done():
		a.log.Warn("telegram stop cancelled", logx.Err(ctx.Err()))
		return ctx.Err()
	case <-t.C:
		a.log.Warn("telegram stop grace elapsed; continuing shutdown")
		return nil
	}
}

func (a *Adapter) SendText(ctx context.Context, chatID int64, text string, opt *transport.Options) (transport.MessageRef, error) {
	msg, err := a.bot.Send(tele.ChatID(chatID), text, sendOptions(opt))
	if err != nil {
		return transport.MessageRef{}, classify(err)
	}
	return transport.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

func (a *Adapter) SendMedia(ctx context.Context, chatID int64, item transport.MediaItem, opt *transport.Options) (transport.MessageRef, error) {
	msg, err := a.bot.Send(tele.ChatID(chatID), inputtable(item), sendOptions(opt))
	if err != nil {
		return transport.MessageRef{}, classify(err)
	}
	return transport.MessageRef{ChatID: chatID, MessageID: msg.ID}, nil
}

func (a *Adapter) SendMediaGroup(ctx context.Context, chatID int64, items []transport.MediaItem) ([]transport.MessageRef, error) {
	album := make(tele.Album, 0, len(items))
	for _, it := range items {
		album = append(album, inputtable(it))
	}
	msgs, err := a.bot.SendAlbum(tele.ChatID(chatID), album)
	if err != nil {
		return nil, classify(err)
	}
	refs := make([]transport.MessageRef, 0, len(msgs))
	for _, m := range msgs {
		refs = append(refs, transport.MessageRef{ChatID: chatID, MessageID: m.ID})
	}
	return refs, nil
}

func (a *Adapter) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.Options) error {
	_, err := a.bot.Edit(storedMessage(ref), text, sendOptions(opt))
	if err != nil {
		return classify(err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, ref transport.MessageRef) error {
	if err := a.bot.Delete(storedMessage(ref)); err != nil {
		return classify(err)
	}
	return nil
}

func storedMessage(ref transport.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
}

func inputtable(item transport.MediaItem) tele.Inputtable {
	file := tele.File{FileID: item.AssetRef}
	switch item.Kind {
	case transport.MediaVideo:
		return &tele.Video{File: file, Caption: item.Caption}
	case transport.MediaDocument:
		return &tele.Document{File: file, Caption: item.Caption}
	default:
		return &tele.Photo{File: file, Caption: item.Caption}
	}
}

func sendOptions(opt *transport.Options) *tele.SendOptions {
	if opt == nil {
		opt = &transport.Options{}
	}
	out := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
	}
	if rm, ok := opt.ReplyMarkup.(*tele.ReplyMarkup); ok {
		out.ReplyMarkup = rm
	}
	return out
}

// classify wraps every telebot failure into transport.SendError so the
// broadcast core can rely on a structured unreachable flag instead of
// matching error strings.
func classify(err error) error {
	if err == nil {
		return nil
	}
	return &transport.SendError{Unreachable: unreachable(err), Err: err}
}

func unreachable(err error) bool {
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrChatNotFound),
		errors.Is(err, tele.ErrNotStartedByUser):
		return true
	}
	// Telegram reports all "cannot ever deliver to this peer" conditions
	// as 403 Forbidden.
	var te *tele.Error
	if errors.As(err, &te) && te.Code == 403 {
		return true
	}
	return false
}
