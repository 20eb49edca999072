// Package app assembles the bot from its parts and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"giftbot/internal/bot"
	"giftbot/internal/config"
	"giftbot/internal/mailing"
	"giftbot/internal/storage"
	"giftbot/internal/texts"
	"giftbot/internal/transport/telegram"
	"giftbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger

	store   storage.RecipientStore
	adapter *telegram.Adapter
	texts   *texts.Store
	mail    *mailing.Manager
	router  *bot.Router
	digest  *bot.Digest // nil when disabled

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "config"))
	cfgm := config.NewManager(cfgPath, bootLog)
	cfgm.SetValidator(validate)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := validate(context.Background(), cfg); err != nil {
		return nil, err
	}

	logs, log := logx.New(mapLogging(cfg))
	log = log.With(logx.String("comp", "app"))

	pollTimeout, err := config.Duration("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logs.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	busyTimeout, err := config.Duration("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, logs.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	txt, err := texts.New(logs.Logger().With(logx.String("comp", "texts")))
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := txt.LoadDir(cfg.Texts.Dir); err != nil {
		store.Close()
		return nil, err
	}

	debounce, err := config.Duration("mailing.group_debounce", cfg.Mailing.GroupDebounce, 0)
	if err != nil {
		store.Close()
		return nil, err
	}
	mail := mailing.NewManager(mailing.Config{
		AppURL:     cfg.Mailing.AppURL,
		Debounce:   debounce,
		RatePerSec: cfg.Mailing.RatePerSec,
	}, adapter, store, bot.UI(), bot.Prompts(txt), logs.Logger().With(logx.String("comp", "mailing")))

	router := bot.New(adapter.Bot(), mail, store, txt, bot.Config{
		AdminIDs: cfg.Telegram.AdminIDs,
		AppURL:   cfg.Mailing.AppURL,
	}, logs.Logger().With(logx.String("comp", "bot")))
	router.Register()

	var digest *bot.Digest
	if cfg.Digest.Enabled {
		digest, err = bot.NewDigest(bot.DigestConfig{
			Schedule: cfg.Digest.Schedule,
			Timezone: cfg.Digest.Timezone,
			AdminIDs: cfg.Telegram.AdminIDs,
		}, adapter, store, txt, logs.Logger().With(logx.String("comp", "digest")))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	return &App{
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		store:   store,
		adapter: adapter,
		texts:   txt,
		mail:    mail,
		router:  router,
		digest:  digest,
	}, nil
}

// validate is run at boot and before committing a live reload.
func validate(_ context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required (config or BOT_TOKEN)")
	}
	for _, d := range []struct{ name, value string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"mailing.group_debounce", cfg.Mailing.GroupDebounce},
	} {
		if _, err := config.Duration(d.name, d.value, 0); err != nil {
			return err
		}
	}
	if cfg.Mailing.RatePerSec < 0 {
		return fmt.Errorf("mailing.rate_per_sec must not be negative: %d", cfg.Mailing.RatePerSec)
	}
	return nil
}

func mapLogging(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// Start brings the bot online and launches the config watcher.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.mail.Start(runCtx)
	a.router.Start(runCtx)

	if cfg := a.cfgm.Get(); len(cfg.Telegram.AdminIDs) == 0 {
		a.log.Warn("no admin ids configured; broadcast commands are unreachable")
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	updates := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	if a.digest != nil {
		a.digest.Start(runCtx)
	}
	if err := a.adapter.Start(runCtx); err != nil {
		cancel()
		return err
	}
	a.log.Info("bot started")
	return nil
}

// applyReload picks up the hot-reloadable parts of a new config:
// logging and message texts. Everything else needs a restart.
func (a *App) applyReload(cfg *config.Config) {
	a.logs.Apply(mapLogging(cfg))
	if err := a.texts.LoadDir(cfg.Texts.Dir); err != nil {
		a.log.Warn("text reload failed", logx.Err(err))
	}
	a.log.Info("config reloaded")
}

func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if err := a.adapter.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.digest != nil {
		a.digest.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	a.log.Info("bot stopped")
	a.logs.Close()
	return firstErr
}
