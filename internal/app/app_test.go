package app

import (
	"context"
	"testing"

	"giftbot/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{Token: "123:abc", AdminIDs: []int64{1}},
		Mailing:  config.MailingConfig{GroupDebounce: "1500ms", RatePerSec: 25},
	}
}

func TestValidateAcceptsSaneConfig(t *testing.T) {
	if err := validate(context.Background(), validConfig()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "  "
	if err := validate(context.Background(), cfg); err == nil {
		t.Fatal("expected token error")
	}
}

func TestValidateRejectsBadDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Mailing.GroupDebounce = "eventually"
	if err := validate(context.Background(), cfg); err == nil {
		t.Fatal("expected duration error")
	}
}

func TestValidateRejectsNegativeRate(t *testing.T) {
	cfg := validConfig()
	cfg.Mailing.RatePerSec = -1
	if err := validate(context.Background(), cfg); err == nil {
		t.Fatal("expected rate error")
	}
}

func TestMapLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Console = true
	cfg.Logging.File.Enabled = true
	cfg.Logging.File.Path = "/tmp/bot.log"

	lc := mapLogging(cfg)
	if lc.Level != "debug" || !lc.Console || !lc.File.Enabled || lc.File.Path != "/tmp/bot.log" {
		t.Fatalf("mapping: %+v", lc)
	}
}
