package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"giftbot/internal/storage"
	"giftbot/internal/texts"
	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

// DigestConfig schedules the daily admin digest.
type DigestConfig struct {
	Schedule string // standard 5-field cron spec
	Timezone string // IANA name; "" means local time
	AdminIDs []int64
}

// Digest sends a short usage summary to every admin on a cron schedule.
type Digest struct {
	cron  *cron.Cron
	gw    transport.Gateway
	store storage.RecipientStore
	texts *texts.Store
	cfg   DigestConfig
	log   logx.Logger

	runCtx context.Context
}

func NewDigest(cfg DigestConfig, gw transport.Gateway, store storage.RecipientStore, txt *texts.Store, log logx.Logger) (*Digest, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("digest: timezone %q: %w", cfg.Timezone, err)
		}
	}
	d := &Digest{
		cron:   cron.New(cron.WithLocation(loc)),
		gw:     gw,
		store:  store,
		texts:  txt,
		cfg:    cfg,
		log:    log,
		runCtx: context.Background(),
	}
	if _, err := d.cron.AddFunc(cfg.Schedule, d.run); err != nil {
		return nil, fmt.Errorf("digest: schedule %q: %w", cfg.Schedule, err)
	}
	return d, nil
}

func (d *Digest) Start(ctx context.Context) {
	d.runCtx = ctx
	d.cron.Start()
}

func (d *Digest) Stop() {
	<-d.cron.Stop().Done()
}

func (d *Digest) run() {
	ctx, cancel := context.WithTimeout(d.runCtx, 30*time.Second)
	defer cancel()

	st, err := d.store.Statistics(ctx)
	if err != nil {
		d.log.Error("digest statistics failed", logx.Err(err))
		return
	}
	body := d.message(st)
	for _, id := range d.cfg.AdminIDs {
		if _, err := d.gw.SendText(ctx, id, body, nil); err != nil {
			d.log.Warn("digest send failed", logx.Int64("admin_id", id), logx.Err(err))
		}
	}
	d.log.Info("digest sent", logx.Int("admins", len(d.cfg.AdminIDs)), logx.Int("users", st.TotalUsers))
}

func (d *Digest) message(st storage.Stats) string {
	return d.texts.Render("digest", map[string]string{
		"total":     strconv.Itoa(st.TotalUsers),
		"new_today": strconv.Itoa(st.NewToday),
		"spent":     formatMoney(st.TotalSpent),
	})
}
