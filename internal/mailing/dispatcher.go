package mailing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"giftbot/internal/storage"
	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

// groupButtonTrailer is the body of the separate button-carrying message
// sent after a media group (albums cannot hold an inline keyboard).
const groupButtonTrailer = "\U0001F447"

// Dispatcher fans one finalized post out to every known recipient.
type Dispatcher struct {
	gw      transport.Gateway
	store   storage.RecipientStore
	limiter *rate.Limiter
	log     logx.Logger
}

func NewDispatcher(gw transport.Gateway, store storage.RecipientStore, ratePerSec int, log logx.Logger) *Dispatcher {
	if ratePerSec <= 0 {
		ratePerSec = 25
	}
	return &Dispatcher{
		gw:      gw,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		log:     log,
	}
}

// Run is one prepared broadcast: a recipient snapshot plus the post.
// Recipients added after Prepare are not included.
type Run struct {
	d          *Dispatcher
	id         string
	recipients []int64
	content    Content
	button     *Button
	markup     any
}

// Prepare snapshots the recipient list. A store failure here aborts the
// broadcast before anything is sent.
func (d *Dispatcher) Prepare(ctx context.Context, content Content, button *Button, markup any) (*Run, error) {
	recipients, err := d.store.ListRecipients(ctx)
	if err != nil {
		return nil, err
	}
	return &Run{
		d:          d,
		id:         uuid.NewString(),
		recipients: recipients,
		content:    content,
		button:     button,
		markup:     markup,
	}, nil
}

func (r *Run) ID() string { return r.id }

// Do performs the blocking per-recipient send loop and returns the report.
// One attempt per recipient, no retries; a failure never aborts the loop.
func (r *Run) Do(ctx context.Context) DeliveryReport {
	d := r.d
	start := time.Now()
	report := DeliveryReport{RunID: r.id, Total: len(r.recipients)}

	d.log.Info("broadcast started",
		logx.String("run", r.id),
		logx.Int("total", report.Total),
		logx.String("content", contentName(r.content.Kind)),
		logx.Bool("button", r.button != nil))

	for _, chatID := range r.recipients {
		if err := d.limiter.Wait(ctx); err != nil {
			// Shutdown mid-run: remaining recipients count as failed.
			report.Failed++
			continue
		}
		if err := d.sendOne(ctx, chatID, r.content, r.button, r.markup); err != nil {
			report.Failed++
			if transport.IsRecipientUnreachable(err) {
				report.BlockedOrUnreachable++
				d.log.Debug("recipient unreachable", logx.String("run", r.id), logx.Int64("chat_id", chatID))
			} else {
				d.log.Warn("broadcast send failed", logx.String("run", r.id), logx.Int64("chat_id", chatID), logx.Err(err))
			}
			continue
		}
		report.Succeeded++
	}

	report.Elapsed = time.Since(start)
	fields := []logx.Field{
		logx.String("run", r.id),
		logx.Int("total", report.Total),
		logx.Int("succeeded", report.Succeeded),
		logx.Int("failed", report.Failed),
		logx.Int("unreachable", report.BlockedOrUnreachable),
		logx.Duration("took", report.Elapsed),
	}
	if report.Failed > 0 {
		d.log.Warn("broadcast finished with failures", fields...)
	} else {
		d.log.Info("broadcast finished", fields...)
	}
	return report
}

func (d *Dispatcher) sendOne(ctx context.Context, chatID int64, content Content, button *Button, markup any) error {
	opt := &transport.Options{ReplyMarkup: markup}

	switch content.Kind {
	case ContentText:
		_, err := d.gw.SendText(ctx, chatID, content.Text, opt)
		return err
	case ContentPhoto, ContentVideo, ContentDocument:
		_, err := d.gw.SendMedia(ctx, chatID, content.Item, opt)
		return err
	case ContentMediaGroup:
		if _, err := d.gw.SendMediaGroup(ctx, chatID, content.groupForSend()); err != nil {
			return err
		}
		// Albums cannot carry a keyboard, so the button travels in a
		// follow-up message. This is always attempted; if it fails the
		// recipient counts as failed even though the album went through.
		if button != nil {
			_, err := d.gw.SendText(ctx, chatID, groupButtonTrailer, opt)
			return err
		}
		return nil
	default:
		return nil
	}
}

func contentName(k ContentKind) string {
	switch k {
	case ContentText:
		return "text"
	case ContentPhoto:
		return "photo"
	case ContentVideo:
		return "video"
	case ContentDocument:
		return "document"
	case ContentMediaGroup:
		return "media_group"
	default:
		return "none"
	}
}
