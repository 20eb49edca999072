package mailing

import (
	"sync"
	"time"

	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

// DefaultDebounce is the quiet period after the last item of a media group
// before the group is considered complete. Telegram gives no explicit
// "album finished" signal, so arrival silence is the only cue.
const DefaultDebounce = 1500 * time.Millisecond

// FinalizeFunc receives a completed media group in arrival order.
type FinalizeFunc func(adminID int64, groupID string, items []transport.MediaItem)

// Aggregator coalesces bursts of media uploads sharing one group
// correlation id into a single ordered batch, one window per admin.
type Aggregator struct {
	mu       sync.Mutex
	windows  map[int64]*window
	debounce time.Duration
	finalize FinalizeFunc
	log      logx.Logger
}

type window struct {
	groupID string
	items   []transport.MediaItem
	timer   *time.Timer
}

func NewAggregator(debounce time.Duration, finalize FinalizeFunc, log logx.Logger) *Aggregator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Aggregator{
		windows:  make(map[int64]*window),
		debounce: debounce,
		finalize: finalize,
		log:      log,
	}
}

// Observe records one media item of a group and (re)arms the debounce
// timer. A different group id for the same admin supersedes the previous
// window: its pending items are discarded.
func (a *Aggregator) Observe(adminID int64, groupID string, item transport.MediaItem) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := a.windows[adminID]
	if w == nil || w.groupID != groupID {
		if w != nil {
			w.timer.Stop()
			a.log.Debug("media group superseded",
				logx.Int64("admin", adminID),
				logx.String("old_group", w.groupID),
				logx.String("new_group", groupID))
		}
		w = &window{groupID: groupID}
		a.windows[adminID] = w
	}
	w.items = append(w.items, item)

	if w.timer != nil {
		w.timer.Stop()
	}
	// Capture the window identity: Stop() on an already-fired timer cannot
	// be trusted, so the callback re-checks it owns the current window.
	fired := w
	w.timer = time.AfterFunc(a.debounce, func() {
		a.fire(adminID, fired)
	})
}

func (a *Aggregator) fire(adminID int64, fired *window) {
	a.mu.Lock()
	w := a.windows[adminID]
	if w != fired {
		// Stale timer of a superseded or cancelled window.
		a.mu.Unlock()
		return
	}
	delete(a.windows, adminID)
	items := w.items
	groupID := w.groupID
	a.mu.Unlock()

	if len(items) == 0 {
		return
	}
	a.log.Debug("media group finalized",
		logx.Int64("admin", adminID),
		logx.String("group", groupID),
		logx.Int("items", len(items)))
	a.finalize(adminID, groupID, items)
}

// Cancel discards the admin's pending window, if any.
func (a *Aggregator) Cancel(adminID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w := a.windows[adminID]; w != nil {
		if w.timer != nil {
			w.timer.Stop()
		}
		delete(a.windows, adminID)
	}
}
