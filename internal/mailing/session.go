package mailing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"giftbot/internal/storage"
	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

// UI is the presentation collaborator. The core decides which controls a
// prompt needs; the UI renders them into adapter-specific reply markup.
type UI interface {
	ButtonChoiceMarkup() any
	ButtonKindMarkup() any
	ConfirmMarkup() any
	PostButtonMarkup(b Button) any
}

// Prompts holds the admin-facing texts of the mailing flow. Zero fields
// fall back to built-in defaults (see DefaultPrompts).
type Prompts struct {
	AskContent      string
	AskButtonChoice string
	AskButtonKind   string
	AskButtonLabel  string
	AskButtonTarget string
	BadTarget       string
	AskConfirm      string
	PreviewFailed   string
	Started         string
	Cancelled       string
	NothingActive   string
	StoreDown       string
}

func DefaultPrompts() Prompts {
	return Prompts{
		AskContent:      "Send the post content: text, a photo/video/document, or an album.",
		AskButtonChoice: "Content saved. Attach a button to the post?",
		AskButtonKind:   "What should the button do?",
		AskButtonLabel:  "Send the button label.",
		AskButtonTarget: "Send the link URL (must start with http:// or https://).",
		BadTarget:       "That does not look like a link. Send a URL starting with http:// or https://.",
		AskConfirm:      "This is how the post will look. Send it to everyone?",
		PreviewFailed:   "Could not render the preview: %v\nYou can still confirm or cancel.",
		Started:         "Broadcast started, this can take a while...",
		Cancelled:       "Mailing cancelled.",
		NothingActive:   "There is no mailing in progress.",
		StoreDown:       "Recipient storage is unavailable, try again later.",
	}
}

func (p Prompts) withDefaults() Prompts {
	def := DefaultPrompts()
	fill := func(dst *string, d string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = d
		}
	}
	fill(&p.AskContent, def.AskContent)
	fill(&p.AskButtonChoice, def.AskButtonChoice)
	fill(&p.AskButtonKind, def.AskButtonKind)
	fill(&p.AskButtonLabel, def.AskButtonLabel)
	fill(&p.AskButtonTarget, def.AskButtonTarget)
	fill(&p.BadTarget, def.BadTarget)
	fill(&p.AskConfirm, def.AskConfirm)
	fill(&p.PreviewFailed, def.PreviewFailed)
	fill(&p.Started, def.Started)
	fill(&p.Cancelled, def.Cancelled)
	fill(&p.NothingActive, def.NothingActive)
	fill(&p.StoreDown, def.StoreDown)
	return p
}

// Config tunes the mailing core.
type Config struct {
	// AppURL is the fixed target pre-filled for in-app buttons.
	AppURL string
	// Debounce is the media-group quiet period; 0 means DefaultDebounce.
	Debounce time.Duration
	// RatePerSec caps broadcast sends; 0 means a sane default.
	RatePerSec int
}

// Manager owns every admin's mailing session: at most one session and one
// aggregation window per admin at a time.
type Manager struct {
	cfg     Config
	gw      transport.Gateway
	ui      UI
	prompts Prompts
	log     logx.Logger

	agg  *Aggregator
	disp *Dispatcher

	mu       sync.Mutex
	sessions map[int64]*session

	runCtx context.Context
}

type session struct {
	mu sync.Mutex

	adminID      int64
	phase        Phase
	content      Content
	button       *Button
	pendingGroup string
	done         bool
}

func NewManager(cfg Config, gw transport.Gateway, store storage.RecipientStore, ui UI, prompts Prompts, log logx.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		gw:       gw,
		ui:       ui,
		prompts:  prompts.withDefaults(),
		log:      log,
		disp:     NewDispatcher(gw, store, cfg.RatePerSec, log),
		sessions: make(map[int64]*session),
		runCtx:   context.Background(),
	}
	m.agg = NewAggregator(cfg.Debounce, m.onGroupDone, log)
	return m
}

// Start installs the lifecycle context used by in-flight broadcasts.
// Dispatch loops outlive the triggering update, not the process.
func (m *Manager) Start(ctx context.Context) { m.runCtx = ctx }

// Active reports whether the admin has a session in progress.
func (m *Manager) Active(adminID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[adminID] != nil
}

// Begin opens a fresh session for the admin and prompts for content.
// Any previous session or pending aggregation window is discarded.
func (m *Manager) Begin(ctx context.Context, adminID int64) {
	m.mu.Lock()
	old := m.sessions[adminID]
	m.sessions[adminID] = &session{adminID: adminID, phase: PhaseContent}
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.done = true
		old.mu.Unlock()
	}
	m.agg.Cancel(adminID)

	m.log.Info("mailing session started", logx.Int64("admin", adminID))
	m.send(ctx, adminID, m.prompts.AskContent, nil)
}

// Cancel tears down the admin's session, window, and timer, and notifies.
// Safe in every pre-dispatch phase; a no-op notice when nothing is active.
func (m *Manager) Cancel(ctx context.Context, adminID int64) {
	m.agg.Cancel(adminID)

	m.mu.Lock()
	s := m.sessions[adminID]
	delete(m.sessions, adminID)
	m.mu.Unlock()
	if s != nil {
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
	}

	if s == nil {
		m.send(ctx, adminID, m.prompts.NothingActive, nil)
		return
	}
	m.log.Info("mailing session cancelled", logx.Int64("admin", adminID))
	m.send(ctx, adminID, m.prompts.Cancelled, nil)
}

// HandleText feeds an admin text message into the session. Returns false
// when no session is active (the text belongs to someone else's flow).
func (m *Manager) HandleText(ctx context.Context, adminID int64, text string) bool {
	return m.withSession(adminID, func(s *session) {
		switch s.phase {
		case PhaseContent:
			s.content = textContent(text)
			s.pendingGroup = ""
			m.agg.Cancel(adminID)
			m.askButtonChoice(ctx, s)
		case PhaseButtonLabel:
			s.button.Label = text
			if s.button.Kind == ButtonLink {
				s.phase = PhaseButtonTarget
				m.send(ctx, adminID, m.prompts.AskButtonTarget, nil)
				return
			}
			// In-app buttons have the target pre-filled.
			m.showPreview(ctx, s)
		case PhaseButtonTarget:
			if !validTarget(text) {
				m.send(ctx, adminID, m.prompts.BadTarget, nil)
				return
			}
			s.button.Target = text
			m.showPreview(ctx, s)
		default:
			// Text is not meaningful in the remaining phases.
		}
	})
}

// HandleMedia feeds an admin media upload into the session. Items carrying
// a group id are routed through the aggregator; the session only advances
// once the group's debounce window closes.
func (m *Manager) HandleMedia(ctx context.Context, adminID int64, groupID string, item transport.MediaItem) bool {
	return m.withSession(adminID, func(s *session) {
		if s.phase != PhaseContent {
			return
		}
		if groupID != "" {
			s.pendingGroup = groupID
			m.agg.Observe(adminID, groupID, item)
			return
		}
		s.content = mediaContent(item)
		m.askButtonChoice(ctx, s)
	})
}

// ChooseAddButton resolves the add-a-button yes/no prompt.
func (m *Manager) ChooseAddButton(ctx context.Context, adminID int64, add bool) {
	m.withSession(adminID, func(s *session) {
		if s.phase != PhaseButtonChoice {
			return
		}
		if !add {
			s.button = nil
			m.showPreview(ctx, s)
			return
		}
		s.phase = PhaseButtonKind
		m.send(ctx, adminID, m.prompts.AskButtonKind, m.ui.ButtonKindMarkup())
	})
}

// ChooseKind resolves the link vs in-app prompt. In-app buttons get the
// fixed application URL and skip the target prompt entirely.
func (m *Manager) ChooseKind(ctx context.Context, adminID int64, kind ButtonKind) {
	m.withSession(adminID, func(s *session) {
		if s.phase != PhaseButtonKind {
			return
		}
		s.button = &Button{Kind: kind}
		if kind == ButtonWebApp {
			s.button.Target = m.cfg.AppURL
		}
		s.phase = PhaseButtonLabel
		m.send(ctx, adminID, m.prompts.AskButtonLabel, nil)
	})
}

// Confirm launches the broadcast. Only reachable from the confirmation
// phase; the session is removed before the dispatch loop starts, so there
// is no cancellation once sending begins.
func (m *Manager) Confirm(ctx context.Context, adminID int64) {
	m.withSession(adminID, func(s *session) {
		if s.phase != PhaseConfirm || s.content.Kind == ContentNone {
			return
		}

		var markup any
		if s.button != nil {
			markup = m.ui.PostButtonMarkup(*s.button)
		}
		run, err := m.disp.Prepare(ctx, s.content, s.button, markup)
		if err != nil {
			// Store down: keep the session so the admin can retry.
			m.log.Error("recipient snapshot failed", logx.Int64("admin", adminID), logx.Err(err))
			m.send(ctx, adminID, m.prompts.StoreDown, m.ui.ConfirmMarkup())
			return
		}

		s.done = true
		m.mu.Lock()
		delete(m.sessions, adminID)
		m.mu.Unlock()

		status, statusErr := m.gw.SendText(ctx, adminID, m.prompts.Started, nil)

		runCtx := m.runCtx
		go func() {
			report := run.Do(runCtx)
			if statusErr == nil {
				// Best-effort cleanup of the progress message.
				_ = m.gw.Delete(runCtx, status)
			}
			m.send(runCtx, adminID, FormatReport(report), nil)
		}()
	})
}

// onGroupDone is the aggregator's finalize callback. A stale group (the
// session moved on, was cancelled, or replaced) is dropped silently.
func (m *Manager) onGroupDone(adminID int64, groupID string, items []transport.MediaItem) {
	ctx := m.runCtx
	m.withSession(adminID, func(s *session) {
		if s.phase != PhaseContent || s.pendingGroup != groupID {
			return
		}
		s.pendingGroup = ""
		s.content = groupContent(items)
		m.askButtonChoice(ctx, s)
	})
}

func (m *Manager) askButtonChoice(ctx context.Context, s *session) {
	s.phase = PhaseButtonChoice
	m.send(ctx, s.adminID, m.prompts.AskButtonChoice, m.ui.ButtonChoiceMarkup())
}

// showPreview sends the composed post back to the admin followed by the
// confirm/cancel controls. A render failure is reported inline and keeps
// the session confirmable.
func (m *Manager) showPreview(ctx context.Context, s *session) {
	s.phase = PhaseConfirm

	if err := m.renderPreview(ctx, s); err != nil {
		m.log.Warn("preview render failed", logx.Int64("admin", s.adminID), logx.Err(err))
		m.send(ctx, s.adminID, fmt.Sprintf(m.prompts.PreviewFailed, err), m.ui.ConfirmMarkup())
		return
	}
	m.send(ctx, s.adminID, m.prompts.AskConfirm, m.ui.ConfirmMarkup())
}

func (m *Manager) renderPreview(ctx context.Context, s *session) error {
	var markup any
	if s.button != nil {
		markup = m.ui.PostButtonMarkup(*s.button)
	}
	opt := &transport.Options{ReplyMarkup: markup}

	switch s.content.Kind {
	case ContentText:
		_, err := m.gw.SendText(ctx, s.adminID, s.content.Text, opt)
		return err
	case ContentPhoto, ContentVideo, ContentDocument:
		_, err := m.gw.SendMedia(ctx, s.adminID, s.content.Item, opt)
		return err
	case ContentMediaGroup:
		if _, err := m.gw.SendMediaGroup(ctx, s.adminID, s.content.groupForSend()); err != nil {
			return err
		}
		if s.button != nil {
			_, err := m.gw.SendText(ctx, s.adminID, groupButtonTrailer, opt)
			return err
		}
		return nil
	default:
		return fmt.Errorf("no content to preview")
	}
}

// withSession runs fn with the admin's session locked. Per-admin mutual
// exclusion only: unrelated admins never contend.
func (m *Manager) withSession(adminID int64, fn func(*session)) bool {
	m.mu.Lock()
	s := m.sessions[adminID]
	m.mu.Unlock()
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	fn(s)
	return true
}

func (m *Manager) send(ctx context.Context, chatID int64, text string, markup any) {
	_, err := m.gw.SendText(ctx, chatID, text, &transport.Options{ReplyMarkup: markup, DisablePreview: true})
	if err != nil {
		m.log.Warn("prompt send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

func validTarget(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// FormatReport renders a delivery report as the admin-facing summary card.
func FormatReport(r DeliveryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Broadcast finished in %s\n", r.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Recipients: %d\n", r.Total)
	fmt.Fprintf(&b, "Delivered: %d (%.1f%%)\n", r.Succeeded, r.SuccessRate()*100)
	fmt.Fprintf(&b, "Failed: %d", r.Failed)
	if r.BlockedOrUnreachable > 0 {
		fmt.Fprintf(&b, " (blocked or unreachable: %d)", r.BlockedOrUnreachable)
	}
	return b.String()
}
