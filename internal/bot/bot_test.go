package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"giftbot/internal/mailing"
	"giftbot/internal/storage"
	"giftbot/internal/texts"
	"giftbot/internal/transport"
	"giftbot/pkg/logx"
)

func textStore(t *testing.T) *texts.Store {
	t.Helper()
	st, err := texts.New(logx.Nop())
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	return st
}

func TestUIKeyboardShapes(t *testing.T) {
	ui := inlineUI{}

	choice := ui.ButtonChoiceMarkup().(*tele.ReplyMarkup)
	if len(choice.InlineKeyboard) != 1 || len(choice.InlineKeyboard[0]) != 2 {
		t.Fatalf("choice keyboard: %v", choice.InlineKeyboard)
	}
	if !strings.Contains(choice.InlineKeyboard[0][0].Data, actMailButton) {
		t.Fatalf("choice data: %q", choice.InlineKeyboard[0][0].Data)
	}

	confirm := ui.ConfirmMarkup().(*tele.ReplyMarkup)
	if len(confirm.InlineKeyboard[0]) != 2 {
		t.Fatalf("confirm keyboard: %v", confirm.InlineKeyboard)
	}
}

func TestUIPostButtonMarkup(t *testing.T) {
	ui := inlineUI{}

	link := ui.PostButtonMarkup(mailing.Button{Kind: mailing.ButtonLink, Label: "Open", Target: "https://x.example"}).(*tele.ReplyMarkup)
	if link.InlineKeyboard[0][0].URL != "https://x.example" {
		t.Fatalf("link button: %+v", link.InlineKeyboard[0][0])
	}

	app := ui.PostButtonMarkup(mailing.Button{Kind: mailing.ButtonWebApp, Label: "Shop", Target: "https://shop.example"}).(*tele.ReplyMarkup)
	if app.InlineKeyboard[0][0].WebApp == nil {
		t.Fatalf("web app button: %+v", app.InlineKeyboard[0][0])
	}
}

func TestPromptsFromTexts(t *testing.T) {
	p := Prompts(textStore(t))
	if p.AskContent == "" || p.Started == "" {
		t.Fatalf("prompts not populated: %+v", p)
	}
	if !strings.Contains(p.PreviewFailed, "%v") {
		t.Fatalf("preview prompt must carry a format verb: %q", p.PreviewFailed)
	}
}

func TestIsAdmin(t *testing.T) {
	r := New(nil, nil, nil, textStore(t), Config{AdminIDs: []int64{1, 2}}, logx.Nop())
	if !r.isAdmin(2) || r.isAdmin(3) {
		t.Fatal("admin check broken")
	}
}

func TestStatsCard(t *testing.T) {
	r := New(nil, nil, nil, textStore(t), Config{}, logx.Nop())
	st := storage.Stats{
		TotalUsers:   42,
		NewToday:     3,
		NewLast7d:    9,
		NewLast30d:   20,
		TotalBalance: 10.5,
		TotalSpent:   99,
		FirstJoin:    time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
		LastJoin:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	card := r.statsCard(st)
	for _, want := range []string{"42", "3", "9", "20", "10.50", "99.00", "02.01.2025", "01.08.2026"} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
	if strings.Contains(card, "{") {
		t.Fatalf("unresolved placeholder:\n%s", card)
	}
}

func TestStatsCardEmptyBase(t *testing.T) {
	r := New(nil, nil, nil, textStore(t), Config{}, logx.Nop())
	card := r.statsCard(storage.Stats{})
	if !strings.Contains(card, "—") {
		t.Fatalf("zero join dates should render as a dash:\n%s", card)
	}
}

func TestMediaItemMapping(t *testing.T) {
	photo := &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "p1"}}, Caption: "cap"}
	item, ok := mediaItem(photo)
	if !ok || item.Kind != transport.MediaPhoto || item.AssetRef != "p1" || item.Caption != "cap" {
		t.Fatalf("photo: %+v %v", item, ok)
	}

	doc := &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d1"}}}
	item, ok = mediaItem(doc)
	if !ok || item.Kind != transport.MediaDocument || item.AssetRef != "d1" {
		t.Fatalf("document: %+v %v", item, ok)
	}

	if _, ok := mediaItem(&tele.Message{Text: "plain"}); ok {
		t.Fatal("text message must not map to media")
	}
	if _, ok := mediaItem(nil); ok {
		t.Fatal("nil message must not map to media")
	}
}

type stubStore struct {
	stats storage.Stats
}

func (s *stubStore) Upsert(context.Context, storage.User) error        { return nil }
func (s *stubStore) ListRecipients(context.Context) ([]int64, error)   { return nil, nil }
func (s *stubStore) Statistics(context.Context) (storage.Stats, error) { return s.stats, nil }
func (s *stubStore) Close() error                                      { return nil }

type stubGateway struct {
	texts []string
}

func (g *stubGateway) SendText(_ context.Context, _ int64, text string, _ *transport.Options) (transport.MessageRef, error) {
	g.texts = append(g.texts, text)
	return transport.MessageRef{}, nil
}
func (g *stubGateway) SendMedia(context.Context, int64, transport.MediaItem, *transport.Options) (transport.MessageRef, error) {
	return transport.MessageRef{}, nil
}
func (g *stubGateway) SendMediaGroup(context.Context, int64, []transport.MediaItem) ([]transport.MessageRef, error) {
	return nil, nil
}
func (g *stubGateway) EditText(context.Context, transport.MessageRef, string, *transport.Options) error {
	return nil
}
func (g *stubGateway) Delete(context.Context, transport.MessageRef) error { return nil }

func TestDigestRun(t *testing.T) {
	gw := &stubGateway{}
	store := &stubStore{stats: storage.Stats{TotalUsers: 7, NewToday: 2, TotalSpent: 30}}
	d, err := NewDigest(DigestConfig{Schedule: "0 9 * * *", AdminIDs: []int64{1, 2}}, gw, store, textStore(t), logx.Nop())
	if err != nil {
		t.Fatalf("new digest: %v", err)
	}
	d.run()
	if len(gw.texts) != 2 {
		t.Fatalf("digest sends: %d", len(gw.texts))
	}
	for _, want := range []string{"7", "2", "30.00"} {
		if !strings.Contains(gw.texts[0], want) {
			t.Fatalf("digest missing %q:\n%s", want, gw.texts[0])
		}
	}
}

func TestDigestRejectsBadSchedule(t *testing.T) {
	if _, err := NewDigest(DigestConfig{Schedule: "whenever"}, &stubGateway{}, &stubStore{}, textStore(t), logx.Nop()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestDigestRejectsBadTimezone(t *testing.T) {
	if _, err := NewDigest(DigestConfig{Schedule: "0 9 * * *", Timezone: "Mars/Olympus"}, &stubGateway{}, &stubStore{}, textStore(t), logx.Nop()); err == nil {
		t.Fatal("expected timezone error")
	}
}
