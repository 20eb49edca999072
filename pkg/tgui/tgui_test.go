package tgui

import "testing"

func TestDataRoundTrip(t *testing.T) {
	d := Data("mailing_btn", "yes")
	if d != "mailing_btn:yes" {
		t.Fatalf("data: %q", d)
	}
	action, payload := Split("\f" + d)
	if action != "mailing_btn" || payload != "yes" {
		t.Fatalf("split: %q %q", action, payload)
	}
}

func TestDataNoPayload(t *testing.T) {
	if got := Data(" cancel ", ""); got != "cancel" {
		t.Fatalf("data: %q", got)
	}
	action, payload := Split("cancel")
	if action != "cancel" || payload != "" {
		t.Fatalf("split: %q %q", action, payload)
	}
}

func TestInlineRows(t *testing.T) {
	ik := NewInline().
		Row(Btn("Yes", "confirm:yes"), Btn("No", "confirm:no")).
		Row(URLBtn("Open", "https://example.com"))
	rm := ik.Markup()
	if len(rm.InlineKeyboard) != 2 {
		t.Fatalf("rows: %d", len(rm.InlineKeyboard))
	}
	if len(rm.InlineKeyboard[0]) != 2 || len(rm.InlineKeyboard[1]) != 1 {
		t.Fatalf("row shape: %v", rm.InlineKeyboard)
	}
	if rm.InlineKeyboard[1][0].URL != "https://example.com" {
		t.Fatalf("url button: %+v", rm.InlineKeyboard[1][0])
	}
}

func TestWebAppBtn(t *testing.T) {
	b := WebAppBtn("Shop", "https://shop.example")
	if b.WebApp == nil || b.WebApp.URL != "https://shop.example" {
		t.Fatalf("web app button: %+v", b)
	}
}
