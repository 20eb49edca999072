package texts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"giftbot/pkg/logx"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(logx.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return st
}

func TestEmbeddedDefaults(t *testing.T) {
	st := newStore(t)
	if st.Get("welcome") == "" {
		t.Fatal("welcome default missing")
	}
	if st.Get("mailing_ask_content") == "" {
		t.Fatal("mailing_ask_content default missing")
	}
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	st := newStore(t)
	out := st.Render("welcome", map[string]string{"first_name": "Оля"})
	if !strings.Contains(out, "Оля") {
		t.Fatalf("placeholder not substituted: %q", out)
	}
	if strings.Contains(out, "{first_name}") {
		t.Fatalf("placeholder left behind: %q", out)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	st := newStore(t)
	out := st.Render("stats", map[string]string{"total": "5"})
	if !strings.Contains(out, "5") {
		t.Fatalf("total not substituted: %q", out)
	}
	if !strings.Contains(out, "{new_today}") {
		t.Fatalf("unmatched placeholder should remain: %q", out)
	}
}

func TestLoadDirOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "welcome.txt"), []byte("hi {first_name}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seasonal_promo.txt"), []byte("sale!"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := newStore(t)
	if err := st.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if got := st.Render("welcome", map[string]string{"first_name": "Bob"}); got != "hi Bob" {
		t.Fatalf("override not applied: %q", got)
	}
	if st.Get("seasonal_promo") != "sale!" {
		t.Fatal("new key not loaded")
	}
}

func TestLoadDirMissingIsFine(t *testing.T) {
	st := newStore(t)
	if err := st.LoadDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing dir should be tolerated: %v", err)
	}
}

func TestGetUnknownKey(t *testing.T) {
	st := newStore(t)
	if st.Get("no_such_key") != "" {
		t.Fatal("unknown key should yield empty string")
	}
}
