package featureflags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,instant_book=on, reel_feed_v2 = 20% ,legacy_search=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["instant_book"] != "on" || raw["reel_feed_v2"] != "20%" || raw["legacy_search"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(123)
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}

func TestNewManagerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yml")
	content := "instant_book: \"on\"\nreel_feed_v2: 25%\nlegacy_search: \"off\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write flags file: %v", err)
	}

	m, err := NewManagerFromFile(path)
	if err != nil {
		t.Fatalf("load flags file: %v", err)
	}

	if !m.Enabled("instant_book", 1) {
		t.Fatal("expected instant_book enabled")
	}
	if m.Enabled("legacy_search", 1) {
		t.Fatal("expected legacy_search disabled")
	}
	if raw := m.Raw(); raw["reel_feed_v2"] != "25%" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	if _, err := NewManagerFromFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
