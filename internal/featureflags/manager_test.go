package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_Percentage(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	if !m.Enabled("always", 0) {
		t.Fatal("100% rollout should be enabled even for anonymous callers")
	}
	if m.Enabled("never", 1) || m.Enabled("junk", 1) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}
	if m.Enabled("canary", 0) {
		t.Fatal("partial rollout should be disabled for anonymous callers")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}
}

func TestNewManager_Normalizes(t *testing.T) {
	m := NewManager(" Like_Summary = ON , broken, =on, empty= ")

	if !m.Enabled(LikeSummary, 0) {
		t.Fatal("expected like_summary to be enabled")
	}
	if names := m.Names(); len(names) != 1 || names[0] != LikeSummary {
		t.Fatalf("unexpected flag names %v", names)
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags are disabled")
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if !m.Enabled(LikeSummary, 1) {
		t.Fatal("nil manager should fall back to defaults")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags are disabled")
	}
}

func TestNewManager_DefaultsSurviveOtherFlags(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"new_feed=25%", true},
		{"legacy_ui=off,new_feed=on", true},
		{"like_summary=off", false},
		{"new_feed=on,like_summary=0", false},
		{"like_summary=100%", true},
	}
	for _, tt := range tests {
		if got := NewManager(tt.raw).Enabled(LikeSummary, 7); got != tt.want {
			t.Errorf("NewManager(%q).Enabled(like_summary) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
