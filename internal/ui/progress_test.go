package ui

import (
	"math"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"capsule/internal/driver"
)

func TestProgressTracksPhases(t *testing.T) {
	files := []string{"a.cap", "dir/b.cap"}
	m := NewProgressModel("elaborating", files, nil).(*progressModel)

	m.applyEvent(driver.PhaseEvent{File: "a.cap", Name: "analyze", Status: driver.PhaseStart})
	m.applyEvent(driver.PhaseEvent{File: "./dir/b.cap", Name: "parse", Status: driver.PhaseStart})
	if m.items[0].status != "analyzing" || m.items[1].status != "parsing" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); math.Abs(got-0.35) > 1e-9 {
		t.Errorf("percent = %v", got)
	}

	m.applyEvent(driver.PhaseEvent{File: "a.cap", Status: driver.FileFailed})
	m.applyEvent(driver.PhaseEvent{File: "dir/b.cap", Status: driver.FileDone})
	m.applyEvent(driver.PhaseEvent{File: "unknown.cap", Status: driver.FileDone})
	if m.items[0].status != "error" || m.items[1].status != "done" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if m.percent() != 1 || m.finished() != 2 {
		t.Errorf("percent = %v, finished = %d", m.percent(), m.finished())
	}

	view := m.View()
	for _, want := range []string{"elaborating (2/2)", "a.cap", "dir/b.cap"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressClosesOnChannelEnd(t *testing.T) {
	events := make(chan driver.PhaseEvent, 1)
	events <- driver.PhaseEvent{File: "a.cap", Name: "desugar", Status: driver.PhaseStart}
	close(events)
	m := NewProgressModel("x", []string{"a.cap"}, events).(*progressModel)

	msg := m.listenForEvent()()
	if _, ok := msg.(eventMsg); !ok {
		t.Fatalf("first message = %T", msg)
	}
	m.Update(msg)
	if m.items[0].status != "desugaring" {
		t.Errorf("status = %q", m.items[0].status)
	}
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Error("closed channel should yield doneMsg")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/very/long/path.cap", 10); got != "interna..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("aaaaaaaaaaaa", 11); runewidth.StringWidth(got) != 11 {
		t.Errorf("truncate = %q, want 11 columns", got)
	}
	if got := truncate("日本語のパス.cap", 8); got != "日本..." {
		t.Errorf("truncate = %q", got)
	}
}
