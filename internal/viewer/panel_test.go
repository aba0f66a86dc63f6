package viewer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

func entry(i int, cat string) agent.TraceEntry {
	return agent.TraceEntry{Time: float64(i), Agent: "R0", Category: cat, Key: fmt.Sprintf("k%d", i)}
}

func TestTracePanel_KeepsNewestInOrder(t *testing.T) {
	p := NewTracePanel()
	total := panelMaxEntries + 15
	for i := 0; i < total; i++ {
		p.Add(entry(i, "turn"))
	}
	got := p.Recent()
	if len(got) != panelMaxEntries {
		t.Fatalf("expected %d entries, got %d", panelMaxEntries, len(got))
	}
	if got[0].Time != 15 || got[len(got)-1].Time != float64(total-1) {
		t.Fatalf("unexpected window [%g..%g]", got[0].Time, got[len(got)-1].Time)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("entries out of order at %d", i)
		}
	}
}

func TestTracePanel_HiddenCategory(t *testing.T) {
	p := NewTracePanel()
	if !p.ToggleCategory("world") {
		t.Fatal("first toggle hides")
	}
	p.Add(entry(1, "world"))
	p.Add(entry(2, "attack"))
	if got := p.Recent(); len(got) != 1 || got[0].Category != "attack" {
		t.Fatalf("world entry should be skipped, got %+v", got)
	}
	p.ToggleCategory("world")
	p.Add(entry(3, "world"))
	if len(p.Recent()) != 2 {
		t.Fatal("world entries should show again")
	}
}

func TestTracePanel_TextAndReset(t *testing.T) {
	p := NewTracePanel()
	p.Add(entry(1, "attack"))
	p.Add(entry(2, "rope"))
	txt := p.Text()
	if strings.Count(txt, "\n") != 2 || !strings.Contains(txt, "rope") {
		t.Fatalf("unexpected text:\n%s", txt)
	}
	p.Reset()
	if len(p.Recent()) != 0 || p.Text() != "" {
		t.Fatal("reset should empty the panel")
	}
}
