package viewer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

const (
	panelWidth      = 360
	panelMaxEntries = 80
	panelLineHeight = 14
)

// TracePanel is a ring buffer of recent trace entries rendered beside the
// arena.
type TracePanel struct {
	entries []agent.TraceEntry
	head    int
	count   int
	hideCat map[string]bool
}

// NewTracePanel creates a panel with a fixed capacity.
func NewTracePanel() *TracePanel {
	return &TracePanel{
		entries: make([]agent.TraceEntry, panelMaxEntries),
		hideCat: map[string]bool{},
	}
}

// Add appends an entry, dropping the oldest once full. Entries in hidden
// categories are skipped.
func (p *TracePanel) Add(e agent.TraceEntry) {
	if p.hideCat[e.Category] {
		return
	}
	p.entries[p.head] = e
	p.head = (p.head + 1) % panelMaxEntries
	if p.count < panelMaxEntries {
		p.count++
	}
}

// ToggleCategory hides or shows a category for future entries.
func (p *TracePanel) ToggleCategory(cat string) bool {
	p.hideCat[cat] = !p.hideCat[cat]
	return p.hideCat[cat]
}

// Reset empties the panel.
func (p *TracePanel) Reset() {
	p.head, p.count = 0, 0
}

// Recent returns entries oldest first.
func (p *TracePanel) Recent() []agent.TraceEntry {
	out := make([]agent.TraceEntry, p.count)
	for i := 0; i < p.count; i++ {
		idx := (p.head - p.count + i + panelMaxEntries) % panelMaxEntries
		out[i] = p.entries[idx]
	}
	return out
}

// Text renders the panel contents as plain lines, for the clipboard.
func (p *TracePanel) Text() string {
	var sb strings.Builder
	for _, e := range p.Recent() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func teamColor(team int) color.RGBA {
	switch team {
	case 0:
		return color.RGBA{R: 210, G: 70, B: 70, A: 255}
	case 1:
		return color.RGBA{R: 70, G: 110, B: 210, A: 255}
	default:
		return color.RGBA{R: 150, G: 150, B: 150, A: 255}
	}
}

// Draw renders the panel at panelX, newest entry at the bottom.
func (p *TracePanel) Draw(screen *ebiten.Image, face text.Face, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, panelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, panelWidth, 18, color.RGBA{R: 20, G: 26, B: 34, A: 255}, false)
	drawText(screen, face, "TRACE  (C=copy)", panelX+8, 3, color.White)

	entries := p.Recent()
	maxVisible := (panelH - 24) / panelLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const highlight = 3
	y := 22
	for i, e := range entries {
		if i >= len(entries)-highlight {
			vector.FillRect(screen, float32(panelX+2), float32(y), panelWidth-4, panelLineHeight, color.RGBA{R: 30, G: 36, B: 46, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, teamColor(e.Team), false)
		line := fmt.Sprintf("%6.2f %-3s %s/%s %s", e.Time, e.Agent, e.Category, e.Key, e.Value)
		drawText(screen, face, line, panelX+12, y, color.RGBA{R: 200, G: 205, B: 200, A: 255})
		y += panelLineHeight
	}
}

func drawText(dst *ebiten.Image, face text.Face, s string, x, y int, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, s, face, op)
}
