package agent

import (
	"fmt"
	"strings"
)

// TraceEntry is one recorded controller decision.
type TraceEntry struct {
	Time     float64 `json:"t"`
	Agent    string  `json:"agent"` // label e.g. "R0", or "--" for world events
	Team     int     `json:"team"`
	Category string  `json:"category"` // turn, target, approach, rope, tunnel, attack, balance, retreat, stuck
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	NumVal   float64 `json:"num"`
}

// String formats the entry as a fixed-width log line.
//
//	[t=012.50] R0   rope      detach          grounded
func (e TraceEntry) String() string {
	return fmt.Sprintf("[t=%06.2f] %-4s %-9s %-15s %s",
		e.Time, e.Agent, e.Category, e.Key, e.Value)
}

// TraceLog collects structured controller events. It is unbounded and
// machine-readable; a nil *TraceLog discards everything.
type TraceLog struct {
	entries []TraceEntry
}

// NewTraceLog creates an empty log.
func NewTraceLog() *TraceLog {
	return &TraceLog{}
}

// Add records a new entry.
func (tl *TraceLog) Add(e TraceEntry) {
	if tl == nil {
		return
	}
	tl.entries = append(tl.entries, e)
}

// Len returns the number of recorded entries.
func (tl *TraceLog) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.entries)
}

// Entries returns all recorded entries.
func (tl *TraceLog) Entries() []TraceEntry {
	if tl == nil {
		return nil
	}
	return tl.entries
}

// Since returns entries recorded after the first n.
func (tl *TraceLog) Since(n int) []TraceEntry {
	if tl == nil || n >= len(tl.entries) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return tl.entries[n:]
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (tl *TraceLog) Filter(category, key string) []TraceEntry {
	var out []TraceEntry
	for _, e := range tl.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for a specific agent label.
func (tl *TraceLog) FilterAgent(label string) []TraceEntry {
	var out []TraceEntry
	for _, e := range tl.Entries() {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries match the given category and key.
func (tl *TraceLog) Count(category, key string) int {
	return len(tl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (tl *TraceLog) LastOf(category, key string) (TraceEntry, bool) {
	entries := tl.Filter(category, key)
	if len(entries) == 0 {
		return TraceEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (tl *TraceLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range tl.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (tl *TraceLog) Format() string {
	var sb strings.Builder
	for _, e := range tl.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
