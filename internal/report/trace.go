// Package report persists headless match output: compressed JSONL traces and
// a SQLite index of runs for cross-run queries.
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/Garsondee/Artillery-Sense/internal/agent"
)

// Record is one trace line. Run ties it to its match.
type Record struct {
	Run      int     `json:"run"`
	Time     float64 `json:"t"`
	Agent    string  `json:"agent"`
	Team     int     `json:"team"`
	Category string  `json:"cat"`
	Key      string  `json:"key"`
	Value    string  `json:"val,omitempty"`
	NumVal   float64 `json:"num,omitempty"`
}

// FromEntry converts a trace entry for run.
func FromEntry(run int, e agent.TraceEntry) Record {
	return Record{
		Run:      run,
		Time:     e.Time,
		Agent:    e.Agent,
		Team:     e.Team,
		Category: e.Category,
		Key:      e.Key,
		Value:    e.Value,
		NumVal:   e.NumVal,
	}
}

// Entry converts back to a trace entry.
func (r Record) Entry() agent.TraceEntry {
	return agent.TraceEntry{
		Time:     r.Time,
		Agent:    r.Agent,
		Team:     r.Team,
		Category: r.Category,
		Key:      r.Key,
		Value:    r.Value,
		NumVal:   r.NumVal,
	}
}

// TraceWriter appends records as zstd-compressed JSON lines to one file.
type TraceWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   int
}

// CreateTrace creates (or truncates) path and its parent directory.
func CreateTrace(path string) (*TraceWriter, error) {
	if path == "" {
		return nil, errors.New("empty trace path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TraceWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Write appends one record.
func (w *TraceWriter) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return errors.New("trace writer closed")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.n++
	return nil
}

// WriteRun appends every entry of one match.
func (w *TraceWriter) WriteRun(run int, entries []agent.TraceEntry) error {
	for _, e := range entries {
		if err := w.Write(FromEntry(run, e)); err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
	}
	return nil
}

// Count is the number of records written so far.
func (w *TraceWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Close flushes the buffer and finishes the zstd frame.
func (w *TraceWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	errFlush := w.w.Flush()
	errEnc := w.enc.Close()
	errFile := w.f.Close()
	w.w, w.enc, w.f = nil, nil, nil
	return errors.Join(errFlush, errEnc, errFile)
}

// ReadTrace decodes every record in a trace file.
func ReadTrace(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTrace(f)
}

// DecodeTrace decodes zstd-compressed JSON lines from r.
func DecodeTrace(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
