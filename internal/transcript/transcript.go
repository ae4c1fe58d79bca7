package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"promptrun/pkg/llm"
)

// Record captures one prompt/completion exchange for later review, so
// different persona prompts can be compared against the answers they
// produced.
type Record struct {
	Timestamp     time.Time `json:"timestamp"`
	Persona       string    `json:"persona,omitempty"`
	PersonaDigest string    `json:"persona_digest,omitempty"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer,omitempty"`
	Model         string    `json:"model,omitempty"`
	Usage         llm.Usage `json:"usage,omitempty"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// Writer persists exchange records to a directory as JSON files.
type Writer struct {
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a transcript writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "transcripts"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Write stores a record in a timestamped JSON file and returns its path.
func (w *Writer) Write(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("transcript: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	name := fmt.Sprintf("exchange_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
