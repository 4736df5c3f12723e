package summary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONLSink appends one JSON line per battle record.
type JSONLSink struct {
	f *os.File
}

// NewJSONLSink opens (or creates) the JSONL file in append mode.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("summary: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("summary: open %s: %w", path, err)
	}
	return &JSONLSink{f: f}, nil
}

func (s *JSONLSink) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("summary: marshal record: %w", err)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("summary: append record: %w", err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	return s.f.Close()
}
