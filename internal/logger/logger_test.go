package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_InvalidArguments(t *testing.T) {
	if _, err := New("loud", "console", "stderr"); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New("info", "xml", "stderr"); err == nil {
		t.Error("expected error for invalid format")
	}
	if _, err := New("info", "json", "/nonexistent/dir/kalimax.log"); err == nil {
		t.Error("expected error for unwritable log file")
	}
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kalimax.log")
	log, err := New("warn", "json", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line above warn level, got %d: %q", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "kept" || entry["level"] != "warn" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
