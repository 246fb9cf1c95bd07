package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitUnknownLevelFallsBack(t *testing.T) {
	if err := Init(Config{Level: "chatty"}); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("no logger after Init")
	}
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniffd.log")
	cfg := Config{
		Level:  "info",
		Format: "json",
		File:   FileOutput{Enabled: true, Path: path, MaxSizeMB: 1},
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	WithField("component", "test").Info("file output line")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "file output line") {
		t.Errorf("log file missing entry, got: %s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("structured field missing, got: %s", data)
	}
}

func TestWithFieldsChaining(t *testing.T) {
	l := WithFields(map[string]interface{}{"a": 1}).WithField("b", 2)
	if l == nil {
		t.Fatal("chained logger is nil")
	}
	l.Debug("chained entry") // must not panic
}
