package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Arcilios/Take-a-Bike/internal/config"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "api")

	logger.Info("dataset loaded", "stations", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("prod logger should write JSON, got %q: %v", buf.String(), err)
	}
	if entry["app"] != "api" || entry["env"] != "prod" {
		t.Errorf("missing app/env attributes: %v", entry)
	}
	if entry["stations"] != float64(3) {
		t.Errorf("stations = %v, want 3", entry["stations"])
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.Config{AppEnv: "prod", LogLevel: slog.LevelWarn}, "api")

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestNew_DevUsesTint(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, &config.Config{AppEnv: "dev", LogLevel: slog.LevelDebug}, "api")

	logger.Debug("query", "selector", "AllTime")
	out := buf.String()
	if !strings.Contains(out, "query") || !strings.Contains(out, "AllTime") {
		t.Errorf("dev output missing message or attributes: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("dev logger should not write JSON: %q", out)
	}
}
