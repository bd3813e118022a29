package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerCreation(t *testing.T) {
	logger := New("api")

	if logger.component != "api" {
		t.Errorf("expected component 'api', got '%s'", logger.component)
	}
}

func TestLoggerWithRequestID(t *testing.T) {
	logger := New("api").WithRequestID("req-42")

	if logger.requestID != "req-42" {
		t.Errorf("expected request ID 'req-42', got '%s'", logger.requestID)
	}
}

func TestLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("workflow").WithRequestID("r1").WithOutput(&buf)

	logger.Info("generate_start", map[string]interface{}{"file": "cat.png"})

	var e Event
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Level != LevelInfo {
		t.Errorf("level = %q, want %q", e.Level, LevelInfo)
	}
	if e.Component != "workflow" {
		t.Errorf("component = %q, want 'workflow'", e.Component)
	}
	if e.Event != "generate_start" {
		t.Errorf("event = %q, want 'generate_start'", e.Event)
	}
	if e.RequestID != "r1" {
		t.Errorf("request_id = %q, want 'r1'", e.RequestID)
	}
	if e.Extra["file"] != "cat.png" {
		t.Errorf("extra[file] = %v, want 'cat.png'", e.Extra["file"])
	}
}

func TestLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := New("history").WithOutput(&buf)

	logger.Error("refresh_failed", nil, errors.New("connection refused"))

	var e Event
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Level != LevelError {
		t.Errorf("level = %q, want %q", e.Level, LevelError)
	}
	if !strings.Contains(e.Error, "connection refused") {
		t.Errorf("error = %q, want to contain 'connection refused'", e.Error)
	}
}

func TestTimedEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := New("api").WithOutput(&buf)

	start := time.Now().Add(-50 * time.Millisecond)
	logger.TimedEvent("upload_done", start, nil)

	var e Event
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Duration < 50 {
		t.Errorf("duration_ms = %d, want >= 50", e.Duration)
	}
}
