package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewWithWriter_JSONCarriesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := WithComponent(NewWithWriter(&buf, "debug", "json", "restaurant-api"), "order_service")

	l.Info("order created", slog.String("tracking_code", "ORD-ABC"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if rec["service"] != "restaurant-api" {
		t.Errorf("service = %v", rec["service"])
	}
	if rec["component"] != "order_service" {
		t.Errorf("component = %v", rec["component"])
	}
	if rec["tracking_code"] != "ORD-ABC" {
		t.Errorf("tracking_code = %v", rec["tracking_code"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInfoSuppressedAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "error", "text", "svc")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
