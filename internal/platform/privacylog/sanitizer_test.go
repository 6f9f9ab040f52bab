package privacylog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFingerprintIsStableWithinBoot(t *testing.T) {
	a := FingerprintID("203.0.113.7")
	b := FingerprintID(" 203.0.113.7 ")
	if a != b {
		t.Fatalf("fingerprint should ignore surrounding space: got=%q want=%q", b, a)
	}
	if FingerprintID("") != "" {
		t.Fatal("empty value should stay empty")
	}
}

func TestSanitizingHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, nil)
	logger := slog.New(WrapHandler(base))
	logger.Info("test",
		"client_ip", "198.51.100.1",
		"private_key", "0x4c0883a6",
		"rpc_url", "https://rpc.example/v1/apikey",
		"tx_hash", "0xabc",
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if _, ok := payload["client_ip"]; ok {
		t.Fatal("client_ip should not be present")
	}
	if _, ok := payload["client_ip_fp"]; !ok {
		t.Fatal("client_ip_fp should be present")
	}
	if got, _ := payload["private_key"].(string); got != redactedValue {
		t.Fatalf("expected redacted key, got %q", got)
	}
	if got, _ := payload["rpc_url"].(string); got != redactedValue {
		t.Fatalf("expected redacted rpc url, got %q", got)
	}
	if got, _ := payload["tx_hash"].(string); got != "0xabc" {
		t.Fatalf("tx_hash should pass through, got %q", got)
	}
}

func TestSanitizingHandlerAppliesToWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapHandler(slog.NewJSONHandler(&buf, nil))).With("auth_token", "abc")
	logger.Info("grouped", slog.Group("request", slog.String("remote_addr", "192.0.2.4:80"), slog.String("action", "game_over")))

	out := buf.String()
	if strings.Contains(out, "abc") || strings.Contains(out, "192.0.2.4") {
		t.Fatalf("sensitive data leaked: %s", out)
	}
	if !strings.Contains(out, "remote_addr_fp") || !strings.Contains(out, "game_over") {
		t.Fatalf("expected sanitized group, got %s", out)
	}
}

func TestSanitizingHandlerImplementsSlogHandlerContract(t *testing.T) {
	var buf bytes.Buffer
	h := WrapHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("expected handler disabled below warn")
	}
	rec := slog.NewRecord(time.Now().UTC(), slog.LevelWarn, "msg", 0)
	rec.AddAttrs(slog.String("forwarded_for", "198.51.100.9"))
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if !strings.Contains(buf.String(), "forwarded_for_fp") {
		t.Fatalf("expected sanitized forwarded_for key, got %s", buf.String())
	}
	if WrapHandler(nil) != nil {
		t.Fatal("nil handler should stay nil")
	}
}
