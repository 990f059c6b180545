// Package logger provides security-event logging for the comms backend.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// SecurityLogger emits structured security events. Credentials, signatures
// and session material never reach the log stream; free-form detail maps
// are redacted before emission.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a SecurityLogger writing JSON to stdout.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{logger: slog.New(handler)}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger with a custom handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler)}
}

// emit writes a single warn-level event with the shared envelope fields.
func (s *SecurityLogger) emit(msg, eventType, ip string, attrs ...any) {
	base := []any{
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}
	s.logger.Warn(msg, append(base, attrs...)...)
}

// AuthFailure records a rejected API-key attempt. The presented
// credential is never included.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.emit("authentication_failure", "auth_failure", ip,
		slog.String("path", path),
		slog.String("reason", reason),
	)
}

// RateLimitExceeded records a client pushed past its token bucket.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.emit("rate_limit_exceeded", "rate_limit", ip,
		slog.String("path", path),
	)
}

// WebhookRejected records a webhook delivery that failed signature or
// replay-window checks. The payload and signature are never logged.
func (s *SecurityLogger) WebhookRejected(ip, companyID, reason string) {
	s.emit("webhook_rejected", "webhook_rejected", ip,
		slog.String("company_id", companyID),
		slog.String("reason", reason),
	)
}

// InvalidOrigin records a WebSocket upgrade refused for its Origin header.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.emit("invalid_origin", "invalid_origin", ip,
		slog.String("origin", origin),
	)
}

// SecurityEvent records an arbitrary event with caller-supplied details.
// Keys that look like credential material are dropped.
func (s *SecurityLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := make([]any, 0, len(details))
	for k, v := range details {
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}
	s.emit("security_event", eventType, ip, attrs...)
}

// sensitiveMarkers are substrings that flag a detail key as credential
// material. Matching is case-insensitive.
var sensitiveMarkers = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"auth",
	"credential",
	"session",
	"cookie",
	"signature",
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}
