package routes

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/config"
)

func TestSetupLogsRequestLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	cfg := config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logger}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Request-ID", "req-audit-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := buf.String()
	if !strings.Contains(out, "request completed") {
		t.Fatalf("expected request log line, got %q", out)
	}
	if !strings.Contains(out, "req-audit-1") {
		t.Fatalf("expected request id in log line, got %q", out)
	}
}
