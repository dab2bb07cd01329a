package auth

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Config{JWTSecret: "test-secret", JWTTTL: time.Hour}
	h := NewHandler(NewService(cfg, user.NewMemoryRepository()))

	app := fiber.New()
	app.Post("/auth/signup", h.SignUp)
	app.Post("/auth/signin", h.SignIn)
	app.Post("/auth/logout", h.SignOut)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func TestSignUpEndpoint(t *testing.T) {
	app := setupAuthApp(t)

	status, payload := post(t, app, "/auth/signup", `{"name":"Alice","email":"a@x.com","password":"secret1"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if payload["token"] == "" || payload["token"] == nil {
		t.Fatalf("expected token in response")
	}
	u, _ := payload["user"].(map[string]any)
	if u["role"] != "admin" {
		t.Fatalf("expected first user to be admin, got %v", u["role"])
	}

	// Duplicate email conflicts.
	status, _ = post(t, app, "/auth/signup", `{"name":"Alice","email":"a@x.com","password":"secret1"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}

	// Bogus invitation code is a 400.
	status, _ = post(t, app, "/auth/signup", `{"name":"Eve","email":"e@x.com","password":"secret1","invitationCode":"bogus"}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestSignInEndpoint(t *testing.T) {
	app := setupAuthApp(t)

	if status, _ := post(t, app, "/auth/signup", `{"name":"Bob","email":"b@x.com","password":"secret1"}`); status != fiber.StatusCreated {
		t.Fatalf("signup failed with %d", status)
	}

	status, _ := post(t, app, "/auth/signin", `{"email":"b@x.com","password":"secret1"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	status, _ = post(t, app, "/auth/signin", `{"email":"b@x.com","password":"wrong"}`)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	status, _ = post(t, app, "/auth/signin", `{"email":"nobody@x.com","password":"secret1"}`)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	app := setupAuthApp(t)

	status, _ := post(t, app, "/auth/logout", `{}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}
