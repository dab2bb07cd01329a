package invite

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ticketdesk/ticketdesk/internal/httpctx"
	"github.com/ticketdesk/ticketdesk/internal/user"
)

// newHandlerApp wires the handler behind a stub that injects the caller the
// way the authentication stage does, so the endpoint is tested end to end
// without the middleware package.
func newHandlerApp(repo user.Repository, caller *user.User) *fiber.App {
	app := fiber.New()
	app.Post("/admin/generate", func(c *fiber.Ctx) error {
		if caller != nil {
			httpctx.SetCurrentUser(c, *caller)
		}
		return c.Next()
	}, NewHandler(NewEngine(repo)).Generate)
	return app
}

func TestHandlerGenerateReturnsCode(t *testing.T) {
	repo := user.NewMemoryRepository()
	admin := user.User{
		ID:        uuid.New().String(),
		Name:      "Admin",
		Email:     "admin@example.com",
		Role:      user.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), admin))

	app := newHandlerApp(repo, &admin)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/admin/generate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Code, 12)

	owner, err := NewEngine(repo).Validate(context.Background(), body.Code)
	require.NoError(t, err)
	require.NotNil(t, owner)
	require.Equal(t, admin.ID, owner.ID)
}

func TestHandlerGenerateRejectsNonAdmin(t *testing.T) {
	repo := user.NewMemoryRepository()
	regular := user.User{
		ID:        uuid.New().String(),
		Name:      "User",
		Email:     "user@example.com",
		Role:      user.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), regular))

	app := newHandlerApp(repo, &regular)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/admin/generate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandlerGenerateRequiresAuthentication(t *testing.T) {
	app := newHandlerApp(user.NewMemoryRepository(), nil)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/admin/generate", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
