package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/testutil"
	"go-catalog-ws/pkg/errs"
	"go-catalog-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorStatus(c *fiber.Ctx, err error) error {
	return c.Status(errs.GetErrorStatusCode(err)).SendString(err.Error())
}

func setupAuthApp(t *testing.T) (*fiber.App, *jwt.Manager, repository.UserRepository, *model.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepo(db)
	tokens := jwt.NewManager("middleware-secret", time.Hour)

	user := &model.User{Username: "jane", Email: "jane@example.com", Password: "x", IsActive: true, TokenVersion: "v1"}
	require.NoError(t, users.Create(context.Background(), user))

	app := fiber.New(fiber.Config{ErrorHandler: errorStatus})
	app.Use(RequestLogger())
	app.Get("/private", RequireAuth(tokens, users), RequirePrivilege(model.PrivilegeProductLike), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalUsername).(string))
	})
	app.Get("/any", RequireAuth(tokens, users), RequireAnyPrivilege(model.PrivilegeUserView, model.PrivilegeProductLike), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, tokens, users, user
}

func get(t *testing.T, app *fiber.App, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireAuth(t *testing.T) {
	app, tokens, users, user := setupAuthApp(t)

	token, err := tokens.GenerateToken(user.ID, user.Username, model.RoleCustomer, []string{model.PrivilegeProductLike}, "v1")
	require.NoError(t, err)

	resp := get(t, app, "/private", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	assert.Equal(t, http.StatusNoContent, get(t, app, "/any", "Bearer "+token).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/private", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/private", "Token "+token).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/private", "Bearer garbage").StatusCode)

	require.NoError(t, users.UpdateTokenVersion(context.Background(), user.ID, "v2"))
	assert.Equal(t, http.StatusUnauthorized, get(t, app, "/private", "Bearer "+token).StatusCode)
}

func TestRequirePrivilegeRejectsMissingPrivilege(t *testing.T) {
	app, tokens, _, user := setupAuthApp(t)

	token, err := tokens.GenerateToken(user.ID, user.Username, model.RoleCustomer, []string{"something:else"}, "v1")
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(t, app, "/private", "Bearer "+token).StatusCode)
	assert.Equal(t, http.StatusForbidden, get(t, app, "/any", "Bearer "+token).StatusCode)
}

func TestRequireAuthRejectsInactiveUser(t *testing.T) {
	app, tokens, users, user := setupAuthApp(t)

	user.IsActive = false
	require.NoError(t, users.Update(context.Background(), user))

	token, err := tokens.GenerateToken(user.ID, user.Username, model.RoleCustomer, []string{model.PrivilegeProductLike}, "v1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(t, app, "/private", "Bearer "+token).StatusCode)
}
