package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-catalog-ws/internal/middleware"
	"go-catalog-ws/internal/model"
	"go-catalog-ws/internal/repository"
	"go-catalog-ws/internal/service"
	"go-catalog-ws/internal/testutil"
	"go-catalog-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testutil.NewTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	privileges := repository.NewPrivilegeRepo(db)
	roles := repository.NewRoleRepo(db)
	users := repository.NewUserRepo(db)
	require.NoError(t, service.SeedAccessControl(ctx, privileges, roles, users, service.AdminSeed{
		Username: "admin", Email: "admin@example.com", Password: "admin123",
	}))

	tokens := jwt.NewManager("handler-secret", time.Hour)
	authHandler := NewAuthHandler(service.NewAuthService(users, roles, tokens))
	userHandler := NewUserHandler(service.NewUserService(users, privileges, nil))
	roleHandler := NewRoleHandler(roles, privileges)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api/v1")
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/validate-token", authHandler.ValidateToken)

	protected := api.Group("", middleware.RequireAuth(tokens, users))
	protected.Get("/users/me", userHandler.GetMe)
	protected.Get("/users", middleware.RequirePrivilege(model.PrivilegeUserView), userHandler.GetUsers)
	protected.Get("/roles", middleware.RequireAnyPrivilege(model.PrivilegeUserView), roleHandler.GetRoles)
	return app
}

func sendJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := newAuthApp(t)

	status, body := sendJSON(t, app, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"jane","email":"jane@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "CUSTOMER", body["payload"].(map[string]interface{})["role"])

	status, _ = sendJSON(t, app, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"jane","email":"jane2@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, status)

	status, body = sendJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", `{"username":"jane","password":"secret1"}`)
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)

	status, body = sendJSON(t, app, http.MethodGet, "/api/v1/users/me", token, "")
	require.Equal(t, http.StatusOK, status, body)
	me := body["payload"].(map[string]interface{})
	assert.Equal(t, "jane", me["username"])
	assert.Equal(t, []interface{}{}, me["liked"])

	status, body = sendJSON(t, app, http.MethodPost, "/api/v1/auth/validate-token", token, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["valid"])

	status, _ = sendJSON(t, app, http.MethodGet, "/api/v1/users", token, "")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestLoginFailuresAndAdminAccess(t *testing.T) {
	app := newAuthApp(t)

	status, body := sendJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", body["message"])

	status, _ = sendJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = sendJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", `{"email":"admin@example.com","password":"admin123"}`)
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)

	status, body = sendJSON(t, app, http.MethodGet, "/api/v1/users", token, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 1.0, body["total"])

	status, body = sendJSON(t, app, http.MethodGet, "/api/v1/roles", token, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["payload"], len(model.DefaultRoles))

	status, _ = sendJSON(t, app, http.MethodPost, "/api/v1/auth/validate-token", "", `{"token":"bogus"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}
