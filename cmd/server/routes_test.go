package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/auth"
	"github.com/resourcebook/backend/internal/bookings"
	"github.com/resourcebook/backend/internal/events"
	"github.com/resourcebook/backend/internal/organizations"
	"github.com/resourcebook/backend/internal/realtime"
	"github.com/resourcebook/backend/internal/resources"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/internal/users"
	"github.com/resourcebook/backend/pkg/response"
)

const (
	adminEmail    = "root@resourcebook.io"
	adminPassword = "Adm1n@pass"
)

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memory.New()
	require.NoError(t, auth.Bootstrap(context.Background(), st, auth.Admin{
		Organization: "system", Name: "Root", Email: adminEmail, Password: adminPassword,
	}, nil))

	jwtService := auth.NewJWTService("test-secret", 1)
	userSvc := users.NewService(st, nil)
	h := handlers{
		auth:          auth.NewHandler(st, userSvc, jwtService, nil),
		bookings:      bookings.NewHandler(bookings.NewLifecycle(st, events.Nop{}, nil)),
		resources:     resources.NewHandler(resources.NewService(st, nil)),
		users:         users.NewHandler(userSvc),
		organizations: organizations.NewHandler(organizations.NewService(st, nil)),
		hub:           realtime.NewHub(nil, nil),
	}
	return newRouter(h, jwtService, opts, nil)
}

type client struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *client) do(method, path string, body interface{}) (int, response.Body) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	var out response.Body
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (c *client) login(email, password string) *client {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/auth/login", gin.H{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, code, body.Error)
	token := body.Data.(map[string]interface{})["token"].(string)
	return &client{t: c.t, router: c.router, token: token}
}

func id(t *testing.T, body response.Body) int64 {
	t.Helper()
	v, ok := body.Data.(map[string]interface{})["id"].(float64)
	require.True(t, ok, "response has no id")
	return int64(v)
}

func TestHealthAndMetrics(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 100, loginBurst: 100})}
	code, body := anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)

	code, _ = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 100, loginBurst: 100})}
	for _, path := range []string{"/bookings/1", "/resources", "/users", "/organizations", "/auth/me"} {
		code, _ := anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

func TestBookingJourney(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 100, loginBurst: 100})}
	admin := anon.login(adminEmail, adminPassword)

	code, body := admin.do(http.MethodPost, "/organizations", gin.H{"name": "acme"})
	require.Equal(t, http.StatusCreated, code, body.Error)
	orgID := id(t, body)

	code, body = admin.do(http.MethodPost, fmt.Sprintf("/organizations/%d/managers", orgID),
		gin.H{"name": "Mia", "email": "mia@acme.io", "password": "Mgr1@pass"})
	require.Equal(t, http.StatusCreated, code, body.Error)
	manager := anon.login("mia@acme.io", "Mgr1@pass")

	code, _ = manager.do(http.MethodGet, "/organizations", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = manager.do(http.MethodPost, "/resources", gin.H{"name": "room-1", "organization_id": orgID})
	require.Equal(t, http.StatusCreated, code, body.Error)
	resourceID := id(t, body)

	code, body = manager.do(http.MethodPost, "/users", gin.H{
		"name": "Eve", "email": "eve@acme.io", "password": "Emp1@pass", "role": "EMPLOYEE", "organization_id": orgID,
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	employeeID := id(t, body)
	employee := anon.login("eve@acme.io", "Emp1@pass")

	code, body = employee.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "eve@acme.io", body.Data.(map[string]interface{})["email"])

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	code, body = employee.do(http.MethodPost, "/bookings", gin.H{
		"user_id": employeeID, "resource_id": resourceID, "organization_id": orgID,
		"start_time": start, "end_time": start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	bookingID := id(t, body)

	code, body = manager.do(http.MethodGet, fmt.Sprintf("/resources/%d", resourceID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "DISABLED", body.Data.(map[string]interface{})["status"])

	for _, step := range []string{"approve", "start", "complete"} {
		code, body = manager.do(http.MethodPut, fmt.Sprintf("/bookings/%d/%s", bookingID, step), nil)
		require.Equal(t, http.StatusOK, code, "%s: %s", step, body.Error)
	}
	assert.Equal(t, "COMPLETED", body.Data.(map[string]interface{})["status"])

	code, body = manager.do(http.MethodPut, fmt.Sprintf("/bookings/%d/complete", bookingID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_TRANSITION", body.Code)

	code, body = manager.do(http.MethodGet, fmt.Sprintf("/resources/%d", resourceID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ENABLED", body.Data.(map[string]interface{})["status"])
}

func TestLoginIsRateLimited(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 0.001, loginBurst: 1})}
	creds := gin.H{"email": adminEmail, "password": "wrong"}

	code, _ := anon.do(http.MethodPost, "/auth/login", creds)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body := anon.do(http.MethodPost, "/auth/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestManagerCannotManageAdministrator(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 100, loginBurst: 100})}
	code, body := anon.do(http.MethodPost, "/auth/login", gin.H{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, code)
	admin := &client{t: t, router: anon.router, token: body.Data.(map[string]interface{})["token"].(string)}
	user := body.Data.(map[string]interface{})["user"].(map[string]interface{})
	adminID := int64(user["id"].(float64))
	systemOrg := int64(user["organization_id"].(float64))

	code, body = admin.do(http.MethodPost, fmt.Sprintf("/organizations/%d/managers", systemOrg),
		gin.H{"name": "Sam", "email": "sam@system.io", "password": "Mgr1@pass"})
	require.Equal(t, http.StatusCreated, code, body.Error)
	manager := anon.login("sam@system.io", "Mgr1@pass")

	adminPath := fmt.Sprintf("/users/%d", adminID)
	code, _ = manager.do(http.MethodGet, adminPath, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = manager.do(http.MethodGet, "/users/email/"+adminEmail, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = manager.do(http.MethodPut, adminPath, gin.H{"password": "Pwn3d@pw"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = manager.do(http.MethodPut, adminPath, gin.H{"role": "EMPLOYEE"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = manager.do(http.MethodDelete, adminPath, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = anon.do(http.MethodPost, "/auth/login", gin.H{"email": adminEmail, "password": "Pwn3d@pw"})
	assert.Equal(t, http.StatusUnauthorized, code)
	admin = anon.login(adminEmail, adminPassword)
	code, _ = admin.do(http.MethodGet, "/organizations", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRegisterCreatesEmployee(t *testing.T) {
	anon := &client{t: t, router: newTestRouter(t, routerOptions{loginPerSecond: 100, loginBurst: 100})}
	admin := anon.login(adminEmail, adminPassword)
	code, body := admin.do(http.MethodPost, "/organizations", gin.H{"name": "acme"})
	require.Equal(t, http.StatusCreated, code, body.Error)
	orgID := id(t, body)

	code, body = anon.do(http.MethodPost, "/auth/register", gin.H{
		"name": "Eve", "email": "eve@acme.io", "password": "Emp1@pass", "organization_id": orgID,
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	user := body.Data.(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "EMPLOYEE", user["role"])

	code, body = anon.do(http.MethodPost, "/auth/register", gin.H{
		"name": "Weak", "email": "weak@acme.io", "password": "short", "organization_id": orgID,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION", body.Code)

	employee := anon.login("eve@acme.io", "Emp1@pass")
	code, body = employee.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(orgID), body.Data.(map[string]interface{})["organization_id"])
}
