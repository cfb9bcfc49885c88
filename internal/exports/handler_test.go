package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/access"
	"github.com/resourcebook/backend/internal/auth"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/response"
)

type api struct {
	*fixture
	router *gin.Engine
	jwt    *auth.JWTService
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	jwtService := auth.NewJWTService("test-secret", 1)
	h := NewHandler(f.svc)

	r := gin.New()
	g := r.Group("/bookings/exports", middleware.JWT(jwtService), middleware.RequireOperation(access.BookingExport))
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	return &api{fixture: f, router: r, jwt: jwtService}
}

func (a *api) do(t *testing.T, as *models.User, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := a.jwt.Generate(as)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out response.Body
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (a *api) user(t *testing.T, email string, role models.Role, orgID int64) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role, OrganizationID: orgID}
	require.NoError(t, a.store.CreateUser(context.Background(), u))
	return u
}

func TestHandlerCreateExport(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(t, a.manager, http.MethodPost, "/bookings/exports", ExportRequest{Status: "APPROVED"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, body.Success)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "PENDING", data["state"])
	assert.Equal(t, "APPROVED", data["status"])
	require.Len(t, a.jobs.payloads, 1)

	w, _ = a.do(t, a.manager, http.MethodPost, "/bookings/exports", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w, body = a.do(t, a.manager, http.MethodPost, "/bookings/exports", ExportRequest{Status: "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestHandlerCreateExportForbiddenForEmployee(t *testing.T) {
	a := newAPI(t)
	emp := a.user(t, "emp@acme.io", models.RoleEmployee, a.org.ID)

	w, body := a.do(t, emp, http.MethodPost, "/bookings/exports", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body.Code)
	assert.Empty(t, a.jobs.payloads)
}

func TestHandlerGetExport(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()
	e, err := a.svc.Request(ctx, a.org.ID, a.manager.ID, nil)
	require.NoError(t, err)

	w, body := a.do(t, a.manager, http.MethodGet, fmt.Sprintf("/bookings/exports/%d", e.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body.Data.(map[string]interface{})
	assert.Equal(t, "PENDING", data["state"])
	assert.NotContains(t, data, "download_url")

	require.NoError(t, a.svc.Generate(ctx, e.ID))
	w, body = a.do(t, a.manager, http.MethodGet, fmt.Sprintf("/bookings/exports/%d", e.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body.Data.(map[string]interface{})
	assert.Equal(t, "COMPLETED", data["state"])
	assert.Contains(t, data["download_url"], fmt.Sprintf("exports/%d/%d.xlsx", a.org.ID, e.ID))
}

func TestHandlerGetExportScoping(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()
	e, err := a.svc.Request(ctx, a.org.ID, a.manager.ID, nil)
	require.NoError(t, err)

	other := &models.Organization{Name: "globex"}
	require.NoError(t, a.store.CreateOrganization(ctx, other))
	outsider := a.user(t, "mgr@globex.io", models.RoleManager, other.ID)

	w, body := a.do(t, outsider, http.MethodGet, fmt.Sprintf("/bookings/exports/%d", e.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", body.Code)

	w, body = a.do(t, outsider, http.MethodGet, "/bookings/exports/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body.Code)

	w, _ = a.do(t, a.manager, http.MethodGet, "/bookings/exports/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
