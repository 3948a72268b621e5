package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
)

type mapStorage struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *mapStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mapStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func newSessionRouter(t *testing.T) (*gin.Engine, *service.SessionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService(&mapStorage{values: map[string]string{}}, nil, nil)

	r := gin.New()
	r.Use(CookieSessions("cc_client", "test-secret", time.Hour, false), ClientKey(), Session(sessions))
	r.POST("/select/:role", func(c *gin.Context) {
		_, err := HolderFrom(c).SelectRole(c.Request.Context(), models.UserRole(c.Param("role")))
		require.NoError(t, err)
		c.String(http.StatusOK, service.ClientKeyFrom(c.Request.Context()))
	})
	r.GET("/any", RequireSession(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/teacher", RequireRoles(models.RoleTeacher), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, sessions
}

func serve(r *gin.Engine, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionMiddlewareRoleGates(t *testing.T) {
	r, _ := newSessionRouter(t)

	rec := serve(r, http.MethodGet, "/any", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/select/student", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	clientKey := rec.Body.String()
	assert.NotEqual(t, service.AnonymousClient, clientKey)

	rec = serve(r, http.MethodGet, "/any", cookies)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(r, http.MethodGet, "/teacher", cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClientKeyIsStableAcrossRequests(t *testing.T) {
	r, _ := newSessionRouter(t)

	first := serve(r, http.MethodPost, "/select/teacher", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := serve(r, http.MethodPost, "/select/teacher", first.Result().Cookies())
	assert.Equal(t, first.Body.String(), second.Body.String())

	rec := serve(r, http.MethodGet, "/teacher", first.Result().Cookies())
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
