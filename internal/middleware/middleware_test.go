package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store/memstore"
)

type staticTokens map[string]int64

func (s staticTokens) ValidateToken(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(staticTokens{"good": 5}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := do(r, "Bearer good")
	assert.JSONEq(t, `{"userId":5}`, w.Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	customer := &models.User{Email: "c@example.com", Role: models.RoleUser}
	admin := &models.User{Email: "a@example.com", Role: models.RoleAdmin}
	require.NoError(t, st.CreateUser(ctx, customer))
	require.NoError(t, st.CreateUser(ctx, admin))

	r := newRouter(AuthMiddleware(staticTokens{"customer": customer.ID, "admin": admin.ID, "ghost": 99}), AdminMiddleware(st))

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer customer").Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer admin").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer ghost").Code)
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := newRouter(RequestLogger(logger))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}
