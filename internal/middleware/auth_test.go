package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	"github.com/jwalitptl/clinic-desk-api/pkg/auth"
)

type stubAuthService struct {
	jwt auth.JWTService
}

func (s *stubAuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	return nil, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*model.TokenResponse, error) {
	return nil, nil
}

func (s *stubAuthService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.jwt.ValidateToken(token)
}

func (s *stubAuthService) Profile(ctx context.Context, claims *auth.Claims) *model.User {
	return &model.User{ID: claims.UserID, Role: model.Role(claims.Role)}
}

func newGuardedRouter(t *testing.T) (*gin.Engine, auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtSvc := auth.NewJWTService("test-secret", time.Hour, "clinic-desk-test")
	guard := NewAuthMiddleware(&stubAuthService{jwt: jwtSvc})

	engine := gin.New()
	doctor := engine.Group("/doctor", guard.Authenticate(), guard.RequireRole(model.RoleDoctor))
	doctor.GET("/queue", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine, jwtSvc
}

func request(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/doctor/queue", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestGuardDeniesMissingIdentity(t *testing.T) {
	engine, _ := newGuardedRouter(t)
	w := request(engine, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardDeniesInvalidToken(t *testing.T) {
	engine, _ := newGuardedRouter(t)
	w := request(engine, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardDeniesMismatchedRoleClaim(t *testing.T) {
	engine, jwtSvc := newGuardedRouter(t)

	// Receptionist claim on a doctor workflow must be denied, not rendered.
	token, err := jwtSvc.GenerateToken(uuid.New(), "desk@example.com", "receptionist")
	require.NoError(t, err)

	w := request(engine, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGuardPermitsMatchingRoleClaim(t *testing.T) {
	engine, jwtSvc := newGuardedRouter(t)

	token, err := jwtSvc.GenerateToken(uuid.New(), "doc@example.com", "doctor")
	require.NoError(t, err)

	w := request(engine, token)
	assert.Equal(t, http.StatusOK, w.Code)
}
