package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk-api/internal/model"
	authService "github.com/jwalitptl/clinic-desk-api/internal/service/auth"
)

// Context keys set by the session guard.
const (
	ContextClaims = "claims"
)

// AuthMiddleware is the session guard: it verifies the bearer token
// and checks the embedded role claim against the workflow's expected
// role before any handler runs.
type AuthMiddleware struct {
	authService authService.AuthService
}

func NewAuthMiddleware(authService authService.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate verifies the JWT and stores its claims in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole denies the request when the session's role claim does
// not match the role the workflow expects.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		if model.Role(claims.Role) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access restricted to " + string(role) + " accounts"})
			return
		}

		c.Next()
	}
}
