package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk-api/pkg/auth"
)

// GetClaims returns the session claims the guard stored, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
