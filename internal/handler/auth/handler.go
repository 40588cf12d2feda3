package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-desk-api/internal/handler"
	"github.com/jwalitptl/clinic-desk-api/internal/middleware"
	"github.com/jwalitptl/clinic-desk-api/internal/model"
	authService "github.com/jwalitptl/clinic-desk-api/internal/service/auth"
)

type Handler struct {
	service authService.AuthService
}

func NewHandler(service authService.AuthService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard *middleware.AuthMiddleware) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/logout", guard.Authenticate(), h.Logout)
		auth.GET("/profile", guard.Authenticate(), h.Profile)
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

// Logout exists for interface parity with the dashboards' sign-out
// action. Sessions are stateless JWTs, the client discards the token.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"logged_out": true}))
}

func (h *Handler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
		return
	}

	user := h.service.Profile(c.Request.Context(), claims)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}
