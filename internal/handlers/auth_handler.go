package handlers

import (
	"log/slog"
	"net/http"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (a *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	authGr := public.Group("/auth")
	authGr.POST("/signup", a.Signup)
	authGr.POST("/login", a.Login)

	protected.POST("/auth/logout", a.Logout)
	protected.GET("/auth/me", a.Me)
}

func (a *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}

	user, err := a.auth.Signup(c.Request.Context(), req)
	if err != nil {
		slog.Info("signup rejected", "email", req.Email, "error", err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(user))
}

// Login handles user authentication
func (a *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}

	resp, err := a.auth.Login(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		slog.Info("login failed", "email", req.Email, "error", err)
		respondServiceError(c, err)
		return
	}

	slog.Info("successful login", "user_id", resp.User.ID, "role", resp.User.Role)
	utils.RespondOK(c, resp)
}

func (a *AuthHandler) Logout(c *gin.Context) {
	if err := a.auth.Logout(c.Request.Context(), sessionIDFrom(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"logged_out": true})
}

func (a *AuthHandler) Me(c *gin.Context) {
	user, err := a.auth.Me(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, user)
}
