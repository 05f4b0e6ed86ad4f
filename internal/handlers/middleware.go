package handlers

import (
	"net/http"
	"strings"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxCaller    = "caller"
	ctxSessionID = "session_id"
)

type Middleware struct {
	auth Authenticator
}

func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth resolves the bearer token into a caller and stores it on the
// gin context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, CodeUnauthorized, "authorization header required")
			return
		}

		caller, claims, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.Set(ctxCaller, caller)
		c.Set(ctxSessionID, claims.SessionID)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if callerFrom(c).Role != role {
			utils.RespondError(c, http.StatusForbidden, CodeForbidden, string(role)+" role required")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		// browsers cannot set headers on websocket upgrades
		return c.Query("access_token")
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func callerFrom(c *gin.Context) models.Caller {
	if v, ok := c.Get(ctxCaller); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
