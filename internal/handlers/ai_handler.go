package handlers

import (
	"errors"
	"net/http"

	"bantayani/internal/models"

	"github.com/gin-gonic/gin"
)

// maxIdentifyBodyBytes fits a base64-encoded 10 MiB photo plus the JSON envelope.
const maxIdentifyBodyBytes = 14 << 20

type AIHandler struct {
	identify IdentifyAPI
}

func NewAIHandler(identify IdentifyAPI) *AIHandler {
	return &AIHandler{identify: identify}
}

func (h *AIHandler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/ai/identify", h.Identify)
}

// Identify always answers 200 once the body parses; model failures are
// reported in the body as success:false.
func (h *AIHandler) Identify(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxIdentifyBodyBytes)

	var req models.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.IdentifyResponse{Success: false, Error: "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, models.IdentifyResponse{Success: false, Error: "Invalid request format"})
		return
	}
	c.JSON(http.StatusOK, h.identify.Identify(c.Request.Context(), req))
}
