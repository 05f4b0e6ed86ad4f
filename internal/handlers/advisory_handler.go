package handlers

import (
	"net/http"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
)

type AdvisoryHandler struct {
	advisories AdvisoryAPI
}

func NewAdvisoryHandler(advisories AdvisoryAPI) *AdvisoryHandler {
	return &AdvisoryHandler{advisories: advisories}
}

func (h *AdvisoryHandler) RegisterRoutes(protected *gin.RouterGroup) {
	gr := protected.Group("/advisories")
	gr.GET("", h.List)
	gr.POST("", RequireRole(models.RoleLGUAdmin), h.Create)
	gr.PUT("/:id", RequireRole(models.RoleLGUAdmin), h.Update)
}

func (h *AdvisoryHandler) List(c *gin.Context) {
	list, err := h.advisories.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Advisory{}
	}
	utils.RespondOK(c, list)
}

func (h *AdvisoryHandler) Create(c *gin.Context) {
	var req models.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}
	a, err := h.advisories.Create(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(a))
}

func (h *AdvisoryHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}
	a, err := h.advisories.Update(c.Request.Context(), callerFrom(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, a)
}
