package handlers

import (
	"net/http"
	"strconv"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
)

type FarmHandler struct {
	farms FarmAPI
}

func NewFarmHandler(farms FarmAPI) *FarmHandler {
	return &FarmHandler{farms: farms}
}

func (h *FarmHandler) RegisterRoutes(protected *gin.RouterGroup) {
	gr := protected.Group("/farms", RequireRole(models.RoleFarmer))
	gr.GET("", h.List)
	gr.PUT("/:slot", h.Save)
	gr.DELETE("/:slot", h.Delete)
}

func (h *FarmHandler) List(c *gin.Context) {
	farms, err := h.farms.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if farms == nil {
		farms = []models.Farm{}
	}
	utils.RespondOK(c, farms)
}

func (h *FarmHandler) Save(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		respondBadRequest(c, "invalid slot")
		return
	}
	var req models.FarmUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}

	farm, err := h.farms.Save(c.Request.Context(), callerFrom(c), slot, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, farm)
}

func (h *FarmHandler) Delete(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		respondBadRequest(c, "invalid slot")
		return
	}
	if err := h.farms.Delete(c.Request.Context(), callerFrom(c), slot); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
