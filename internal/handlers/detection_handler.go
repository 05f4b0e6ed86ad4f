package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

type DetectionHandler struct {
	detections DetectionAPI
}

func NewDetectionHandler(detections DetectionAPI) *DetectionHandler {
	return &DetectionHandler{detections: detections}
}

func (h *DetectionHandler) RegisterRoutes(protected *gin.RouterGroup) {
	gr := protected.Group("/detections")
	gr.POST("", RequireRole(models.RoleFarmer), h.Create)
	gr.GET("", h.List)
	gr.GET("/stats", h.Stats)
	gr.GET("/map", h.Map)
	gr.GET("/export", RequireRole(models.RoleLGUAdmin), h.Export)
	gr.GET("/:id", h.Get)
	gr.PATCH("/:id/status", h.Transition)
	gr.POST("/:id/request-info", h.RequestInfo)
}

// Create accepts a multipart form with one photo in the "image" field.
func (h *DetectionHandler) Create(c *gin.Context) {
	in, err := parseCreateForm(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	d, err := h.detections.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(d))
}

func parseCreateForm(c *gin.Context) (models.CreateDetectionInput, error) {
	var in models.CreateDetectionInput
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		return in, fmt.Errorf("image file is required")
	}
	if file.Size > maxImageBytes {
		return in, fmt.Errorf("image exceeds %d MB", maxImageBytes>>20)
	}
	f, err := file.Open()
	if err != nil {
		return in, fmt.Errorf("failed to open image")
	}
	defer f.Close()
	if in.Image, err = io.ReadAll(io.LimitReader(f, maxImageBytes)); err != nil {
		return in, fmt.Errorf("failed to read image")
	}

	in.PestType = c.PostForm("pest_type")
	in.CropType = c.PostForm("crop_type")
	in.ScientificName = optionalForm(c, "scientific_name")
	in.LocationName = optionalForm(c, "location_name")
	in.FarmerNotes = optionalForm(c, "farmer_notes")

	if raw := strings.TrimSpace(c.PostForm("confidence")); raw != "" {
		if in.Confidence, err = strconv.ParseFloat(raw, 64); err != nil {
			return in, fmt.Errorf("invalid confidence")
		}
	}
	if in.Latitude, err = utils.ParseOptionalFloat(strings.TrimSpace(c.PostForm("latitude"))); err != nil {
		return in, fmt.Errorf("invalid latitude")
	}
	if in.Longitude, err = utils.ParseOptionalFloat(strings.TrimSpace(c.PostForm("longitude"))); err != nil {
		return in, fmt.Errorf("invalid longitude")
	}
	if raw := strings.TrimSpace(c.PostForm("farm_id")); raw != "" {
		slot, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("invalid farm_id")
		}
		in.FarmID = &slot
	}
	return in, nil
}

func optionalForm(c *gin.Context, key string) *string {
	v := c.PostForm(key)
	return utils.TrimPtr(&v)
}

func filterFromQuery(c *gin.Context) models.DetectionFilter {
	return models.DetectionFilter{
		Status:   models.DetectionStatus(strings.TrimSpace(c.Query("status"))),
		CropType: strings.TrimSpace(c.Query("crop_type")),
	}
}

func (h *DetectionHandler) List(c *gin.Context) {
	views, err := h.detections.List(c.Request.Context(), callerFrom(c), filterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if views == nil {
		views = []models.DetectionView{}
	}
	utils.RespondOK(c, views)
}

func (h *DetectionHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.detections.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, view)
}

func (h *DetectionHandler) Stats(c *gin.Context) {
	stats, err := h.detections.Stats(c.Request.Context(), callerFrom(c), filterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, stats)
}

// Map writes a bare GeoJSON FeatureCollection so map clients can load it directly.
func (h *DetectionHandler) Map(c *gin.Context) {
	fc, err := h.detections.Map(c.Request.Context(), callerFrom(c), filterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *DetectionHandler) Export(c *gin.Context) {
	data, err := h.detections.Export(c.Request.Context(), callerFrom(c), filterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("detections_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *DetectionHandler) Transition(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}

	d, err := h.detections.Transition(c.Request.Context(), callerFrom(c), id, req.Status, req.Note)
	if err != nil {
		slog.Info("transition rejected", "detection_id", id, "status", req.Status, "error", err)
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, d)
}

func (h *DetectionHandler) RequestInfo(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.RequestInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}

	m, err := h.detections.RequestInfo(c.Request.Context(), callerFrom(c), id, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(m))
}
