package handlers

import (
	"net/http"

	"bantayani/internal/models"
	utils "bantayani/shared/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messages MessageAPI
	devices  DeviceAPI
}

func NewMessageHandler(messages MessageAPI, devices DeviceAPI) *MessageHandler {
	return &MessageHandler{messages: messages, devices: devices}
}

func (h *MessageHandler) RegisterRoutes(protected *gin.RouterGroup) {
	gr := protected.Group("/messages")
	gr.POST("", h.Send)
	gr.GET("", h.List)
	gr.GET("/unread-count", h.UnreadCount)
	gr.POST("/:id/read", h.MarkRead)

	protected.POST("/devices", h.RegisterDevice)
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}
	m, err := h.messages.Send(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(m))
}

// List returns one conversation when ?with= is set, otherwise the caller's inbox and outbox.
func (h *MessageHandler) List(c *gin.Context) {
	var with *uuid.UUID
	if raw := c.Query("with"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondBadRequest(c, "invalid with")
			return
		}
		with = &id
	}

	list, err := h.messages.List(c.Request.Context(), callerFrom(c), with)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	utils.RespondOK(c, list)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), callerFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"id": id, "is_read": true})
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadCount(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"unread": n})
}

func (h *MessageHandler) RegisterDevice(c *gin.Context) {
	var req models.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format")
		return
	}
	if err := h.devices.Register(c.Request.Context(), callerFrom(c), req.Token); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondOK(c, gin.H{"registered": true})
}
