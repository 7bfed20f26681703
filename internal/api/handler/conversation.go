package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/repository"
)

// ConversationHandler records and replays assistant exchanges.
type ConversationHandler struct {
	catalog *repository.CatalogRepository
}

func NewConversationHandler(catalog *repository.CatalogRepository) *ConversationHandler {
	return &ConversationHandler{catalog: catalog}
}

type logConversationRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
	Reply   string `json:"reply"`
	Mode    string `json:"mode"`
}

func (h *ConversationHandler) Log(c *gin.Context) {
	var req logConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and message are required"})
		return
	}

	conv := &domain.Conversation{
		UserID:  req.UserID,
		Message: req.Message,
		Reply:   req.Reply,
		Mode:    req.Mode,
	}
	if err := h.catalog.LogConversation(c.Request.Context(), conv); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log conversation"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) Recent(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	convs, err := h.catalog.RecentConversations(c.Request.Context(), userID, limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs, "count": len(convs)})
}
