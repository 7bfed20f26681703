package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/service"
)

// EmailHandler accepts carrier maintenance emails for processing.
type EmailHandler struct {
	pipeline *service.Pipeline
}

func NewEmailHandler(pipeline *service.Pipeline) *EmailHandler {
	return &EmailHandler{pipeline: pipeline}
}

type processEmailRequest struct {
	Text           string `json:"text" binding:"required"`
	ClientName     string `json:"client_name"`
	CarrierName    string `json:"carrier_name"`
	GenerateNotice bool   `json:"generate_notice"`
}

type processEmailResponse struct {
	Task       *domain.ScheduledTask `json:"task"`
	Created    bool                  `json:"created"`
	Services   []*domain.Service     `json:"services"`
	Pending    []string              `json:"pending,omitempty"`
	Discarded  []string              `json:"discarded,omitempty"`
	NoticeText string                `json:"notice_text,omitempty"`
	NoticePath string                `json:"notice_path,omitempty"`
}

func (h *EmailHandler) Process(c *gin.Context) {
	var req processEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result, err := h.pipeline.ProcessEmail(c.Request.Context(), service.ProcessInput{
		RawText:        req.Text,
		ClientName:     req.ClientName,
		CarrierName:    req.CarrierName,
		GenerateNotice: req.GenerateNotice,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExtractionFailed),
			errors.Is(err, service.ErrUnparseableDate),
			errors.Is(err, service.ErrInvalidWindow):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process email"})
		}
		return
	}

	services := result.Matched
	if services == nil {
		services = []*domain.Service{}
	}
	c.JSON(http.StatusOK, processEmailResponse{
		Task:       result.Task,
		Created:    result.Created,
		Services:   services,
		Pending:    result.Pending,
		Discarded:  result.Discarded,
		NoticeText: result.NoticeText,
		NoticePath: result.NoticePath,
	})
}
