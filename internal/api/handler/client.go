package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ventanaops/ventana/internal/repository"
)

// ClientHandler manages clients and their notification recipients.
type ClientHandler struct {
	catalog  *repository.CatalogRepository
	services *repository.ServiceRepository
}

func NewClientHandler(catalog *repository.CatalogRepository, services *repository.ServiceRepository) *ClientHandler {
	return &ClientHandler{catalog: catalog, services: services}
}

// Find returns the client with the given name.
func (h *ClientHandler) Find(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	client, err := h.catalog.GetClientByName(c.Request.Context(), name)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up client"})
		return
	}
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, client)
}

// Recipients returns the notification addresses of a client, optionally
// narrowed to the list configured for one carrier.
func (h *ClientHandler) Recipients(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}
	recipients, err := h.catalog.Recipients(c.Request.Context(), id, c.Query("carrier"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipients"})
		return
	}
	if recipients == nil {
		recipients = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

type setRecipientsRequest struct {
	Carrier    string   `json:"carrier"`
	Recipients []string `json:"recipients"`
}

// SetRecipients replaces the recipient list of a client. With a carrier the
// carrier-specific list is replaced; an empty list removes it.
func (h *ClientHandler) SetRecipients(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}
	var req setRecipientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.catalog.SetRecipients(c.Request.Context(), id, req.Carrier, req.Recipients); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// Services returns the catalog entries of a client.
func (h *ClientHandler) Services(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return
	}
	services, err := h.services.ListByClient(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services, "count": len(services)})
}
