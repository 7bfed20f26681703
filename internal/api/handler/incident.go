package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ventanaops/ventana/internal/domain"
	"github.com/ventanaops/ventana/internal/repository"
)

// IncidentHandler exposes incidents and camera access logs.
type IncidentHandler struct {
	incidents *repository.IncidentRepository
}

func NewIncidentHandler(incidents *repository.IncidentRepository) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

type createIncidentRequest struct {
	Number              string     `json:"number" binding:"required"`
	OpenedAt            *time.Time `json:"opened_at"`
	ClosedAt            *time.Time `json:"closed_at"`
	SolutionType        string     `json:"solution_type"`
	SolutionDescription string     `json:"solution_description"`
	Description         string     `json:"description"`
}

// Create records an incident on a service, refreshing the stored row when
// the incident number was already reported.
func (h *IncidentHandler) Create(c *gin.Context) {
	serviceID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	var req createIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number is required"})
		return
	}

	inc, created, err := h.incidents.CreateIncident(c.Request.Context(), &domain.Incident{
		ServiceID:           serviceID,
		Number:              req.Number,
		OpenedAt:            req.OpenedAt,
		ClosedAt:            req.ClosedAt,
		SolutionType:        req.SolutionType,
		SolutionDescription: req.SolutionDescription,
		Description:         req.Description,
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record incident"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, inc)
}

// PurgeDuplicates removes incidents reported twice under one number.
func (h *IncidentHandler) PurgeDuplicates(c *gin.Context) {
	removed, err := h.incidents.PurgeDuplicateIncidents(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge duplicates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// List returns the incidents of a service, newest first.
func (h *IncidentHandler) List(c *gin.Context) {
	serviceID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	incidents, err := h.incidents.ListIncidents(c.Request.Context(), serviceID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list incidents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents, "count": len(incidents)})
}

type logAccessRequest struct {
	Camera string `json:"camera"`
	User   string `json:"user" binding:"required"`
}

// LogAccess records that a user consulted a camera of a service.
func (h *IncidentHandler) LogAccess(c *gin.Context) {
	serviceID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	var req logAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}

	access, err := h.incidents.LogAccess(c.Request.Context(), serviceID, req.Camera, req.User)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log access"})
		return
	}
	c.JSON(http.StatusCreated, access)
}

// ListAccesses returns the camera access log of a service, newest first.
func (h *IncidentHandler) ListAccesses(c *gin.Context) {
	serviceID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	accesses, err := h.incidents.ListAccesses(c.Request.Context(), serviceID, limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list accesses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accesses": accesses, "count": len(accesses)})
}
