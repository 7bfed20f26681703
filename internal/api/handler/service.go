package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ventanaops/ventana/internal/repository"
)

// ServiceHandler exposes the service catalog.
type ServiceHandler struct {
	services *repository.ServiceRepository
	catalog  *repository.CatalogRepository
	tasks    *repository.TaskRepository
}

func NewServiceHandler(
	services *repository.ServiceRepository,
	catalog *repository.CatalogRepository,
	tasks *repository.TaskRepository,
) *ServiceHandler {
	return &ServiceHandler{services: services, catalog: catalog, tasks: tasks}
}

type registerServiceRequest struct {
	ID          uint    `json:"id" binding:"required"`
	Name        *string `json:"name"`
	ClientName  *string `json:"client_name"`
	CarrierName *string `json:"carrier_name"`
	CarrierCode *string `json:"carrier_code"`
}

// Register creates or updates a service under its operations id. Client and
// carrier rows are created on demand so a registration never fails on an
// unknown name.
func (h *ServiceHandler) Register(c *gin.Context) {
	var req registerServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	ctx := c.Request.Context()

	params := repository.RegisterParams{
		Name:        req.Name,
		ClientName:  req.ClientName,
		CarrierName: req.CarrierName,
		CarrierCode: req.CarrierCode,
	}
	if req.ClientName != nil && *req.ClientName != "" {
		client, err := h.catalog.GetOrCreateClient(ctx, *req.ClientName)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve client"})
			return
		}
		params.ClientID = &client.ID
	}
	if req.CarrierName != nil && *req.CarrierName != "" {
		carrier, err := h.catalog.GetOrCreateCarrier(ctx, *req.CarrierName)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve carrier"})
			return
		}
		params.CarrierID = &carrier.ID
	}

	svc, created, err := h.services.Register(ctx, req.ID, params)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register service"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, svc)
}

// Get returns one service by operations id.
func (h *ServiceHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	svc, err := h.services.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load service"})
		return
	}
	if svc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	c.JSON(http.StatusOK, svc)
}

// List returns the whole service catalog ordered by id.
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.services.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services, "count": len(services)})
}

// Tasks returns the maintenance tasks linked to a service.
func (h *ServiceHandler) Tasks(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	tasks, err := h.tasks.TasksForService(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// SearchByCamera finds services whose camera list mentions the given name.
func (h *ServiceHandler) SearchByCamera(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	exact, _ := strconv.ParseBool(c.DefaultQuery("exact", "false"))

	services, err := h.services.SearchByCamera(c.Request.Context(), name, exact)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services, "count": len(services)})
}

type trackingRequest struct {
	Path    string   `json:"path" binding:"required"`
	Kind    string   `json:"kind"`
	Cameras []string `json:"cameras"`
}

// Tracking records a tracking-file upload for a service and returns the
// camera diff against the previous upload.
func (h *ServiceHandler) Tracking(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
		return
	}
	var req trackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	entry, err := h.services.AppendTracking(c.Request.Context(), id, req.Path, req.Kind, req.Cameras)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record tracking"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PurgeDuplicates removes catalog rows duplicated by name and client.
func (h *ServiceHandler) PurgeDuplicates(c *gin.Context) {
	removed, err := h.services.PurgeDuplicates(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge duplicates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
