package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/api/handler"
	"github.com/ventanaops/ventana/internal/api/middleware"
	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/repository"
	"github.com/ventanaops/ventana/internal/service"
)

// NewRouter wires the HTTP surface.
func NewRouter(cfg *config.ServerConfig, db *gorm.DB, pipeline *service.Pipeline) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))

	tasks := repository.NewTaskRepository(db)
	services := repository.NewServiceRepository(db)
	catalog := repository.NewCatalogRepository(db)
	incidents := repository.NewIncidentRepository(db)

	healthHandler := handler.NewHealthHandler(db)
	emailHandler := handler.NewEmailHandler(pipeline)
	taskHandler := handler.NewTaskHandler(tasks)
	serviceHandler := handler.NewServiceHandler(services, catalog, tasks)
	incidentHandler := handler.NewIncidentHandler(incidents)
	clientHandler := handler.NewClientHandler(catalog, services)
	conversationHandler := handler.NewConversationHandler(catalog)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/emails/process", emailHandler.Process)

		v1.GET("/tasks", taskHandler.ListUpcoming)
		v1.GET("/tasks/next", taskHandler.Next)
		v1.GET("/tasks/:id", taskHandler.Get)
		v1.DELETE("/tasks/:id", taskHandler.Delete)

		v1.POST("/services", serviceHandler.Register)
		v1.GET("/services", serviceHandler.List)
		v1.GET("/services/search/camera", serviceHandler.SearchByCamera)
		v1.POST("/services/purge-duplicates", serviceHandler.PurgeDuplicates)
		v1.GET("/services/:id", serviceHandler.Get)
		v1.GET("/services/:id/tasks", serviceHandler.Tasks)
		v1.POST("/services/:id/tracking", serviceHandler.Tracking)
		v1.POST("/services/:id/incidents", incidentHandler.Create)
		v1.GET("/services/:id/incidents", incidentHandler.List)
		v1.POST("/services/:id/accesses", incidentHandler.LogAccess)
		v1.GET("/services/:id/accesses", incidentHandler.ListAccesses)

		v1.POST("/incidents/purge-duplicates", incidentHandler.PurgeDuplicates)

		v1.GET("/clients", clientHandler.Find)
		v1.GET("/clients/:id/recipients", clientHandler.Recipients)
		v1.PUT("/clients/:id/recipients", clientHandler.SetRecipients)
		v1.GET("/clients/:id/services", clientHandler.Services)

		v1.POST("/conversations", conversationHandler.Log)
		v1.GET("/conversations", conversationHandler.Recent)
	}

	return r
}
