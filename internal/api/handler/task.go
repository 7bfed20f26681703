package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ventanaops/ventana/internal/repository"
)

// TaskHandler exposes scheduled maintenance tasks.
type TaskHandler struct {
	tasks *repository.TaskRepository
}

func NewTaskHandler(tasks *repository.TaskRepository) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListUpcoming returns tasks whose window has not closed yet, soonest first.
func (h *TaskHandler) ListUpcoming(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	tasks, err := h.tasks.ListUpcoming(c.Request.Context(), time.Now(), limit)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// Next returns the next task to start, or 404 when none is scheduled.
func (h *TaskHandler) Next(c *gin.Context) {
	task, err := h.tasks.NextTask(c.Request.Context(), time.Now())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query next task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no upcoming tasks"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// Get returns one task with its linked service ids and pending codes.
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	ctx := c.Request.Context()

	task, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}

	serviceIDs, err := h.tasks.LinkedServiceIDs(ctx, id)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task links"})
		return
	}
	pending, err := h.tasks.PendingCodes(ctx, id)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending services"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":        task,
		"service_ids": serviceIDs,
		"pending":     pending,
	})
}

// Delete removes a task and everything hanging off it.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(n), err
}
