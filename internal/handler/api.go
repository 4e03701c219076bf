package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/service"
)

// Services bundles what the API handlers read from.
type Services struct {
	Ideas    *service.IdeaService
	Todos    *service.TodoService
	Time     *service.TimeService
	Status   *service.StatusService
	Memory   *service.MemoryService
	Workouts *service.WorkoutService
	Sync     *service.SyncService
}

type APIHandler struct {
	svc Services
	bus *event.Bus
}

func NewAPIHandler(svc Services, bus *event.Bus) *APIHandler {
	return &APIHandler{svc: svc, bus: bus}
}

func (h *APIHandler) ListIdeas(c *gin.Context) {
	ideas := h.svc.Ideas.List(service.IdeaFilter{
		Tag:    c.Query("tag"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	c.JSON(http.StatusOK, gin.H{"ideas": ideas, "total": len(ideas)})
}

func (h *APIHandler) AddIdea(c *gin.Context) {
	var req service.NewIdea
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	idea, err := h.svc.Ideas.Add(req)
	if errors.Is(err, service.ErrEmptyIdea) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error("idea.add", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info("idea.add", "id", idea.ID)
	c.JSON(http.StatusCreated, idea)
}

func (h *APIHandler) ListTodos(c *gin.Context) {
	todos := h.svc.Todos.List(service.TodoFilter{
		Source: c.Query("source"),
		Status: c.Query("status"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	})
	c.JSON(http.StatusOK, gin.H{"todos": todos, "total": len(todos)})
}

type addTodoRequest struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func (h *APIHandler) AddTodo(c *gin.Context) {
	var req addTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	todo, err := h.svc.Todos.Add(req.Title, req.Tags)
	if errors.Is(err, service.ErrEmptyTitle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logger.Error("todo.add", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info("todo.add", "title", todo.Title)
	c.JSON(http.StatusCreated, todo)
}

func (h *APIHandler) ListTime(c *gin.Context) {
	_, today := c.GetQuery("today")
	entries, err := h.svc.Time.List(c.Request.Context(), service.TimeQuery{
		From:     c.Query("start"),
		To:       c.Query("end"),
		Category: c.Query("category"),
		Today:    today,
	})
	if err != nil {
		logger.Error("time.list", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":         entries,
		"total":           len(entries),
		"currentActivity": h.svc.Time.Current(),
	})
}

func (h *APIHandler) TimeStats(c *gin.Context) {
	stats, err := h.svc.Time.Stats(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		logger.Error("time.stats", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *APIHandler) ExportTime(c *gin.Context) {
	name := fmt.Sprintf("time-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if err := h.svc.Time.Export(c.Request.Context(), c.Query("start"), c.Query("end"), c.Writer); err != nil {
		logger.Error("time.export", "err", err)
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func (h *APIHandler) Workouts(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Workouts.Overview())
}

func (h *APIHandler) Memory(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		entry, ok := h.svc.Memory.ByDate(date)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, entry)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	entries, total := h.svc.Memory.List(service.MemoryQuery{Search: c.Query("search"), Limit: limit})
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": total})
}

func (h *APIHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status.Current(time.Now()))
}

func (h *APIHandler) Sync(c *gin.Context) {
	report, err := h.svc.Sync.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *APIHandler) Health(c *gin.Context) {
	rows, err := h.svc.Sync.Rows(c.Request.Context())
	if err != nil {
		logger.Error("health.rows", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "subscribers": h.bus.SubscriberCount(), "rows": rows})
}
