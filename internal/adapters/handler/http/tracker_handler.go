package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/workers"
)

type TrackerHandler struct {
	svc  *services.TrackerService
	loop *workers.Loop
}

func NewTrackerHandler(svc *services.TrackerService, loop *workers.Loop) *TrackerHandler {
	return &TrackerHandler{
		svc:  svc,
		loop: loop,
	}
}

// trackerRequest is the form body for both create and edit. A null or
// missing schedule makes an irregular event.
type trackerRequest struct {
	Label    string           `json:"label" binding:"required"`
	Emoji    string           `json:"emoji"`
	Color    string           `json:"color"`
	Category string           `json:"category"`
	Schedule *domain.Schedule `json:"schedule"`
}

func (r trackerRequest) data() domain.TrackerData {
	d := domain.TrackerData{
		Label:    r.Label,
		Emoji:    r.Emoji,
		Color:    r.Color,
		Schedule: r.Schedule,
	}
	if r.Category != "" {
		d.Category = &domain.Category{Label: r.Category}
	}
	return d
}

func (h *TrackerHandler) RegisterRoutes(router *gin.RouterGroup) {
	trackers := router.Group("/trackers")
	{
		trackers.POST("", h.Create)
		trackers.GET("", h.List)
		trackers.GET("/:id", h.Get)
		trackers.PUT("/:id", h.Update)
		trackers.DELETE("/:id", h.Delete)
		trackers.POST("/:id/pin", h.TogglePin)
	}
	router.GET("/categories", h.Categories)
}

func (h *TrackerHandler) Create(c *gin.Context) {
	var req trackerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tracker *domain.Tracker
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		tracker, err = h.svc.CreateTracker(ctx, req.data())
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tracker)
}

func (h *TrackerHandler) List(c *gin.Context) {
	var list []*domain.Tracker
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		list, err = h.svc.Trackers(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *TrackerHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var tracker *domain.Tracker
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		tracker, err = h.svc.Tracker(ctx, id)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracker)
}

func (h *TrackerHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req trackerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tracker *domain.Tracker
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		tracker, err = h.svc.UpdateTracker(ctx, id, req.data())
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracker)
}

func (h *TrackerHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		return h.svc.DeleteTracker(ctx, id)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TrackerHandler) TogglePin(c *gin.Context) {
	id := c.Param("id")

	var tracker *domain.Tracker
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		tracker, err = h.svc.TogglePin(ctx, id)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracker)
}

func (h *TrackerHandler) Categories(c *gin.Context) {
	var categories []domain.Category
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		categories, err = h.svc.Categories(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, categories)
}
