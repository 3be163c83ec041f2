package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/workers"
)

type CompletionHandler struct {
	svc    *services.TrackerService
	ledger *services.CompletionLedger
	loop   *workers.Loop
}

func NewCompletionHandler(svc *services.TrackerService, ledger *services.CompletionLedger, loop *workers.Loop) *CompletionHandler {
	return &CompletionHandler{
		svc:    svc,
		ledger: ledger,
		loop:   loop,
	}
}

type completionResponse struct {
	TrackerID          string `json:"tracker_id"`
	Date               string `json:"date"`
	Completed          bool   `json:"completed"`
	CompletedDaysCount int    `json:"completed_days_count"`
}

func (h *CompletionHandler) RegisterRoutes(router *gin.RouterGroup) {
	completions := router.Group("/trackers/:id/completions")
	{
		completions.GET("/:date", h.Get)
		completions.PUT("/:date", h.Complete)
		completions.DELETE("/:date", h.Uncomplete)
		completions.POST("/:date/toggle", h.Toggle)
	}
	router.GET("/records", h.Records)
}

func (h *CompletionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	date, ok := parseDay(c, c.Param("date"))
	if !ok {
		return
	}

	var resp completionResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		_, err := h.svc.Tracker(ctx, id)
		if err != nil {
			return err
		}
		resp, err = h.status(ctx, id, date)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CompletionHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	date, ok := parseDay(c, c.Param("date"))
	if !ok {
		return
	}

	var resp completionResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		err := h.svc.AddCompletion(ctx, id, date)
		if err != nil {
			return err
		}
		resp, err = h.status(ctx, id, date)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CompletionHandler) Uncomplete(c *gin.Context) {
	id := c.Param("id")
	date, ok := parseDay(c, c.Param("date"))
	if !ok {
		return
	}

	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		return h.svc.RemoveCompletion(ctx, id, date)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CompletionHandler) Toggle(c *gin.Context) {
	id := c.Param("id")
	date, ok := parseDay(c, c.Param("date"))
	if !ok {
		return
	}

	var resp completionResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		_, err := h.svc.ToggleCompletion(ctx, id, date)
		if err != nil {
			return err
		}
		resp, err = h.status(ctx, id, date)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Records returns the loaded working set in chronological order.
func (h *CompletionHandler) Records(c *gin.Context) {
	var records []domain.CompletionRecord
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		records = h.ledger.Records()
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if records == nil {
		records = []domain.CompletionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *CompletionHandler) status(ctx context.Context, id string, date time.Time) (completionResponse, error) {
	done, err := h.ledger.IsCompleted(ctx, id, date)
	if err != nil {
		return completionResponse{}, err
	}
	return completionResponse{
		TrackerID:          id,
		Date:               domain.DayKey(date),
		Completed:          done,
		CompletedDaysCount: h.ledger.CompletionCount(id),
	}, nil
}
