package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/services"
	"github.com/comitanigiacomo/kanso-tracker/internal/core/workers"
)

type StatsHandler struct {
	svc  *services.StatsService
	loop *workers.Loop
}

func NewStatsHandler(svc *services.StatsService, loop *workers.Loop) *StatsHandler {
	return &StatsHandler{svc: svc, loop: loop}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStatistics)
}

func (h *StatsHandler) GetStatistics(c *gin.Context) {
	var stats *domain.Statistics
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		stats, err = h.svc.GetStatistics(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
