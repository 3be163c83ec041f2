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

// BoardHandler exposes the sectioned projection the way a list view reads
// it: whole, per section, or one row at a time.
type BoardHandler struct {
	svc  *services.TrackerService
	loop *workers.Loop
}

func NewBoardHandler(svc *services.TrackerService, loop *workers.Loop) *BoardHandler {
	return &BoardHandler{
		svc:  svc,
		loop: loop,
	}
}

type rowResponse struct {
	*domain.Tracker
	Completed bool `json:"completed"`
}

type sectionResponse struct {
	Index  int                `json:"index"`
	Kind   domain.SectionKind `json:"kind"`
	Header string             `json:"header"`
	Rows   []rowResponse      `json:"rows"`
}

type boardResponse struct {
	Date     string            `json:"date"`
	Search   string            `json:"search"`
	Total    int               `json:"total"`
	Sections []sectionResponse `json:"sections"`
}

func (h *BoardHandler) RegisterRoutes(router *gin.RouterGroup) {
	board := router.Group("/board")
	{
		board.GET("", h.Board)
		board.GET("/sections/:section", h.Section)
		board.GET("/sections/:section/rows/:row", h.Row)
	}
}

// Board recomputes the projection for the requested day and search. Without
// a date it stays on the current day of the board.
func (h *BoardHandler) Board(c *gin.Context) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		d, ok := parseDay(c, raw)
		if !ok {
			return
		}
		date = d
	}
	search := c.Query("search")

	var resp boardResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		if date.IsZero() {
			date = h.svc.Filter().Date
		}
		err := h.svc.ApplyFilter(ctx, date, search)
		if err != nil {
			return err
		}
		resp, err = h.board(ctx)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BoardHandler) Section(c *gin.Context) {
	section, ok := parseIndex(c, "section")
	if !ok {
		return
	}

	var resp sectionResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		header, err := h.svc.HeaderLabel(section)
		if err != nil {
			return err
		}
		n, err := h.svc.NumberOfRows(section)
		if err != nil {
			return err
		}

		resp = sectionResponse{
			Index:  section,
			Kind:   h.svc.Projection().Sections[section].Kind,
			Header: header,
			Rows:   make([]rowResponse, 0, n),
		}
		for row := 0; row < n; row++ {
			t, err := h.svc.TrackerAt(section, row)
			if err != nil {
				return err
			}
			r, err := h.row(ctx, t)
			if err != nil {
				return err
			}
			resp.Rows = append(resp.Rows, r)
		}
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BoardHandler) Row(c *gin.Context) {
	section, ok := parseIndex(c, "section")
	if !ok {
		return
	}
	row, ok := parseIndex(c, "row")
	if !ok {
		return
	}

	var resp rowResponse
	err := h.loop.Do(c.Request.Context(), func(ctx context.Context) error {
		t, err := h.svc.TrackerAt(section, row)
		if err != nil {
			return err
		}
		resp, err = h.row(ctx, t)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *BoardHandler) board(ctx context.Context) (boardResponse, error) {
	p := h.svc.Projection()
	resp := boardResponse{
		Date:     domain.DayKey(p.Date),
		Search:   p.Search,
		Total:    p.Total,
		Sections: make([]sectionResponse, len(p.Sections)),
	}
	for i, s := range p.Sections {
		rows := make([]rowResponse, len(s.Trackers))
		for j, t := range s.Trackers {
			r, err := h.row(ctx, t)
			if err != nil {
				return boardResponse{}, err
			}
			rows[j] = r
		}
		resp.Sections[i] = sectionResponse{Index: i, Kind: s.Kind, Header: s.Header, Rows: rows}
	}
	return resp, nil
}

func (h *BoardHandler) row(ctx context.Context, t *domain.Tracker) (rowResponse, error) {
	done, err := h.svc.IsCompleted(ctx, t.ID, h.svc.Filter().Date)
	if err != nil {
		return rowResponse{}, err
	}
	return rowResponse{Tracker: t, Completed: done}, nil
}
