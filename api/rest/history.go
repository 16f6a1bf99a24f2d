package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/lookup"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
)

// HistoryHandler exposes the lookup service over REST.
type HistoryHandler struct {
	svc    *lookup.Service
	logger *zap.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(svc *lookup.Service, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

// filterRequest is the wire form of a query filter. Actions arrive as
// names, aliases, or group tokens and are resolved server-side.
type filterRequest struct {
	Users   []string `json:"users"`
	Since   int64    `json:"since"`
	World   string   `json:"world"`
	Radius  *int     `json:"radius"`
	Actions []string `json:"actions"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

func (r *filterRequest) toFilter() (store.Filter, error) {
	acts, err := action.ParseAll(r.Actions)
	if err != nil {
		return store.Filter{}, err
	}
	return store.Filter{
		Users:   r.Users,
		Since:   r.Since,
		World:   r.World,
		Radius:  r.Radius,
		Actions: acts,
		Include: r.Include,
		Exclude: r.Exclude,
	}, nil
}

type positionRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p *positionRequest) vec() world.Vec3 {
	return world.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

type lookupRequest struct {
	Actor  string           `json:"actor" binding:"required"`
	Filter filterRequest    `json:"filter"`
	Anchor *positionRequest `json:"anchor"`
	Lines  int              `json:"lines"`
}

// resultJSON renders a page of rows plus formatted report lines.
func resultJSON(res *lookup.Result) gin.H {
	now := time.Now()
	lines := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		lines[i] = lookup.Line(row, now)
	}
	return gin.H{
		"rows":  res.Rows,
		"lines": lines,
		"total": res.Total,
		"page":  res.Page,
		"pages": res.Pages,
	}
}

// Lookup runs a filtered history query.
// POST /api/history/lookup
func (h *HistoryHandler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := req.Filter.toFilter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var anchor *world.Vec3
	if req.Anchor != nil {
		v := req.Anchor.vec()
		anchor = &v
	}
	res, err := h.svc.Lookup(c.Request.Context(), req.Actor, f, anchor, req.Lines)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(res))
}

// Near reports recent changes around a position.
// POST /api/history/near
func (h *HistoryHandler) Near(c *gin.Context) {
	var req struct {
		Actor  string          `json:"actor" binding:"required"`
		World  string          `json:"world" binding:"required"`
		Pos    positionRequest `json:"pos"`
		Radius int             `json:"radius"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.NearLog(c.Request.Context(), req.Actor, req.World, req.Pos.vec(), req.Radius)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(res))
}

// Block reports the full history of one block position.
// POST /api/history/block
func (h *HistoryHandler) Block(c *gin.Context) {
	var req struct {
		Actor string          `json:"actor" binding:"required"`
		World string          `json:"world" binding:"required"`
		Pos   positionRequest `json:"pos"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.BlockLog(c.Request.Context(), req.Actor, req.World, req.Pos.vec())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(res))
}

// Transactions reports container activity at one position.
// POST /api/history/transactions
func (h *HistoryHandler) Transactions(c *gin.Context) {
	var req struct {
		Actor string          `json:"actor" binding:"required"`
		World string          `json:"world" binding:"required"`
		Pos   positionRequest `json:"pos"`
		Since int64           `json:"since"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.TransactionLog(c.Request.Context(), req.Actor, req.World, req.Pos.vec(), req.Since)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(res))
}

// Page re-runs the actor's cached query for another page.
// GET /api/history/page?actor=notch&page=2&lines=8
func (h *HistoryHandler) Page(c *gin.Context) {
	actor := c.Query("actor")
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor is required"})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	lines, _ := strconv.Atoi(c.Query("lines"))
	res, err := h.svc.Page(c.Request.Context(), actor, page, lines)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resultJSON(res))
}

func (h *HistoryHandler) fail(c *gin.Context, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, lookup.ErrNoResults):
		c.JSON(http.StatusNotFound, gin.H{"error": "no results found"})
	case errors.Is(err, lookup.ErrNoPreviousLookup):
		c.JSON(http.StatusNotFound, gin.H{"error": "no previous lookup to page"})
	case errors.Is(err, lookup.ErrPageOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "page out of range"})
	default:
		h.logger.Error("history query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
