package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/rollback"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
)

// RollbackHandler exposes rollback, restore, and undo.
// Routes should be protected by AdminAuth middleware.
type RollbackHandler struct {
	orch   *rollback.Orchestrator
	logger *zap.Logger
}

// NewRollbackHandler creates a RollbackHandler.
func NewRollbackHandler(orch *rollback.Orchestrator, logger *zap.Logger) *RollbackHandler {
	return &RollbackHandler{orch: orch, logger: logger}
}

type rollbackRequest struct {
	Actor  string           `json:"actor" binding:"required"`
	Filter filterRequest    `json:"filter"`
	Anchor *positionRequest `json:"anchor"`
}

func (r *rollbackRequest) parse() (string, store.Filter, *world.Vec3, error) {
	f, err := r.Filter.toFilter()
	if err != nil {
		return "", store.Filter{}, nil, err
	}
	var anchor *world.Vec3
	if r.Anchor != nil {
		v := r.Anchor.vec()
		anchor = &v
	}
	return r.Actor, f, anchor, nil
}

// Rollback reverts matched changes.
// POST /api/admin/rollback
func (h *RollbackHandler) Rollback(c *gin.Context) {
	h.run(c, h.orch.Rollback)
}

// Restore re-applies previously rolled back changes.
// POST /api/admin/restore
func (h *RollbackHandler) Restore(c *gin.Context) {
	h.run(c, h.orch.Restore)
}

func (h *RollbackHandler) run(c *gin.Context, op func(ctx context.Context, actor string, f store.Filter, anchor *world.Vec3) (*rollback.Report, error)) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor, f, anchor, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := op(c.Request.Context(), actor, f, anchor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": rep})
}

// Undo inverts the actor's last completed operation.
// POST /api/admin/undo
func (h *RollbackHandler) Undo(c *gin.Context) {
	var req struct {
		Actor string `json:"actor" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rep, err := h.orch.Undo(c.Request.Context(), req.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": rep})
}

func (h *RollbackHandler) fail(c *gin.Context, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, rollback.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, rollback.ErrNothingToUndo):
		c.JSON(http.StatusNotFound, gin.H{"error": "nothing to undo"})
	case errors.Is(err, world.ErrWorldMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("rollback operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
