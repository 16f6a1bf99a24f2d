package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/queue"
	"github.com/voxelforge/chronicle/rollback"
	"github.com/voxelforge/chronicle/scheduler"
	"github.com/voxelforge/chronicle/store"
)

// AdminHandler handles operational REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	store  *store.LogStore
	orch   *rollback.Orchestrator
	queue  *queue.Serial
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	st *store.LogStore,
	orch *rollback.Orchestrator,
	q *queue.Serial,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{store: st, orch: orch, queue: q, sched: sched, logger: logger}
}

// Status returns engine health: write queue depth, running operations,
// table counts, and scheduler tasks.
// GET /api/admin/status
func (h *AdminHandler) Status(c *gin.Context) {
	counts, err := h.store.Counts(c.Request.Context())
	if err != nil {
		h.logger.Error("status counts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"queue_depth":     h.queue.Depth(),
		"queue_idle":      h.queue.Idle(),
		"active_ops":      h.orch.Active(),
		"table_counts":    counts,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// Purge deletes history older than the given window, along with all of
// its detail rows.
// POST /api/admin/purge
func (h *AdminHandler) Purge(c *gin.Context) {
	var req struct {
		OlderThan int64  `json:"older_than" binding:"required"`
		World     string `json:"world"`
		Optimize  bool   `json:"optimize"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OlderThan <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "older_than must be positive"})
		return
	}
	deleted, err := h.store.Purge(c.Request.Context(), req.OlderThan, req.World, req.Optimize)
	if err != nil {
		h.logger.Error("purge failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("purge complete",
		zap.Int64("deleted", deleted),
		zap.Int64("older_than_s", req.OlderThan),
		zap.String("world", req.World))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// An empty configured key disables the admin surface entirely (503) so
// the engine cannot ship without protection by accident.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
