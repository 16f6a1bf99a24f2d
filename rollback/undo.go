package rollback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/tracking"
	"github.com/voxelforge/chronicle/world"
)

// ErrNothingToUndo means the actor has no completed operation on record.
var ErrNothingToUndo = errors.New("rollback: nothing to undo")

const undoTTL = 12 * time.Hour

// undoRecord captures what it takes to invert an operation: the same
// filter and anchor, the opposite direction, and the original anchor
// time so the time window does not drift between the two runs.
type undoRecord struct {
	Direction  tracking.Direction `json:"direction"`
	Filter     store.Filter       `json:"filter"`
	Anchor     *world.Vec3        `json:"anchor,omitempty"`
	AnchorTime time.Time          `json:"anchor_time"`
}

// undoStore keeps one record per actor, overwritten on each completed
// operation.
type undoStore struct {
	cache  cache.Cache
	logger *zap.Logger
}

func (u *undoStore) key(actor string) string {
	return "chronicle:undo:" + strings.ToLower(actor)
}

func (u *undoStore) save(ctx context.Context, actor string, rec undoRecord) {
	raw, err := json.Marshal(rec)
	if err != nil {
		u.logger.Warn("undo record encode failed", zap.String("actor", actor), zap.Error(err))
		return
	}
	if err := u.cache.Set(ctx, u.key(actor), string(raw), undoTTL); err != nil {
		u.logger.Warn("undo record store failed", zap.String("actor", actor), zap.Error(err))
	}
}

func (u *undoStore) load(ctx context.Context, actor string) (undoRecord, error) {
	var rec undoRecord
	raw, err := u.cache.Get(ctx, u.key(actor))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return rec, ErrNothingToUndo
		}
		return rec, err
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, ErrNothingToUndo
	}
	return rec, nil
}

func (u *undoStore) clear(ctx context.Context, actor string) {
	_ = u.cache.Del(ctx, u.key(actor))
}
