package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EntityTracker serializes creature spawn/despawn/kill events and replays
// them.
type EntityTracker struct {
	d Deps
}

// NewEntityTracker creates an EntityTracker.
func NewEntityTracker(d Deps) *EntityTracker { return &EntityTracker{d: d} }

// LogEntityAction records act (SPAWN, DESPAWN or KILL) done by actor to
// the captured entity. Both identities are upserted: the acted-upon entity
// needs its own entities row so lookups can show its name.
func (t *EntityTracker) LogEntityAction(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, snap world.EntitySnapshot, act action.Action) error {
	switch act {
	case action.Spawn, action.Despawn, action.Kill:
	default:
		return fmt.Errorf("tracking: action %s is not an entity action", act)
	}
	target := CreatureActor(snap.UUID, snap.TypeName)
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		if err := t.d.Store.EnsureEntity(tx, target); err != nil {
			return err
		}
		id, err := t.d.Store.InsertHistory(tx, actor.UUID, pos, worldName, act, time.Now())
		if err != nil {
			return err
		}
		detail := model.EntityLog{
			LogID:        id,
			EntityUUID:   target.UUID,
			LiveEntityID: snap.LiveID,
			NBT:          datatypes.JSON(snap.NBT),
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("%w: insert entity detail: %v", store.ErrStorage, err)
		}
		return nil
	})
}

// Replay inverts (rollback) or reapplies (restore) entity events. Undoing
// a kill or despawn respawns the creature from its NBT snapshot and stores
// the fresh runtime id; undoing a spawn removes the creature.
func (t *EntityTracker) Replay(ctx context.Context, w world.World, dir Direction, ids []int64) (int, error) {
	rows, err := t.d.Store.EntityRows(ctx, ids)
	if err != nil {
		return 0, err
	}
	if dir.Ascending() {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	changed := 0
	for _, row := range rows {
		// A spawn is undone by removing; a kill/despawn by respawning.
		// Restore runs the original event forward again.
		spawn := false
		switch action.Action(row.Action) {
		case action.Spawn:
			spawn = dir == DirRestore
		case action.Despawn, action.Kill:
			spawn = dir == DirRollback
		default:
			continue
		}
		if spawn {
			liveID, err := w.SpawnEntity(world.EntitySnapshot{
				UUID:   row.EntityUUID,
				NBT:    []byte(row.NBT),
				LiveID: row.LiveEntityID,
			})
			if err != nil {
				t.d.Logger.Debug("entity respawn skipped",
					zap.String("uuid", row.EntityUUID), zap.Error(err))
				continue
			}
			// Spawning assigned a new ephemeral id; keep the log current.
			if err := t.d.Store.UpdateLiveEntityID(ctx, row.LogID, liveID); err != nil {
				return changed, err
			}
		} else {
			if err := w.RemoveEntity(row.EntityUUID); err != nil {
				if errors.Is(err, world.ErrNoEntity) {
					continue
				}
				return changed, err
			}
		}
		changed++
	}
	return changed, nil
}
