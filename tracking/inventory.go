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

// InventoryTracker serializes container slot transitions and replays them.
type InventoryTracker struct {
	d Deps
}

// NewInventoryTracker creates an InventoryTracker.
func NewInventoryTracker(d Deps) *InventoryTracker { return &InventoryTracker{d: d} }

// LogTransaction records one slot transition at a container position. The
// action is derived from the stack delta: growing means ADD, shrinking
// means REMOVE. Equal stacks are dropped (nothing actually moved).
func (t *InventoryTracker) LogTransaction(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, slot int, oldItem, newItem world.Item) error {
	if oldItem.Amount < 0 || newItem.Amount < 0 {
		return fmt.Errorf("tracking: negative item amount at slot %d", slot)
	}
	act := action.Add
	switch {
	case oldItem.IsAir() && newItem.IsAir():
		return nil
	case newItem.Amount < oldItem.Amount || newItem.IsAir():
		act = action.Remove
	}
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		id, err := t.d.Store.InsertHistory(tx, actor.UUID, pos, worldName, act, time.Now())
		if err != nil {
			return err
		}
		detail := model.InventoryLog{
			LogID:     id,
			Slot:      slot,
			OldName:   normalizeItemName(oldItem),
			OldNBT:    datatypes.JSON(oldItem.NBT),
			OldAmount: oldItem.Amount,
			NewName:   normalizeItemName(newItem),
			NewNBT:    datatypes.JSON(newItem.NBT),
			NewAmount: newItem.Amount,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("%w: insert inventory detail: %v", store.ErrStorage, err)
		}
		return nil
	})
}

// normalizeItemName maps empty slots onto the air sentinel so the store
// never carries ambiguous blank names.
func normalizeItemName(it world.Item) string {
	if it.IsAir() {
		return world.AirItem
	}
	return it.Name
}

// Replay puts the stored old (rollback) or new (restore) stack back into
// each logged slot. Containers that no longer exist are skipped; their
// rows still count as processed so the operation never retries forever.
func (t *InventoryTracker) Replay(ctx context.Context, w world.World, dir Direction, ids []int64) (int, error) {
	rows, err := t.d.Store.InventoryRows(ctx, ids)
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
		item := world.Item{Name: row.OldName, NBT: []byte(row.OldNBT), Amount: row.OldAmount}
		if dir == DirRestore {
			item = world.Item{Name: row.NewName, NBT: []byte(row.NewNBT), Amount: row.NewAmount}
		}
		pos := world.Vec3{X: row.X, Y: row.Y, Z: row.Z}
		container, err := w.ContainerAt(pos)
		if err != nil {
			if errors.Is(err, world.ErrNoContainer) {
				t.d.Logger.Debug("container gone, slot replay skipped",
					zap.Int("x", pos.X), zap.Int("y", pos.Y), zap.Int("z", pos.Z))
				continue
			}
			return changed, err
		}
		if err := container.SetSlot(row.Slot, item); err != nil {
			t.d.Logger.Debug("slot replay skipped",
				zap.Int("slot", row.Slot), zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}
