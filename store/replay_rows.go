package store

import (
	"context"

	"github.com/voxelforge/chronicle/model"
	"gorm.io/datatypes"
)

// BlockRow joins one block detail with its history coordinates for replay.
type BlockRow struct {
	LogID    int64
	X        int
	Y        int
	Z        int
	Action   uint8
	OldName  string
	OldState string
	OldNBT   datatypes.JSON
	NewName  string
	NewState string
	NewNBT   datatypes.JSON
}

// BlockRows fetches block details for the given log ids in id order.
func (s *LogStore) BlockRows(ctx context.Context, ids []int64) ([]BlockRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []BlockRow
	err := s.db.WithContext(ctx).Raw(`SELECT lh.log_id, lh.x, lh.y, lh.z, lh.action,
b.old_name, b.old_state, b.old_nbt, b.new_name, b.new_state, b.new_nbt
FROM blocks_log b
JOIN log_history lh ON lh.log_id = b.log_id
WHERE b.log_id IN ?
ORDER BY lh.time DESC, lh.log_id DESC`, ids).Scan(&rows).Error
	if err != nil {
		return nil, storageErr("block rows", err)
	}
	return rows, nil
}

// InventoryRow joins one slot detail with its history coordinates.
type InventoryRow struct {
	LogID     int64
	X         int
	Y         int
	Z         int
	Action    uint8
	Slot      int
	OldName   string
	OldNBT    datatypes.JSON
	OldAmount int
	NewName   string
	NewNBT    datatypes.JSON
	NewAmount int
}

// InventoryRows fetches inventory details for the given log ids.
func (s *LogStore) InventoryRows(ctx context.Context, ids []int64) ([]InventoryRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []InventoryRow
	err := s.db.WithContext(ctx).Raw(`SELECT lh.log_id, lh.x, lh.y, lh.z, lh.action,
i.slot, i.old_name, i.old_nbt, i.old_amount, i.new_name, i.new_nbt, i.new_amount
FROM inventories_log i
JOIN log_history lh ON lh.log_id = i.log_id
WHERE i.log_id IN ?
ORDER BY lh.time DESC, lh.log_id DESC`, ids).Scan(&rows).Error
	if err != nil {
		return nil, storageErr("inventory rows", err)
	}
	return rows, nil
}

// EntityRow joins one entity detail with its history coordinates.
type EntityRow struct {
	LogID        int64
	X            int
	Y            int
	Z            int
	Action       uint8
	EntityUUID   string
	LiveEntityID int64
	NBT          datatypes.JSON
}

// EntityRows fetches entity details for the given log ids.
func (s *LogStore) EntityRows(ctx context.Context, ids []int64) ([]EntityRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []EntityRow
	err := s.db.WithContext(ctx).Raw(`SELECT lh.log_id, lh.x, lh.y, lh.z, lh.action,
el.entity_uuid, el.live_entity_id, el.nbt
FROM entities_log el
JOIN log_history lh ON lh.log_id = el.log_id
WHERE el.log_id IN ?
ORDER BY lh.time DESC, lh.log_id DESC`, ids).Scan(&rows).Error
	if err != nil {
		return nil, storageErr("entity rows", err)
	}
	return rows, nil
}

// UpdateLiveEntityID rewrites the ephemeral runtime id after a replay
// spawned a fresh entity.
func (s *LogStore) UpdateLiveEntityID(ctx context.Context, logID, liveID int64) error {
	err := s.db.WithContext(ctx).Model(&model.EntityLog{}).
		Where("log_id = ?", logID).
		Update("live_entity_id", liveID).Error
	if err != nil {
		return storageErr("update live id", err)
	}
	return nil
}
