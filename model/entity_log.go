package model

import "gorm.io/datatypes"

// EntityLog records a creature spawn/despawn/kill. LiveEntityID is the
// ephemeral runtime id and is rewritten after a replay spawns a fresh
// entity; EntityUUID is the stable identity of the entity acted upon.
type EntityLog struct {
	LogID        int64          `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	EntityUUID   string         `gorm:"index:idx_entitylog_uuid;size:64" json:"entity_uuid"`
	LiveEntityID int64          `json:"live_entity_id"`
	NBT          datatypes.JSON `json:"nbt"`
}

func (EntityLog) TableName() string { return "entities_log" }
