package model

import "gorm.io/datatypes"

// InventoryLog records one container slot transition. An empty slot is the
// air sentinel name with nil NBT and amount 0; amounts are never negative.
type InventoryLog struct {
	LogID     int64          `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	Slot      int            `gorm:"not null" json:"slot"`
	OldName   string         `gorm:"size:128" json:"old_name"`
	OldNBT    datatypes.JSON `json:"old_nbt"`
	OldAmount int            `gorm:"default:0" json:"old_amount"`
	NewName   string         `gorm:"size:128" json:"new_name"`
	NewNBT    datatypes.JSON `json:"new_nbt"`
	NewAmount int            `gorm:"default:0" json:"new_amount"`
}

func (InventoryLog) TableName() string { return "inventories_log" }
