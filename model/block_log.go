package model

import "gorm.io/datatypes"

// BlockLog records a block transition. Old/new state strings must
// round-trip byte-identically through the host serializer, otherwise a
// rollback cannot faithfully rebuild the block.
type BlockLog struct {
	LogID    int64          `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	OldName  string         `gorm:"size:128" json:"old_name"`
	OldState string         `gorm:"type:text" json:"old_state"`
	OldNBT   datatypes.JSON `json:"old_nbt"`
	NewName  string         `gorm:"size:128" json:"new_name"`
	NewState string         `gorm:"type:text" json:"new_state"`
	NewNBT   datatypes.JSON `json:"new_nbt"`
}

func (BlockLog) TableName() string { return "blocks_log" }
