package model

import "time"

// SchemaVersion tracks the serialized-state format version so a future
// release can upgrade stored blobs in place.
type SchemaVersion struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Version   int       `gorm:"not null" json:"version"`
	AppliedAt time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

func (SchemaVersion) TableName() string { return "schema_version" }

// CurrentSchemaVersion is the format this build reads and writes.
const CurrentSchemaVersion = 1
