package model

// EntityType classifies who a history row is attributed to.
const (
	EntityTypePlayer      = "player"
	EntityTypeCreature    = "creature"
	EntityTypeEnvironment = "environment"
)

// Entity is the reference table of every actor that ever appears in the
// log: real players, creatures, and synthetic "#cause" identities for
// environmental sources (water, fire, decay). UUIDs are stored lower-case.
type Entity struct {
	UUID        string `gorm:"primaryKey;size:64" json:"uuid"`
	DisplayName string `gorm:"index:idx_entity_name;size:64;not null" json:"display_name"`
	EntityType  string `gorm:"size:16;not null" json:"entity_type"`
}

func (Entity) TableName() string { return "entities" }
