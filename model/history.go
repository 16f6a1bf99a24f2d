package model

// Rollback flag states. Rows start at FlagNone; only the rollback
// orchestrator moves them between states, never the loggers.
const (
	FlagNone       uint8 = 0
	FlagRolledBack uint8 = 1
	FlagRestored   uint8 = 2
)

// HistoryEntry is one row of the append-only change log: who did what,
// where and when. Exactly one detail row (block/inventory/entity/sign/chat)
// shares its LogID.
type HistoryEntry struct {
	LogID        int64   `gorm:"primaryKey;autoIncrement" json:"log_id"`
	Who          string  `gorm:"index:idx_history_who;size:64;not null" json:"who"`
	X            int     `gorm:"index:idx_history_pos,priority:2" json:"x"`
	Y            int     `gorm:"index:idx_history_pos,priority:3" json:"y"`
	Z            int     `gorm:"index:idx_history_pos,priority:4" json:"z"`
	WorldName    string  `gorm:"index:idx_history_pos,priority:1;size:64;not null" json:"world_name"`
	Action       uint8   `gorm:"not null" json:"action"`
	Time         float64 `gorm:"index:idx_history_time;not null" json:"time"`
	RollbackFlag uint8   `gorm:"default:0" json:"rollback_flag"`
}

func (HistoryEntry) TableName() string { return "log_history" }
