package tracking

import "github.com/voxelforge/chronicle/model"

// Direction selects which way history is replayed.
type Direction uint8

const (
	// DirRollback undoes changes, most recent first, so chained dependent
	// changes unwind in the right order.
	DirRollback Direction = iota
	// DirRestore reapplies previously rolled-back changes, oldest first.
	DirRestore
)

func (d Direction) String() string {
	if d == DirRestore {
		return "restore"
	}
	return "rollback"
}

// Opposite returns the inverse direction, used by undo.
func (d Direction) Opposite() Direction {
	if d == DirRollback {
		return DirRestore
	}
	return DirRollback
}

// TargetFlag is the rollback_flag value rows end up in after replay.
func (d Direction) TargetFlag() uint8 {
	if d == DirRestore {
		return model.FlagRestored
	}
	return model.FlagRolledBack
}

// Ascending reports the time order batches are selected in.
func (d Direction) Ascending() bool { return d == DirRestore }
