package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/voxelforge/chronicle/world"
)

// LookupRow is one line of a lookup report.
type LookupRow struct {
	LogID        int64   `json:"log_id"`
	Time         float64 `json:"time"`
	ActorName    string  `json:"actor_name"`
	Action       uint8   `json:"action"`
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Z            int     `json:"z"`
	WorldName    string  `json:"world_name"`
	Name         string  `json:"name"`
	Amount       int     `json:"amount"`
	RollbackFlag uint8   `json:"rollback_flag"`

	// Message carries chat/command text; SignLines the JSON array of a
	// sign's text. At most one of them is set, on activity rows only.
	Message   string         `json:"message,omitempty"`
	SignLines datatypes.JSON `json:"sign_lines,omitempty"`
}

type lookupScan struct {
	LookupRow
	Total int64
}

// Lookup executes the filtered history query with LIMIT/OFFSET and returns
// the page plus the total matching row count. The count comes from a
// window aggregate in the same round trip, so pagination never needs a
// second query.
func (s *LogStore) Lookup(ctx context.Context, f Filter, bbox *world.BoundingBox, now time.Time, limit, offset int) ([]LookupRow, int64, error) {
	pred, args := BuildPredicate(f, bbox, now)
	q := fmt.Sprintf(`SELECT lh.log_id, lh.time, lh.action, lh.x, lh.y, lh.z,
lh.world_name, lh.rollback_flag,
a.display_name AS actor_name,
%s AS name,
CASE WHEN lh.action IN (%s) THEN COALESCE(i.old_amount, 0)
     ELSE COALESCE(i.new_amount, 0) END AS amount,
COALESCE(c.message, '') AS message,
sg.lines AS sign_lines,
COUNT(*) OVER () AS total
FROM %s
WHERE %s
ORDER BY lh.time DESC, lh.log_id DESC
LIMIT ? OFFSET ?`, effectiveNameExpr, oldNameCodes, historyJoins, pred)
	args = append(args, limit, offset)

	var scanned []lookupScan
	if err := s.db.WithContext(ctx).Raw(q, args...).Scan(&scanned).Error; err != nil {
		return nil, 0, storageErr("lookup", err)
	}
	rows := make([]LookupRow, len(scanned))
	var total int64
	for i, sc := range scanned {
		rows[i] = sc.LookupRow
		total = sc.Total
	}
	return rows, total, nil
}
