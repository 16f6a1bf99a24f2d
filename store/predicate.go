package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/world"
)

// effectiveNameExpr computes, per row, the name of the changed thing the
// way an operator reads it: destructive actions show the previous name,
// everything else the new one. Entity rows fall back to the display name
// of the entity acted upon. It relies on the aliases of historyJoins.
var oldNameCodes = func() string {
	var codes []string
	for a := action.Place; a <= action.Update; a++ {
		if a.ReportsOldName() {
			codes = append(codes, fmt.Sprintf("%d", uint8(a)))
		}
	}
	return strings.Join(codes, ",")
}()

var effectiveNameExpr = fmt.Sprintf(
	"CASE WHEN lh.action IN (%s)"+
		" THEN COALESCE(b.old_name, i.old_name, t.display_name, '')"+
		" ELSE COALESCE(b.new_name, i.new_name, t.display_name, '') END",
	oldNameCodes)

// historyJoins is the FROM/JOIN shape every history query shares. The
// predicate fragments below reference these aliases.
const historyJoins = `log_history lh
JOIN entities a ON a.uuid = lh.who
LEFT JOIN blocks_log b ON b.log_id = lh.log_id
LEFT JOIN inventories_log i ON i.log_id = lh.log_id
LEFT JOIN entities_log el ON el.log_id = lh.log_id
LEFT JOIN entities t ON t.uuid = el.entity_uuid
LEFT JOIN chat_log c ON c.log_id = lh.log_id
LEFT JOIN signs_log sg ON sg.log_id = lh.log_id`

// BuildPredicate compiles a filter into an AND-joined WHERE fragment with
// bound parameters. Clause order is fixed (users, time, bounds, world,
// actions, inclusions, exclusions) so generated SQL stays readable; no
// user-controlled string is ever concatenated in.
//
// now anchors the time window. Live lookups pass the current time; undo
// passes the anchor recorded when the original operation ran, so the undo
// reconstructs the same window instead of drifting.
func BuildPredicate(f Filter, bbox *world.BoundingBox, now time.Time) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if len(f.Users) > 0 {
		clauses = append(clauses,
			"lh.who IN (SELECT uuid FROM entities WHERE display_name IN (?))")
		args = append(args, f.Users)
	}
	if f.Since > 0 {
		end := timeSeconds(now)
		start := end - float64(f.Since)
		clauses = append(clauses, "lh.time BETWEEN ? AND ?")
		args = append(args, start, end)
	}
	if bbox != nil {
		clauses = append(clauses,
			"lh.x BETWEEN ? AND ?", "lh.y BETWEEN ? AND ?", "lh.z BETWEEN ? AND ?")
		args = append(args,
			bbox.Min.X, bbox.Max.X, bbox.Min.Y, bbox.Max.Y, bbox.Min.Z, bbox.Max.Z)
	}
	clauses = append(clauses, "lh.world_name = ?")
	args = append(args, f.World)
	if len(f.Actions) > 0 {
		codes := make([]uint8, len(f.Actions))
		for i, a := range f.Actions {
			codes[i] = uint8(a)
		}
		clauses = append(clauses, "lh.action IN (?)")
		args = append(args, codes)
	}
	if len(f.Include) > 0 {
		clauses = append(clauses, effectiveNameExpr+" IN (?)")
		args = append(args, f.Include)
	}
	if len(f.Exclude) > 0 {
		clauses = append(clauses, effectiveNameExpr+" NOT IN (?)")
		args = append(args, f.Exclude)
	}

	return strings.Join(clauses, " AND "), args
}

// timeSeconds converts a time to fractional seconds since epoch, the log's
// native timestamp format.
func timeSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
