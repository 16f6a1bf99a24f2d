package lookup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/store"
)

// TimeAgo renders how long ago a log timestamp (fractional epoch seconds)
// was, relative to now.
func TimeAgo(logTime float64, now time.Time) string {
	elapsed := float64(now.UnixNano())/float64(time.Second) - logTime
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < 60:
		return fmt.Sprintf("%.0fs ago", elapsed)
	case elapsed < 3600:
		return fmt.Sprintf("%.1fm ago", elapsed/60)
	case elapsed < 86400:
		return fmt.Sprintf("%.1fh ago", elapsed/3600)
	default:
		return fmt.Sprintf("%.1fd ago", elapsed/86400)
	}
}

// Line renders one report row the way operators read it in chat.
func Line(row store.LookupRow, now time.Time) string {
	act := action.Action(row.Action)
	marker := ""
	if row.RollbackFlag != 0 {
		marker = " (rolled back)"
	}
	subject := row.Name
	switch {
	case row.Message != "":
		subject = fmt.Sprintf("%q", row.Message)
	case len(row.SignLines) > 0:
		var lines []string
		if err := json.Unmarshal(row.SignLines, &lines); err == nil {
			subject = fmt.Sprintf("%q", strings.Join(lines, " "))
		}
	case row.Amount > 0:
		subject = fmt.Sprintf("%d x %s", row.Amount, row.Name)
	}
	return fmt.Sprintf("%s - %s %s %s at (%d, %d, %d)%s",
		TimeAgo(row.Time, now), row.ActorName, act, subject,
		row.X, row.Y, row.Z, marker)
}
