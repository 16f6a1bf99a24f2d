package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/store"
)

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func TestTimeAgo(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "30s ago", TimeAgo(seconds(now.Add(-30*time.Second)), now))
	assert.Equal(t, "2.0m ago", TimeAgo(seconds(now.Add(-2*time.Minute)), now))
	assert.Equal(t, "1.5h ago", TimeAgo(seconds(now.Add(-90*time.Minute)), now))
	assert.Equal(t, "2.0d ago", TimeAgo(seconds(now.Add(-48*time.Hour)), now))
	assert.Equal(t, "0s ago", TimeAgo(seconds(now.Add(time.Minute)), now), "future clamps to zero")
}

func TestLine(t *testing.T) {
	now := time.Now()
	row := store.LookupRow{
		Time:      seconds(now.Add(-30 * time.Second)),
		ActorName: "alice",
		Action:    uint8(action.Break),
		X:         10, Y: 64, Z: -10,
		Name: "stone",
	}
	assert.Equal(t, "30s ago - alice break stone at (10, 64, -10)", Line(row, now))

	row.RollbackFlag = 1
	assert.Contains(t, Line(row, now), "(rolled back)")

	row.RollbackFlag = 0
	row.Action = uint8(action.Remove)
	row.Name = "diamond"
	row.Amount = 5
	assert.Equal(t, "30s ago - alice remove 5 x diamond at (10, 64, -10)", Line(row, now))
}

func TestLine_ChatAndSigns(t *testing.T) {
	now := time.Now()
	row := store.LookupRow{
		Time:      seconds(now.Add(-30 * time.Second)),
		ActorName: "alice",
		Action:    uint8(action.Chat),
		X:         10, Y: 64, Z: -10,
		Message: "hello there",
	}
	assert.Equal(t, `30s ago - alice chat "hello there" at (10, 64, -10)`, Line(row, now))

	row.Action = uint8(action.Command)
	row.Message = "/home"
	assert.Equal(t, `30s ago - alice command "/home" at (10, 64, -10)`, Line(row, now))

	row.Message = ""
	row.Action = uint8(action.Update)
	row.SignLines = datatypes.JSON(`["for sale","2 diamonds"]`)
	assert.Equal(t, `30s ago - alice update "for sale 2 diamonds" at (10, 64, -10)`, Line(row, now))
}
