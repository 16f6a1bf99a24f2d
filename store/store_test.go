package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/testutil"
	"github.com/voxelforge/chronicle/world"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func newTestStore(t *testing.T) *LogStore {
	return NewLogStore(testutil.SetupTestDB(t), nop())
}

var alice = world.Actor{UUID: "A1B2", Name: "alice", Type: model.EntityTypePlayer}

// seedBlockChange inserts a history row plus block detail and returns the
// log id.
func seedBlockChange(t *testing.T, s *LogStore, who world.Actor, pos world.Vec3, worldName string, act action.Action, oldName, newName string, at time.Time) int64 {
	t.Helper()
	var id int64
	err := s.Transaction(context.Background(), func(tx *gorm.DB) error {
		if err := s.EnsureEntity(tx, who); err != nil {
			return err
		}
		var err error
		id, err = s.InsertHistory(tx, who.UUID, pos, worldName, act, at)
		if err != nil {
			return err
		}
		return tx.Create(&model.BlockLog{LogID: id, OldName: oldName, NewName: newName}).Error
	})
	require.NoError(t, err)
	return id
}

func TestEnsureEntity_IdempotentLowercase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Transaction(ctx, func(tx *gorm.DB) error {
			return s.EnsureEntity(tx, alice)
		}))
	}

	var ents []model.Entity
	require.NoError(t, s.db.Find(&ents).Error)
	require.Len(t, ents, 1)
	assert.Equal(t, "a1b2", ents[0].UUID)
	assert.Equal(t, "alice", ents[0].DisplayName)
}

func TestInsertHistory_ReturnsGeneratedID(t *testing.T) {
	s := newTestStore(t)
	pos := world.Vec3{X: 1, Y: 64, Z: 1}

	id1 := seedBlockChange(t, s, alice, pos, "world", action.Place, "air", "stone", time.Now())
	id2 := seedBlockChange(t, s, alice, pos, "world", action.Break, "stone", "air", time.Now())
	assert.Greater(t, id2, id1)

	var entry model.HistoryEntry
	require.NoError(t, s.db.First(&entry, "log_id = ?", id1).Error)
	assert.Equal(t, "a1b2", entry.Who)
	assert.Equal(t, uint8(action.Place), entry.Action)
	assert.Equal(t, uint8(model.FlagNone), entry.RollbackFlag)
}

func TestLastActorAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pos := world.Vec3{X: 5, Y: 64, Z: 5}
	bob := world.Actor{UUID: "b0b", Name: "bob", Type: model.EntityTypePlayer}

	who, err := s.LastActorAt(ctx, "world", pos)
	require.NoError(t, err)
	assert.Empty(t, who, "unknown position has no actor")

	seedBlockChange(t, s, alice, pos, "world", action.Place, "air", "stone", time.Now().Add(-time.Minute))
	seedBlockChange(t, s, bob, pos, "world", action.Break, "stone", "air", time.Now())

	who, err = s.LastActorAt(ctx, "world", pos)
	require.NoError(t, err)
	assert.Equal(t, "b0b", who, "most recent change wins")

	who, err = s.LastActorAt(ctx, "nether", pos)
	require.NoError(t, err)
	assert.Empty(t, who, "worlds are isolated")
}

func TestSelectIDs_OrderAndFlagExclusion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	pos := world.Vec3{X: 0, Y: 64, Z: 0}
	now := time.Now()

	old := seedBlockChange(t, s, alice, pos, "world", action.Place, "air", "stone", now.Add(-2*time.Hour))
	mid := seedBlockChange(t, s, alice, pos, "world", action.Break, "stone", "air", now.Add(-time.Hour))
	recent := seedBlockChange(t, s, alice, pos, "world", action.Place, "air", "dirt", now.Add(-time.Minute))

	f := Filter{World: "world"}

	ids, err := s.SelectIDs(ctx, f, nil, now, model.FlagRolledBack, 100, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{recent, mid, old}, ids, "rollback reads newest first")

	ids, err = s.SelectIDs(ctx, f, nil, now, model.FlagRolledBack, 100, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{old, mid, recent}, ids, "restore reads oldest first")

	require.NoError(t, s.UpdateRollbackFlag(ctx, []int64{mid}, model.FlagRolledBack))
	ids, err = s.SelectIDs(ctx, f, nil, now, model.FlagRolledBack, 100, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{recent, old}, ids, "rows already at the target flag drop out")

	// The rolled-back row is exactly what a restore wants.
	ids, err = s.SelectIDs(ctx, f, nil, now, model.FlagRestored, 100, true)
	require.NoError(t, err)
	assert.Contains(t, ids, mid)
}

func TestSelectIDs_Limit(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedBlockChange(t, s, alice, world.Vec3{X: i, Y: 64, Z: 0}, "world",
			action.Place, "air", "stone", now.Add(time.Duration(-i)*time.Minute))
	}
	ids, err := s.SelectIDs(context.Background(), Filter{World: "world"}, nil, now, model.FlagRolledBack, 2, false)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSelectIDs_BBoxAndUsers(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	bob := world.Actor{UUID: "b0b", Name: "bob", Type: model.EntityTypePlayer}

	in := seedBlockChange(t, s, alice, world.Vec3{X: 1, Y: 64, Z: 1}, "world", action.Place, "air", "stone", now)
	seedBlockChange(t, s, alice, world.Vec3{X: 100, Y: 64, Z: 100}, "world", action.Place, "air", "stone", now)
	seedBlockChange(t, s, bob, world.Vec3{X: 2, Y: 64, Z: 2}, "world", action.Place, "air", "stone", now)

	bbox := world.Box(world.Vec3{X: 0, Y: 64, Z: 0}, 10)
	f := Filter{World: "world", Users: []string{"alice"}}
	ids, err := s.SelectIDs(context.Background(), f, &bbox, now, model.FlagRolledBack, 100, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{in}, ids)
}

func TestUpdateRollbackFlag_ExactRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	a := seedBlockChange(t, s, alice, world.Vec3{X: 0, Y: 64, Z: 0}, "world", action.Place, "air", "stone", now)
	b := seedBlockChange(t, s, alice, world.Vec3{X: 1, Y: 64, Z: 0}, "world", action.Place, "air", "stone", now)

	require.NoError(t, s.UpdateRollbackFlag(ctx, []int64{a}, model.FlagRolledBack))

	var entries []model.HistoryEntry
	require.NoError(t, s.db.Order("log_id").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, uint8(model.FlagRolledBack), entries[0].RollbackFlag)
	assert.Equal(t, uint8(model.FlagNone), entries[1].RollbackFlag)
	_ = b
}

func TestPurge_BoundaryAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	oldID := seedBlockChange(t, s, alice, world.Vec3{X: 0, Y: 64, Z: 0}, "world", action.Place, "air", "stone", now.Add(-2*time.Hour))
	newID := seedBlockChange(t, s, alice, world.Vec3{X: 1, Y: 64, Z: 0}, "world", action.Place, "air", "stone", now.Add(-time.Minute))

	deleted, err := s.Purge(ctx, 3600, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var entries []model.HistoryEntry
	require.NoError(t, s.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, newID, entries[0].LogID)

	var details int64
	require.NoError(t, s.db.Model(&model.BlockLog{}).Where("log_id = ?", oldID).Count(&details).Error)
	assert.Zero(t, details, "detail rows cascade")
}

func TestPurge_WorldScoped(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().Add(-2 * time.Hour)
	seedBlockChange(t, s, alice, world.Vec3{}, "world", action.Place, "air", "stone", now)
	seedBlockChange(t, s, alice, world.Vec3{}, "nether", action.Place, "air", "stone", now)

	deleted, err := s.Purge(context.Background(), 3600, "nether", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var entries []model.HistoryEntry
	require.NoError(t, s.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "world", entries[0].WorldName)
}

func TestPurge_OptimizeRuns(t *testing.T) {
	s := newTestStore(t)
	seedBlockChange(t, s, alice, world.Vec3{}, "world", action.Place, "air", "stone", time.Now().Add(-2*time.Hour))
	_, err := s.Purge(context.Background(), 3600, "", true)
	assert.NoError(t, err, "VACUUM after purge")
}

func TestDeleteEntries(t *testing.T) {
	s := newTestStore(t)
	id := seedBlockChange(t, s, alice, world.Vec3{}, "world", action.Place, "air", "stone", time.Now())
	require.NoError(t, s.DeleteEntries(context.Background(), []int64{id}))

	var n int64
	require.NoError(t, s.db.Model(&model.HistoryEntry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	seedBlockChange(t, s, alice, world.Vec3{}, "world", action.Place, "air", "stone", time.Now())

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["log_history"])
	assert.Equal(t, int64(1), counts["blocks_log"])
	assert.Equal(t, int64(1), counts["entities"])
	assert.Zero(t, counts["chat_log"])
}
