package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Entity
	ent := &model.Entity{UUID: "a1b2", DisplayName: "alice", EntityType: model.EntityTypePlayer}
	require.NoError(t, db.Create(ent).Error)

	var foundEnt model.Entity
	require.NoError(t, db.First(&foundEnt, "uuid = ?", "a1b2").Error)
	assert.Equal(t, "alice", foundEnt.DisplayName)

	// HistoryEntry
	he := &model.HistoryEntry{
		Who: "a1b2", X: 10, Y: 64, Z: -10,
		WorldName: "world", Action: 1, Time: 1700000000,
	}
	require.NoError(t, db.Create(he).Error)
	assert.Greater(t, he.LogID, int64(0))

	// BlockLog shares the history row's id
	bl := &model.BlockLog{LogID: he.LogID, OldName: "stone", NewName: ""}
	require.NoError(t, db.Create(bl).Error)

	// InventoryLog
	il := &model.InventoryLog{
		LogID: he.LogID, Slot: 3,
		OldName: "diamond", OldAmount: 5,
	}
	require.NoError(t, db.Create(il).Error)

	// EntityLog
	el := &model.EntityLog{LogID: he.LogID, EntityUUID: "c0w1", NBT: datatypes.JSON(`{"health":10}`)}
	require.NoError(t, db.Create(el).Error)

	// SignLog
	sl := &model.SignLog{LogID: he.LogID, Lines: datatypes.JSON(`["line one"]`)}
	require.NoError(t, db.Create(sl).Error)

	// ChatLog
	cl := &model.ChatLog{LogID: he.LogID, Message: "hello"}
	require.NoError(t, db.Create(cl).Error)
}

func TestAutoMigrate_StampsSchemaVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var versions []model.SchemaVersion
	require.NoError(t, db.Find(&versions).Error)
	require.Len(t, versions, 1)
	assert.Equal(t, model.CurrentSchemaVersion, versions[0].Version)

	// A second migration run must not stamp a duplicate.
	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, db.Find(&versions).Error)
	assert.Len(t, versions, 1)
}
