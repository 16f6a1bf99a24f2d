package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/world"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorage wraps engine-level failures (connection loss, constraint
// violations). Callers check it with errors.Is and translate it into one
// user-visible message.
var ErrStorage = errors.New("store: storage unavailable")

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// flagChunk bounds how many ids one UPDATE touches, keeping statements
// under placeholder limits on both engines.
const flagChunk = 1000

// LogStore owns every read and write against the change-log tables. It is
// append-only: the single mutable column is rollback_flag, and only the
// rollback orchestrator calls UpdateRollbackFlag.
type LogStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLogStore creates a LogStore.
func NewLogStore(db *gorm.DB, logger *zap.Logger) *LogStore {
	return &LogStore{db: db, logger: logger}
}

// Transaction runs fn inside one engine transaction. Multi-row sequences
// (entry plus detail row, batch logging) must go through here so a partial
// write can never break the entry↔detail invariant.
func (s *LogStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := s.db.WithContext(ctx).Transaction(fn); err != nil {
		if errors.Is(err, ErrStorage) {
			return err
		}
		return storageErr("transaction", err)
	}
	return nil
}

// EnsureEntity upserts the actor into the entities reference table.
// Idempotent; UUIDs are stored lower-case so lookups stay consistent.
func (s *LogStore) EnsureEntity(tx *gorm.DB, a world.Actor) error {
	ent := model.Entity{
		UUID:        strings.ToLower(a.UUID),
		DisplayName: a.Name,
		EntityType:  a.Type,
	}
	err := tx.Where("uuid = ?", ent.UUID).FirstOrCreate(&model.Entity{}, ent).Error
	if err != nil {
		return storageErr("ensure entity", err)
	}
	return nil
}

// InsertHistory appends one log row and returns its generated id.
func (s *LogStore) InsertHistory(tx *gorm.DB, who string, pos world.Vec3, worldName string, act action.Action, at time.Time) (int64, error) {
	entry := model.HistoryEntry{
		Who:       strings.ToLower(who),
		X:         pos.X,
		Y:         pos.Y,
		Z:         pos.Z,
		WorldName: worldName,
		Action:    uint8(act),
		Time:      timeSeconds(at),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, storageErr("insert history", err)
	}
	return entry.LogID, nil
}

// LastActorAt returns the uuid of whoever most recently changed the block
// at pos, or "" when the log knows nothing about that position. Block-cause
// logging uses this to propagate causality one hop (lava ignites fire, the
// burned block is attributed to whoever placed the lava).
func (s *LogStore) LastActorAt(ctx context.Context, worldName string, pos world.Vec3) (string, error) {
	var who string
	err := s.db.WithContext(ctx).
		Model(&model.HistoryEntry{}).
		Select("who").
		Where("world_name = ? AND x = ? AND y = ? AND z = ?", worldName, pos.X, pos.Y, pos.Z).
		Order("time DESC").Order("log_id DESC").
		Limit(1).
		Scan(&who).Error
	if err != nil {
		return "", storageErr("last actor", err)
	}
	return who, nil
}

// SelectIDs returns up to limit log ids matching the filter whose
// rollback_flag differs from targetFlag, ordered by time. Rollback wants
// descending order (undo most-recent-first); restore ascending.
func (s *LogStore) SelectIDs(ctx context.Context, f Filter, bbox *world.BoundingBox, now time.Time, targetFlag uint8, limit int, ascending bool) ([]int64, error) {
	pred, args := BuildPredicate(f, bbox, now)
	ord := "DESC"
	if ascending {
		ord = "ASC"
	}
	q := fmt.Sprintf(
		"SELECT lh.log_id FROM %s WHERE %s AND lh.rollback_flag <> ? ORDER BY lh.time %s, lh.log_id %s LIMIT ?",
		historyJoins, pred, ord, ord)
	args = append(args, targetFlag, limit)

	var ids []int64
	if err := s.db.WithContext(ctx).Raw(q, args...).Scan(&ids).Error; err != nil {
		return nil, storageErr("select ids", err)
	}
	return ids, nil
}

// UpdateRollbackFlag flips the flag for exactly the given ids, in bounded
// chunks inside one transaction.
func (s *LogStore) UpdateRollbackFlag(ctx context.Context, ids []int64, flag uint8) error {
	if len(ids) == 0 {
		return nil
	}
	return s.Transaction(ctx, func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += flagChunk {
			end := start + flagChunk
			if end > len(ids) {
				end = len(ids)
			}
			err := tx.Model(&model.HistoryEntry{}).
				Where("log_id IN ?", ids[start:end]).
				Update("rollback_flag", flag).Error
			if err != nil {
				return storageErr("update flag", err)
			}
		}
		return nil
	})
}

// DeleteEntries removes the given log rows and their detail rows. Schema
// migration uses this to drop rows whose stored state can no longer be
// deserialized.
func (s *LogStore) DeleteEntries(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.Transaction(ctx, func(tx *gorm.DB) error {
		for _, detail := range []string{"blocks_log", "inventories_log", "entities_log", "signs_log", "chat_log"} {
			if err := tx.Exec("DELETE FROM "+detail+" WHERE log_id IN ?", ids).Error; err != nil {
				return storageErr("delete details", err)
			}
		}
		if err := tx.Exec("DELETE FROM log_history WHERE log_id IN ?", ids).Error; err != nil {
			return storageErr("delete history", err)
		}
		return nil
	})
}

// Purge bulk-deletes log rows older than olderThan seconds, cascading to
// detail rows. worldName narrows the purge to one world; empty means all.
// With optimize set, a storage compaction pass runs after the delete.
func (s *LogStore) Purge(ctx context.Context, olderThan int64, worldName string, optimize bool) (int64, error) {
	cutoff := timeSeconds(time.Now()) - float64(olderThan)
	cond := "time < ?"
	condArgs := []interface{}{cutoff}
	if worldName != "" {
		cond += " AND world_name = ?"
		condArgs = append(condArgs, worldName)
	}

	var affected int64
	err := s.Transaction(ctx, func(tx *gorm.DB) error {
		sub := "SELECT log_id FROM log_history WHERE " + cond
		for _, detail := range []string{"blocks_log", "inventories_log", "entities_log", "signs_log", "chat_log"} {
			err := tx.Exec("DELETE FROM "+detail+" WHERE log_id IN ("+sub+")", condArgs...).Error
			if err != nil {
				return storageErr("purge details", err)
			}
		}
		res := tx.Exec("DELETE FROM log_history WHERE "+cond, condArgs...)
		if res.Error != nil {
			return storageErr("purge history", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if optimize {
		if err := s.optimize(ctx); err != nil {
			// The purge itself committed; compaction failure is not fatal.
			s.logger.Warn("storage optimize failed", zap.Error(err))
		}
	}
	return affected, nil
}

// optimize runs the engine-appropriate compaction statement.
func (s *LogStore) optimize(ctx context.Context) error {
	switch s.db.Dialector.Name() {
	case "sqlite", "sqlite3":
		return s.db.WithContext(ctx).Exec("VACUUM").Error
	case "mysql":
		return s.db.WithContext(ctx).
			Exec("OPTIMIZE TABLE log_history, blocks_log, inventories_log, entities_log, signs_log, chat_log").Error
	default:
		return nil
	}
}

// Counts reports the per-table row counts for the status endpoint.
func (s *LogStore) Counts(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for name, m := range map[string]interface{}{
		"entities":        &model.Entity{},
		"log_history":     &model.HistoryEntry{},
		"blocks_log":      &model.BlockLog{},
		"inventories_log": &model.InventoryLog{},
		"entities_log":    &model.EntityLog{},
		"signs_log":       &model.SignLog{},
		"chat_log":        &model.ChatLog{},
	} {
		var n int64
		if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, storageErr("count "+name, err)
		}
		out[name] = n
	}
	return out, nil
}
