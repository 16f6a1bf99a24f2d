package store

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// blobColumns lists, per detail table, the columns holding serialized
// JSON blobs that must still parse for the row to be replayable.
var blobColumns = map[string][]string{
	"blocks_log":      {"old_nbt", "new_nbt"},
	"inventories_log": {"old_nbt", "new_nbt"},
	"entities_log":    {"nbt"},
	"signs_log":       {"lines"},
}

// SweepUnreadable deletes log rows whose stored blobs no longer parse.
// Such rows cannot be replayed, so the migration path drops them and
// moves on instead of failing. Runs once at startup after AutoMigrate.
func (s *LogStore) SweepUnreadable(ctx context.Context) (int, error) {
	seen := make(map[int64]struct{})
	var bad []int64
	for table, cols := range blobColumns {
		for _, col := range cols {
			var rows []struct {
				LogID int64
				Blob  []byte
			}
			q := "SELECT log_id, " + col + " AS blob FROM " + table +
				" WHERE " + col + " IS NOT NULL"
			if err := s.db.WithContext(ctx).Raw(q).Scan(&rows).Error; err != nil {
				return 0, storageErr("sweep "+table, err)
			}
			for _, r := range rows {
				if len(r.Blob) == 0 || json.Valid(r.Blob) {
					continue
				}
				if _, dup := seen[r.LogID]; dup {
					continue
				}
				seen[r.LogID] = struct{}{}
				bad = append(bad, r.LogID)
				s.logger.Debug("dropping unreadable log row",
					zap.String("table", table), zap.Int64("log_id", r.LogID))
			}
		}
	}
	if len(bad) == 0 {
		return 0, nil
	}
	if err := s.DeleteEntries(ctx, bad); err != nil {
		return 0, err
	}
	return len(bad), nil
}
