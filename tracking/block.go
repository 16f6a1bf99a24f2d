package tracking

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlockTracker serializes block transitions into the change log and knows
// how to replay them against a live world.
type BlockTracker struct {
	d        Deps
	batchSeq atomic.Int64
}

// NewBlockTracker creates a BlockTracker.
func NewBlockTracker(d Deps) *BlockTracker { return &BlockTracker{d: d} }

// LogByEntity records one block transition caused by a resolved actor.
// Positions are block-granular; callers floor sub-block coordinates first.
func (t *BlockTracker) LogByEntity(ctx context.Context, actor world.Actor, worldName string, pos world.Vec3, oldState, newState world.BlockState, act action.Action) error {
	return t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
			return err
		}
		return t.insertBlockRow(tx, actor.UUID, worldName, pos, oldState, newState, act, time.Now())
	})
}

// LogByBlock records a transition whose cause is a block rather than a
// living entity (fire spreading, water flow). When sourcePos is given the
// event is attributed to whoever last modified that position, propagating
// causality exactly one hop; otherwise the synthetic block identity is
// used.
func (t *BlockTracker) LogByBlock(ctx context.Context, causeName, worldName string, pos world.Vec3, oldState, newState world.BlockState, act action.Action, sourcePos *world.Vec3) error {
	actor := CauseActor(causeName)
	if sourcePos != nil {
		who, err := t.d.Store.LastActorAt(ctx, worldName, *sourcePos)
		if err != nil {
			return err
		}
		if who != "" {
			// The prior actor already has an entities row; EnsureEntity
			// is a no-op for it.
			actor = world.Actor{UUID: who, Name: actor.Name, Type: model.EntityTypeEnvironment}
		}
	}
	return t.LogByEntity(ctx, actor, worldName, pos, oldState, newState, act)
}

// Capture pairs a position with its before/after states.
type Capture struct {
	Pos world.Vec3
	Old world.BlockState
	New world.BlockState
}

// LogBatch snapshots the given positions now, waits delayTicks world ticks
// for the engine to settle (physics-driven collapses resolve over several
// ticks), re-snapshots, and logs every position that actually changed as
// one transactional batch on the serial queue.
func (t *BlockTracker) LogBatch(actor world.Actor, worldName string, positions []world.Vec3, act action.Action, delayTicks int) error {
	w, ok := t.d.Worlds.World(worldName)
	if !ok {
		return world.ErrWorldMissing
	}
	pre := make(map[world.Vec3]world.BlockState, len(positions))
	for _, pos := range positions {
		state, err := w.BlockAt(pos)
		if err != nil {
			return err
		}
		pre[pos] = state
	}

	name := fmt.Sprintf("block_batch_%d", t.batchSeq.Add(1))
	t.d.Sched.AfterTicks(name, delayTicks, t.d.TickDuration, func() {
		w, ok := t.d.Worlds.World(worldName)
		if !ok {
			t.d.Logger.Warn("deferred batch dropped, world unloaded",
				zap.String("world", worldName))
			return
		}
		var changed []Capture
		for pos, before := range pre {
			after, err := w.BlockAt(pos)
			if err != nil {
				continue
			}
			if after.Equal(before) {
				continue
			}
			changed = append(changed, Capture{Pos: pos, Old: before, New: after})
		}
		if len(changed) == 0 {
			return
		}
		if err := t.enqueueBatch(actor, worldName, changed, act, name); err != nil {
			t.d.Logger.Error("deferred batch enqueue failed",
				zap.String("task", name), zap.Error(err))
		}
	})
	return nil
}

// LogExplosion records an already-resolved multi-block change (explosion
// results are known immediately) as one transactional batch. When
// sourcePos is given the blast is attributed to whoever last touched that
// position.
func (t *BlockTracker) LogExplosion(ctx context.Context, actor world.Actor, worldName string, affected []Capture, act action.Action, sourcePos *world.Vec3) error {
	if len(affected) == 0 {
		return nil
	}
	if sourcePos != nil {
		who, err := t.d.Store.LastActorAt(ctx, worldName, *sourcePos)
		if err != nil {
			return err
		}
		if who != "" {
			actor = world.Actor{UUID: who, Name: actor.Name, Type: actor.Type}
		}
	}
	name := fmt.Sprintf("explosion_%d", t.batchSeq.Add(1))
	return t.enqueueBatch(actor, worldName, affected, act, name)
}

// enqueueBatch funnels a multi-row insert through the serial queue. The
// body reads back generated ids while inserting, so two batches must never
// interleave.
func (t *BlockTracker) enqueueBatch(actor world.Actor, worldName string, captures []Capture, act action.Action, name string) error {
	at := time.Now()
	return t.d.Queue.Enqueue(name, func(ctx context.Context) {
		err := t.d.Store.Transaction(ctx, func(tx *gorm.DB) error {
			if err := t.d.Store.EnsureEntity(tx, actor); err != nil {
				return err
			}
			for _, c := range captures {
				if err := t.insertBlockRow(tx, actor.UUID, worldName, c.Pos, c.Old, c.New, act, at); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.d.Logger.Error("block batch insert failed",
				zap.String("task", name),
				zap.Int("rows", len(captures)),
				zap.Error(err))
		}
	})
}

func (t *BlockTracker) insertBlockRow(tx *gorm.DB, who, worldName string, pos world.Vec3, oldState, newState world.BlockState, act action.Action, at time.Time) error {
	id, err := t.d.Store.InsertHistory(tx, who, pos, worldName, act, at)
	if err != nil {
		return err
	}
	detail := model.BlockLog{
		LogID:    id,
		OldName:  oldState.Name,
		OldState: oldState.State,
		OldNBT:   datatypes.JSON(oldState.NBT),
		NewName:  newState.Name,
		NewState: newState.State,
		NewNBT:   datatypes.JSON(newState.NBT),
	}
	if err := tx.Create(&detail).Error; err != nil {
		return fmt.Errorf("%w: insert block detail: %v", store.ErrStorage, err)
	}
	return nil
}

// Replay applies the stored block states for the given log ids against the
// live world. Blocks are staged into per-chunk copies (each distinct chunk
// loaded once per batch), committed in one bulk write, and tile blobs are
// applied in a second pass because a tile needs its block to exist first.
// It returns blocks changed, chunks touched, and the positions needing a
// neighbor-update pass.
func (t *BlockTracker) Replay(ctx context.Context, w world.World, dir Direction, ids []int64) (int, int, []world.Vec3, error) {
	rows, err := t.d.Store.BlockRows(ctx, ids)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(rows) == 0 {
		return 0, 0, nil, nil
	}
	// BlockRows come newest-first, the order rollback wants; restore
	// reapplies oldest-first so chained changes rebuild correctly.
	if dir.Ascending() {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	type tileFix struct {
		pos world.Vec3
		nbt []byte
	}
	chunks := make(map[world.ChunkPos]world.Chunk)
	var tiles []tileFix
	updates := make([]world.Vec3, 0, len(rows))

	for _, row := range rows {
		target := world.BlockState{Name: row.OldName, State: row.OldState, NBT: []byte(row.OldNBT)}
		if dir == DirRestore {
			target = world.BlockState{Name: row.NewName, State: row.NewState, NBT: []byte(row.NewNBT)}
		}
		pos := world.Vec3{X: row.X, Y: row.Y, Z: row.Z}
		cp := pos.Chunk()
		ch, ok := chunks[cp]
		if !ok {
			ch, err = w.Chunk(cp)
			if err != nil {
				return 0, 0, nil, err
			}
			chunks[cp] = ch
		}
		ch.SetBlock(pos, world.BlockState{Name: target.Name, State: target.State})
		if len(target.NBT) > 0 {
			tiles = append(tiles, tileFix{pos: pos, nbt: target.NBT})
		}
		updates = append(updates, pos)
	}

	staged := make([]world.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		staged = append(staged, ch)
	}
	if err := w.CommitChunks(ctx, staged); err != nil {
		return 0, 0, nil, err
	}
	for _, tf := range tiles {
		if err := w.CreateTile(tf.pos, tf.nbt); err != nil {
			t.d.Logger.Debug("tile rebuild skipped",
				zap.Int("x", tf.pos.X), zap.Int("y", tf.pos.Y), zap.Int("z", tf.pos.Z),
				zap.Error(err))
		}
	}
	return len(rows), len(chunks), updates, nil
}
