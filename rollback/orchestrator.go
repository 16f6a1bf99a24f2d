package rollback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/tracking"
	"github.com/voxelforge/chronicle/world"
)

// Report summarizes one completed rollback or restore.
type Report struct {
	Actor      string        `json:"actor"`
	Direction  string        `json:"direction"`
	WorldName  string        `json:"world_name"`
	TimeWindow string        `json:"time_window"`
	Radius     string        `json:"radius"`
	Blocks     int           `json:"blocks"`
	Chunks     int           `json:"chunks"`
	Items      int           `json:"items"`
	Entities   int           `json:"entities"`
	Rows       int           `json:"rows"`
	Batches    int           `json:"batches"`
	Elapsed    time.Duration `json:"elapsed"`
	NoChanges  bool          `json:"no_changes"`
}

// Orchestrator drives whole rollback and restore operations: admission
// control, batched row selection, replay through the trackers, flag
// updates, and the undo record left behind on success.
type Orchestrator struct {
	store     *store.LogStore
	trackers  *tracking.Set
	worlds    world.Provider
	reg       *registry
	undo      *undoStore
	limits    store.Limits
	rowsLimit int
	logger    *zap.Logger
}

func New(st *store.LogStore, trackers *tracking.Set, worlds world.Provider, c cache.Cache, limits store.Limits, rowsLimit int, logger *zap.Logger) *Orchestrator {
	if rowsLimit <= 0 {
		rowsLimit = 25000
	}
	return &Orchestrator{
		store:     st,
		trackers:  trackers,
		worlds:    worlds,
		reg:       newRegistry(),
		undo:      &undoStore{cache: c, logger: logger},
		limits:    limits,
		rowsLimit: rowsLimit,
		logger:    logger,
	}
}

// Active lists the operations currently running.
func (o *Orchestrator) Active() []ActiveOp {
	return o.reg.snapshot()
}

// Rollback reverts the changes matched by f, newest first.
func (o *Orchestrator) Rollback(ctx context.Context, actor string, f store.Filter, anchor *world.Vec3) (*Report, error) {
	return o.run(ctx, actor, f, anchor, tracking.DirRollback, time.Now())
}

// Restore re-applies previously rolled back changes, oldest first.
func (o *Orchestrator) Restore(ctx context.Context, actor string, f store.Filter, anchor *world.Vec3) (*Report, error) {
	return o.run(ctx, actor, f, anchor, tracking.DirRestore, time.Now())
}

// Undo inverts the actor's last completed operation by running the same
// filter in the opposite direction, anchored at the original time so the
// window covers exactly the rows the first run touched.
func (o *Orchestrator) Undo(ctx context.Context, actor string) (*Report, error) {
	rec, err := o.undo.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	rep, err := o.run(ctx, actor, rec.Filter, rec.Anchor, rec.Direction, rec.AnchorTime)
	if err != nil {
		return nil, err
	}
	if rep.NoChanges {
		// The record pointed at rows something else already consumed.
		o.undo.clear(ctx, actor)
		return nil, ErrNothingToUndo
	}
	return rep, nil
}

func (o *Orchestrator) run(ctx context.Context, actor string, f store.Filter, anchor *world.Vec3, dir tracking.Direction, anchorTime time.Time) (*Report, error) {
	bbox, err := f.Resolve(anchor, o.limits)
	if err != nil {
		return nil, err
	}
	w, ok := o.worlds.World(f.World)
	if !ok {
		return nil, fmt.Errorf("%w: %s", world.ErrWorldMissing, f.World)
	}
	if err := o.reg.acquire(actor, f.World, bbox); err != nil {
		return nil, err
	}
	defer o.reg.release(actor)

	start := time.Now()
	target := dir.TargetFlag()
	rep := &Report{
		Actor:      actor,
		Direction:  dir.String(),
		WorldName:  f.World,
		TimeWindow: windowLabel(f.Since),
		Radius:     radiusLabel(bbox, f.Radius, o.limits),
	}
	var updates []world.Vec3

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		ids, err := o.store.SelectIDs(ctx, f, bbox, anchorTime, target, o.rowsLimit, dir.Ascending())
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}
		rep.Batches++
		rep.Rows += len(ids)

		blocks, chunks, ups, err := o.trackers.Blocks.Replay(ctx, w, dir, ids)
		if err != nil {
			if !worldGone(err) {
				return nil, err
			}
			// The world unloaded under us. World-side effects are lost but
			// the flags still advance so the log stays consistent.
			o.logger.Warn("world unavailable during replay, flags still advance",
				zap.String("world", f.World), zap.Error(err))
		} else {
			rep.Blocks += blocks
			rep.Chunks += chunks
			updates = append(updates, ups...)
		}

		items, err := o.trackers.Inventories.Replay(ctx, w, dir, ids)
		if err != nil && !worldGone(err) {
			return nil, err
		}
		rep.Items += items

		ents, err := o.trackers.Entities.Replay(ctx, w, dir, ids)
		if err != nil && !worldGone(err) {
			return nil, err
		}
		rep.Entities += ents

		// Flag exactly this batch so an interrupted run resumes where it
		// stopped instead of replaying finished rows.
		if err := o.store.UpdateRollbackFlag(ctx, ids, target); err != nil {
			return nil, err
		}
		if len(ids) < o.rowsLimit {
			break
		}
	}

	if len(updates) > 0 {
		w.NotifyNeighbors(updates)
	}
	rep.Elapsed = time.Since(start)
	rep.NoChanges = rep.Rows == 0
	if rep.NoChanges {
		return rep, nil
	}

	o.undo.save(ctx, actor, undoRecord{
		Direction:  dir.Opposite(),
		Filter:     f,
		Anchor:     anchor,
		AnchorTime: anchorTime,
	})
	o.logger.Info("operation complete",
		zap.String("actor", actor),
		zap.String("direction", dir.String()),
		zap.String("world", f.World),
		zap.Int("rows", rep.Rows),
		zap.Int("batches", rep.Batches),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}

func worldGone(err error) bool {
	return errors.Is(err, world.ErrWorldMissing)
}

func windowLabel(since int64) string {
	if since <= 0 {
		return "all time"
	}
	return (time.Duration(since) * time.Second).String()
}

func radiusLabel(bbox *world.BoundingBox, radius *int, lim store.Limits) string {
	if bbox == nil {
		return "global"
	}
	r := lim.DefaultRadius
	if radius != nil {
		r = *radius
	}
	return fmt.Sprintf("%d", r)
}
