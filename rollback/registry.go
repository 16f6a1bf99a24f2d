package rollback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voxelforge/chronicle/world"
)

// ErrConflict means admission control rejected the operation: the actor
// already has one running, or another actor's operation overlaps it.
var ErrConflict = errors.New("rollback: conflicting operation in progress")

// ActiveOp describes one running rollback/restore for the status surface.
type ActiveOp struct {
	Actor     string             `json:"actor"`
	WorldName string             `json:"world_name"`
	BBox      *world.BoundingBox `json:"bbox,omitempty"` // nil = global
}

// registry is the active-operation ledger: who is currently replaying
// which region of which world. One operation per actor; overlapping
// regions of the same world exclude each other; a global operation
// excludes everything in its world.
type registry struct {
	mu  sync.Mutex
	ops map[string]ActiveOp
}

func newRegistry() *registry {
	return &registry{ops: make(map[string]ActiveOp)}
}

// acquire admits the operation or returns ErrConflict. The check and the
// insert are one critical section so two racing requests cannot both pass.
func (r *registry) acquire(actor, worldName string, bbox *world.BoundingBox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ops[actor]; ok {
		return fmt.Errorf("%w: you already have an operation running", ErrConflict)
	}
	for other, op := range r.ops {
		if op.WorldName != worldName {
			continue
		}
		if op.BBox == nil || bbox == nil || op.BBox.Intersects(*bbox) {
			return fmt.Errorf("%w: overlaps an operation by %s", ErrConflict, other)
		}
	}
	r.ops[actor] = ActiveOp{Actor: actor, WorldName: worldName, BBox: bbox}
	return nil
}

func (r *registry) release(actor string) {
	r.mu.Lock()
	delete(r.ops, actor)
	r.mu.Unlock()
}

// snapshot lists the running operations.
func (r *registry) snapshot() []ActiveOp {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActiveOp, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	return out
}
