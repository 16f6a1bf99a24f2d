package tracking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/queue"
	"github.com/voxelforge/chronicle/scheduler"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/world"
	"go.uber.org/zap"
)

// causeNamespace seeds deterministic UUIDs for synthetic identities, so
// "#water" maps to the same entities row on every server start.
var causeNamespace = uuid.MustParse("8f0c2a52-7b5a-47a1-9bfa-6d7c3f2e1a90")

// CauseActor builds the synthetic identity for a non-player cause such as
// water, fire or decay. Labels are lower-cased and prefixed with "#".
func CauseActor(label string) world.Actor {
	name := "#" + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(label), "#"))
	return world.Actor{
		UUID: uuid.NewSHA1(causeNamespace, []byte(name)).String(),
		Name: name,
		Type: model.EntityTypeEnvironment,
	}
}

// PlayerActor builds the identity for a real player.
func PlayerActor(uid, name string) world.Actor {
	return world.Actor{UUID: strings.ToLower(uid), Name: name, Type: model.EntityTypePlayer}
}

// CreatureActor builds the identity for a living non-player entity.
func CreatureActor(uid, typeName string) world.Actor {
	return world.Actor{UUID: strings.ToLower(uid), Name: typeName, Type: model.EntityTypeCreature}
}

// Deps bundles what every tracker needs.
type Deps struct {
	Store  *store.LogStore
	Queue  *queue.Serial
	Worlds world.Provider
	Sched  *scheduler.Scheduler
	Logger *zap.Logger
	// TickDuration converts tick delays to wall-clock time.
	TickDuration time.Duration
}

// Set bundles the per-kind trackers sharing one store and serial queue.
type Set struct {
	Blocks      *BlockTracker
	Inventories *InventoryTracker
	Entities    *EntityTracker
	Activity    *ActivityTracker
}

// NewSet wires all trackers against shared dependencies.
func NewSet(d Deps) *Set {
	return &Set{
		Blocks:      NewBlockTracker(d),
		Inventories: NewInventoryTracker(d),
		Entities:    NewEntityTracker(d),
		Activity:    NewActivityTracker(d),
	}
}
