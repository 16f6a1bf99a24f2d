package world

import (
	"context"
	"errors"
)

var (
	// ErrWorldMissing means the named world is not loaded. Replay skips
	// the batch's world-side effects when it sees this.
	ErrWorldMissing = errors.New("world: world not loaded")
	// ErrNoContainer means the block at the position has no inventory.
	ErrNoContainer = errors.New("world: no container at position")
	// ErrNoEntity means no live entity matches the given identity.
	ErrNoEntity = errors.New("world: no such entity")
)

// Chunk is an in-memory staging copy of one chunk column. Replay stages
// block writes into copies and commits them in bulk so the live world sees
// one batched update instead of per-row mutations.
type Chunk interface {
	Pos() ChunkPos
	SetBlock(pos Vec3, state BlockState)
}

// Container is a narrow view of a block's inventory.
type Container interface {
	SetSlot(slot int, item Item) error
}

// World is the boundary to one live level of the host game. Implementations
// belong to the host runtime; the engine only ever calls through this
// interface.
type World interface {
	Name() string

	// BlockAt returns the serialized state of the block at pos.
	BlockAt(pos Vec3) (BlockState, error)

	// Chunk returns a staging copy of the chunk column. Each distinct
	// chunk should be requested once per replay batch.
	Chunk(pos ChunkPos) (Chunk, error)

	// CommitChunks applies staged chunk copies as one bulk write. The
	// host dispatches the raw block rewrite to its own background worker;
	// the call returns once the write has been applied.
	CommitChunks(ctx context.Context, chunks []Chunk) error

	// CreateTile rebuilds a tile (sign, chest, furnace...) from its NBT
	// blob. The containing block must already exist.
	CreateTile(pos Vec3, nbt []byte) error

	// ContainerAt returns the inventory of the block at pos.
	ContainerAt(pos Vec3) (Container, error)

	// NotifyNeighbors fires one neighbor-update pass for the positions,
	// re-running the physics hooks the raw chunk write bypassed.
	NotifyNeighbors(positions []Vec3)

	// SpawnEntity recreates a creature from a snapshot and returns its
	// new ephemeral runtime id.
	SpawnEntity(snap EntitySnapshot) (int64, error)

	// RemoveEntity despawns the live entity with the given stable UUID.
	RemoveEntity(uuid string) error
}

// Provider resolves world names to loaded worlds.
type Provider interface {
	World(name string) (World, bool)
}
