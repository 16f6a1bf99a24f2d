package world

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemWorld is an in-process World backed by plain maps. It exists for
// tests and for running the engine without a host game attached; a real
// deployment wires the host runtime's own Provider instead.
type MemWorld struct {
	name string

	mu         sync.Mutex
	blocks     map[Vec3]BlockState
	tiles      map[Vec3][]byte
	containers map[Vec3]*MemContainer
	entities   map[string]EntitySnapshot
	notified   [][]Vec3

	liveSeq atomic.Int64
}

// NewMemWorld creates an empty in-memory world.
func NewMemWorld(name string) *MemWorld {
	return &MemWorld{
		name:       name,
		blocks:     make(map[Vec3]BlockState),
		tiles:      make(map[Vec3][]byte),
		containers: make(map[Vec3]*MemContainer),
		entities:   make(map[string]EntitySnapshot),
	}
}

func (w *MemWorld) Name() string { return w.name }

// SetBlock writes a block directly, bypassing chunk staging. Test setup
// and host event simulation use this.
func (w *MemWorld) SetBlock(pos Vec3, state BlockState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if state.IsAir() {
		delete(w.blocks, pos)
		delete(w.tiles, pos)
		return
	}
	w.blocks[pos] = state
}

func (w *MemWorld) BlockAt(pos Vec3) (BlockState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.blocks[pos]; ok {
		return s, nil
	}
	return Air(), nil
}

func (w *MemWorld) Chunk(pos ChunkPos) (Chunk, error) {
	return &memChunk{pos: pos, staged: make(map[Vec3]BlockState)}, nil
}

func (w *MemWorld) CommitChunks(ctx context.Context, chunks []Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range chunks {
		mc, ok := c.(*memChunk)
		if !ok {
			continue
		}
		for pos, state := range mc.staged {
			if state.IsAir() {
				delete(w.blocks, pos)
			} else {
				w.blocks[pos] = state
			}
			delete(w.tiles, pos)
		}
	}
	return nil
}

func (w *MemWorld) CreateTile(pos Vec3, nbt []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.blocks[pos]; !ok {
		return ErrWorldMissing
	}
	w.tiles[pos] = append([]byte(nil), nbt...)
	return nil
}

// TileAt returns the tile blob at pos, or nil.
func (w *MemWorld) TileAt(pos Vec3) []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tiles[pos]
}

func (w *MemWorld) ContainerAt(pos Vec3) (Container, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.containers[pos]; ok {
		return c, nil
	}
	return nil, ErrNoContainer
}

// PutContainer installs a container at pos for tests.
func (w *MemWorld) PutContainer(pos Vec3, size int) *MemContainer {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := &MemContainer{slots: make([]Item, size)}
	w.containers[pos] = c
	return c
}

func (w *MemWorld) NotifyNeighbors(positions []Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notified = append(w.notified, positions)
}

// NotifyCalls returns how many neighbor-update passes have fired.
func (w *MemWorld) NotifyCalls() [][]Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]Vec3, len(w.notified))
	copy(out, w.notified)
	return out
}

func (w *MemWorld) SpawnEntity(snap EntitySnapshot) (int64, error) {
	id := w.liveSeq.Add(1)
	snap.LiveID = id
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[snap.UUID] = snap
	return id, nil
}

func (w *MemWorld) RemoveEntity(uuid string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[uuid]; !ok {
		return ErrNoEntity
	}
	delete(w.entities, uuid)
	return nil
}

// Entity returns the live snapshot for uuid, if present.
func (w *MemWorld) Entity(uuid string) (EntitySnapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.entities[uuid]
	return s, ok
}

type memChunk struct {
	pos    ChunkPos
	staged map[Vec3]BlockState
}

func (c *memChunk) Pos() ChunkPos { return c.pos }

func (c *memChunk) SetBlock(pos Vec3, state BlockState) {
	c.staged[pos] = state
}

// MemContainer is a fixed-size slot array.
type MemContainer struct {
	mu    sync.Mutex
	slots []Item
}

func (c *MemContainer) SetSlot(slot int, item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot < 0 || slot >= len(c.slots) {
		return ErrNoContainer
	}
	c.slots[slot] = item
	return nil
}

// Slot returns the item currently in slot.
func (c *MemContainer) Slot(slot int) Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot < 0 || slot >= len(c.slots) {
		return EmptySlot()
	}
	return c.slots[slot]
}

// MemProvider holds a fixed set of in-memory worlds.
type MemProvider struct {
	mu     sync.Mutex
	worlds map[string]*MemWorld
}

// NewMemProvider creates a provider with one MemWorld per name.
func NewMemProvider(names ...string) *MemProvider {
	p := &MemProvider{worlds: make(map[string]*MemWorld)}
	for _, n := range names {
		p.worlds[n] = NewMemWorld(n)
	}
	return p
}

func (p *MemProvider) World(name string) (World, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.worlds[name]
	if !ok {
		return nil, false
	}
	return w, true
}

// Mem returns the concrete MemWorld for direct test manipulation.
func (p *MemProvider) Mem(name string) *MemWorld {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.worlds[name]
}

// Remove unloads a world, simulating the host unloading a level.
func (p *MemProvider) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.worlds, name)
}
