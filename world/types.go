package world

import "bytes"

// Vec3 is an integer block position. Event callbacks with sub-block
// precision must floor before constructing one.
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ChunkPos identifies a 16x16 column of blocks.
type ChunkPos struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Chunk returns the chunk column containing v.
func (v Vec3) Chunk() ChunkPos {
	return ChunkPos{X: v.X >> 4, Z: v.Z >> 4}
}

// BoundingBox is a six-sided inclusive region.
type BoundingBox struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// Box builds the bounding box of radius r centered on c.
func Box(c Vec3, r int) BoundingBox {
	return BoundingBox{
		Min: Vec3{X: c.X - r, Y: c.Y - r, Z: c.Z - r},
		Max: Vec3{X: c.X + r, Y: c.Y + r, Z: c.Z + r},
	}
}

// Contains reports whether v lies inside b, inclusive on all faces.
func (b BoundingBox) Contains(v Vec3) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}

// Intersects reports whether b and o overlap on every axis.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// AirBlock is the sentinel name for "no block here".
const AirBlock = "air"

// AirItem is the sentinel name for an empty container slot.
const AirItem = "air"

// BlockState is the host-serialized form of one block: identity name, an
// opaque state string, and an optional tile/container NBT blob. The state
// string must round-trip byte-identically through the host serializer.
type BlockState struct {
	Name  string `json:"name"`
	State string `json:"state"`
	NBT   []byte `json:"nbt,omitempty"`
}

// IsAir reports whether the state represents an absent block.
func (s BlockState) IsAir() bool { return s.Name == "" || s.Name == AirBlock }

// Equal compares two serialized states, NBT blob included.
func (s BlockState) Equal(o BlockState) bool {
	return s.Name == o.Name && s.State == o.State && bytes.Equal(s.NBT, o.NBT)
}

// Air is the empty block state.
func Air() BlockState { return BlockState{Name: AirBlock} }

// Item is the host-serialized form of one inventory stack.
type Item struct {
	Name   string `json:"name"`
	NBT    []byte `json:"nbt,omitempty"`
	Amount int    `json:"amount"`
}

// IsAir reports whether the item represents an empty slot.
func (it Item) IsAir() bool { return it.Name == "" || it.Name == AirItem || it.Amount == 0 }

// EmptySlot is the empty item.
func EmptySlot() Item { return Item{Name: AirItem} }

// EntitySnapshot is the host-serialized form of one creature: stable UUID,
// type name, NBT blob, and the ephemeral runtime id it had when captured.
type EntitySnapshot struct {
	UUID     string `json:"uuid"`
	TypeName string `json:"type_name"`
	NBT      []byte `json:"nbt,omitempty"`
	LiveID   int64  `json:"live_id"`
}

// Actor is the resolved identity of whoever caused a change.
type Actor struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Type string `json:"type"` // player | creature | environment
}
