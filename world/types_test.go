package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Chunk(t *testing.T) {
	assert.Equal(t, ChunkPos{X: 0, Z: 0}, Vec3{X: 0, Y: 64, Z: 15}.Chunk())
	assert.Equal(t, ChunkPos{X: 1, Z: 0}, Vec3{X: 16, Y: 64, Z: 0}.Chunk())
	// Arithmetic shift keeps negative coordinates in the right column.
	assert.Equal(t, ChunkPos{X: -1, Z: -1}, Vec3{X: -1, Y: 64, Z: -16}.Chunk())
	assert.Equal(t, ChunkPos{X: -2, Z: 0}, Vec3{X: -17, Y: 64, Z: 3}.Chunk())
}

func TestBox_Inclusive(t *testing.T) {
	b := Box(Vec3{X: 10, Y: 64, Z: -10}, 5)
	assert.Equal(t, Vec3{X: 5, Y: 59, Z: -15}, b.Min)
	assert.Equal(t, Vec3{X: 15, Y: 69, Z: -5}, b.Max)

	assert.True(t, b.Contains(b.Min))
	assert.True(t, b.Contains(b.Max))
	assert.True(t, b.Contains(Vec3{X: 10, Y: 64, Z: -10}))
	assert.False(t, b.Contains(Vec3{X: 4, Y: 64, Z: -10}))
	assert.False(t, b.Contains(Vec3{X: 10, Y: 70, Z: -10}))
}

func TestBoundingBox_Intersects(t *testing.T) {
	a := Box(Vec3{}, 5)
	assert.True(t, a.Intersects(Box(Vec3{X: 10, Y: 0, Z: 0}, 5)), "touching faces overlap")
	assert.False(t, a.Intersects(Box(Vec3{X: 11, Y: 0, Z: 0}, 5)))
	assert.True(t, a.Intersects(Box(Vec3{}, 1)), "containment counts")
	// Overlap on two axes only is not an intersection.
	assert.False(t, a.Intersects(Box(Vec3{X: 0, Y: 20, Z: 0}, 5)))
}

func TestBlockState_EqualAndAir(t *testing.T) {
	a := BlockState{Name: "chest", State: "facing=north", NBT: []byte(`{"items":[]}`)}
	b := BlockState{Name: "chest", State: "facing=north", NBT: []byte(`{"items":[]}`)}
	assert.True(t, a.Equal(b))

	b.NBT = []byte(`{"items":[1]}`)
	assert.False(t, a.Equal(b), "NBT participates in equality")

	assert.True(t, Air().IsAir())
	assert.True(t, BlockState{}.IsAir())
	assert.False(t, a.IsAir())
}

func TestItem_IsAir(t *testing.T) {
	assert.True(t, EmptySlot().IsAir())
	assert.True(t, Item{Name: "stone", Amount: 0}.IsAir(), "zero amount reads as empty")
	assert.False(t, Item{Name: "stone", Amount: 1}.IsAir())
}
