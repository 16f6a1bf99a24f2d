package rollback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxelforge/chronicle/world"
)

func box(x, z, r int) *world.BoundingBox {
	b := world.Box(world.Vec3{X: x, Y: 64, Z: z}, r)
	return &b
}

func TestRegistry_OnePerActor(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("admin", "world", box(0, 0, 5)))
	assert.ErrorIs(t, r.acquire("admin", "nether", box(100, 100, 5)), ErrConflict,
		"an actor runs one operation at a time, anywhere")

	r.release("admin")
	assert.NoError(t, r.acquire("admin", "world", box(0, 0, 5)))
}

func TestRegistry_OverlapConflicts(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("a", "world", box(0, 0, 5)))
	assert.ErrorIs(t, r.acquire("b", "world", box(4, 0, 5)), ErrConflict)
}

func TestRegistry_DisjointProceeds(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("a", "world", box(0, 0, 5)))
	assert.NoError(t, r.acquire("b", "world", box(100, 100, 5)))
}

func TestRegistry_DifferentWorldsNeverConflict(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("a", "world", nil))
	assert.NoError(t, r.acquire("b", "nether", nil))
}

func TestRegistry_GlobalExclusivity(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("a", "world", nil))
	assert.ErrorIs(t, r.acquire("b", "world", box(100, 100, 5)), ErrConflict,
		"global blocks every region in its world")

	r2 := newRegistry()
	require.NoError(t, r2.acquire("a", "world", box(0, 0, 5)))
	assert.ErrorIs(t, r2.acquire("b", "world", nil), ErrConflict,
		"and every region blocks global")
}

func TestRegistry_Snapshot(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.acquire("a", "world", box(0, 0, 5)))
	ops := r.snapshot()
	require.Len(t, ops, 1)
	assert.Equal(t, "a", ops[0].Actor)
	assert.Equal(t, "world", ops[0].WorldName)
	require.NotNil(t, ops[0].BBox)
}
