package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AdvanceMovesBySpeed(t *testing.T) {
	m := NewManager()
	obj := &FallingObject{ID: "a", X: 100, Y: 0, Radius: 60, Kind: KindNormal, FallSpeed: 100}
	m.Add(obj)

	removed := m.Advance(1.0, 1000)

	assert.Empty(t, removed)
	assert.Equal(t, 100.0, obj.Y)
}

func TestManager_PrunesBelowHeight(t *testing.T) {
	m := NewManager()
	m.Add(
		&FallingObject{ID: "below", Y: 1061, Radius: 60, Kind: KindHazard, FallSpeed: 200},
		&FallingObject{ID: "visible", Y: 500, Radius: 60, Kind: KindNormal, FallSpeed: 200},
	)

	removed := m.Advance(0, 1000)

	require.Len(t, removed, 1)
	assert.Equal(t, "below", removed[0].ID)
	assert.Equal(t, 1, m.Count())

	_, ok := m.GetObject("visible")
	assert.True(t, ok)
}

func TestManager_SlicedObjectsFrozenThenPruned(t *testing.T) {
	m := NewManager()
	obj := &FallingObject{ID: "s", Y: 100, Radius: 60, Kind: KindNormal, FallSpeed: 300}
	m.Add(obj)
	m.MarkSliced(obj)

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.True(t, snap[0].Sliced)

	removed := m.Advance(0.5, 1000)
	require.Len(t, removed, 1)
	assert.Equal(t, 100.0, removed[0].Y, "разрезанный объект не двигается")
	assert.Zero(t, m.Count())
}

func TestManager_KeepsSpawnOrder(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"1", "2", "3", "4"} {
		m.Add(&FallingObject{ID: id, Radius: 10, FallSpeed: 1})
	}
	objs := m.Objects()
	m.MarkSliced(objs[1])
	m.Advance(0.1, 1000)

	var ids []string
	for _, obj := range m.Objects() {
		ids = append(ids, obj.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
}

func TestManager_Reset(t *testing.T) {
	m := NewManager()
	m.Add(&FallingObject{ID: "x"})
	m.Reset()
	assert.Zero(t, m.Count())
}

func TestBounds_FloorY(t *testing.T) {
	b := Bounds{Width: 480, Height: 640, FloorMargin: 32}
	assert.Equal(t, 608.0, b.FloorY())
	assert.True(t, b.Valid())
	assert.False(t, Bounds{Width: 0, Height: 640}.Valid())

	obj := FallingObject{Y: 548, Radius: 60}
	assert.True(t, obj.ReachedFloor(b.FloorY()))
	obj.Y = 547
	assert.False(t, obj.ReachedFloor(b.FloorY()))
}
