package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/simviz/pkg/log"
	"github.com/open-teleop/simviz/pkg/wire"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(customlog.Discard())
}

func TestBuildSceneExpandsArticulatedSystems(t *testing.T) {
	store := newTestStore(t)
	objects := allKindsScene().Objects
	AssignMaterials(objects, nil)

	created, failed := BuildScene(store, objects)
	assert.Empty(t, failed)

	// cone object and cone shape are not materialized
	assert.Equal(t, 8+5, created)
	assert.Equal(t, created, store.Stats().Nodes)

	_, ok := store.Node("cone")
	assert.False(t, ok)
	_, ok = store.Node("arm/collision/2")
	assert.False(t, ok)

	link, ok := store.Node("arm/collision/1")
	require.True(t, ok)
	assert.Equal(t, VisibilityCollision, link.Visibility)
	assert.Equal(t, int32(4), link.Group)
	assert.Equal(t, "capsule", link.Kind())
	assert.Equal(t, FallbackMaterial(9), link.Material)

	ball, ok := store.Node("ball")
	require.True(t, ok)
	assert.Equal(t, VisibilityVisualAndCollision, ball.Visibility)
	assert.Equal(t, IdentityQuat(), ball.Orientation)

	nodes := store.Nodes()
	assert.Equal(t, "ball", nodes[0].Name)
	assert.Equal(t, "arm/visual/0", nodes[8].Name)
}

func TestBuildSceneReplacesPreviousScene(t *testing.T) {
	store := newTestStore(t)
	BuildScene(store, allKindsScene().Objects)

	created, failed := BuildScene(store, []ObjectDescriptor{
		{Index: 0, Name: "only", Geometry: Sphere{Radius: 1}},
		{Index: 1, Name: "only", Geometry: Sphere{Radius: 2}},
	})
	assert.Equal(t, 1, created)
	require.Contains(t, failed, "only")
	assert.ErrorIs(t, failed["only"], ErrDuplicateNode)
	assert.Equal(t, 1, store.Stats().Nodes)
	assert.Equal(t, int64(2), store.Stats().Clears)
}

func TestScenarioPoseApplied(t *testing.T) {
	store := newTestStore(t)
	BuildScene(store, []ObjectDescriptor{{Index: 0, Name: "ball", Geometry: Sphere{Radius: 0.5}}})

	w := wire.NewWriter()
	w.PutHeader(wire.Header{Status: wire.StatusRendering, Type: wire.MessageObjectPositionUpdate})
	EncodePositions(w, 7, [][]PoseUpdate{
		{{Name: "ball", Position: Vec3{X: 1, Y: 2, Z: 3}, Orientation: Quat{W: 1}}},
		{{Name: "ghost", Position: Vec3{X: 9}, Orientation: Quat{W: 1}}},
	})

	c := wire.NewCursor(w.Bytes())
	h, err := wire.ReadHeader(c)
	require.NoError(t, err)
	require.Equal(t, wire.MessageObjectPositionUpdate, h.Type)
	update, err := DecodePositions(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), update.ConfigurationNumber)

	missing := ApplyPoses(store, update.Poses)
	assert.Equal(t, []string{"ghost"}, missing)

	ball, ok := store.Node("ball")
	require.True(t, ok)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, ball.Position)
	assert.Equal(t, IdentityQuat(), ball.Orientation)
	assert.Equal(t, int64(1), ball.UpdateCount)
	assert.Equal(t, int64(1), store.Stats().PosesApplied)
}

func TestSetPoseAfterClearIsIgnored(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateNode(NodeSpec{Name: "ball"}))
	node, ok := store.LookupNode("ball")
	require.True(t, ok)

	store.ClearScene()
	node.SetPose(Vec3{X: 1}, IdentityQuat())
	assert.Zero(t, store.Stats().PosesApplied)
}

func TestContactReplacement(t *testing.T) {
	store := newTestStore(t)
	flags := DisplayFlags{ContactPoints: true, ContactForces: true}

	three := []ContactEvent{
		{Position: Vec3{X: 1}, Force: Vec3{Z: 1}},
		{Position: Vec3{X: 2}, Force: Vec3{Z: 2}},
		{Position: Vec3{X: 3}, Force: Vec3{Z: 3}},
	}
	assert.Equal(t, 6, ReplaceContacts(store, three, flags))
	assert.Len(t, store.Markers(), 6)

	assert.Equal(t, 0, ReplaceContacts(store, nil, flags))
	assert.Empty(t, store.Markers())
}

func TestContactFlagsGateMarkers(t *testing.T) {
	store := newTestStore(t)
	contacts := []ContactEvent{{Position: Vec3{X: 1}, Force: Vec3{Z: 5}}}

	ReplaceContacts(store, contacts, DisplayFlags{ContactForces: true})
	markers := store.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, MarkerForce, markers[0].Kind)
	assert.Equal(t, Vec3{Z: 5}, markers[0].Force)

	ReplaceContacts(store, contacts, DisplayFlags{})
	assert.Empty(t, store.Markers())
}

func TestVisibility(t *testing.T) {
	visualOnly := DisplayFlags{Visual: true}
	collisionOnly := DisplayFlags{Collision: true}

	assert.True(t, VisibilityVisual.Visible(visualOnly))
	assert.False(t, VisibilityVisual.Visible(collisionOnly))
	assert.True(t, VisibilityCollision.Visible(collisionOnly))
	assert.True(t, VisibilityVisualAndCollision.Visible(visualOnly))
	assert.True(t, VisibilityVisualAndCollision.Visible(collisionOnly))
	assert.False(t, VisibilityVisualAndCollision.Visible(DisplayFlags{}))
}

func TestFallbackMaterials(t *testing.T) {
	for i := uint64(0); i < 9; i++ {
		m := FallbackMaterial(i)
		assert.Equal(t, int(i%3), m.Slot)
		assert.Equal(t, m, FallbackMaterial(i), "fallback must be reproducible")
	}

	resolve := func(name string) (string, bool) {
		if name == "ball" {
			return "rubber", true
		}
		return "", false
	}
	objects := []ObjectDescriptor{
		{Index: 4, Name: "ball", Geometry: Sphere{Radius: 1}},
		{Index: 4, Name: "crate", Geometry: Box{X: 1, Y: 1, Z: 1}},
	}
	AssignMaterials(objects, resolve)
	assert.Equal(t, Material{Name: "rubber", Slot: -1}, objects[0].Material)
	assert.Equal(t, FallbackMaterial(4), objects[1].Material)
	assert.Equal(t, 1, objects[1].Material.Slot)
}
