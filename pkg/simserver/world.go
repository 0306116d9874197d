package simserver

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/wire"
)

const (
	gravity     = 9.81
	ballRadius  = 0.2
	ballMass    = 1.0
	crateHalf   = 0.2
	crateMass   = 4.0
	bounceRate  = math.Pi
	bounceApex  = 1.5
	armBaseX    = -1.0
	armLinkLen  = 0.3
	armSwingAmp = 0.8
)

// demoAppearance names materials for some of the demo objects. The rest get fallbacks.
const demoAppearance = `<?xml version="1.0"?>
<raisim version="1.0">
  <objects>
    <sphere name="ball" mass="1.0">
      <appearance>rubber_red</appearance>
    </sphere>
    <box name="crate" mass="4.0" appearance="wood"/>
    <ground name="ground" appearance="checkerboard"/>
  </objects>
</raisim>
`

// World is a small animated demo scene: a ground plane, a bouncing ball, a
// spinning crate, a two-link arm and a patch of terrain.
type World struct {
	mu          sync.Mutex
	now         func() time.Time
	start       time.Time
	pausedAt    time.Time
	pausedFor   time.Duration
	paused      bool
	terminating bool
	snapshot    uint64
	objects     []scene.ObjectDescriptor
}

// NewWorld creates the demo world with its clock started.
func NewWorld() *World {
	return newWorldAt(time.Now)
}

func newWorldAt(now func() time.Time) *World {
	return &World{
		now:     now,
		start:   now(),
		objects: demoObjects(),
	}
}

func demoObjects() []scene.ObjectDescriptor {
	return []scene.ObjectDescriptor{
		{Index: 0, Name: "ground", Geometry: scene.HalfSpace{Height: 0}},
		{Index: 1, Name: "ball", Geometry: scene.Sphere{Radius: ballRadius}},
		{Index: 2, Name: "crate", Geometry: scene.Box{X: 2 * crateHalf, Y: 2 * crateHalf, Z: 2 * crateHalf}},
		{Index: 3, Name: "arm", Geometry: scene.Articulated{
			ResourceDir: "arm",
			Visuals: []scene.ShapePrimitive{
				{Group: 0, Visibility: scene.VisibilityVisual, Shape: scene.BoxShape{X: 0.2, Y: 0.2, Z: 0.5}},
				{Group: 1, Visibility: scene.VisibilityVisual, Shape: scene.MeshShape{Path: "meshes/link.dae", Scale: scene.Vec3{X: 1, Y: 1, Z: 1}}},
			},
			Collisions: []scene.ShapePrimitive{
				{Group: 0, Visibility: scene.VisibilityCollision, Shape: scene.BoxShape{X: 0.2, Y: 0.2, Z: 0.5}},
				{Group: 1, Visibility: scene.VisibilityCollision, Shape: scene.CapsuleShape{Radius: 0.05, Height: armLinkLen}},
			},
		}},
		{Index: 4, Name: "terrain", Geometry: scene.HeightMap{
			CenterX: 3, CenterY: 3, SizeX: 2, SizeY: 2, NX: 3, NY: 2,
			Heights: [][]float32{{0, 0.05, 0.1}, {0.02, 0.08, 0.12}},
		}},
	}
}

// Terminate makes every later response report a terminating status.
func (w *World) Terminate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.terminating = true
}

// Respond answers one request from the current world state.
func (w *World) Respond(op wire.ClientMessageType) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminating {
		return Terminating(), nil
	}
	status := wire.StatusRendering
	if w.paused {
		status = wire.StatusHibernating
	}

	switch op {
	case wire.RequestConfigXML:
		return ConfigXML(status, demoAppearance), nil
	case wire.RequestInitialization:
		return Initialization(status, &scene.Initialization{
			ConfigurationNumber: w.snapshot,
			Objects:             w.objects,
		})
	case wire.RequestObjectPosition:
		w.snapshot++
		return Positions(status, w.snapshot, w.poses(w.elapsed())), nil
	case wire.RequestContactInfos:
		w.snapshot++
		return Contacts(status, w.snapshot, w.contacts(w.elapsed())), nil
	case wire.RequestPause:
		if !w.paused {
			w.paused = true
			w.pausedAt = w.now()
		}
		return StatusMessage(wire.StatusHibernating), nil
	case wire.RequestResume:
		if w.paused {
			w.paused = false
			w.pausedFor += w.now().Sub(w.pausedAt)
		}
		return StatusMessage(wire.StatusRendering), nil
	default:
		return NoMessage(status), nil
	}
}

// elapsed is simulated time in seconds. It stands still while paused.
func (w *World) elapsed() float64 {
	end := w.now()
	if w.paused {
		end = w.pausedAt
	}
	return end.Sub(w.start).Seconds() - w.pausedFor.Seconds()
}

func ballHeight(t float64) float64 {
	return ballRadius + bounceApex*math.Abs(math.Sin(bounceRate*t))
}

func yaw(angle float64) scene.Quat {
	return scene.Quat{W: math.Cos(angle / 2), Z: math.Sin(angle / 2)}
}

func pitch(angle float64) scene.Quat {
	return scene.Quat{W: math.Cos(angle / 2), Y: math.Sin(angle / 2)}
}

func (w *World) poses(t float64) [][]scene.PoseUpdate {
	identity := scene.IdentityQuat()
	swing := armSwingAmp * math.Sin(t)
	link1 := scene.Vec3{
		X: armBaseX + armLinkLen/2*math.Sin(swing),
		Z: 0.5 + armLinkLen/2*math.Cos(swing),
	}
	base := scene.Vec3{X: armBaseX, Z: 0.25}

	arm := make([]scene.PoseUpdate, 0, 4)
	for _, group := range []string{"visual", "collision"} {
		arm = append(arm,
			scene.PoseUpdate{Name: scene.ShapeNodeName("arm", group, 0), Position: base, Orientation: identity},
			scene.PoseUpdate{Name: scene.ShapeNodeName("arm", group, 1), Position: link1, Orientation: pitch(swing)},
		)
	}

	return [][]scene.PoseUpdate{
		{{Name: "ground", Orientation: identity}},
		{{Name: "ball", Position: scene.Vec3{Z: ballHeight(t)}, Orientation: identity}},
		{{Name: "crate", Position: scene.Vec3{X: 1, Z: crateHalf}, Orientation: yaw(t / 2)}},
		arm,
		{{Name: "terrain", Position: scene.Vec3{X: 3, Y: 3}, Orientation: identity}},
	}
}

func (w *World) contacts(t float64) []scene.ContactEvent {
	var out []scene.ContactEvent
	if ballHeight(t)-ballRadius < 0.05 {
		out = append(out, scene.ContactEvent{
			Force: scene.Vec3{Z: ballMass * gravity},
		})
	}
	// crate corners rotate with the crate
	angle := t / 2
	for i := 0; i < 4; i++ {
		a := angle + math.Pi/4 + float64(i)*math.Pi/2
		out = append(out, scene.ContactEvent{
			Position: scene.Vec3{
				X: 1 + crateHalf*math.Sqrt2*math.Cos(a),
				Y: crateHalf * math.Sqrt2 * math.Sin(a),
			},
			Force: scene.Vec3{Z: crateMass * gravity / 4},
		})
	}
	return out
}

// String summarizes the world for logs.
func (w *World) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fmt.Sprintf("demo world: %d objects, snapshot %d, paused=%t", len(w.objects), w.snapshot, w.paused)
}
