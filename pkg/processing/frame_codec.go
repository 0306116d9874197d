package processing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/simviz/pkg/flatbuffers/simviz/feed"
	"github.com/open-teleop/simviz/pkg/scene"
)

// Feed topics, one per frame kind.
const (
	TopicScene    = "simviz.scene"
	TopicPoses    = "simviz.pose"
	TopicContacts = "simviz.contact"
)

// ErrMalformedFrame is returned for buffers that are not a valid frame.
var ErrMalformedFrame = errors.New("processing: malformed frame")

// TopicFor returns the feed topic of a frame kind.
func TopicFor(kind scene.FrameKind) string {
	switch kind {
	case scene.FrameScene:
		return TopicScene
	case scene.FramePoses:
		return TopicPoses
	case scene.FrameContacts:
		return TopicContacts
	default:
		return "simviz.unknown"
	}
}

// EncodeFrameJSON renders a frame for JSON consumers.
func EncodeFrameJSON(f *scene.Frame) ([]byte, error) {
	return json.Marshal(f)
}

// EncodeFrame serializes a frame as a feed.Frame flatbuffer.
func EncodeFrame(f *scene.Frame) []byte {
	builder := flatbuffers.NewBuilder(1024)

	objects := make([]flatbuffers.UOffsetT, len(f.Objects))
	for i, obj := range f.Objects {
		objects[i] = buildObject(builder, obj)
	}
	poses := make([]flatbuffers.UOffsetT, len(f.Poses))
	for i, p := range f.Poses {
		poses[i] = buildPose(builder, p)
	}
	contacts := make([]flatbuffers.UOffsetT, len(f.Contacts))
	for i, ct := range f.Contacts {
		contacts[i] = buildContact(builder, ct)
	}

	objectsVec := offsetVector(builder, feed.FrameStartObjectsVector, objects)
	posesVec := offsetVector(builder, feed.FrameStartPosesVector, poses)
	contactsVec := offsetVector(builder, feed.FrameStartContactsVector, contacts)
	sessionID := builder.CreateString(f.SessionID)

	var ts int64
	if !f.Timestamp.IsZero() {
		ts = f.Timestamp.UnixNano()
	}

	feed.FrameStart(builder)
	feed.FrameAddKind(builder, feed.FrameKind(f.Kind))
	feed.FrameAddSessionId(builder, sessionID)
	feed.FrameAddConfigurationNumber(builder, f.ConfigurationNumber)
	feed.FrameAddTimestampNs(builder, ts)
	feed.FrameAddObjects(builder, objectsVec)
	feed.FrameAddPoses(builder, posesVec)
	feed.FrameAddContacts(builder, contactsVec)
	builder.Finish(feed.FrameEnd(builder))

	return builder.FinishedBytes()
}

func offsetVector(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, offsets []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	start(b, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offsets[i])
	}
	return b.EndVector(len(offsets))
}

func doubleVector(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, values []float64) flatbuffers.UOffsetT {
	start(b, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependFloat64(values[i])
	}
	return b.EndVector(len(values))
}

func buildObject(b *flatbuffers.Builder, obj scene.ObjectDescriptor) flatbuffers.UOffsetT {
	params, resource, shapes := flattenGeometry(obj.Geometry)

	shapeOffsets := make([]flatbuffers.UOffsetT, len(shapes))
	for i, sp := range shapes {
		shapeOffsets[i] = buildShape(b, sp)
	}
	shapesVec := offsetVector(b, feed.SceneObjectStartShapesVector, shapeOffsets)
	paramsVec := doubleVector(b, feed.SceneObjectStartParamsVector, params)
	name := b.CreateString(obj.Name)
	material := b.CreateString(obj.Material.Name)
	res := b.CreateString(resource)

	var kind byte
	if obj.Geometry != nil {
		kind = byte(obj.Geometry.Kind())
	}
	slot := int32(-1)
	if obj.Material.Fallback {
		slot = int32(obj.Material.Slot)
	}

	feed.SceneObjectStart(b)
	feed.SceneObjectAddIndex(b, obj.Index)
	feed.SceneObjectAddKind(b, kind)
	feed.SceneObjectAddName(b, name)
	feed.SceneObjectAddMaterial(b, material)
	feed.SceneObjectAddParams(b, paramsVec)
	feed.SceneObjectAddResource(b, res)
	feed.SceneObjectAddShapes(b, shapesVec)
	feed.SceneObjectAddMaterialSlot(b, slot)
	return feed.SceneObjectEnd(b)
}

func buildShape(b *flatbuffers.Builder, sp scene.ShapePrimitive) flatbuffers.UOffsetT {
	params, resource := flattenShape(sp.Shape)
	paramsVec := doubleVector(b, feed.ShapeStartParamsVector, params)
	res := b.CreateString(resource)

	feed.ShapeStart(b)
	feed.ShapeAddKind(b, byte(sp.Shape.ShapeKind()))
	feed.ShapeAddGroup(b, sp.Group)
	feed.ShapeAddVisibility(b, byte(sp.Visibility))
	feed.ShapeAddResource(b, res)
	feed.ShapeAddParams(b, paramsVec)
	return feed.ShapeEnd(b)
}

func buildPose(b *flatbuffers.Builder, p scene.PoseUpdate) flatbuffers.UOffsetT {
	name := b.CreateString(p.Name)
	feed.PoseStart(b)
	feed.PoseAddName(b, name)
	feed.PoseAddPx(b, p.Position.X)
	feed.PoseAddPy(b, p.Position.Y)
	feed.PoseAddPz(b, p.Position.Z)
	feed.PoseAddQw(b, p.Orientation.W)
	feed.PoseAddQx(b, p.Orientation.X)
	feed.PoseAddQy(b, p.Orientation.Y)
	feed.PoseAddQz(b, p.Orientation.Z)
	return feed.PoseEnd(b)
}

func buildContact(b *flatbuffers.Builder, ct scene.ContactEvent) flatbuffers.UOffsetT {
	feed.ContactStart(b)
	feed.ContactAddPx(b, ct.Position.X)
	feed.ContactAddPy(b, ct.Position.Y)
	feed.ContactAddPz(b, ct.Position.Z)
	feed.ContactAddFx(b, ct.Force.X)
	feed.ContactAddFy(b, ct.Force.Y)
	feed.ContactAddFz(b, ct.Force.Z)
	return feed.ContactEnd(b)
}

func flattenGeometry(g scene.Geometry) (params []float64, resource string, shapes []scene.ShapePrimitive) {
	switch g := g.(type) {
	case scene.Sphere:
		return []float64{float64(g.Radius)}, "", nil
	case scene.Box:
		return []float64{float64(g.X), float64(g.Y), float64(g.Z)}, "", nil
	case scene.Cylinder:
		return []float64{float64(g.Radius), float64(g.Height)}, "", nil
	case scene.Cone:
		return []float64{float64(g.Radius), float64(g.Height)}, "", nil
	case scene.Capsule:
		return []float64{float64(g.Radius), float64(g.Height)}, "", nil
	case scene.Mesh:
		return []float64{float64(g.Scale)}, g.Path, nil
	case scene.HalfSpace:
		return []float64{float64(g.Height)}, "", nil
	case scene.HeightMap:
		params = make([]float64, 0, 6+g.NX*g.NY)
		params = append(params, float64(g.CenterX), float64(g.CenterY), float64(g.SizeX), float64(g.SizeY),
			float64(g.NX), float64(g.NY))
		for _, row := range g.Heights {
			for _, h := range row {
				params = append(params, float64(h))
			}
		}
		return params, "", nil
	case scene.Articulated:
		shapes = make([]scene.ShapePrimitive, 0, len(g.Visuals)+len(g.Collisions))
		shapes = append(shapes, g.Visuals...)
		return nil, g.ResourceDir, append(shapes, g.Collisions...)
	default:
		return nil, "", nil
	}
}

func flattenShape(s scene.ShapeGeometry) (params []float64, resource string) {
	switch s := s.(type) {
	case scene.BoxShape:
		return []float64{s.X, s.Y, s.Z}, ""
	case scene.CylinderShape:
		return []float64{s.Radius, s.Height}, ""
	case scene.CapsuleShape:
		return []float64{s.Radius, s.Height}, ""
	case scene.SphereShape:
		return []float64{s.Radius}, ""
	case scene.MeshShape:
		return []float64{s.Scale.X, s.Scale.Y, s.Scale.Z}, s.Path
	case scene.ConeShape:
		return s.Params, ""
	default:
		return nil, ""
	}
}

// DecodeFrame is the inverse of EncodeFrame. It is the consumer side of the
// frame feed: subscribers of the ZeroMQ topics and of /ws/frames receive
// EncodeFrame output and read it back with DecodeFrame. Malformed input
// returns ErrMalformedFrame.
func DecodeFrame(buf []byte) (frame *scene.Frame, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, ErrMalformedFrame
	}
	// Out of range offsets panic inside the flatbuffers accessors.
	defer func() {
		if r := recover(); r != nil {
			frame, err = nil, fmt.Errorf("%w: %v", ErrMalformedFrame, r)
		}
	}()

	fb := feed.GetRootAsFrame(buf, 0)
	frame = &scene.Frame{
		Kind:                scene.FrameKind(fb.Kind()),
		SessionID:           string(fb.SessionId()),
		ConfigurationNumber: fb.ConfigurationNumber(),
	}
	if ts := fb.TimestampNs(); ts != 0 {
		frame.Timestamp = time.Unix(0, ts)
	}

	var obj feed.SceneObject
	for i := 0; i < fb.ObjectsLength(); i++ {
		fb.Objects(&obj, i)
		desc, err := decodeObject(&obj)
		if err != nil {
			return nil, err
		}
		frame.Objects = append(frame.Objects, desc)
	}

	var pose feed.Pose
	for i := 0; i < fb.PosesLength(); i++ {
		fb.Poses(&pose, i)
		frame.Poses = append(frame.Poses, scene.PoseUpdate{
			Name:        string(pose.Name()),
			Position:    scene.Vec3{X: pose.Px(), Y: pose.Py(), Z: pose.Pz()},
			Orientation: scene.Quat{W: pose.Qw(), X: pose.Qx(), Y: pose.Qy(), Z: pose.Qz()},
		})
	}

	var ct feed.Contact
	for i := 0; i < fb.ContactsLength(); i++ {
		fb.Contacts(&ct, i)
		frame.Contacts = append(frame.Contacts, scene.ContactEvent{
			Position: scene.Vec3{X: ct.Px(), Y: ct.Py(), Z: ct.Pz()},
			Force:    scene.Vec3{X: ct.Fx(), Y: ct.Fy(), Z: ct.Fz()},
		})
	}
	return frame, nil
}

func decodeObject(obj *feed.SceneObject) (scene.ObjectDescriptor, error) {
	desc := scene.ObjectDescriptor{
		Index: obj.Index(),
		Name:  string(obj.Name()),
		Material: scene.Material{
			Name: string(obj.Material()),
			Slot: int(obj.MaterialSlot()),
		},
	}
	desc.Material.Fallback = desc.Material.Slot >= 0

	params := make([]float64, obj.ParamsLength())
	for i := range params {
		params[i] = obj.Params(i)
	}
	var shapes []scene.ShapePrimitive
	var fs feed.Shape
	for i := 0; i < obj.ShapesLength(); i++ {
		obj.Shapes(&fs, i)
		sp, err := decodeShape(&fs)
		if err != nil {
			return desc, err
		}
		shapes = append(shapes, sp)
	}

	g, err := unflattenGeometry(scene.ObjectKind(obj.Kind()), params, string(obj.Resource()), shapes)
	if err != nil {
		return desc, fmt.Errorf("%w: object %q: %v", ErrMalformedFrame, desc.Name, err)
	}
	desc.Geometry = g
	return desc, nil
}

func need(params []float64, n int) error {
	if len(params) < n {
		return fmt.Errorf("want %d params, got %d", n, len(params))
	}
	return nil
}

func f32(v float64) float32 { return float32(v) }

func unflattenGeometry(kind scene.ObjectKind, p []float64, resource string, shapes []scene.ShapePrimitive) (scene.Geometry, error) {
	switch kind {
	case scene.KindSphere:
		if err := need(p, 1); err != nil {
			return nil, err
		}
		return scene.Sphere{Radius: f32(p[0])}, nil
	case scene.KindBox:
		if err := need(p, 3); err != nil {
			return nil, err
		}
		return scene.Box{X: f32(p[0]), Y: f32(p[1]), Z: f32(p[2])}, nil
	case scene.KindCylinder, scene.KindCone, scene.KindCapsule:
		if err := need(p, 2); err != nil {
			return nil, err
		}
		switch kind {
		case scene.KindCylinder:
			return scene.Cylinder{Radius: f32(p[0]), Height: f32(p[1])}, nil
		case scene.KindCone:
			return scene.Cone{Radius: f32(p[0]), Height: f32(p[1])}, nil
		default:
			return scene.Capsule{Radius: f32(p[0]), Height: f32(p[1])}, nil
		}
	case scene.KindMesh:
		if err := need(p, 1); err != nil {
			return nil, err
		}
		return scene.Mesh{Path: resource, Scale: f32(p[0])}, nil
	case scene.KindHalfSpace:
		if err := need(p, 1); err != nil {
			return nil, err
		}
		return scene.HalfSpace{Height: f32(p[0])}, nil
	case scene.KindCompound:
		return scene.Compound{}, nil
	case scene.KindHeightMap:
		if err := need(p, 6); err != nil {
			return nil, err
		}
		hm := scene.HeightMap{
			CenterX: f32(p[0]), CenterY: f32(p[1]), SizeX: f32(p[2]), SizeY: f32(p[3]),
			NX: int(p[4]), NY: int(p[5]),
		}
		if hm.NX < 0 || hm.NY < 0 || len(p)-6 != hm.NX*hm.NY {
			return nil, fmt.Errorf("heightmap %dx%d with %d samples", hm.NX, hm.NY, len(p)-6)
		}
		hm.Heights = make([][]float32, hm.NY)
		for j := range hm.Heights {
			row := make([]float32, hm.NX)
			for k := range row {
				row[k] = f32(p[6+j*hm.NX+k])
			}
			hm.Heights[j] = row
		}
		return hm, nil
	case scene.KindArticulatedSystem:
		a := scene.Articulated{ResourceDir: resource}
		for _, sp := range shapes {
			if sp.Visibility == scene.VisibilityCollision {
				a.Collisions = append(a.Collisions, sp)
			} else {
				a.Visuals = append(a.Visuals, sp)
			}
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown object kind %d", int32(kind))
	}
}

func decodeShape(fs *feed.Shape) (scene.ShapePrimitive, error) {
	sp := scene.ShapePrimitive{
		Group:      fs.Group(),
		Visibility: scene.Visibility(fs.Visibility()),
	}
	p := make([]float64, fs.ParamsLength())
	for i := range p {
		p[i] = fs.Params(i)
	}

	kind := scene.ShapeKind(fs.Kind())
	want := map[scene.ShapeKind]int{
		scene.ShapeBox: 3, scene.ShapeCylinder: 2, scene.ShapeCapsule: 2, scene.ShapeSphere: 1, scene.ShapeMesh: 3,
	}
	if n, ok := want[kind]; ok && len(p) != n {
		return sp, fmt.Errorf("%w: %s shape with %d params", ErrMalformedFrame, kind, len(p))
	}

	switch kind {
	case scene.ShapeBox:
		sp.Shape = scene.BoxShape{X: p[0], Y: p[1], Z: p[2]}
	case scene.ShapeCylinder:
		sp.Shape = scene.CylinderShape{Radius: p[0], Height: p[1]}
	case scene.ShapeCapsule:
		sp.Shape = scene.CapsuleShape{Radius: p[0], Height: p[1]}
	case scene.ShapeSphere:
		sp.Shape = scene.SphereShape{Radius: p[0]}
	case scene.ShapeMesh:
		sp.Shape = scene.MeshShape{Path: string(fs.Resource()), Scale: scene.Vec3{X: p[0], Y: p[1], Z: p[2]}}
	case scene.ShapeCone:
		sp.Shape = scene.ConeShape{Params: p}
	default:
		return sp, fmt.Errorf("%w: shape kind %d", ErrMalformedFrame, fs.Kind())
	}
	return sp, nil
}
