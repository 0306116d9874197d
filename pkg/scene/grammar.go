package scene

import (
	"fmt"

	"github.com/open-teleop/simviz/pkg/wire"
)

// Smallest encodings, used to reject counts the payload cannot hold.
const (
	minObjectSize  = 8 + 4 + 8
	minShapeSize   = 4 + 4 + 8
	minGroupSize   = 8
	minSubBodySize = 8 + 7*8
	contactSize    = 6 * 8
)

// Initialization is a decoded initialization payload.
type Initialization struct {
	ConfigurationNumber uint64
	Objects             []ObjectDescriptor
}

// PositionUpdate is a decoded position payload in wire order.
type PositionUpdate struct {
	ConfigurationNumber uint64
	Poses               []PoseUpdate
}

// ContactUpdate is a decoded contact payload. It replaces every previous contact.
type ContactUpdate struct {
	ConfigurationNumber uint64
	Contacts            []ContactEvent
}

// DecodeInitialization decodes the payload that follows an Initialization header.
// Materials are left unset; see AssignMaterials.
func DecodeInitialization(c *wire.Cursor) (*Initialization, error) {
	cfg, err := c.Uint64("configuration_number")
	if err != nil {
		return nil, err
	}
	count, err := c.Count("object_count", minObjectSize)
	if err != nil {
		return nil, err
	}
	init := &Initialization{
		ConfigurationNumber: cfg,
		Objects:             make([]ObjectDescriptor, 0, count),
	}
	for i := 0; i < count; i++ {
		obj, err := decodeObject(c)
		if err != nil {
			return nil, err
		}
		init.Objects = append(init.Objects, obj)
	}
	return init, nil
}

func decodeObject(c *wire.Cursor) (ObjectDescriptor, error) {
	var obj ObjectDescriptor
	var err error
	if obj.Index, err = c.Uint64("object_index"); err != nil {
		return obj, err
	}
	kindOffset := c.Offset()
	kind, err := c.Int32("object_kind")
	if err != nil {
		return obj, err
	}
	if obj.Name, err = c.String("display_name"); err != nil {
		return obj, err
	}
	obj.Geometry, err = decodeGeometry(c, ObjectKind(kind), kindOffset)
	return obj, err
}

func decodeGeometry(c *wire.Cursor, kind ObjectKind, kindOffset int) (Geometry, error) {
	switch kind {
	case KindSphere:
		r, err := c.Float32("sphere.radius")
		return Sphere{Radius: r}, err
	case KindBox:
		v, err := c.Float32s("box.extents", 3)
		if err != nil {
			return nil, err
		}
		return Box{X: v[0], Y: v[1], Z: v[2]}, nil
	case KindCylinder, KindCone, KindCapsule:
		v, err := c.Float32s(kind.String()+".radius_height", 2)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindCylinder:
			return Cylinder{Radius: v[0], Height: v[1]}, nil
		case KindCone:
			return Cone{Radius: v[0], Height: v[1]}, nil
		default:
			return Capsule{Radius: v[0], Height: v[1]}, nil
		}
	case KindMesh:
		p, err := c.String("mesh.path")
		if err != nil {
			return nil, err
		}
		scale, err := c.Float32("mesh.scale")
		return Mesh{Path: p, Scale: scale}, err
	case KindHalfSpace:
		h, err := c.Float32("halfspace.height")
		return HalfSpace{Height: h}, err
	case KindCompound:
		return Compound{}, nil
	case KindHeightMap:
		return decodeHeightMap(c)
	case KindArticulatedSystem:
		return decodeArticulated(c)
	default:
		return nil, wire.NewDecodeError("object_kind", kindOffset,
			fmt.Errorf("%w: %d", wire.ErrUnknownKind, int32(kind)))
	}
}

func decodeHeightMap(c *wire.Cursor) (Geometry, error) {
	v, err := c.Float32s("heightmap.center_size", 4)
	if err != nil {
		return nil, err
	}
	hm := HeightMap{CenterX: v[0], CenterY: v[1], SizeX: v[2], SizeY: v[3]}

	countOffset := c.Offset()
	nx, err := c.Uint64("heightmap.nx")
	if err != nil {
		return nil, err
	}
	ny, err := c.Uint64("heightmap.ny")
	if err != nil {
		return nil, err
	}
	// A grid is either empty or has samples on both axes.
	limit := uint64(c.Remaining() / 4)
	switch {
	case nx == 0 && ny == 0:
	case nx == 0 || ny == 0:
		return nil, wire.NewDecodeError("heightmap.samples", countOffset,
			fmt.Errorf("%w: %dx%d grid", wire.ErrImplausibleCount, nx, ny))
	case nx > limit || ny > limit/nx:
		return nil, wire.NewDecodeError("heightmap.samples", countOffset, wire.ErrImplausibleCount)
	}
	hm.NX, hm.NY = int(nx), int(ny)

	values, err := c.Float32s("heightmap.heights", hm.NX*hm.NY)
	if err != nil {
		return nil, err
	}
	hm.Heights = make([][]float32, hm.NY)
	for j := range hm.Heights {
		hm.Heights[j] = values[j*hm.NX : (j+1)*hm.NX : (j+1)*hm.NX]
	}
	return hm, nil
}

func decodeArticulated(c *wire.Cursor) (Geometry, error) {
	dir, err := c.String("articulated.resource_dir")
	if err != nil {
		return nil, err
	}
	visuals, err := decodeShapeGroup(c, "visual", VisibilityVisual)
	if err != nil {
		return nil, err
	}
	collisions, err := decodeShapeGroup(c, "collision", VisibilityCollision)
	if err != nil {
		return nil, err
	}
	return Articulated{ResourceDir: dir, Visuals: visuals, Collisions: collisions}, nil
}

func decodeShapeGroup(c *wire.Cursor, group string, vis Visibility) ([]ShapePrimitive, error) {
	count, err := c.Count(group+"_shape_count", minShapeSize)
	if err != nil {
		return nil, err
	}
	shapes := make([]ShapePrimitive, 0, count)
	for i := 0; i < count; i++ {
		shape, err := decodeShape(c)
		if err != nil {
			return nil, err
		}
		shape.Visibility = vis
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// shapeParamCounts is the exact parameter count of every primitive except cones.
var shapeParamCounts = map[ShapeKind]int{
	ShapeBox:      3,
	ShapeCylinder: 2,
	ShapeCapsule:  2,
	ShapeSphere:   1,
}

func decodeShape(c *wire.Cursor) (ShapePrimitive, error) {
	var sp ShapePrimitive
	kindOffset := c.Offset()
	tag, err := c.Int32("shape_kind")
	if err != nil {
		return sp, err
	}
	if sp.Group, err = c.Int32("shape_group"); err != nil {
		return sp, err
	}
	kind := ShapeKind(tag)

	if kind == ShapeMesh {
		p, err := c.String("shape.mesh_path")
		if err != nil {
			return sp, err
		}
		s, err := c.Float64s("shape.mesh_scale", 3)
		if err != nil {
			return sp, err
		}
		sp.Shape = MeshShape{Path: p, Scale: Vec3{X: s[0], Y: s[1], Z: s[2]}}
		return sp, nil
	}

	_, known := shapeParamCounts[kind]
	if !known && kind != ShapeCone {
		return sp, wire.NewDecodeError("shape_kind", kindOffset,
			fmt.Errorf("%w: %d", wire.ErrUnknownKind, tag))
	}

	countOffset := c.Offset()
	n, err := c.Count("shape.param_count", 8)
	if err != nil {
		return sp, err
	}
	if want, ok := shapeParamCounts[kind]; ok && n != want {
		return sp, wire.NewDecodeError("shape.param_count", countOffset,
			fmt.Errorf("%w: %s needs %d, got %d", wire.ErrParamCountMismatch, kind, want, n))
	}
	params, err := c.Float64s("shape.params", n)
	if err != nil {
		return sp, err
	}

	switch kind {
	case ShapeBox:
		sp.Shape = BoxShape{X: params[0], Y: params[1], Z: params[2]}
	case ShapeCylinder:
		sp.Shape = CylinderShape{Radius: params[0], Height: params[1]}
	case ShapeCapsule:
		sp.Shape = CapsuleShape{Radius: params[0], Height: params[1]}
	case ShapeSphere:
		sp.Shape = SphereShape{Radius: params[0]}
	case ShapeCone:
		sp.Shape = ConeShape{Params: params}
	}
	return sp, nil
}

// DecodePositions decodes the payload that follows an ObjectPositionUpdate header.
func DecodePositions(c *wire.Cursor) (*PositionUpdate, error) {
	cfg, err := c.Uint64("configuration_number")
	if err != nil {
		return nil, err
	}
	count, err := c.Count("object_count", minGroupSize)
	if err != nil {
		return nil, err
	}
	update := &PositionUpdate{ConfigurationNumber: cfg, Poses: make([]PoseUpdate, 0, count)}
	for i := 0; i < count; i++ {
		local, err := c.Count("local_count", minSubBodySize)
		if err != nil {
			return nil, err
		}
		for j := 0; j < local; j++ {
			pose, err := decodePose(c)
			if err != nil {
				return nil, err
			}
			update.Poses = append(update.Poses, pose)
		}
	}
	return update, nil
}

func decodePose(c *wire.Cursor) (PoseUpdate, error) {
	var pose PoseUpdate
	var err error
	if pose.Name, err = c.String("pose.name"); err != nil {
		return pose, err
	}
	v, err := c.Float64s("pose.position", 3)
	if err != nil {
		return pose, err
	}
	pose.Position = Vec3{X: v[0], Y: v[1], Z: v[2]}
	q, err := c.Float64s("pose.orientation", 4)
	if err != nil {
		return pose, err
	}
	pose.Orientation = Quat{W: q[0], X: q[1], Y: q[2], Z: q[3]}
	return pose, nil
}

// DecodeContacts decodes the payload that follows a ContactInfoUpdate header.
// Every field is decoded regardless of which markers will be shown.
func DecodeContacts(c *wire.Cursor) (*ContactUpdate, error) {
	cfg, err := c.Uint64("configuration_number")
	if err != nil {
		return nil, err
	}
	count, err := c.Count("contact_count", contactSize)
	if err != nil {
		return nil, err
	}
	update := &ContactUpdate{ConfigurationNumber: cfg, Contacts: make([]ContactEvent, count)}
	for i := range update.Contacts {
		v, err := c.Float64s("contact", 6)
		if err != nil {
			return nil, err
		}
		update.Contacts[i] = ContactEvent{
			Position: Vec3{X: v[0], Y: v[1], Z: v[2]},
			Force:    Vec3{X: v[3], Y: v[4], Z: v[5]},
		}
	}
	return update, nil
}
