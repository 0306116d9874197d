package scene

import (
	"fmt"

	"github.com/open-teleop/simviz/pkg/wire"
)

// EncodeInitialization writes the inverse of DecodeInitialization.
func EncodeInitialization(w *wire.Writer, init *Initialization) error {
	w.PutUint64(init.ConfigurationNumber)
	w.PutUint64(uint64(len(init.Objects)))
	for _, obj := range init.Objects {
		if obj.Geometry == nil {
			return fmt.Errorf("scene: object %q has no geometry", obj.Name)
		}
		w.PutUint64(obj.Index)
		w.PutInt32(int32(obj.Geometry.Kind()))
		w.PutString(obj.Name)
		if err := encodeGeometry(w, obj.Geometry); err != nil {
			return fmt.Errorf("scene: object %q: %w", obj.Name, err)
		}
	}
	return nil
}

func encodeGeometry(w *wire.Writer, g Geometry) error {
	switch g := g.(type) {
	case Sphere:
		w.PutFloat32(g.Radius)
	case Box:
		w.PutFloat32(g.X)
		w.PutFloat32(g.Y)
		w.PutFloat32(g.Z)
	case Cylinder:
		w.PutFloat32(g.Radius)
		w.PutFloat32(g.Height)
	case Cone:
		w.PutFloat32(g.Radius)
		w.PutFloat32(g.Height)
	case Capsule:
		w.PutFloat32(g.Radius)
		w.PutFloat32(g.Height)
	case Mesh:
		w.PutString(g.Path)
		w.PutFloat32(g.Scale)
	case HalfSpace:
		w.PutFloat32(g.Height)
	case Compound:
	case HeightMap:
		if len(g.Heights) != g.NY {
			return fmt.Errorf("heightmap has %d rows, want %d", len(g.Heights), g.NY)
		}
		w.PutFloat32(g.CenterX)
		w.PutFloat32(g.CenterY)
		w.PutFloat32(g.SizeX)
		w.PutFloat32(g.SizeY)
		w.PutUint64(uint64(g.NX))
		w.PutUint64(uint64(g.NY))
		for j, row := range g.Heights {
			if len(row) != g.NX {
				return fmt.Errorf("heightmap row %d has %d values, want %d", j, len(row), g.NX)
			}
			for _, h := range row {
				w.PutFloat32(h)
			}
		}
	case Articulated:
		w.PutString(g.ResourceDir)
		for _, group := range [][]ShapePrimitive{g.Visuals, g.Collisions} {
			w.PutUint64(uint64(len(group)))
			for _, sp := range group {
				if err := encodeShape(w, sp); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("unsupported geometry %T", g)
	}
	return nil
}

func encodeShape(w *wire.Writer, sp ShapePrimitive) error {
	if sp.Shape == nil {
		return fmt.Errorf("shape in group %d has no geometry", sp.Group)
	}
	w.PutInt32(int32(sp.Shape.ShapeKind()))
	w.PutInt32(sp.Group)

	var params []float64
	switch s := sp.Shape.(type) {
	case MeshShape:
		w.PutString(s.Path)
		w.PutFloat64(s.Scale.X)
		w.PutFloat64(s.Scale.Y)
		w.PutFloat64(s.Scale.Z)
		return nil
	case BoxShape:
		params = []float64{s.X, s.Y, s.Z}
	case CylinderShape:
		params = []float64{s.Radius, s.Height}
	case CapsuleShape:
		params = []float64{s.Radius, s.Height}
	case SphereShape:
		params = []float64{s.Radius}
	case ConeShape:
		params = s.Params
	default:
		return fmt.Errorf("unsupported shape %T", s)
	}
	w.PutUint64(uint64(len(params)))
	for _, p := range params {
		w.PutFloat64(p)
	}
	return nil
}

// EncodePositions writes a position payload. Each group is one object's sub-bodies.
func EncodePositions(w *wire.Writer, configurationNumber uint64, groups [][]PoseUpdate) {
	w.PutUint64(configurationNumber)
	w.PutUint64(uint64(len(groups)))
	for _, group := range groups {
		w.PutUint64(uint64(len(group)))
		for _, p := range group {
			w.PutString(p.Name)
			putVec3(w, p.Position)
			w.PutFloat64(p.Orientation.W)
			w.PutFloat64(p.Orientation.X)
			w.PutFloat64(p.Orientation.Y)
			w.PutFloat64(p.Orientation.Z)
		}
	}
}

// EncodeContacts writes a contact payload.
func EncodeContacts(w *wire.Writer, configurationNumber uint64, contacts []ContactEvent) {
	w.PutUint64(configurationNumber)
	w.PutUint64(uint64(len(contacts)))
	for _, ct := range contacts {
		putVec3(w, ct.Position)
		putVec3(w, ct.Force)
	}
}

func putVec3(w *wire.Writer, v Vec3) {
	w.PutFloat64(v.X)
	w.PutFloat64(v.Y)
	w.PutFloat64(v.Z)
}
