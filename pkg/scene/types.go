// Package scene holds the records decoded from the simulation server and the
// grammars that produce them.
package scene

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Vec3 is a position or force in world coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is a rotation stored scalar first.
type Quat struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IdentityQuat is the zero rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// ObjectKind is the wire tag of a top-level simulated object.
type ObjectKind int32

const (
	KindSphere            ObjectKind = 0
	KindBox               ObjectKind = 1
	KindCylinder          ObjectKind = 2
	KindCone              ObjectKind = 3
	KindCapsule           ObjectKind = 4
	KindMesh              ObjectKind = 5
	KindHalfSpace         ObjectKind = 6
	KindCompound          ObjectKind = 7
	KindHeightMap         ObjectKind = 8
	KindArticulatedSystem ObjectKind = 9
)

var objectKindNames = map[ObjectKind]string{
	KindSphere:            "sphere",
	KindBox:               "box",
	KindCylinder:          "cylinder",
	KindCone:              "cone",
	KindCapsule:           "capsule",
	KindMesh:              "mesh",
	KindHalfSpace:         "halfspace",
	KindCompound:          "compound",
	KindHeightMap:         "heightmap",
	KindArticulatedSystem: "articulated_system",
}

func (k ObjectKind) String() string {
	if name, ok := objectKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("object_kind(%d)", int32(k))
}

// ShapeKind is the wire tag of one shape inside an articulated system.
type ShapeKind int32

const (
	ShapeBox      ShapeKind = 0
	ShapeCylinder ShapeKind = 1
	ShapeSphere   ShapeKind = 2
	ShapeMesh     ShapeKind = 3
	ShapeCapsule  ShapeKind = 4
	ShapeCone     ShapeKind = 5
)

var shapeKindNames = map[ShapeKind]string{
	ShapeBox:      "box",
	ShapeCylinder: "cylinder",
	ShapeSphere:   "sphere",
	ShapeMesh:     "mesh",
	ShapeCapsule:  "capsule",
	ShapeCone:     "cone",
}

func (k ShapeKind) String() string {
	if name, ok := shapeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("shape_kind(%d)", int32(k))
}

// Visibility tags which display layer a node belongs to.
type Visibility uint8

const (
	VisibilityVisual             Visibility = 1
	VisibilityCollision          Visibility = 2
	VisibilityVisualAndCollision Visibility = VisibilityVisual | VisibilityCollision
)

func (v Visibility) String() string {
	switch v {
	case VisibilityVisual:
		return "visual"
	case VisibilityCollision:
		return "collision"
	case VisibilityVisualAndCollision:
		return "visual_and_collision"
	default:
		return fmt.Sprintf("visibility(%d)", uint8(v))
	}
}

// Visible reports whether a node with this tag is shown under flags.
func (v Visibility) Visible(flags DisplayFlags) bool {
	return (v&VisibilityVisual != 0 && flags.Visual) ||
		(v&VisibilityCollision != 0 && flags.Collision)
}

// DisplayFlags are the externally settable display toggles.
type DisplayFlags struct {
	Visual        bool `json:"visual" yaml:"visual" toml:"visual"`
	Collision     bool `json:"collision" yaml:"collision" toml:"collision"`
	ContactPoints bool `json:"contact_points" yaml:"contact_points" toml:"contact_points"`
	ContactForces bool `json:"contact_forces" yaml:"contact_forces" toml:"contact_forces"`
}

// DefaultDisplayFlags shows visual geometry and contacts.
func DefaultDisplayFlags() DisplayFlags {
	return DisplayFlags{Visual: true, ContactPoints: true, ContactForces: true}
}

// Geometry is the kind-specific payload of an object. The concrete types are
// the only implementations.
type Geometry interface {
	Kind() ObjectKind
	isGeometry()
}

type Sphere struct {
	Radius float32 `json:"radius"`
}

type Box struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type Cylinder struct {
	Radius float32 `json:"radius"`
	Height float32 `json:"height"`
}

// Cone is decoded but never materialized.
type Cone struct {
	Radius float32 `json:"radius"`
	Height float32 `json:"height"`
}

type Capsule struct {
	Radius float32 `json:"radius"`
	Height float32 `json:"height"`
}

type Mesh struct {
	Path  string  `json:"path"`
	Scale float32 `json:"scale"`
}

// AssetKey is the mesh path without its extension, used to resolve the mesh asset.
func (m Mesh) AssetKey() string {
	return assetKey(m.Path)
}

type HalfSpace struct {
	Height float32 `json:"height"`
}

// Compound carries no geometry of its own.
type Compound struct{}

// HeightMap is a regular grid of heights. Heights[j][k] is row j (Y) and column k (X).
type HeightMap struct {
	CenterX float32     `json:"center_x"`
	CenterY float32     `json:"center_y"`
	SizeX   float32     `json:"size_x"`
	SizeY   float32     `json:"size_y"`
	NX      int         `json:"nx"`
	NY      int         `json:"ny"`
	Heights [][]float32 `json:"heights"`
}

// At returns the height at row j, column k.
func (h HeightMap) At(j, k int) float32 {
	return h.Heights[j][k]
}

// Articulated is a multi-link system with separate visual and collision shape lists.
type Articulated struct {
	ResourceDir string           `json:"resource_dir"`
	Visuals     []ShapePrimitive `json:"visuals"`
	Collisions  []ShapePrimitive `json:"collisions"`
}

func (Sphere) Kind() ObjectKind      { return KindSphere }
func (Box) Kind() ObjectKind         { return KindBox }
func (Cylinder) Kind() ObjectKind    { return KindCylinder }
func (Cone) Kind() ObjectKind        { return KindCone }
func (Capsule) Kind() ObjectKind     { return KindCapsule }
func (Mesh) Kind() ObjectKind        { return KindMesh }
func (HalfSpace) Kind() ObjectKind   { return KindHalfSpace }
func (Compound) Kind() ObjectKind    { return KindCompound }
func (HeightMap) Kind() ObjectKind   { return KindHeightMap }
func (Articulated) Kind() ObjectKind { return KindArticulatedSystem }

func (Sphere) isGeometry()      {}
func (Box) isGeometry()         {}
func (Cylinder) isGeometry()    {}
func (Cone) isGeometry()        {}
func (Capsule) isGeometry()     {}
func (Mesh) isGeometry()        {}
func (HalfSpace) isGeometry()   {}
func (Compound) isGeometry()    {}
func (HeightMap) isGeometry()   {}
func (Articulated) isGeometry() {}

// ShapeGeometry is the kind-specific payload of one articulated-system shape.
type ShapeGeometry interface {
	ShapeKind() ShapeKind
	isShape()
}

type BoxShape struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type CylinderShape struct {
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

type SphereShape struct {
	Radius float64 `json:"radius"`
}

type CapsuleShape struct {
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

// MeshShape scales each axis independently.
type MeshShape struct {
	Path  string `json:"path"`
	Scale Vec3   `json:"scale"`
}

// AssetKey is the mesh path without its extension.
func (m MeshShape) AssetKey() string {
	return assetKey(m.Path)
}

// ConeShape keeps whatever parameters the server sent. It is never materialized.
type ConeShape struct {
	Params []float64 `json:"params"`
}

func (BoxShape) ShapeKind() ShapeKind      { return ShapeBox }
func (CylinderShape) ShapeKind() ShapeKind { return ShapeCylinder }
func (SphereShape) ShapeKind() ShapeKind   { return ShapeSphere }
func (CapsuleShape) ShapeKind() ShapeKind  { return ShapeCapsule }
func (MeshShape) ShapeKind() ShapeKind     { return ShapeMesh }
func (ConeShape) ShapeKind() ShapeKind     { return ShapeCone }

func (BoxShape) isShape()      {}
func (CylinderShape) isShape() {}
func (SphereShape) isShape()   {}
func (CapsuleShape) isShape()  {}
func (MeshShape) isShape()     {}
func (ConeShape) isShape()     {}

// ShapePrimitive is one shape of an articulated system.
type ShapePrimitive struct {
	Group      int32         `json:"group"`
	Visibility Visibility    `json:"visibility"`
	Shape      ShapeGeometry `json:"shape"`
}

// ObjectDescriptor is one object announced by an initialization response.
type ObjectDescriptor struct {
	Index    uint64   `json:"index"`
	Name     string   `json:"name"`
	Geometry Geometry `json:"geometry"`
	Material Material `json:"material"`
}

// Kind is the kind of the descriptor's geometry.
func (d ObjectDescriptor) Kind() ObjectKind {
	return d.Geometry.Kind()
}

// PoseUpdate moves one named node.
type PoseUpdate struct {
	Name        string `json:"name"`
	Position    Vec3   `json:"position"`
	Orientation Quat   `json:"orientation"`
}

// ContactEvent is one contact point and its reaction force.
type ContactEvent struct {
	Position Vec3 `json:"position"`
	Force    Vec3 `json:"force"`
}

// FrameKind identifies what a Frame carries.
type FrameKind uint8

const (
	FrameScene    FrameKind = 1
	FramePoses    FrameKind = 2
	FrameContacts FrameKind = 3
)

func (k FrameKind) String() string {
	switch k {
	case FrameScene:
		return "scene"
	case FramePoses:
		return "poses"
	case FrameContacts:
		return "contacts"
	default:
		return fmt.Sprintf("frame_kind(%d)", uint8(k))
	}
}

// Frame is the result of one successful exchange, handed to feed consumers.
type Frame struct {
	Kind                FrameKind          `json:"kind"`
	SessionID           string             `json:"session_id"`
	ConfigurationNumber uint64             `json:"configuration_number"`
	Timestamp           time.Time          `json:"timestamp"`
	Objects             []ObjectDescriptor `json:"objects,omitempty"`
	Poses               []PoseUpdate       `json:"poses,omitempty"`
	Contacts            []ContactEvent     `json:"contacts,omitempty"`
}

func assetKey(p string) string {
	dir, file := path.Split(p)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return dir + stem
}
