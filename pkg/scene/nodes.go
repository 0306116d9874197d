package scene

import "fmt"

// Node is a scene node that accepts poses.
type Node interface {
	SetPose(position Vec3, orientation Quat)
}

// Builder creates and destroys scene nodes.
type Builder interface {
	// ClearScene destroys every node and contact marker.
	ClearScene()
	CreateNode(spec NodeSpec) error
}

// NodeLookup finds the node a pose update targets.
type NodeLookup interface {
	LookupNode(name string) (Node, bool)
}

// ContactMarkers owns the per-tick contact markers.
type ContactMarkers interface {
	ClearContacts()
	AddContactPoint(position Vec3)
	AddContactForce(position, force Vec3)
}

// Target is everything the session drives.
type Target interface {
	Builder
	NodeLookup
	ContactMarkers
}

// NodeSpec describes one node to create. Exactly one of Geometry and Shape is set.
type NodeSpec struct {
	Name        string        `json:"name"`
	ObjectIndex uint64        `json:"object_index"`
	ObjectName  string        `json:"object_name"`
	Geometry    Geometry      `json:"geometry,omitempty"`
	Shape       ShapeGeometry `json:"shape,omitempty"`
	Group       int32         `json:"group"`
	Visibility  Visibility    `json:"visibility"`
	Material    Material      `json:"material"`
}

// Kind names the geometry of the node.
func (n NodeSpec) Kind() string {
	if n.Shape != nil {
		return n.Shape.ShapeKind().String()
	}
	if n.Geometry != nil {
		return n.Geometry.Kind().String()
	}
	return ""
}

// ShapeNodeName names the node of shape i in an articulated system group.
func ShapeNodeName(displayName, group string, i int) string {
	return fmt.Sprintf("%s/%s/%d", displayName, group, i)
}

// Nodes expands a descriptor into the nodes that represent it. Cones are
// never materialized.
func Nodes(obj ObjectDescriptor) []NodeSpec {
	switch g := obj.Geometry.(type) {
	case nil, Cone:
		return nil
	case Articulated:
		specs := make([]NodeSpec, 0, len(g.Visuals)+len(g.Collisions))
		specs = appendShapeNodes(specs, obj, "visual", g.Visuals)
		return appendShapeNodes(specs, obj, "collision", g.Collisions)
	default:
		return []NodeSpec{{
			Name:        obj.Name,
			ObjectIndex: obj.Index,
			ObjectName:  obj.Name,
			Geometry:    g,
			Visibility:  VisibilityVisualAndCollision,
			Material:    obj.Material,
		}}
	}
}

func appendShapeNodes(specs []NodeSpec, obj ObjectDescriptor, group string, shapes []ShapePrimitive) []NodeSpec {
	for i, sp := range shapes {
		if _, cone := sp.Shape.(ConeShape); cone || sp.Shape == nil {
			continue
		}
		specs = append(specs, NodeSpec{
			Name:        ShapeNodeName(obj.Name, group, i),
			ObjectIndex: obj.Index,
			ObjectName:  obj.Name,
			Shape:       sp.Shape,
			Group:       sp.Group,
			Visibility:  sp.Visibility,
			Material:    obj.Material,
		})
	}
	return specs
}
