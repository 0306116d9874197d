package api

import (
	"time"

	"github.com/open-teleop/simviz/pkg/scene"
)

// --- Data Structures for API responses ---

// SceneNode is one resident scene node with its latest pose.
type SceneNode struct {
	Name        string           `json:"name"`
	ObjectIndex uint64           `json:"object_index"`
	ObjectName  string           `json:"object_name"`
	Kind        string           `json:"kind"`
	Group       int32            `json:"group,omitempty"`
	Visibility  scene.Visibility `json:"visibility"`
	Material    scene.Material   `json:"material"`
	Position    scene.Vec3       `json:"position"`
	Orientation scene.Quat       `json:"orientation"`
	UpdateCount int64            `json:"update_count"`
	LastUpdated *time.Time       `json:"last_updated,omitempty"`
}

// SceneResponse is the body of GET /api/scene.
type SceneResponse struct {
	SessionID           string                   `json:"session_id,omitempty"`
	ConfigurationNumber uint64                   `json:"configuration_number"`
	Objects             []scene.ObjectDescriptor `json:"objects"`
	Nodes               []SceneNode              `json:"nodes"`
}

// ContactsResponse is the body of GET /api/contacts.
type ContactsResponse struct {
	Points  int            `json:"points"`
	Forces  int            `json:"forces"`
	Markers []scene.Marker `json:"markers"`
}

// ErrorResponse is returned by every failing route.
type ErrorResponse struct {
	Error string `json:"error"`
}

func sceneNode(n scene.NodeState) SceneNode {
	out := SceneNode{
		Name:        n.Name,
		ObjectIndex: n.ObjectIndex,
		ObjectName:  n.ObjectName,
		Kind:        n.Kind(),
		Group:       n.Group,
		Visibility:  n.Visibility,
		Material:    n.Material,
		Position:    n.Position,
		Orientation: n.Orientation,
		UpdateCount: n.UpdateCount,
	}
	if n.LastUpdated != 0 {
		t := time.Unix(0, n.LastUpdated)
		out.LastUpdated = &t
	}
	return out
}
