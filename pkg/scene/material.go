package scene

// Resolver looks up the material hint for a display name.
type Resolver func(displayName string) (hint string, ok bool)

// FallbackSlots is the number of deterministic fallback materials.
const FallbackSlots = 3

// FallbackMaterials are assigned by object index when no hint resolves.
var FallbackMaterials = [FallbackSlots]string{
	"simviz/fallback_orange",
	"simviz/fallback_steel",
	"simviz/fallback_teal",
}

// Material is the appearance assigned to an object.
type Material struct {
	Name     string `json:"name"`
	Fallback bool   `json:"fallback"`
	// Slot is the fallback slot, or -1 for a resolved hint.
	Slot int `json:"slot"`
}

// FallbackMaterial returns the material for slot index mod FallbackSlots.
func FallbackMaterial(index uint64) Material {
	slot := int(index % FallbackSlots)
	return Material{Name: FallbackMaterials[slot], Fallback: true, Slot: slot}
}

// ResolveMaterial asks resolve for a hint and falls back by index.
func ResolveMaterial(resolve Resolver, name string, index uint64) Material {
	if resolve != nil {
		if hint, ok := resolve(name); ok && hint != "" {
			return Material{Name: hint, Slot: -1}
		}
	}
	return FallbackMaterial(index)
}

// AssignMaterials sets the material of every descriptor in place.
func AssignMaterials(objects []ObjectDescriptor, resolve Resolver) {
	for i := range objects {
		objects[i].Material = ResolveMaterial(resolve, objects[i].Name, objects[i].Index)
	}
}
