package scene

// ApplyPoses moves every target found by lookup and returns the names that
// had no node. A missing node is not an error.
func ApplyPoses(lookup NodeLookup, poses []PoseUpdate) (missing []string) {
	for _, p := range poses {
		node, ok := lookup.LookupNode(p.Name)
		if !ok {
			missing = append(missing, p.Name)
			continue
		}
		node.SetPose(p.Position, p.Orientation)
	}
	return missing
}

// ReplaceContacts destroys every previous marker, then creates the markers
// flags enable. It returns the number of markers created.
func ReplaceContacts(markers ContactMarkers, contacts []ContactEvent, flags DisplayFlags) int {
	markers.ClearContacts()
	created := 0
	for _, ct := range contacts {
		if flags.ContactPoints {
			markers.AddContactPoint(ct.Position)
			created++
		}
		if flags.ContactForces {
			markers.AddContactForce(ct.Position, ct.Force)
			created++
		}
	}
	return created
}

// BuildScene clears the scene and creates the nodes of every object. Nodes
// that fail to create are returned with their error and skipped.
func BuildScene(b Builder, objects []ObjectDescriptor) (created int, failed map[string]error) {
	b.ClearScene()
	for _, obj := range objects {
		for _, spec := range Nodes(obj) {
			if err := b.CreateNode(spec); err != nil {
				if failed == nil {
					failed = make(map[string]error)
				}
				failed[spec.Name] = err
				continue
			}
			created++
		}
	}
	return created, failed
}
