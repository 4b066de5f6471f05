package donuts

import (
	"slices"
)

// GroupComponent marks a container entity whose children are added to and
// removed from the scene as one unit.
type GroupComponent struct {
	Name string
}

// SceneGraph tracks which root entities are attached to the rendered scene.
// An entity is drawn when the root of its Parent chain is attached.
type SceneGraph struct {
	roots []EntityId
}

type SceneGraphModule struct{}

func (SceneGraphModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&SceneGraph{})
}

// Attach adds a root to the scene. It reports false when the root was
// already attached, leaving the scene unchanged.
func (s *SceneGraph) Attach(root EntityId) bool {
	if s.Attached(root) {
		return false
	}
	s.roots = append(s.roots, root)
	return true
}

// Detach removes a root from the scene and reports whether it was attached.
func (s *SceneGraph) Detach(root EntityId) bool {
	idx := slices.Index(s.roots, root)
	if idx == -1 {
		return false
	}
	s.roots = slices.Delete(s.roots, idx, idx+1)
	return true
}

func (s *SceneGraph) Attached(root EntityId) bool {
	return slices.Contains(s.roots, root)
}

// Roots returns the attached roots in attachment order.
func (s *SceneGraph) Roots() []EntityId {
	return slices.Clone(s.roots)
}

// Visible reports whether eid belongs to an attached root. Parent chains
// longer than maxHierarchyPasses are treated as detached.
func (s *SceneGraph) Visible(cmd *Commands, eid EntityId) bool {
	for depth := 0; depth <= maxHierarchyPasses; depth++ {
		parent := GetComponent[Parent](cmd, eid)
		if parent == nil {
			return s.Attached(eid)
		}
		eid = parent.Entity
	}
	return false
}
