package maple

import (
	"github.com/go-gl/mathgl/mgl32"
)

// HierarchyModule keeps HierarchyComponent lists consistent and resolves
// world transforms once per frame.
type HierarchyModule struct{}

func (HierarchyModule) Install(app *App, cmd *Commands) {
	RegisterGlobalComponent[SceneTransformChanged](app)
	RegisterGlobalComponent(app, func(e *hierarchyEdits) {
		e.saved = make(map[EntityId]HierarchyComponent)
	})

	OnConstruct[HierarchyComponent](app, hierarchyOnConstruct)
	OnDestroy[HierarchyComponent](app, hierarchyOnDestroy)
	OnReplace[HierarchyComponent](app, hierarchyOnReplace)
	OnUpdate[HierarchyComponent](app, hierarchyOnUpdate)

	app.UseSystem(
		System(transformRootSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(transformHierarchySystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.RegisterSystemInFrameEnd(transformResetSystem)
}

// transformRootSystem handles transforms that take no part in any hierarchy:
// their world matrix is their local matrix.
func transformRootSystem(cmd *Commands, changed *SceneTransformChanged) {
	MakeQuery1[TransformComponent](cmd).Without(HierarchyComponent{}).Map(func(eid EntityId, tr *TransformComponent) bool {
		if tr.dirty {
			tr.setWorld(tr.LocalMatrix())
			changed.add(eid)
		}
		return true
	})
}

// transformHierarchySystem walks every hierarchy root down to its leaves.
func transformHierarchySystem(cmd *Commands, changed *SceneTransformChanged) {
	ecs := cmd.app.ecs
	MakeQuery1[HierarchyComponent](cmd).Map(func(eid EntityId, h *HierarchyComponent) bool {
		if h.Parent == NullEntity {
			propagateTransform(ecs, changed, eid, mgl32.Ident4(), false)
		}
		return true
	})
}

func transformResetSystem(cmd *Commands, changed *SceneTransformChanged) {
	MakeQuery1[TransformComponent](cmd).Map(func(_ EntityId, tr *TransformComponent) bool {
		tr.updated = false
		return true
	})
	changed.reset()
}
