package maple

import "slices"

// Commands defers structural changes until the end of the current stage, so
// systems can spawn and destroy while iterating queries.
type Commands struct {
	app *App
}

func (cmd *Commands) App() *App { return cmd.app }

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

// Exit stops Run after the current frame.
func (cmd *Commands) Exit() {
	cmd.app.exitRequested = true
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompRemovals = append(cmd.app.pendingCompRemovals, pendingCompRemoval{
		eid:        entityId,
		components: components,
	})
}

// RemoveEntity queues the entity and all of its descendants for destruction.
// An entity still waiting in AddEntity is dropped before it is created.
func (cmd *Commands) RemoveEntity(entityId EntityId) {
	app := cmd.app
	for i, add := range app.pendingAdditions {
		if add.eid == entityId {
			app.pendingAdditions = slices.Delete(app.pendingAdditions, i, i+1)
			app.ecs.releaseEntityId(entityId)
			return
		}
	}
	app.pendingRemovals = append(app.pendingRemovals, entityId)
}

func (cmd *Commands) Entity(entityId EntityId) Entity {
	return cmd.app.Entity(entityId)
}

func (cmd *Commands) GetAllComponents(entityId EntityId) []any {
	ecs := cmd.app.ecs
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]

	row := arch.entities[entityId]

	var res []any
	for _, compId := range arch.key {
		val := reflectSliceGet(arch.componentData[compId], int(row))
		res = append(res, val.Interface())
	}
	return res
}
