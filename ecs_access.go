package maple

import (
	"reflect"
)

// GetComponent returns the entity's T, or nil when the entity is invalid or
// has no T. The pointer is only good until the next structural change.
func GetComponent[T any](ecs *Ecs, entityId EntityId) *T {
	archId, ok := ecs.entityIndex[entityId]
	if !ok || entityId == NullEntity {
		return nil
	}
	compId, ok := ecs.lookupComponentId(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	data, ok := arch.componentData[compId]
	if !ok {
		return nil
	}
	return &data.([]T)[arch.entities[entityId]]
}

func HasComponent[T any](ecs *Ecs, entityId EntityId) bool {
	return GetComponent[T](ecs, entityId) != nil
}

// AddComponent attaches (or replaces) the entity's T and returns a pointer to
// the stored copy. Replacing fires replace and update hooks instead of
// construct hooks.
func AddComponent[T any](ecs *Ecs, entityId EntityId, component T) *T {
	ecs.addComponents(entityId, &component)
	return GetComponent[T](ecs, entityId)
}

func RemoveComponent[T any](ecs *Ecs, entityId EntityId) {
	if !HasComponent[T](ecs, entityId) {
		return
	}
	var zero T
	ecs.removeComponents(entityId, &zero)
}

// PatchComponent mutates the entity's T in place, between replace and update
// hooks. It reports false when there was nothing to patch.
func PatchComponent[T any](ecs *Ecs, entityId EntityId, patch func(*T)) bool {
	if !HasComponent[T](ecs, entityId) {
		return false
	}
	id := ecs.getComponentId(reflect.TypeFor[T]())
	ecs.fireReplace(id, entityId)

	// replace hooks may have moved or removed it
	component := GetComponent[T](ecs, entityId)
	if component == nil {
		return false
	}
	patch(component)
	ecs.fireUpdate(id, entityId)
	return true
}
