package maple

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	if len(ecs.archetypes) != 0 {
		t.Errorf("Expected archetypes to be empty, got %v", ecs.archetypes)
	}
	if len(ecs.entityIndex) != 0 {
		t.Errorf("Expected entityIndex to be empty, got %v", ecs.entityIndex)
	}
	if ecs.componentIdCounter != 0 {
		t.Errorf("Expected componentIdCounter to be 0, got %v", ecs.componentIdCounter)
	}
}

func TestEcs_AddEntity(t *testing.T) {
	ecs := MakeEcs()

	entityId := ecs.addEntity()
	if _, ok := ecs.entityIndex[entityId]; !ok {
		t.Errorf("Expected entityId %v to be in entityIndex", entityId)
	}

	type TestComponent struct {
		x string
	}
	entityId2 := ecs.addEntity(TestComponent{x: "test"})
	if _, ok := ecs.entityIndex[entityId2]; !ok {
		t.Errorf("Expected entityId %v to be in entityIndex", entityId2)
	}

	if ecs.entityIndex[entityId] == ecs.entityIndex[entityId2] {
		t.Errorf("Entities with different components ended up in the same Archetype")
	}
}

func TestEcs_AddComponents(t *testing.T) {
	type TestComponent0 struct{ a int }
	type TestComponent1 struct{ x string }
	type TestComponent2 struct{ y string }
	type TestComponent3 struct{ z string }

	ecs := MakeEcs()
	entityId := ecs.addEntity(TestComponent0{a: 1337})

	ecs.addComponents(entityId, TestComponent1{x: "test"}, TestComponent2{y: "hello"})
	ecs.addComponents(entityId, &TestComponent3{z: "test-2"})

	arch := ecs.archetypes[ecs.entityIndex[entityId]]
	assert.Len(t, arch.componentData, 4)
	assert.Equal(t, 1337, GetComponent[TestComponent0](&ecs, entityId).a)
	assert.Equal(t, "test-2", GetComponent[TestComponent3](&ecs, entityId).z)
}

func TestEcs_AddInvalidComponentShouldPanic(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() {
		ecs.addEntity(123)
	})
}

func TestEcs_ComponentRegistration(t *testing.T) {
	type Position struct{ x, y float64 }

	ecs := MakeEcs()
	id1 := ecs.getComponentId(reflect.TypeOf(Position{}))
	id2 := ecs.getComponentId(reflect.TypeOf(Position{}))
	assert.Equal(t, id1, id2)
	assert.Equal(t, reflect.TypeOf(Position{}), ecs.componentIdTypeMap[id1])

	_, ok := ecs.lookupComponentId(reflect.TypeOf(struct{ z int }{}))
	assert.False(t, ok, "lookup must not register new types")
}

func TestEcs_ArchetypeKeyExtension(t *testing.T) {
	key := dedupAndSortArchetypeKey([]componentId{3, 1, 2, 1, 3})
	assert.Equal(t, archetypeKey{1, 2, 3}, key)

	key = combineArchetypeKeys([]componentId{1, 2, 3}, []componentId{4, 3, 2, 1})
	assert.Equal(t, archetypeKey{1, 2, 3, 4}, key)
}

func TestEcs_RemoveEntity(t *testing.T) {
	type Position struct{ X, Y float64 }

	ecs := MakeEcs()
	id := ecs.addEntity(Position{1, 2})
	ecs.removeEntity(id)

	assert.False(t, ecs.Valid(id))
	assert.Nil(t, GetComponent[Position](&ecs, id))
	assert.Equal(t, 0, ecs.Len())

	// removing twice is a no-op
	ecs.removeEntity(id)
}

func TestEcs_GenerationalIds(t *testing.T) {
	ecs := MakeEcs()

	first := ecs.addEntity()
	assert.Equal(t, uint32(0), first.Index())
	assert.Equal(t, uint32(1), first.Generation())
	assert.True(t, ecs.Valid(first))

	ecs.removeEntity(first)
	second := ecs.addEntity()

	assert.Equal(t, first.Index(), second.Index(), "slot is reused")
	assert.Equal(t, uint32(2), second.Generation())
	assert.False(t, ecs.Valid(first), "stale id must not resolve")
	assert.True(t, ecs.Valid(second))
}

func TestEcs_NullEntity(t *testing.T) {
	ecs := MakeEcs()
	ecs.addEntity()

	assert.True(t, NullEntity.IsNull())
	assert.False(t, ecs.Valid(NullEntity))
	assert.Equal(t, "null", NullEntity.String())
	assert.Equal(t, "3#7", makeEntityId(3, 7).String())
}

func TestEcs_InvalidIdMutationsAreNoOps(t *testing.T) {
	type Position struct{ X float64 }

	ecs := MakeEcs()
	stale := ecs.addEntity()
	ecs.removeEntity(stale)

	assert.NotPanics(t, func() {
		ecs.addComponents(stale, Position{1})
		ecs.removeComponents(stale, Position{})
		RemoveComponent[Position](&ecs, stale)
	})
	assert.Nil(t, AddComponent(&ecs, stale, Position{2}))
	assert.False(t, PatchComponent(&ecs, stale, func(p *Position) { p.X = 3 }))
	assert.Equal(t, 0, ecs.Len())
}

func TestEcs_RemoveComponent(t *testing.T) {
	type Position struct{ X float64 }
	type Velocity struct{ X float64 }

	ecs := MakeEcs()
	id := ecs.addEntity(Position{1}, Velocity{2})

	RemoveComponent[Velocity](&ecs, id)
	assert.False(t, HasComponent[Velocity](&ecs, id))
	require.True(t, HasComponent[Position](&ecs, id))
	assert.Equal(t, 1.0, GetComponent[Position](&ecs, id).X)
}

func TestEcs_AddComponentReplaces(t *testing.T) {
	type Position struct{ X float64 }

	ecs := MakeEcs()
	id := ecs.addEntity(Position{1})
	archBefore := ecs.entityIndex[id]

	p := AddComponent(&ecs, id, Position{5})
	require.NotNil(t, p)
	assert.Equal(t, 5.0, p.X)
	assert.Equal(t, archBefore, ecs.entityIndex[id])
}

func TestEcs_Hooks(t *testing.T) {
	type Position struct{ X float64 }

	ecs := MakeEcs()
	var events []string
	record := func(kind string) componentHook {
		return func(ecs *Ecs, entityId EntityId) {
			p := GetComponent[Position](ecs, entityId)
			require.NotNil(t, p, "component must be readable inside %s hook", kind)
			events = append(events, kind)
		}
	}
	positionType := reflect.TypeFor[Position]()
	ecs.connectHook(positionType, hookConstruct, record("construct"))
	ecs.connectHook(positionType, hookUpdate, record("update"))
	ecs.connectHook(positionType, hookDestroy, record("destroy"))

	id := ecs.addEntity(Position{1})
	AddComponent(&ecs, id, Position{2})
	PatchComponent(&ecs, id, func(p *Position) { p.X = 3 })
	RemoveComponent[Position](&ecs, id)
	AddComponent(&ecs, id, Position{4})
	ecs.removeEntity(id)

	assert.Equal(t, []string{"construct", "update", "update", "destroy", "construct", "destroy"}, events)
}

func TestEcs_ReplaceHookSeesOldValue(t *testing.T) {
	type Position struct{ X float64 }

	ecs := MakeEcs()
	var seen []string
	positionType := reflect.TypeFor[Position]()
	ecs.connectHook(positionType, hookReplace, func(ecs *Ecs, entityId EntityId) {
		seen = append(seen, fmt.Sprintf("replace %v", GetComponent[Position](ecs, entityId).X))
	})
	ecs.connectHook(positionType, hookUpdate, func(ecs *Ecs, entityId EntityId) {
		seen = append(seen, fmt.Sprintf("update %v", GetComponent[Position](ecs, entityId).X))
	})

	id := ecs.addEntity(Position{1})
	AddComponent(&ecs, id, Position{2})
	PatchComponent(&ecs, id, func(p *Position) { p.X = 3 })

	assert.Equal(t, []string{"replace 1", "update 2", "replace 2", "update 3"}, seen)
}

func TestEcs_RecycleEntity(t *testing.T) {
	ecs := MakeEcs()
	id := ecs.addEntity()

	ecs.recycleEntity(id)

	if _, ok := ecs.entityIndex[id]; ok {
		t.Errorf("Expected entityId %v to be removed from entityIndex", id)
	}
}
