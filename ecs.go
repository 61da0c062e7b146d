package maple

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

// EntityId packs a 32-bit slot index (low bits) and a 32-bit generation (high bits).
// Generations start at 1, so the zero value is NullEntity.
type EntityId uint64

const NullEntity EntityId = 0

type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

func makeEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

func (id EntityId) Index() uint32      { return uint32(id) }
func (id EntityId) Generation() uint32 { return uint32(id >> 32) }
func (id EntityId) IsNull() bool       { return id == NullEntity }

func (id EntityId) String() string {
	if id == NullEntity {
		return "null"
	}
	return fmt.Sprintf("%d#%d", id.Index(), id.Generation())
}

type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	idGeneratorLock sync.Mutex
	generations     []uint32
	freeList        []uint32

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
	componentIdTypeMap     map[componentId]reflect.Type

	hooks map[componentId]*componentHooks
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:         make(map[archetypeId]*archetype),
		entityIndex:        make(map[EntityId]archetypeId),
		componentIdCounter: componentId(0),
		componentTypeIdMap: make(map[reflect.Type]componentId),
		componentIdTypeMap: make(map[componentId]reflect.Type),
		hooks:              make(map[componentId]*componentHooks),
	}
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      map[EntityId]row
	componentData map[componentId]any // typed slices via reflection
	recycled      []row
}

func (arch *archetype) has(id componentId) bool {
	_, ok := arch.componentData[id]
	return ok
}

func (arch *archetype) hasAny(ids set[componentId]) bool {
	for id := range ids {
		if arch.has(id) {
			return true
		}
	}
	return false
}

// Valid reports whether the id refers to a live entity.
func (ecs *Ecs) Valid(entityId EntityId) bool {
	if entityId == NullEntity {
		return false
	}
	_, ok := ecs.entityIndex[entityId]
	return ok
}

// Len returns the number of live entities.
func (ecs *Ecs) Len() int {
	return len(ecs.entityIndex)
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	entityId := ecs.nextEntityId()
	return ecs.insertEntity(entityId, components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	archId, _, arch := ecs.archetypeFromComponents(components...)

	row := ecs.archetypeReserveRow(arch)
	arch.entities[entityId] = row
	for _, component := range components {
		ecs.writeComponent(arch, row, component)
	}

	ecs.entityIndex[entityId] = archId

	for _, compId := range ecs.componentIds(components...) {
		ecs.fireConstruct(compId, entityId)
	}

	return entityId
}

// removeEntity fires destroy hooks for every component the entity carries and
// then releases its row and id. Children are not touched here; see Entity.Destroy.
func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.Valid(entityId) {
		return
	}

	arch := ecs.archetypes[ecs.entityIndex[entityId]]
	for _, compId := range slices.Clone(arch.key) {
		ecs.fireDestroy(compId, entityId)
	}

	// a destroy hook is allowed to remove the entity itself
	if !ecs.Valid(entityId) {
		return
	}
	ecs.recycleEntity(entityId)
	ecs.releaseEntityId(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	if !ecs.Valid(entityId) || len(components) == 0 {
		return
	}

	compIds := ecs.componentIds(components...)
	srcArch := ecs.archetypes[ecs.entityIndex[entityId]]
	for _, id := range compIds {
		if srcArch.has(id) {
			ecs.fireReplace(id, entityId)
		}
	}
	if !ecs.Valid(entityId) {
		return
	}

	// replace hooks may have moved the entity
	srcArch = ecs.archetypes[ecs.entityIndex[entityId]]
	srcRow := srcArch.entities[entityId]
	existed := make([]bool, len(compIds))
	for i, id := range compIds {
		existed[i] = srcArch.has(id)
	}

	dstArchId, _, dstArch := ecs.archetypeFromExtraComponents(srcArch, components...)
	dstRow := ecs.archetypeReserveRow(dstArch)

	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	for _, component := range components {
		ecs.writeComponent(dstArch, dstRow, component)
	}

	ecs.recycleEntity(entityId)

	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId

	for i, id := range compIds {
		if existed[i] {
			ecs.fireUpdate(id, entityId)
		} else {
			ecs.fireConstruct(id, entityId)
		}
	}
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	if !ecs.Valid(entityId) {
		return
	}

	// Find the subset of components to keep
	removeSet := make(set[componentId])
	for _, c := range components {
		removeSet[ecs.getComponentId(componentTypeOf(c))] = struct{}{}
	}

	srcArch := ecs.archetypes[ecs.entityIndex[entityId]]
	for _, compId := range slices.Clone(srcArch.key) {
		if _, ok := removeSet[compId]; ok {
			ecs.fireDestroy(compId, entityId)
		}
	}
	if !ecs.Valid(entityId) {
		return
	}

	// hooks may have moved the entity
	srcArch = ecs.archetypes[ecs.entityIndex[entityId]]
	srcRow := srcArch.entities[entityId]

	var dstKey archetypeKey
	for _, compId := range srcArch.key {
		if _, shouldRemove := removeSet[compId]; !shouldRemove {
			dstKey = append(dstKey, compId)
		}
	}
	if len(dstKey) == len(srcArch.key) {
		return
	}

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstKey)
	dstRow := ecs.archetypeReserveRow(dstArch)

	ecs.moveComponents(srcArch, srcRow, dstArch, dstRow)
	ecs.recycleEntity(entityId)

	dstArch.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dstArchId
}

func (ecs *Ecs) moveComponents(srcArch *archetype, srcRow row, dstArch *archetype, dstRow row) {
	// Only the components both archetypes share are copied
	for _, componentId := range srcArch.key {
		if !dstArch.has(componentId) {
			continue
		}
		srcValue := reflectSliceGet(srcArch.componentData[componentId], int(srcRow))
		reflectSliceSet(dstArch.componentData[componentId], int(dstRow), srcValue)
	}
}

func (ecs *Ecs) writeComponent(dstArch *archetype, dstRow row, component any) {
	componentType := reflect.TypeOf(component)
	reflectValue := reflect.ValueOf(component)
	if componentType.Kind() == reflect.Pointer {
		componentType = componentType.Elem()
		reflectValue = reflectValue.Elem()
	}
	if componentType.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", componentType.Kind()))
	}

	componentId := ecs.getComponentId(componentType)
	reflectSliceSet(dstArch.componentData[componentId], int(dstRow), reflectValue)
}

func (ecs *Ecs) recycleEntity(entityId EntityId) {
	archId := ecs.entityIndex[entityId]
	arch := ecs.archetypes[archId]

	row := arch.entities[entityId]
	arch.recycled = append(arch.recycled, row)

	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

// componentPtr returns a *T reflect value pointing into the entity's storage.
// The pointer is invalidated by the next structural change of the archetype.
func (ecs *Ecs) componentPtr(entityId EntityId, componentType reflect.Type) (reflect.Value, bool) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok || entityId == NullEntity {
		return reflect.Value{}, false
	}
	compId, ok := ecs.lookupComponentId(componentType)
	if !ok {
		return reflect.Value{}, false
	}
	arch := ecs.archetypes[archId]
	data, ok := arch.componentData[compId]
	if !ok {
		return reflect.Value{}, false
	}
	return reflectSliceGet(data, int(arch.entities[entityId])).Addr(), true
}

func (ecs *Ecs) archetypeFromComponents(components ...any) (archetypeId, archetypeKey, *archetype) {
	archKey := ecs.getArchetypeKey(components...)
	archId, arch := ecs.getOrMakeArchetype(archKey)
	return archId, archKey, arch
}

func (ecs *Ecs) archetypeFromExtraComponents(srcArch *archetype, components ...any) (archetypeId, archetypeKey, *archetype) {
	dstArchKey := combineArchetypeKeys(
		srcArch.key,
		ecs.getArchetypeKey(components...),
	)

	dstArchId, dstArch := ecs.getOrMakeArchetype(dstArchKey)
	return dstArchId, dstArchKey, dstArch
}

func (ecs *Ecs) getOrMakeArchetype(key archetypeKey) (archetypeId, *archetype) {
	id := getArchetypeId(key)

	if arch, ok := ecs.archetypes[id]; ok {
		return id, arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any),
		recycled:      make([]row, 0),
	}
	for _, componentId := range arch.key {
		arch.componentData[componentId] = reflectSliceMake(
			ecs.componentIdTypeMap[componentId],
		)
	}

	ecs.archetypes[id] = arch
	return id, arch
}

func (ecs *Ecs) archetypeReserveRow(arch *archetype) row {
	if len(arch.recycled) > 0 {
		row := arch.recycled[len(arch.recycled)-1]
		arch.recycled = arch.recycled[:len(arch.recycled)-1]
		return row
	}

	row := row(len(arch.entities))
	for _, componentId := range arch.key {
		arch.componentData[componentId] = reflectSliceAppend(
			arch.componentData[componentId],
			reflect.Zero(ecs.componentIdTypeMap[componentId]),
		)
	}
	return row
}

// Archetype's "Canonical" Key - a list of *sorted* ComponentIDs that make the archetype
// ArchetypeID is a value derived from they key (a hash)
// ArchetypeID is faster to lookup and compare but is prone to hash collisions
// Archetype Key is truly unique but is more cumbersom to deal with
func (ecs *Ecs) getArchetypeKey(components ...any) archetypeKey {
	return dedupAndSortArchetypeKey(ecs.componentIds(components...))
}

func (ecs *Ecs) componentIds(components ...any) []componentId {
	res := make([]componentId, 0, len(components))
	for _, component := range components {
		compType := componentTypeOf(component)
		if compType.Kind() != reflect.Struct {
			panic("component should be a struct")
		}
		res = append(res, ecs.getComponentId(compType))
	}
	return res
}

func componentTypeOf(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType == nil {
		panic("component should not be nil")
	}
	if compType.Kind() == reflect.Pointer {
		compType = compType.Elem()
	}
	return compType
}

func combineArchetypeKeys(a archetypeKey, b archetypeKey) archetypeKey {
	return dedupAndSortArchetypeKey(append(slices.Clone(a), b...))
}

func dedupAndSortArchetypeKey(key archetypeKey) archetypeKey {
	dedup := make(set[componentId])

	for _, v := range key {
		dedup[v] = struct{}{}
	}

	res := make(archetypeKey, 0, len(dedup))
	for k := range dedup {
		res = append(res, k)
	}

	slices.Sort(res)
	return res
}

func getArchetypeId(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	b := make([]byte, 8)
	for _, componentId := range key {
		binary.LittleEndian.PutUint64(b, uint64(componentId))
		hash.Write(b)
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	if n := len(ecs.freeList); n > 0 {
		idx := ecs.freeList[n-1]
		ecs.freeList = ecs.freeList[:n-1]
		return makeEntityId(idx, ecs.generations[idx])
	}

	idx := uint32(len(ecs.generations))
	ecs.generations = append(ecs.generations, 1)
	return makeEntityId(idx, 1)
}

func (ecs *Ecs) releaseEntityId(entityId EntityId) {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	idx := entityId.Index()
	if int(idx) >= len(ecs.generations) || ecs.generations[idx] != entityId.Generation() {
		return
	}
	ecs.generations[idx]++
	if ecs.generations[idx] == 0 {
		ecs.generations[idx] = 1
	}
	ecs.freeList = append(ecs.freeList, idx)
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}

	id := ecs.componentIdCounter
	ecs.componentIdCounter += 1

	ecs.componentTypeIdMap[componentType] = id
	ecs.componentIdTypeMap[id] = componentType

	return id
}

func (ecs *Ecs) lookupComponentId(componentType reflect.Type) (componentId, bool) {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	id, ok := ecs.componentTypeIdMap[componentType]
	return id, ok
}
