package maple

// HierarchyComponent links an entity into its parent's child list. The
// children of P are reachable from P.First through Next, in insertion order,
// and every Prev points back (the head's Prev is null).
type HierarchyComponent struct {
	Parent EntityId
	First  EntityId
	Next   EntityId
	Prev   EntityId
}

// hierarchyEdits holds the links of components being overwritten, between
// their replace and update hooks.
type hierarchyEdits struct {
	saved map[EntityId]HierarchyComponent
}

// hierarchyOnConstruct appends the entity to its parent's child list,
// attaching a HierarchyComponent to the parent when it has none. A fresh
// component has no children and no siblings whatever the value says.
func hierarchyOnConstruct(entityId EntityId, ecs *Ecs) {
	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil {
		return
	}
	h.First, h.Next, h.Prev = NullEntity, NullEntity, NullEntity
	if h.Parent == entityId {
		h.Parent = NullEntity
	}
	hierarchyLink(ecs, entityId)
}

// hierarchyOnDestroy unlinks the entity from its siblings and turns any
// remaining children into roots.
func hierarchyOnDestroy(entityId EntityId, ecs *Ecs) {
	hierarchyUnlink(ecs, entityId)

	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil {
		return
	}
	child := h.First
	h.First = NullEntity
	for child != NullEntity {
		ch := GetComponent[HierarchyComponent](ecs, child)
		if ch == nil {
			break
		}
		next := ch.Next
		ch.Parent, ch.Next, ch.Prev = NullEntity, NullEntity, NullEntity
		child = next
	}
}

// hierarchyOnReplace saves the links before a HierarchyComponent is
// overwritten.
func hierarchyOnReplace(entityId EntityId, h *HierarchyComponent, edits Opt[hierarchyEdits]) {
	if edits.Ok() {
		edits.Get().saved[entityId] = *h
	}
}

// hierarchyOnUpdate runs once the new value is in storage. Only Parent is
// taken from it: the list links are restored, and a changed parent moves the
// entity from its old position to the tail of the new parent's list. A
// parent that is invalid or would close a cycle is refused.
func hierarchyOnUpdate(entityId EntityId, ecs *Ecs, edits Opt[hierarchyEdits]) {
	if !edits.Ok() {
		return
	}
	old, ok := edits.Get().saved[entityId]
	if !ok {
		return
	}
	delete(edits.Get().saved, entityId)

	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil {
		return
	}
	newParent := h.Parent
	*h = old
	if newParent == old.Parent || !hierarchyCanParent(ecs, entityId, newParent) {
		return
	}
	Reparent(ecs, entityId, newParent)
}

// hierarchyCanParent reports whether parent may adopt the entity: it must be
// null, or a live entity other than the entity and its descendants.
func hierarchyCanParent(ecs *Ecs, entityId, parent EntityId) bool {
	if parent == NullEntity {
		return true
	}
	if parent == entityId || !ecs.Valid(parent) {
		return false
	}
	ph := GetComponent[HierarchyComponent](ecs, parent)
	return ph == nil || !hierarchyCompare(ecs, ph, entityId)
}

func hierarchyLink(ecs *Ecs, entityId EntityId) {
	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil || h.Parent == NullEntity {
		return
	}
	parent := h.Parent
	if !ecs.Valid(parent) {
		h.Parent, h.Next, h.Prev = NullEntity, NullEntity, NullEntity
		return
	}

	if !HasComponent[HierarchyComponent](ecs, parent) {
		ecs.addComponents(parent, HierarchyComponent{})
	}

	// the parent's move may have reallocated our storage
	h = GetComponent[HierarchyComponent](ecs, entityId)
	ph := GetComponent[HierarchyComponent](ecs, parent)

	if ph.First == NullEntity {
		h.Next, h.Prev = NullEntity, NullEntity
		ph.First = entityId
		return
	}

	tail := ph.First
	for {
		if tail == entityId {
			return
		}
		th := GetComponent[HierarchyComponent](ecs, tail)
		if th == nil {
			return
		}
		if th.Next == NullEntity {
			break
		}
		tail = th.Next
	}

	GetComponent[HierarchyComponent](ecs, tail).Next = entityId
	h.Next, h.Prev = NullEntity, tail
}

func hierarchyUnlink(ecs *Ecs, entityId EntityId) {
	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil || h.Parent == NullEntity {
		return
	}

	if h.Prev == NullEntity {
		if ph := GetComponent[HierarchyComponent](ecs, h.Parent); ph != nil && ph.First == entityId {
			ph.First = h.Next
		}
		if nh := GetComponent[HierarchyComponent](ecs, h.Next); nh != nil {
			nh.Prev = NullEntity
		}
	} else {
		if ph := GetComponent[HierarchyComponent](ecs, h.Prev); ph != nil {
			ph.Next = h.Next
		}
		if nh := GetComponent[HierarchyComponent](ecs, h.Next); nh != nil {
			nh.Prev = h.Prev
		}
	}
	h.Next, h.Prev = NullEntity, NullEntity
}

// Reparent moves the entity under newParent, appending it to the tail of
// the new child list. A null newParent makes it a root. No cycle or
// validity checks are made here; Entity.SetParent does those.
func Reparent(ecs *Ecs, entityId EntityId, newParent EntityId) {
	if !HasComponent[HierarchyComponent](ecs, entityId) {
		return
	}

	hierarchyUnlink(ecs, entityId)

	h := GetComponent[HierarchyComponent](ecs, entityId)
	h.Parent, h.Next, h.Prev = newParent, NullEntity, NullEntity
	if newParent != NullEntity {
		hierarchyLink(ecs, entityId)
	}
}

// hierarchyCompare reports whether candidate is an ancestor of the entity
// owning h. The null entity counts as everyone's ancestor.
func hierarchyCompare(ecs *Ecs, h *HierarchyComponent, candidate EntityId) bool {
	if candidate == NullEntity {
		return true
	}
	for parent := h.Parent; parent != NullEntity; {
		if parent == candidate {
			return true
		}
		ph := GetComponent[HierarchyComponent](ecs, parent)
		if ph == nil {
			return false
		}
		parent = ph.Parent
	}
	return false
}
