package maple

// Entity is a handle pairing an id with the app that owns it. The zero
// Entity is the null entity.
type Entity struct {
	Id  EntityId
	app *App
}

func (e Entity) Valid() bool {
	return e.app != nil && e.app.ecs.Valid(e.Id)
}

func (e Entity) IsNull() bool {
	return e.Id == NullEntity
}

// SetParent makes parent the entity's parent; a null parent detaches it.
// The call is refused when parent is the entity itself, one of its
// descendants, or already its parent.
func (e Entity) SetParent(parent Entity) {
	if !e.Valid() {
		return
	}
	ecs := e.app.ecs
	if parent.Id != NullEntity && !ecs.Valid(parent.Id) {
		return
	}
	if parent.Id == e.Id {
		e.app.Logger().Debugf("hierarchy: refusing to parent %v to itself", e.Id)
		return
	}

	h := GetComponent[HierarchyComponent](ecs, e.Id)
	if h == nil {
		if parent.Id != NullEntity {
			ecs.addComponents(e.Id, HierarchyComponent{Parent: parent.Id})
		}
		return
	}
	if h.Parent == parent.Id {
		return
	}
	if parent.IsParent(e) {
		e.app.Logger().Debugf("hierarchy: refusing to parent %v to its descendant %v", e.Id, parent.Id)
		return
	}

	Reparent(ecs, e.Id, parent.Id)
}

// Parent returns the null Entity for roots.
func (e Entity) Parent() Entity {
	if !e.Valid() {
		return Entity{}
	}
	h := GetComponent[HierarchyComponent](e.app.ecs, e.Id)
	if h == nil || !e.app.ecs.Valid(h.Parent) {
		return Entity{}
	}
	return e.app.Entity(h.Parent)
}

// Children returns the direct children in list order.
func (e Entity) Children() []Entity {
	if !e.Valid() {
		return nil
	}
	ecs := e.app.ecs
	h := GetComponent[HierarchyComponent](ecs, e.Id)
	if h == nil {
		return nil
	}

	var children []Entity
	for child := h.First; child != NullEntity; {
		ch := GetComponent[HierarchyComponent](ecs, child)
		if ch == nil {
			break
		}
		children = append(children, e.app.Entity(child))
		child = ch.Next
	}
	return children
}

// IsParent reports whether ancestor is somewhere above the entity.
func (e Entity) IsParent(ancestor Entity) bool {
	if !e.Valid() || ancestor.Id == NullEntity {
		return false
	}
	h := GetComponent[HierarchyComponent](e.app.ecs, e.Id)
	if h == nil {
		return false
	}
	return hierarchyCompare(e.app.ecs, h, ancestor.Id)
}

// RemoveAllChildren destroys every descendant of the entity.
func (e Entity) RemoveAllChildren() {
	for _, child := range e.Children() {
		child.Destroy()
	}
}

// Destroy removes the entity together with all of its descendants.
func (e Entity) Destroy() {
	if !e.Valid() {
		return
	}
	e.RemoveAllChildren()
	e.app.ecs.removeEntity(e.Id)
}
