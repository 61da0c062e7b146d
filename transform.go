package maple

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent holds a local position/rotation/scale and the world
// matrix resolved by the hierarchy systems. Local setters mark it dirty.
// Build it with NewTransform; the zero value has a degenerate scale.
type TransformComponent struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	world   mgl32.Mat4
	dirty   bool
	updated bool
}

func NewTransform() TransformComponent {
	return TransformComponent{
		position: mgl32.Vec3{0, 0, 0},
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		world:    mgl32.Ident4(),
		dirty:    true,
	}
}

func NewTransformAt(position mgl32.Vec3) TransformComponent {
	t := NewTransform()
	t.position = position
	return t
}

func (t *TransformComponent) LocalPosition() mgl32.Vec3 { return t.position }
func (t *TransformComponent) LocalRotation() mgl32.Quat { return t.rotation }
func (t *TransformComponent) LocalScale() mgl32.Vec3    { return t.scale }

func (t *TransformComponent) SetLocalPosition(p mgl32.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *TransformComponent) SetLocalRotation(q mgl32.Quat) {
	t.rotation = q.Normalize()
	t.dirty = true
}

func (t *TransformComponent) SetLocalScale(s mgl32.Vec3) {
	t.scale = s
	t.dirty = true
}

// LocalMatrix returns T * R * S.
func (t *TransformComponent) LocalMatrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.position.X(), t.position.Y(), t.position.Z())
	rotate := t.rotation.Mat4()
	scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// SetLocalMatrix decomposes an affine matrix without shear into position,
// rotation and scale.
func (t *TransformComponent) SetLocalMatrix(m mgl32.Mat4) {
	t.position = m.Col(3).Vec3()

	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	for i, c := range cols {
		s := c.Len()
		t.scale[i] = s
		if s != 0 {
			cols[i] = c.Mul(1 / s)
		}
	}

	rotation := mgl32.Mat4FromCols(cols[0].Vec4(0), cols[1].Vec4(0), cols[2].Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	t.rotation = mgl32.Mat4ToQuat(rotation).Normalize()
	t.dirty = true
}

func (t *TransformComponent) WorldMatrix() mgl32.Mat4 { return t.world }

func (t *TransformComponent) WorldPosition() mgl32.Vec3 {
	return t.world.Col(3).Vec3()
}

func (t *TransformComponent) IsDirty() bool    { return t.dirty }
func (t *TransformComponent) SetDirty()        { t.dirty = true }
func (t *TransformComponent) HasUpdated() bool { return t.updated }

func (t *TransformComponent) setWorld(m mgl32.Mat4) {
	t.world = m
	t.updated = true
	t.dirty = false
}

// SceneTransformChanged collects the entities whose world matrix changed in
// the current frame. It is emptied at frame end.
type SceneTransformChanged struct {
	Entities []EntityId
	Dirty    bool
}

func (c *SceneTransformChanged) add(entityId EntityId) {
	c.Entities = append(c.Entities, entityId)
	c.Dirty = true
}

func (c *SceneTransformChanged) reset() {
	c.Entities = c.Entities[:0]
	c.Dirty = false
}

// propagateTransform resolves the subtree rooted at entityId depth-first.
// A node is recomputed only when it is dirty or its parent changed this
// frame; children are always visited.
func propagateTransform(ecs *Ecs, changed *SceneTransformChanged, entityId EntityId, parentWorld mgl32.Mat4, parentUpdated bool) {
	world, updated := parentWorld, parentUpdated

	if tr := GetComponent[TransformComponent](ecs, entityId); tr != nil {
		if parentUpdated || tr.dirty {
			tr.setWorld(parentWorld.Mul4(tr.LocalMatrix()))
			changed.add(entityId)
		}
		world, updated = tr.world, tr.updated
	}

	h := GetComponent[HierarchyComponent](ecs, entityId)
	if h == nil {
		return
	}
	for child := h.First; child != NullEntity; {
		ch := GetComponent[HierarchyComponent](ecs, child)
		if ch == nil {
			return
		}
		next := ch.Next
		propagateTransform(ecs, changed, child, world, updated)
		child = next
	}
}
