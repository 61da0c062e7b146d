package maple

import (
	"reflect"
	"slices"
)

// Queries visit every archetype holding the required components. Components
// listed as optionals may be missing, in which case the callback gets nil.
// Components passed to Without exclude whole archetypes.
type Query1[A any] struct {
	ecs     *Ecs
	without []any
}
type Query2[A, B any] struct {
	ecs     *Ecs
	without []any
}
type Query3[A, B, C any] struct {
	ecs     *Ecs
	without []any
}

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Without(components ...any) Query1[A] {
	q.without = append(slices.Clone(q.without), components...)
	return q
}

func (q Query2[A, B]) Without(components ...any) Query2[A, B] {
	q.without = append(slices.Clone(q.without), components...)
	return q
}

func (q Query3[A, B, C]) Without(components ...any) Query3[A, B, C] {
	q.without = append(slices.Clone(q.without), components...)
	return q
}

// column is one archetype's storage for a query argument.
type column[T any] struct {
	data    []T
	missing bool
}

func (c column[T]) at(r row) *T {
	if c.missing {
		return nil
	}
	return &c.data[r]
}

func archetypeColumn[T any](arch *archetype, id componentId, optionals set[componentId]) (column[T], bool) {
	if data, ok := arch.componentData[id]; ok {
		return column[T]{data: data.([]T)}, true
	}
	if _, ok := optionals[id]; ok {
		return column[T]{missing: true}, true
	}
	return column[T]{}, false
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := identifyComponent[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)
	excluded := identifyOptionals(q.ecs, q.without...)

	for _, arch := range q.ecs.archetypes {
		if arch.hasAny(excluded) {
			continue
		}
		comps1, ok := archetypeColumn[A](arch, id1, opt)
		if !ok {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, comps1.at(row)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)
	excluded := identifyOptionals(q.ecs, q.without...)

	for _, arch := range q.ecs.archetypes {
		if arch.hasAny(excluded) {
			continue
		}
		comps1, ok := archetypeColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := archetypeColumn[B](arch, id2, opt)
		if !ok {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, comps1.at(row), comps2.at(row)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := identifyComponent[A](q.ecs), identifyComponent[B](q.ecs), identifyComponent[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)
	excluded := identifyOptionals(q.ecs, q.without...)

	for _, arch := range q.ecs.archetypes {
		if arch.hasAny(excluded) {
			continue
		}
		comps1, ok := archetypeColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		comps2, ok := archetypeColumn[B](arch, id2, opt)
		if !ok {
			continue
		}
		comps3, ok := archetypeColumn[C](arch, id3, opt)
		if !ok {
			continue
		}

		for entityId, row := range arch.entities {
			if !m(entityId, comps1.at(row), comps2.at(row), comps3.at(row)) {
				return
			}
		}
	}
}

// Count returns how many entities the query would visit.
func (q Query1[A]) Count() int {
	n := 0
	q.Map(func(EntityId, *A) bool {
		n++
		return true
	})
	return n
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.getComponentId(componentTypeOf(c))] = struct{}{}
	}

	return res
}

func identifyComponent[A any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeFor[A]())
}
