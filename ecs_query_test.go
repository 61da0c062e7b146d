package maple

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Map(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }
	type Comp3 struct{}

	app := NewApp()
	ecs := app.Ecs()
	ecs.addEntity(Comp1{a: 1})                                 // comp1 only                       -- shouldn't match
	id2 := ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37})          // comp1 & comp2                    -- should match
	id3 := ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}) // comp1 & comp2 + something extra  -- should match
	ecs.addEntity(Comp1{a: 4}, Comp3{})                        // comp1 + something extra          -- shouldn't match
	ecs.addEntity(Comp2{b: 3.14})                              // comp2 only                       -- shouldn't match

	got := map[EntityId]int{}
	MakeQuery2[Comp1, Comp2](app.Commands()).Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		got[entityId] = comp1.a
		return true
	})

	assert.Equal(t, map[EntityId]int{id2: 2, id3: 3}, got)
}

func TestQuery_MapWithOptionals(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b int }

	app := NewApp()
	ecs := app.Ecs()
	withB := ecs.addEntity(Comp1{a: 1}, Comp2{b: 10})
	withoutB := ecs.addEntity(Comp1{a: 2})

	seen := map[EntityId]*Comp2{}
	MakeQuery2[Comp1, Comp2](app.Commands()).Map(func(entityId EntityId, _ *Comp1, comp2 *Comp2) bool {
		seen[entityId] = comp2
		return true
	}, Comp2{})

	assert.Len(t, seen, 2)
	if assert.NotNil(t, seen[withB]) {
		assert.Equal(t, 10, seen[withB].b)
	}
	assert.Nil(t, seen[withoutB])
}

func TestQuery_Without(t *testing.T) {
	type Comp1 struct{ a int }
	type Excluded struct{}

	app := NewApp()
	ecs := app.Ecs()
	kept := ecs.addEntity(Comp1{a: 1})
	ecs.addEntity(Comp1{a: 2}, Excluded{})

	var ids []EntityId
	MakeQuery1[Comp1](app.Commands()).Without(Excluded{}).Map(func(entityId EntityId, _ *Comp1) bool {
		ids = append(ids, entityId)
		return true
	})

	assert.Equal(t, []EntityId{kept}, ids)
	assert.Equal(t, 2, MakeQuery1[Comp1](app.Commands()).Count())
}

func TestQuery_MapStopsEarly(t *testing.T) {
	type Comp1 struct{ a int }

	app := NewApp()
	for i := 0; i < 5; i++ {
		app.Ecs().addEntity(Comp1{a: i})
	}

	calls := 0
	MakeQuery1[Comp1](app.Commands()).Map(func(EntityId, *Comp1) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestQuery_Map3(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b int }
	type Comp3 struct{ c int }

	app := NewApp()
	id := app.Ecs().addEntity(Comp1{1}, Comp2{2}, Comp3{3})
	app.Ecs().addEntity(Comp1{1}, Comp2{2})

	sum := 0
	MakeQuery3[Comp1, Comp2, Comp3](app.Commands()).Map(func(entityId EntityId, c1 *Comp1, c2 *Comp2, c3 *Comp3) bool {
		assert.Equal(t, id, entityId)
		sum = c1.a + c2.b + c3.c
		return true
	})
	assert.Equal(t, 6, sum)
}
