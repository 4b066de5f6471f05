package donuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Map(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b float32 }
	type Comp3 struct{}

	ecs := MakeEcs()
	ecs.addEntity(Comp1{a: 1})                                 // comp1 only                       -- shouldn't match
	id2 := ecs.addEntity(Comp1{a: 2}, Comp2{b: 1.37})          // comp1 & comp2                    -- should match
	id3 := ecs.addEntity(Comp1{a: 3}, Comp2{b: 4.20}, Comp3{}) // comp1 & comp2 + something extra  -- should match
	ecs.addEntity(Comp1{a: 4}, Comp3{})                        // comp1 + something extra          -- shouldn't match
	ecs.addEntity(Comp2{b: 3.14})                              // comp2 only                       -- shouldn't match

	query := Query2[Comp1, Comp2]{ecs: &ecs}

	gotA := map[EntityId]Comp1{}
	gotB := map[EntityId]Comp2{}
	query.Map(func(entityId EntityId, comp1 *Comp1, comp2 *Comp2) bool {
		gotA[entityId] = *comp1
		gotB[entityId] = *comp2
		return true
	})

	assert.Equal(t, map[EntityId]Comp1{id2: {a: 2}, id3: {a: 3}}, gotA)
	assert.Equal(t, map[EntityId]Comp2{id2: {b: 1.37}, id3: {b: 4.20}}, gotB)
}

func TestQuery_MapOptional(t *testing.T) {
	type Comp1 struct{ a int }
	type Comp2 struct{ b int }

	ecs := MakeEcs()
	withB := ecs.addEntity(Comp1{a: 1}, Comp2{b: 7})
	withoutB := ecs.addEntity(Comp1{a: 2})

	seen := map[EntityId]*Comp2{}
	Query2[Comp1, Comp2]{ecs: &ecs}.Map(func(eid EntityId, c1 *Comp1, c2 *Comp2) bool {
		seen[eid] = c2
		return true
	}, Comp2{})

	assert.Len(t, seen, 2)
	assert.Nil(t, seen[withoutB])
	if assert.NotNil(t, seen[withB]) {
		assert.Equal(t, 7, seen[withB].b)
	}
}

func TestQuery_StopEarlyAndCount(t *testing.T) {
	type Comp struct{ n int }

	ecs := MakeEcs()
	for i := 0; i < 5; i++ {
		ecs.addEntity(Comp{n: i})
	}
	query := Query1[Comp]{ecs: &ecs}

	calls := 0
	query.Map(func(EntityId, *Comp) bool {
		calls++
		return calls < 2
	})
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5, query.Count())
}
