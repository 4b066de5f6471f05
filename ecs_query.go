package donuts

import (
	"reflect"
)

// Queries visit every entity that has all of the requested components.
// Component types passed as optionals may be missing; the callback then
// receives nil for them. Returning false from the callback stops the walk.
//
// Entities are visited in storage order, which is not insertion order.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

// column resolves the typed storage of one component inside an archetype.
// The second result is false when the archetype can't satisfy the query.
type column[T any] struct {
	data    []T
	missing bool
}

func resolveColumn[T any](arch *archetype, id componentId, optional set[componentId]) (column[T], bool) {
	if data, ok := arch.componentData[id]; ok {
		return column[T]{data: data.([]T)}, true
	}
	if _, ok := optional[id]; ok {
		return column[T]{missing: true}, true
	}
	return column[T]{}, false
}

func (c column[T]) at(r row) *T {
	if c.missing {
		return nil
	}
	return &c.data[r]
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	id1 := componentIdOf[A](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		c1, ok := resolveColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, c1.at(r)) {
				return
			}
		}
	}
}

// Count returns the number of entities matching the query.
func (q Query1[A]) Count() int {
	n := 0
	q.Map(func(EntityId, *A) bool {
		n++
		return true
	})
	return n
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	id1, id2 := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		c1, ok := resolveColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		c2, ok := resolveColumn[B](arch, id2, opt)
		if !ok {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, c1.at(r), c2.at(r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	id1, id2, id3 := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs), componentIdOf[C](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		c1, ok := resolveColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		c2, ok := resolveColumn[B](arch, id2, opt)
		if !ok {
			continue
		}
		c3, ok := resolveColumn[C](arch, id3, opt)
		if !ok {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, c1.at(r), c2.at(r), c3.at(r)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	id1, id2 := componentIdOf[A](q.ecs), componentIdOf[B](q.ecs)
	id3, id4 := componentIdOf[C](q.ecs), componentIdOf[D](q.ecs)
	opt := identifyOptionals(q.ecs, optionals...)

	for _, arch := range q.ecs.archetypes {
		c1, ok := resolveColumn[A](arch, id1, opt)
		if !ok {
			continue
		}
		c2, ok := resolveColumn[B](arch, id2, opt)
		if !ok {
			continue
		}
		c3, ok := resolveColumn[C](arch, id3, opt)
		if !ok {
			continue
		}
		c4, ok := resolveColumn[D](arch, id4, opt)
		if !ok {
			continue
		}
		for entityId, r := range arch.entities {
			if !m(entityId, c1.at(r), c2.at(r), c3.at(r), c4.at(r)) {
				return
			}
		}
	}
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId], len(components))
	for _, c := range components {
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		res[ecs.getComponentId(t)] = struct{}{}
	}
	return res
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.getComponentId(reflect.TypeFor[T]())
}
