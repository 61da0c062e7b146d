package maple

import (
	"fmt"
	"reflect"
)

// Context is the type-keyed storage for data that belongs to the simulation
// rather than to an entity (SceneTransformChanged, Time, Config, loggers).
// Resources are stored as pointers and keyed by their element type.
type Context struct {
	resources map[reflect.Type]any
	// bumped on every insert or removal
	version uint64
}

func NewContext() *Context {
	return &Context{resources: make(map[reflect.Type]any)}
}

// Set adds pointer resources. Adding a second resource of the same type panics.
func (ctx *Context) Set(resources ...any) {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType == nil || resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", typeName(resourceType)))
		}
		if _, ok := ctx.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		ctx.resources[resourceType.Elem()] = resource
		ctx.version++
	}
}

func (ctx *Context) Contains(t reflect.Type) bool {
	_, ok := ctx.resources[t]
	return ok
}

func (ctx *Context) Len() int {
	return len(ctx.resources)
}

// find returns a *t value for the stored resource.
func (ctx *Context) find(t reflect.Type) (reflect.Value, bool) {
	resource, ok := ctx.resources[t]
	if !ok {
		return reflect.Value{}, false
	}
	return reflectPointerTo(t, reflect.ValueOf(resource)), true
}

// each visits resources in no particular order.
func (ctx *Context) each(fn func(resource any) bool) {
	for _, r := range ctx.resources {
		if !fn(r) {
			return
		}
	}
}

func ContextFind[T any](ctx *Context) *T {
	if resource, ok := ctx.resources[reflect.TypeFor[T]()]; ok {
		return resource.(*T)
	}
	return nil
}

func ContextContains[T any](ctx *Context) bool {
	return ctx.Contains(reflect.TypeFor[T]())
}

// ContextAt is ContextFind for resources that must exist.
func ContextAt[T any](ctx *Context) *T {
	resource := ContextFind[T](ctx)
	if resource == nil {
		panic("Required resource not found: " + reflect.TypeFor[T]().String())
	}
	return resource
}

// ContextEmplace stores value, replacing any previous T.
func ContextEmplace[T any](ctx *Context, value T) *T {
	ptr := &value
	ctx.resources[reflect.TypeFor[T]()] = ptr
	ctx.version++
	return ptr
}

func ContextRemove[T any](ctx *Context) {
	delete(ctx.resources, reflect.TypeFor[T]())
	ctx.version++
}
