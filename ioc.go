package maple

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

type systemFn any

var (
	typeOfEntityId    = reflect.TypeFor[EntityId]()
	typeOfCommandsPtr = reflect.TypeFor[*Commands]()
	typeOfEcsPtr      = reflect.TypeFor[*Ecs]()
	typeOfContextPtr  = reflect.TypeFor[*Context]()
	typeOfAppPtr      = reflect.TypeFor[*App]()
	typeOfLogger      = reflect.TypeFor[Logger]()
)

// resolveScope is what a system is resolved against: the whole registry, or
// one entity when bound is set.
type resolveScope struct {
	app    *App
	entity EntityId
	bound  bool
}

func registryScope(app *App) resolveScope {
	return resolveScope{app: app}
}

func entityScope(app *App, entityId EntityId) resolveScope {
	return resolveScope{app: app, entity: entityId, bound: true}
}

// lookupReference is the source for *T and Read[T]: the bound entity's
// storage in an entity scope, the context otherwise.
func (s resolveScope) lookupReference(t reflect.Type) (reflect.Value, bool) {
	if s.bound {
		return s.app.ecs.componentPtr(s.entity, t)
	}
	return s.app.ctx.find(t)
}

// lookupPointer is the source for Opt, OptRead and values: the bound entity
// first, falling back to the context.
func (s resolveScope) lookupPointer(t reflect.Type) (reflect.Value, bool) {
	if s.bound {
		if ptr, ok := s.app.ecs.componentPtr(s.entity, t); ok {
			return ptr, true
		}
	}
	return s.app.ctx.find(t)
}

type systemInvoker struct {
	name     string
	fn       reflect.Value
	params   []paramBinding
	reported bool
}

func defaultBindings() map[reflect.Type]paramBinding {
	return map[reflect.Type]paramBinding{
		typeOfCommandsPtr: injectedBinding{func(s resolveScope) reflect.Value {
			return reflect.ValueOf(s.app.Commands())
		}},
		typeOfEcsPtr: injectedBinding{func(s resolveScope) reflect.Value {
			return reflect.ValueOf(s.app.ecs)
		}},
		typeOfContextPtr: injectedBinding{func(s resolveScope) reflect.Value {
			return reflect.ValueOf(s.app.ctx)
		}},
		typeOfAppPtr: injectedBinding{func(s resolveScope) reflect.Value {
			return reflect.ValueOf(s.app)
		}},
		typeOfLogger: injectedBinding{func(s resolveScope) reflect.Value {
			return reflect.ValueOf(s.app.Logger())
		}},
	}
}

func (app *App) binding(argType reflect.Type) paramBinding {
	if b, ok := app.bindings[argType]; ok {
		return b
	}
	b := makeBinding(argType)
	app.bindings[argType] = b
	return b
}

// newInvoker inspects the system's parameter list once, at registration.
func (app *App) newInvoker(system systemFn) *systemInvoker {
	systemType := reflect.TypeOf(system)
	if systemType == nil || systemType.Kind() != reflect.Func {
		panic(fmt.Sprintf("system must be a function, got %s", typeName(systemType)))
	}
	if systemType.IsVariadic() {
		panic(fmt.Sprintf("system %s must not be variadic", systemType))
	}

	systemValue := reflect.ValueOf(system)
	inv := &systemInvoker{
		name:   systemName(systemValue),
		fn:     systemValue,
		params: make([]paramBinding, systemType.NumIn()),
	}
	for i := 0; i < systemType.NumIn(); i++ {
		inv.params[i] = app.binding(systemType.In(i))
	}
	return inv
}

// ready queries every binding, even after one reported false.
func (inv *systemInvoker) ready(s resolveScope) bool {
	ready := true
	for _, p := range inv.params {
		if !p.available(s) {
			ready = false
		}
	}
	return ready
}

func (inv *systemInvoker) invoke(s resolveScope) bool {
	if !inv.ready(s) {
		return false
	}

	args := make([]reflect.Value, len(inv.params))
	for i, p := range inv.params {
		args[i] = p.build(s)
	}
	inv.fn.Call(args)
	return true
}

// missing lists the parameter types that blocked the last readiness check.
func (inv *systemInvoker) missing(s resolveScope) []string {
	var res []string
	systemType := inv.fn.Type()
	for i, p := range inv.params {
		if !p.available(s) {
			res = append(res, systemType.In(i).String())
		}
	}
	return res
}

func (app *App) callSystem(inv *systemInvoker) {
	app.invoke(inv, registryScope(app))
}

func (app *App) callHook(inv *systemInvoker, entityId EntityId) {
	app.invoke(inv, entityScope(app, entityId))
}

func (app *App) invoke(inv *systemInvoker, s resolveScope) bool {
	if inv.invoke(s) {
		return true
	}
	if !inv.reported {
		inv.reported = true
		app.Logger().Debugf("system %s skipped, unavailable: %s", inv.name, strings.Join(inv.missing(s), ", "))
	}
	return false
}

// RunSystem resolves and calls fn once against the registry.
func (app *App) RunSystem(system systemFn) bool {
	return app.invoke(app.newInvoker(system), registryScope(app))
}

// RunSystemFor resolves and calls fn once with entityId bound.
func (app *App) RunSystemFor(entityId EntityId, system systemFn) bool {
	return app.invoke(app.newInvoker(system), entityScope(app, entityId))
}

// systemName turns "github.com/maple3d/maple.transformRootSystem" into
// "maple.transformRootSystem".
func systemName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
