package maple

import (
	"reflect"
)

// RegisterSystem runs fn every frame in the Update stage.
func (app *App) RegisterSystem(fn systemFn) *App {
	return app.UseSystem(System(fn).InStage(Update).RunAlways())
}

// RegisterSystemInFrameEnd runs fn every frame after all stages.
func (app *App) RegisterSystemInFrameEnd(fn systemFn) *App {
	app.frameEnd = append(app.frameEnd, app.newInvoker(fn))
	return app
}

// RegisterGameStart runs fn once, at Startup.
func (app *App) RegisterGameStart(fn systemFn) *App {
	app.gameStart = append(app.gameStart, app.newInvoker(fn))
	return app
}

// RegisterGameEnded runs fn once, at Shutdown.
func (app *App) RegisterGameEnded(fn systemFn) *App {
	app.gameEnded = append(app.gameEnded, app.newInvoker(fn))
	return app
}

// OnConstruct calls fn, bound to the entity, whenever a C is attached.
func OnConstruct[C any](app *App, fn systemFn) *App {
	return app.connectHookSystem(reflect.TypeFor[C](), hookConstruct, fn)
}

// OnDestroy calls fn, bound to the entity, before a C is detached or its
// entity destroyed. The component is still readable.
func OnDestroy[C any](app *App, fn systemFn) *App {
	return app.connectHookSystem(reflect.TypeFor[C](), hookDestroy, fn)
}

// OnUpdate calls fn, bound to the entity, after a C is patched or replaced.
func OnUpdate[C any](app *App, fn systemFn) *App {
	return app.connectHookSystem(reflect.TypeFor[C](), hookUpdate, fn)
}

// OnReplace calls fn, bound to the entity, before an existing C is
// overwritten or patched. The old value is still in storage.
func OnReplace[C any](app *App, fn systemFn) *App {
	return app.connectHookSystem(reflect.TypeFor[C](), hookReplace, fn)
}

func (app *App) connectHookSystem(componentType reflect.Type, kind hookKind, fn systemFn) *App {
	inv := app.newInvoker(fn)
	inv.name = inv.name + " (" + kind.String() + " " + componentType.Name() + ")"
	app.hooks = append(app.hooks, inv)
	app.ecs.connectHook(componentType, kind, func(_ *Ecs, entityId EntityId) {
		app.callHook(inv, entityId)
	})
	return app
}

// RegisterGlobalComponent stores a new T in the app context, running the
// initializers on it first. An existing T is kept and returned.
func RegisterGlobalComponent[T any](app *App, init ...func(*T)) *T {
	if existing := ContextFind[T](app.ctx); existing != nil {
		return existing
	}
	value := new(T)
	for _, fn := range init {
		fn(value)
	}
	app.ctx.Set(value)
	return value
}

// Systems lists every registered system and hook, in registration order
// within each class, for diagnostics and editor display.
func (app *App) Systems() []string {
	var names []string
	add := func(invs []*systemInvoker) {
		for _, inv := range invs {
			names = append(names, inv.name)
		}
	}

	add(app.gameStart)
	for _, stage := range app.stages {
		add(app.systemsStateless[stage.Name])
		if app.stateful {
			for state := app.initialState; state <= app.finalState; state++ {
				for _, phase := range []statePhase{enter, execute, exit} {
					add(app.systems[stage.Name][state][phase])
				}
			}
		}
	}
	add(app.frameEnd)
	add(app.gameEnded)
	add(app.hooks)
	return names
}
