package maple

import (
	"reflect"
)

type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]*systemInvoker
	systemsStateless   map[string][]*systemInvoker
	gameStart          []*systemInvoker
	frameEnd           []*systemInvoker
	gameEnded          []*systemInvoker
	hooks              []*systemInvoker
	bindings           map[reflect.Type]paramBinding
	ctx                *Context
	ecs                *Ecs

	logger        Logger
	loggerVersion uint64

	started       bool
	exitRequested bool
	frame         uint64
	maxFrames     uint64

	// Command Buffering
	pendingAdditions    []pendingAdd
	pendingRemovals     []EntityId
	pendingCompAdds     []pendingCompAdd
	pendingCompRemovals []pendingCompRemoval
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

type pendingCompRemoval struct {
	eid        EntityId
	components []any
}

// NewApp returns a stateless app with the default stages.
func NewApp() *App {
	return newApp(false, 0, 0)
}

func newApp(stateful bool, initialState State, finalState State) *App {
	ecs := MakeEcs()
	app := &App{
		stateful:         stateful,
		initialState:     initialState,
		finalState:       finalState,
		state:            initialState,
		systems:          make(map[string]map[State]map[statePhase][]*systemInvoker),
		systemsStateless: make(map[string][]*systemInvoker),
		bindings:         defaultBindings(),
		ctx:              NewContext(),
		ecs:              &ecs,
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.initStatefulStage(stage)
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

func (app *App) Ecs() *Ecs         { return app.ecs }
func (app *App) Context() *Context { return app.ctx }
func (app *App) Frame() uint64     { return app.frame }
func (app *App) State() State      { return app.state }

// SetMaxFrames bounds Run; zero means run until Exit or the final state.
func (app *App) SetMaxFrames(n uint64) *App {
	app.maxFrames = n
	return app
}

func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

func (app *App) Run() {
	app.Startup()
	for app.Update() {
	}
	app.Shutdown()
}

// Startup runs the game-start systems and, in stateful mode, enters the
// initial state. Calling it twice is a no-op.
func (app *App) Startup() {
	if app.started {
		return
	}
	app.started = true

	if app.stateful {
		app.Logger().Infof("running in stateful mode, initial state %d", app.initialState)
	} else {
		app.Logger().Infof("running in stateless mode")
	}

	for _, system := range app.gameStart {
		app.callSystem(system)
	}
	app.FlushCommands()

	if app.stateful {
		app.state = app.initialState
		app.callSystems(app.state, enter)
	}
}

// Update runs one frame: every stage, then the frame-end systems. It reports
// whether another frame should follow.
func (app *App) Update() bool {
	app.Startup()

	app.callSystems(app.state, execute)
	for _, system := range app.frameEnd {
		app.callSystem(system)
	}
	app.FlushCommands()
	app.frame++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			return false
		}
	}

	if app.exitRequested {
		return false
	}
	return app.maxFrames == 0 || app.frame < app.maxFrames
}

// Shutdown runs the game-ended systems.
func (app *App) Shutdown() {
	for _, system := range app.gameEnded {
		app.callSystem(system)
	}
	app.FlushCommands()
	app.Logger().Infof("stopped after %d frames", app.frame)
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// On execute, call stateless/always run systems first
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		// Call stateful systems, if required
		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					for _, system := range systemsInState[phase] {
						app.callSystem(system)
					}
				}
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	app.ctx.Set(resources...)
	return app
}

// Spawn creates an entity immediately, firing construct hooks.
func (app *App) Spawn(components ...any) Entity {
	return app.Entity(app.ecs.addEntity(components...))
}

func (app *App) Entity(entityId EntityId) Entity {
	return Entity{Id: entityId, app: app}
}

func (app *App) FlushCommands() {
	for len(app.pendingAdditions) > 0 || len(app.pendingRemovals) > 0 ||
		len(app.pendingCompAdds) > 0 || len(app.pendingCompRemovals) > 0 {
		app.flushOnce()
	}
}

// flushOnce applies the current batch; hooks may queue more commands, which
// FlushCommands picks up on its next round.
func (app *App) flushOnce() {
	removals := app.pendingRemovals
	additions := app.pendingAdditions
	compAdds := app.pendingCompAdds
	compRemovals := app.pendingCompRemovals
	app.pendingRemovals = nil
	app.pendingAdditions = nil
	app.pendingCompAdds = nil
	app.pendingCompRemovals = nil

	// 1. Process Removals first (so we don't add to dead entities)
	for _, eid := range removals {
		app.Logger().Debugf("flush: removing entity %v", eid)
		app.Entity(eid).Destroy()
	}

	// 2. Process Additions
	for _, add := range additions {
		app.ecs.insertEntity(add.eid, add.components...)
	}

	// 3. Process Component Additions
	for _, add := range compAdds {
		app.ecs.addComponents(add.eid, add.components...)
	}

	// 4. Process Component Removals
	for _, rem := range compRemovals {
		app.ecs.removeComponents(rem.eid, rem.components...)
	}
}
