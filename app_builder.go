package maple

type AppBuilder struct {
	stateful     bool
	initialState State
	finalState   State
	maxFrames    uint64
	modules      []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

func (b *AppBuilder) UseStates(initialState State, finalState State) *AppBuilder {
	b.stateful = true
	b.initialState = initialState
	b.finalState = finalState

	return b
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

func (b *AppBuilder) MaxFrames(n uint64) *AppBuilder {
	b.maxFrames = n
	return b
}

// Build creates the app and installs modules in the order they were added.
func (b *AppBuilder) Build() *App {
	app := newApp(b.stateful, b.initialState, b.finalState)
	app.maxFrames = b.maxFrames

	return app.UseModules(b.modules...)
}
