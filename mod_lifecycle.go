package maple

// LifetimeComponent allows an entity to automatically be removed after a set
// duration. Its descendants go with it.
type LifetimeComponent struct {
	TimeLeft float32
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	app.UseSystem(
		System(lifetimeSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
}

// lifetimeSystem needs the Time resource; without TimeModule it never runs.
func lifetimeSystem(time Read[Time], cmd *Commands, log Logger) {
	dt := float32(time.Get().Dt.Seconds())
	if dt <= 0 {
		return
	}
	MakeQuery1[LifetimeComponent](cmd).Map(func(eid EntityId, lt *LifetimeComponent) bool {
		lt.TimeLeft -= dt
		if lt.TimeLeft <= 0 {
			log.Debugf("lifecycle: marking entity %v for removal", eid)
			cmd.RemoveEntity(eid)
		}
		return true
	})
}
