// maple-bench builds a random transform forest, perturbs it every frame and
// reports how many world matrices each frame recomputed.
//
// Profiling:
// go build ./cmd/maple-bench
// ./maple-bench -profile cpu
// go tool pprof -http=":8000" ./maple-bench cpu.pprof
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/maple3d/maple"
)

type benchStats struct {
	frames  uint64
	changed uint64
	peak    int
}

type benchState struct {
	rng   *rand.Rand
	nodes []maple.EntityId
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	profileMode := flag.String("profile", "", "profile mode: cpu or mem (overrides config)")
	flag.Parse()

	cfg := maple.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = maple.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *profileMode != "" {
		cfg.Bench.Profile = *profileMode
	}
	if cfg.App.MaxFrames == 0 {
		cfg.App.MaxFrames = cfg.Bench.Frames
	}

	logger, err := maple.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch cfg.Bench.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "":
	default:
		logger.Warnf("bench: unknown profile mode %q ignored", cfg.Bench.Profile)
	}

	app := maple.NewAppBuilder().
		UseModule(maple.LoggingModule{Logger: logger}).
		UseModule(maple.ConfigModule{Config: cfg}).
		UseModule(maple.TimeModule{}).
		UseModule(maple.HierarchyModule{}).
		Build()

	stats := &benchStats{}
	state := &benchState{rng: rand.New(rand.NewSource(cfg.Bench.Seed))}
	app.Commands().AddResources(stats, state)

	app.RegisterGameStart(buildForestSystem)
	app.RegisterSystem(mutateSystem)
	app.UseSystem(maple.System(statsSystem).InStage(maple.PostUpdate).RunAlways())
	if cfg.Bench.Preset != "" {
		app.RegisterGameEnded(savePresetSystem)
	}

	start := time.Now()
	app.Run()
	elapsed := time.Since(start)

	avg := 0.0
	if stats.frames > 0 {
		avg = float64(stats.changed) / float64(stats.frames)
	}
	logger.Infof("bench: %d nodes, %d frames in %v (%.1f changed/frame, peak %d)",
		len(state.nodes), stats.frames, elapsed, avg, stats.peak)
}

func buildForestSystem(cmd *maple.Commands, cfg maple.Read[maple.Config], state *benchState, log maple.Logger) {
	bench := cfg.Get().Bench
	app := cmd.App()

	var grow func(parent maple.Entity, depth int)
	grow = func(parent maple.Entity, depth int) {
		if depth >= bench.Depth {
			return
		}
		for i := 0; i < bench.Fanout; i++ {
			child := app.Spawn(
				maple.NewTransformAt(randomOffset(state.rng)),
				maple.NameComponent{Name: fmt.Sprintf("node-%d-%d", depth, i)},
			)
			child.SetParent(parent)
			state.nodes = append(state.nodes, child.Id)
			grow(child, depth+1)
		}
	}

	for i := 0; i < bench.Roots; i++ {
		root := app.Spawn(
			maple.NewTransformAt(randomOffset(state.rng)),
			maple.NameComponent{Name: fmt.Sprintf("root-%d", i)},
		)
		state.nodes = append(state.nodes, root.Id)
		grow(root, 1)
	}
	log.Infof("bench: built %d nodes (%d roots, depth %d, fanout %d)",
		len(state.nodes), bench.Roots, bench.Depth, bench.Fanout)
}

func mutateSystem(cmd *maple.Commands, cfg maple.Read[maple.Config], state *benchState) {
	if len(state.nodes) == 0 {
		return
	}
	ecs := cmd.App().Ecs()
	for i := 0; i < cfg.Get().Bench.Mutations; i++ {
		eid := state.nodes[state.rng.Intn(len(state.nodes))]
		maple.PatchComponent(ecs, eid, func(tr *maple.TransformComponent) {
			tr.SetLocalPosition(tr.LocalPosition().Add(randomOffset(state.rng).Mul(0.01)))
		})
	}
}

// statsSystem runs after propagation in the same stage, before the frame-end
// reset clears the change list.
func statsSystem(changed maple.Read[maple.SceneTransformChanged], stats *benchStats) {
	n := len(changed.Get().Entities)
	stats.frames++
	stats.changed += uint64(n)
	if n > stats.peak {
		stats.peak = n
	}
}

func savePresetSystem(cmd *maple.Commands, cfg maple.Read[maple.Config], log maple.Logger) {
	path := cfg.Get().Bench.Preset
	if err := maple.SavePresetFile(cmd, path); err != nil {
		log.Errorf("bench: %v", err)
		return
	}
	log.Infof("bench: preset written to %s", path)
}

func randomOffset(rng *rand.Rand) mgl32.Vec3 {
	return mgl32.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}
}
