package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/leyline/components"
	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// Per-kind creature behaviour.
type faunaProfile struct {
	affinity Affinity
	suitable func(m, c float64) bool
}

var faunaProfiles = [components.NumFaunaKinds]faunaProfile{
	components.Lumispark: {
		affinity: Affinity{Mana: 0.8, Corruption: -0.9},
		suitable: func(m, c float64) bool { return m > 0.7 && c < 0.2 },
	},
	components.Shadowling: {
		affinity: Affinity{Mana: -0.7, Corruption: 0.8},
		suitable: func(m, c float64) bool { return c > 0.6 && m < 0.3 },
	},
	components.NeutralSpirit: {
		affinity: Affinity{Balance: 0.5},
		suitable: func(m, c float64) bool { return math.Abs(m-c) < 0.3 },
	},
}

// FaunaStats reports what happened during one Update.
type FaunaStats struct {
	Spawned int
	Died    int
	Alive   [components.NumFaunaKinds]int
}

// FaunaSystem spawns, moves and retires wandering creatures stored in an
// ark world. Each creature edits the fields through the agent hook.
type FaunaSystem struct {
	cfg config.FaunaConfig

	mapper *ecs.Map3[components.Position, components.Agent, components.Vitality]
	filter *ecs.Filter3[components.Position, components.Agent, components.Vitality]
	world  *ecs.World

	spawnTimer float64
	stepTimer  float64
	nextID     uint32
	alive      [components.NumFaunaKinds]int
}

// NewFaunaSystem registers its component mappers on world.
func NewFaunaSystem(world *ecs.World, cfg config.FaunaConfig) *FaunaSystem {
	return &FaunaSystem{
		cfg:        cfg,
		world:      world,
		mapper:     ecs.NewMap3[components.Position, components.Agent, components.Vitality](world),
		filter:     ecs.NewFilter3[components.Position, components.Agent, components.Vitality](world),
		spawnTimer: cfg.SpawnInterval,
		stepTimer:  cfg.StepInterval,
		nextID:     1,
	}
}

// Count returns the number of living creatures.
func (f *FaunaSystem) Count() int {
	n := 0
	for _, c := range f.alive {
		n += c
	}
	return n
}

// CountKind returns the number of living creatures of one kind.
func (f *FaunaSystem) CountKind(k components.AgentKind) int {
	if !k.IsFauna() {
		return 0
	}
	return f.alive[k]
}

// Spawn creates a creature at (x,y) regardless of suitability.
func (f *FaunaSystem) Spawn(kind components.AgentKind, x, y int) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	agent := components.Agent{ID: f.nextID, Kind: kind}
	vit := components.Vitality{Energy: float32(f.cfg.InitialEnergy), Max: float32(f.cfg.InitialEnergy)}
	f.nextID++
	f.alive[kind]++
	return f.mapper.NewEntity(&pos, &agent, &vit)
}

// Update advances spawn and step timers by dt.
func (f *FaunaSystem) Update(g *field.Grid, dt float64, rng *rand.Rand) FaunaStats {
	var stats FaunaStats
	if !f.cfg.Enabled {
		stats.Alive = f.alive
		return stats
	}
	hook := NewAgentHook(g)

	f.spawnTimer -= dt
	if f.spawnTimer <= 0 {
		f.spawnTimer += f.cfg.SpawnInterval
		if f.trySpawn(g, rng) {
			stats.Spawned++
		}
	}

	f.stepTimer -= dt
	if f.stepTimer <= 0 {
		f.stepTimer += f.cfg.StepInterval
		stats.Died = f.step(hook, g, rng)
	}

	stats.Alive = f.alive
	return stats
}

func (f *FaunaSystem) trySpawn(g *field.Grid, rng *rand.Rand) bool {
	if f.Count() >= f.cfg.Max || rng.Float64() >= f.cfg.SpawnChance {
		return false
	}
	kind := components.AgentKind(rng.Intn(components.NumFaunaKinds))
	p := faunaProfiles[kind]
	for i := 0; i < f.cfg.SpawnAttempts; i++ {
		x, y := rng.Intn(g.Width()), rng.Intn(g.Height())
		m := float64(field.ManaDensity(g.Terrain(x, y)))
		c := float64(g.Corruption(x, y))
		if p.suitable(m, c) {
			f.Spawn(kind, x, y)
			return true
		}
	}
	return false
}

func (f *FaunaSystem) step(hook AgentHook, g *field.Grid, rng *rand.Rand) int {
	type deadInfo struct {
		entity ecs.Entity
		kind   components.AgentKind
	}
	var dead []deadInfo

	query := f.filter.Query()
	for query.Next() {
		pos, agent, vit := query.Get()

		a := faunaProfiles[agent.Kind].affinity
		a.OriginX, a.OriginY = pos.X, pos.Y
		pos.X, pos.Y, _ = hook.BestCell(a, f.cfg.SearchRadius, nil)

		applyFaunaEffect(hook, g, agent.Kind, pos.X, pos.Y, rng)

		vit.Energy -= float32(f.cfg.EnergyDrain)
		vit.Steps++
		if vit.Energy <= 0 {
			dead = append(dead, deadInfo{entity: query.Entity(), kind: agent.Kind})
		}
	}

	// Remove after the query completes
	for _, d := range dead {
		f.alive[d.kind]--
		f.world.RemoveEntity(d.entity)
	}
	return len(dead)
}

// applyFaunaEffect is each creature's per-step field edit.
func applyFaunaEffect(hook AgentHook, g *field.Grid, kind components.AgentKind, x, y int, rng *rand.Rand) {
	switch kind {
	case components.Lumispark:
		if g.Terrain(x, y) == field.Barren {
			hook.ShiftTerrain(x, y, true, 0.1, rng)
		}
		g.AddCorruption(x, y, -0.1)
	case components.Shadowling:
		g.AddCorruption(x, y, 0.1)
		if g.Terrain(x, y) == field.Attuned {
			hook.ShiftTerrain(x, y, false, 0.05, rng)
		}
	case components.NeutralSpirit:
		c := g.Corruption(x, y)
		if c > 0.5 {
			g.AddCorruption(x, y, -0.05)
		} else if c < 0.3 && g.Terrain(x, y) == field.Barren {
			hook.ShiftTerrain(x, y, true, 0.08, rng)
		}
	}
}

// Clear removes every creature.
func (f *FaunaSystem) Clear() {
	var all []ecs.Entity
	query := f.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		f.world.RemoveEntity(e)
	}
	f.alive = [components.NumFaunaKinds]int{}
	f.spawnTimer = f.cfg.SpawnInterval
	f.stepTimer = f.cfg.StepInterval
}

// Each calls fn for every living creature.
func (f *FaunaSystem) Each(fn func(pos components.Position, agent components.Agent)) {
	query := f.filter.Query()
	for query.Next() {
		pos, agent, _ := query.Get()
		fn(*pos, *agent)
	}
}
