package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/leyline/components"
	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// UnitSystem drives faction units: mages produced by sanctuaries seek
// and purify corruption, thralls produced by pits seek and corrupt mana.
// Units stay within a leash of their home structure.
type UnitSystem struct {
	cfg config.UnitsConfig

	mapper *ecs.Map3[components.Position, components.Agent, components.Unit]
	filter *ecs.Filter3[components.Position, components.Agent, components.Unit]
	world  *ecs.World
	nextID uint32
	count  int
}

var (
	mageAffinity   = Affinity{Corruption: 1, Mana: 0.2, Distance: 0.05}
	thrallAffinity = Affinity{Mana: 1, Corruption: -0.3, Distance: 0.05}
)

// NewUnitSystem registers its component mappers on world.
func NewUnitSystem(world *ecs.World, cfg config.UnitsConfig) *UnitSystem {
	return &UnitSystem{
		cfg:    cfg,
		world:  world,
		mapper: ecs.NewMap3[components.Position, components.Agent, components.Unit](world),
		filter: ecs.NewFilter3[components.Position, components.Agent, components.Unit](world),
		nextID: 1,
	}
}

// Count returns the number of living units.
func (u *UnitSystem) Count() int { return u.count }

// SpawnFor creates the configured number of units at a structure.
func (u *UnitSystem) SpawnFor(s Structure) {
	if !u.cfg.Enabled {
		return
	}
	kind := components.Mage
	if s.Kind == KindPit {
		kind = components.Thrall
	}
	for i := 0; i < u.cfg.PerStructure; i++ {
		pos := components.Position{X: s.X, Y: s.Y}
		agent := components.Agent{ID: u.nextID, Kind: kind}
		unit := components.Unit{
			Home:        uint32(s.ID),
			HomeX:       s.X,
			HomeY:       s.Y,
			MoveTimer:   float32(u.cfg.MovePeriod),
			ActionTimer: float32(u.cfg.ActionInterval),
		}
		u.nextID++
		u.count++
		u.mapper.NewEntity(&pos, &agent, &unit)
	}
}

// RemoveFor retires every unit whose home is the given structure.
func (u *UnitSystem) RemoveFor(id StructureID) int {
	var gone []ecs.Entity
	query := u.filter.Query()
	for query.Next() {
		_, _, unit := query.Get()
		if unit.Home == uint32(id) {
			gone = append(gone, query.Entity())
		}
	}
	for _, e := range gone {
		u.world.RemoveEntity(e)
	}
	u.count -= len(gone)
	return len(gone)
}

// Update advances every unit's move and action timers by dt and returns
// the number of point effects applied.
func (u *UnitSystem) Update(g *field.Grid, dt float64) int {
	if !u.cfg.Enabled {
		return 0
	}
	hook := NewAgentHook(g)
	actions := 0
	leash := u.cfg.Leash

	query := u.filter.Query()
	for query.Next() {
		pos, agent, unit := query.Get()

		unit.MoveTimer -= float32(dt)
		if unit.MoveTimer <= 0 {
			unit.MoveTimer += float32(u.cfg.MovePeriod)
			a := thrallAffinity
			if agent.Kind == components.Mage {
				a = mageAffinity
			}
			a.OriginX, a.OriginY = pos.X, pos.Y
			hx, hy := unit.HomeX, unit.HomeY
			pos.X, pos.Y, _ = hook.BestCell(a, u.cfg.SearchRadius, func(x, y int) bool {
				return leash <= 0 || field.Distance(hx, hy, x, y) <= leash
			})
		}

		unit.ActionTimer -= float32(dt)
		if unit.ActionTimer <= 0 {
			unit.ActionTimer += float32(u.cfg.ActionInterval)
			polarity := Corrupt
			if agent.Kind == components.Mage {
				polarity = Purify
			}
			hook.ApplyPointEffect(pos.X, pos.Y, u.cfg.ActionRadius, polarity, u.cfg.ActionStrength)
			unit.Actions++
			actions++
		}
	}
	return actions
}

// Clear removes every unit.
func (u *UnitSystem) Clear() {
	var all []ecs.Entity
	query := u.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		u.world.RemoveEntity(e)
	}
	u.count = 0
}

// Each calls fn for every unit.
func (u *UnitSystem) Each(fn func(pos components.Position, agent components.Agent)) {
	query := u.filter.Query()
	for query.Next() {
		pos, agent, _ := query.Get()
		fn(*pos, *agent)
	}
}
