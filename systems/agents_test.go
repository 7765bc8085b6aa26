package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/leyline/components"
	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

func TestApplyPointEffect(t *testing.T) {
	g, _ := field.New(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			g.SetCorruption(x, y, 0.5)
		}
	}
	hook := NewAgentHook(g)

	n := hook.ApplyPointEffect(5, 5, 2, Purify, 0.2)
	if n == 0 {
		t.Fatal("no cells touched")
	}
	if got := g.Corruption(5, 5); math.Abs(float64(got)-0.3) > 1e-6 {
		t.Errorf("centre after purify = %f, want 0.3", got)
	}
	if g.Corruption(0, 0) != 0.5 {
		t.Error("purify leaked outside its radius")
	}

	hook.ApplyPointEffect(0, 0, 2, Corrupt, 1)
	if g.Corruption(0, 0) != 1 {
		t.Errorf("corrupt at corner = %f, want clamped to 1", g.Corruption(0, 0))
	}
}

func TestScoreAndBestCell(t *testing.T) {
	g, _ := field.New(7, 7)
	g.SetCorruption(5, 2, 0.9)
	g.SetTerrain(1, 1, field.Crystallized)
	hook := NewAgentHook(g)

	if s := hook.ScoreCell(-1, 0, Affinity{Mana: 1}); !math.IsInf(s, -1) {
		t.Errorf("out of range score = %f, want -Inf", s)
	}

	x, y, _ := hook.BestCell(Affinity{Corruption: 1, OriginX: 3, OriginY: 3}, 3, nil)
	if x != 5 || y != 2 {
		t.Errorf("corruption seeker chose (%d,%d), want (5,2)", x, y)
	}
	x, y, _ = hook.BestCell(Affinity{Mana: 1, OriginX: 3, OriginY: 3}, 3, nil)
	if x != 1 || y != 1 {
		t.Errorf("mana seeker chose (%d,%d), want (1,1)", x, y)
	}
	x, y, _ = hook.BestCell(Affinity{Corruption: 1, OriginX: 3, OriginY: 3}, 3, func(x, y int) bool { return x < 4 })
	if x >= 4 {
		t.Errorf("filter ignored: chose (%d,%d)", x, y)
	}
}

func TestShiftTerrain(t *testing.T) {
	g, _ := field.New(3, 1)
	g.SetTerrain(1, 0, field.AncientTree)
	hook := NewAgentHook(g)
	rng := rand.New(rand.NewSource(1))

	if !hook.ShiftTerrain(0, 0, true, 1, rng) || g.Terrain(0, 0) != field.Attuned {
		t.Error("raise Barren failed")
	}
	if hook.ShiftTerrain(1, 0, true, 1, rng) {
		t.Error("raised a tree")
	}
	if !hook.ShiftTerrain(1, 0, false, 1, rng) || g.Terrain(1, 0) != field.Attuned {
		t.Error("lower tree failed")
	}
	if hook.ShiftTerrain(2, 0, false, 1, rng) {
		t.Error("lowered Barren")
	}
	if hook.ShiftTerrain(5, 5, true, 1, rng) {
		t.Error("shifted out of range")
	}
}

func TestStructuresRegistry(t *testing.T) {
	st := testStructures(t)
	a := st.Add(KindSanctuary, 1, 1)
	b := st.Add(KindPit, 2, 2)
	st.Add(KindSanctuary, 3, 3)

	if st.Len() != 3 || len(st.Sanctuaries()) != 2 || len(st.Pits()) != 1 {
		t.Fatalf("len=%d sanctuaries=%d pits=%d", st.Len(), len(st.Sanctuaries()), len(st.Pits()))
	}
	if !st.Remove(b) || st.Remove(b) {
		t.Error("Remove did not report existence correctly")
	}
	if len(st.Pits()) != 0 {
		t.Error("pit emitter survived removal")
	}
	if s, ok := st.Get(a); !ok || s.X != 1 || s.Kind != KindSanctuary {
		t.Errorf("Get(%d) = %+v %v", a, s, ok)
	}

	p := st.Params(KindSanctuary)
	p.Radius = 9
	st.SetParams(KindSanctuary, p)
	if r := st.Sanctuaries()[0].Radius; r != 9 {
		t.Errorf("emitter radius = %f after SetParams, want 9", r)
	}

	st.Clear()
	if st.Len() != 0 || len(st.Sanctuaries()) != 0 {
		t.Error("Clear left structures")
	}
}

func TestParseStructureKind(t *testing.T) {
	if k, err := ParseStructureKind(config.StructurePit); err != nil || k != KindPit {
		t.Errorf("ParseStructureKind(pit) = %v, %v", k, err)
	}
	if _, err := ParseStructureKind("tower"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCanPlaceAndBurst(t *testing.T) {
	g, _ := field.New(10, 10)
	g.SetTerrain(2, 2, field.Attuned)
	g.SetCorruption(7, 7, 0.8)

	tests := []struct {
		name string
		kind StructureKind
		x, y int
		want bool
	}{
		{"sanctuary on attuned", KindSanctuary, 2, 2, true},
		{"sanctuary on barren", KindSanctuary, 3, 3, false},
		{"pit on corruption", KindPit, 7, 7, true},
		{"pit on clean land", KindPit, 2, 2, false},
		{"out of range", KindPit, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPlace(g, tt.kind, tt.x, tt.y, 0.3); got != tt.want {
				t.Errorf("CanPlace = %v, want %v", got, tt.want)
			}
		})
	}

	p := config.MustDefaults().Structures
	PlacementBurst(g, KindSanctuary, 7, 7, p.Sanctuary)
	if g.Corruption(7, 7) >= 0.8 {
		t.Error("sanctuary burst did not purify")
	}
	PlacementBurst(g, KindPit, 2, 2, p.Pit)
	if math.Abs(float64(g.Corruption(2, 2))-p.Pit.PlacementStrength) > 1e-6 {
		t.Errorf("pit burst = %f, want %f", g.Corruption(2, 2), p.Pit.PlacementStrength)
	}
}

func TestFaunaLifecycle(t *testing.T) {
	world := ecs.NewWorld()
	cfg := config.MustDefaults().Fauna
	cfg.SpawnChance = 0
	cfg.InitialEnergy = 10
	cfg.EnergyDrain = 5
	f := NewFaunaSystem(world, cfg)
	g, _ := field.New(10, 10)
	rng := rand.New(rand.NewSource(1))

	f.Spawn(components.Lumispark, 1, 1)
	f.Spawn(components.Shadowling, 8, 8)
	if f.Count() != 2 || f.CountKind(components.Lumispark) != 1 {
		t.Fatalf("count=%d", f.Count())
	}

	st := f.Update(g, 1, rng)
	if st.Died != 0 || f.Count() != 2 {
		t.Fatalf("died early: %+v", st)
	}
	st = f.Update(g, 1, rng)
	if st.Died != 2 || f.Count() != 0 {
		t.Fatalf("after drain: %+v count=%d", st, f.Count())
	}
	if g.Corruption(8, 8) == 0 {
		t.Error("shadowling left no corruption")
	}
}

func TestFaunaSpawnRespectsMax(t *testing.T) {
	world := ecs.NewWorld()
	cfg := config.MustDefaults().Fauna
	cfg.SpawnChance = 1
	cfg.Max = 3
	cfg.SpawnInterval = 0.1
	cfg.StepInterval = 1000
	f := NewFaunaSystem(world, cfg)

	g, _ := field.New(10, 10)
	// Crystals on the left for lumisparks, corruption on the right for
	// shadowlings. Spirits find nothing balanced and fail to spawn.
	for x := 0; x < 5; x++ {
		for y := 0; y < 10; y++ {
			g.SetTerrain(x, y, field.Crystallized)
		}
	}
	for x := 5; x < 10; x++ {
		for y := 0; y < 10; y++ {
			g.SetCorruption(x, y, 0.9)
		}
	}
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		f.Update(g, 0.1, rng)
	}
	if f.Count() != 3 {
		t.Errorf("count = %d, want capped at 3", f.Count())
	}
	f.Clear()
	if f.Count() != 0 {
		t.Error("Clear left creatures")
	}
}

func TestUnitsPurifyAndCorrupt(t *testing.T) {
	world := ecs.NewWorld()
	cfg := config.MustDefaults().Units
	u := NewUnitSystem(world, cfg)
	g, _ := field.New(20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			g.SetCorruption(x, y, 0.5)
		}
	}

	u.SpawnFor(Structure{ID: 1, Kind: KindSanctuary, X: 4, Y: 4})
	u.SpawnFor(Structure{ID: 2, Kind: KindPit, X: 15, Y: 15})
	if u.Count() != 2 {
		t.Fatalf("count = %d, want 2", u.Count())
	}

	actions := 0
	for i := 0; i < 10; i++ {
		actions += u.Update(g, 1)
	}
	if actions != 20 {
		t.Errorf("actions = %d, want 20", actions)
	}

	var low, high bool
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			c := g.Corruption(x, y)
			low = low || c < 0.5
			high = high || c > 0.5
		}
	}
	if !low || !high {
		t.Errorf("purified=%v corrupted=%v, want both", low, high)
	}

	if n := u.RemoveFor(1); n != 1 || u.Count() != 1 {
		t.Errorf("RemoveFor removed %d, count %d", n, u.Count())
	}
	u.Clear()
	if u.Count() != 0 {
		t.Error("Clear left units")
	}
}

func TestUnitsStayLeashed(t *testing.T) {
	world := ecs.NewWorld()
	cfg := config.MustDefaults().Units
	cfg.Leash = 3
	u := NewUnitSystem(world, cfg)
	g, _ := field.New(30, 30)
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			g.SetCorruption(x, y, float32(x+y)/58)
		}
	}
	u.SpawnFor(Structure{ID: 1, Kind: KindSanctuary, X: 5, Y: 5})
	for i := 0; i < 30; i++ {
		u.Update(g, 1)
	}

	filter := ecs.NewFilter1[components.Position](world)
	query := filter.Query()
	for query.Next() {
		pos := query.Get()
		if d := field.Distance(5, 5, pos.X, pos.Y); d > 3 {
			t.Errorf("unit at (%d,%d), %.1f from home", pos.X, pos.Y, d)
		}
	}
}
