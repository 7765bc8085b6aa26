package systems

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
)

// corruption noise is sampled far from the terrain noise so the two
// patterns are independent
const corruptionNoiseOffset = 1000.0

// SeedGrid populates a freshly reset grid. Uniform mode scatters terrain
// and corruption independently per cell; noise mode clusters magical land
// in opensimplex highs and corruption in the lows, keeping the configured
// densities as the mean probability.
func SeedGrid(g *field.Grid, cfg config.SeedingConfig, seed int64, rng *rand.Rand) {
	switch cfg.Mode {
	case config.SeedEmpty:
		return
	case config.SeedNoise:
		seedNoise(g, cfg, seed, rng)
	default:
		seedUniform(g, cfg, rng)
	}
}

func seedUniform(g *field.Grid, cfg config.SeedingConfig, rng *rand.Rand) {
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			g.SetTerrain(x, y, pickTerrain(rng.Float64(), cfg, 1))
			if rng.Float64() < cfg.CorruptionDensity {
				g.SetCorruption(x, y, corruptionValue(cfg, rng))
			}
		}
	}
}

func seedNoise(g *field.Grid, cfg config.SeedingConfig, seed int64, rng *rand.Rand) {
	noise := opensimplex.New(seed)
	s := cfg.NoiseScale
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			n := (noise.Eval2(float64(x)*s, float64(y)*s) + 1) / 2
			g.SetTerrain(x, y, pickTerrain(rng.Float64(), cfg, 2*n))

			nc := (noise.Eval2(float64(x)*s+corruptionNoiseOffset, float64(y)*s) + 1) / 2
			// Corruption favours cells the mana noise leaves low.
			weight := nc + 1 - n // mean 1
			if rng.Float64() < cfg.CorruptionDensity*weight {
				g.SetCorruption(x, y, corruptionValue(cfg, rng))
			}
		}
	}
}

// pickTerrain maps a uniform draw to a state with probabilities scaled by
// weight (1 keeps the configured densities).
func pickTerrain(u float64, cfg config.SeedingConfig, weight float64) field.Terrain {
	t := cfg.TreeDensity * weight
	c := t + cfg.CrystalDensity*weight
	m := c + cfg.ManaDensity*weight
	switch {
	case u < t:
		return field.AncientTree
	case u < c:
		return field.Crystallized
	case u < m:
		return field.Attuned
	}
	return field.Barren
}

func corruptionValue(cfg config.SeedingConfig, rng *rand.Rand) float32 {
	return float32(cfg.CorruptionMin + rng.Float64()*(cfg.CorruptionMax-cfg.CorruptionMin))
}
