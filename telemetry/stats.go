package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/leyline/field"
)

// Territory splits the map between the two factions. A cell is mana
// territory when its terrain is magical and its corruption is below the
// corrupted level, corruption territory at or above it, neutral otherwise.
type Territory struct {
	Mana       int
	Corruption int
	Neutral    int
}

// ManaShare returns the mana fraction of all cells.
func (t Territory) ManaShare() float64 {
	if n := t.Mana + t.Corruption + t.Neutral; n > 0 {
		return float64(t.Mana) / float64(n)
	}
	return 0
}

// CorruptionShare returns the corrupted fraction of all cells.
func (t Territory) CorruptionShare() float64 {
	if n := t.Mana + t.Corruption + t.Neutral; n > 0 {
		return float64(t.Corruption) / float64(n)
	}
	return 0
}

// FieldStats summarises both fields at one instant.
type FieldStats struct {
	Counts         field.TerrainCounts
	CorruptionMean float64
	CorruptionStd  float64
	CorruptionP10  float64
	CorruptionP50  float64
	CorruptionP90  float64
	Territory      Territory
}

// ComputeFieldStats scans r once. scratch is reused for the corruption
// values when it has enough capacity.
func ComputeFieldStats(r field.Reader, corruptedLevel float64, scratch []float64) (FieldStats, []float64) {
	var fs FieldStats
	values := scratch[:0]
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			t := r.Terrain(x, y)
			c := float64(r.Corruption(x, y))
			fs.Counts[t]++
			values = append(values, c)
			switch {
			case c >= corruptedLevel:
				fs.Territory.Corruption++
			case t.IsMagical():
				fs.Territory.Mana++
			default:
				fs.Territory.Neutral++
			}
		}
	}
	fs.CorruptionMean, fs.CorruptionStd, fs.CorruptionP10, fs.CorruptionP50, fs.CorruptionP90 = ComputeDistribution(values)
	return fs, values
}

// ComputeDistribution returns mean, standard deviation and the 10th, 50th
// and 90th empirical quantiles. values is sorted in place.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(values, nil)

	sort.Float64s(values)
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	return mean, std, p10, p50, p90
}

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Terrain counts at window end
	Barren       int `csv:"barren"`
	Attuned      int `csv:"attuned"`
	Crystallized int `csv:"crystallized"`
	Trees        int `csv:"trees"`

	// Corruption distribution at window end
	CorruptionMean float64 `csv:"corruption_mean"`
	CorruptionStd  float64 `csv:"corruption_std"`
	CorruptionP10  float64 `csv:"corruption_p10"`
	CorruptionP50  float64 `csv:"corruption_p50"`
	CorruptionP90  float64 `csv:"corruption_p90"`

	// Territory
	ManaTerritory       int     `csv:"mana_territory"`
	CorruptionTerritory int     `csv:"corruption_territory"`
	ManaShare           float64 `csv:"mana_share"`
	CorruptedFraction   float64 `csv:"corrupted_fraction"`

	// Activity during window
	TerrainTicks    int `csv:"terrain_ticks"`
	CorruptionTicks int `csv:"corruption_ticks"`
	Promotions      int `csv:"promotions"`
	Demotions       int `csv:"demotions"`
	EventsStarted   int `csv:"events_started"`
	Placements      int `csv:"placements"`
	FaunaSpawned    int `csv:"fauna_spawned"`
	FaunaDied       int `csv:"fauna_died"`
	UnitActions     int `csv:"unit_actions"`

	// Agents and structures at window end
	Fauna      int `csv:"fauna"`
	Units      int `csv:"units"`
	Structures int `csv:"structures"`

	ActiveEvent string `csv:"active_event"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("barren", s.Barren),
		slog.Int("attuned", s.Attuned),
		slog.Int("crystallized", s.Crystallized),
		slog.Int("trees", s.Trees),
		slog.Float64("corruption_mean", s.CorruptionMean),
		slog.Float64("corruption_p50", s.CorruptionP50),
		slog.Float64("corruption_p90", s.CorruptionP90),
		slog.Float64("mana_share", s.ManaShare),
		slog.Float64("corrupted_fraction", s.CorruptedFraction),
		slog.Int("promotions", s.Promotions),
		slog.Int("demotions", s.Demotions),
		slog.Int("events_started", s.EventsStarted),
		slog.Int("fauna", s.Fauna),
		slog.Int("units", s.Units),
		slog.String("active_event", s.ActiveEvent),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"barren", s.Barren,
		"attuned", s.Attuned,
		"crystallized", s.Crystallized,
		"trees", s.Trees,
		"corruption_mean", s.CorruptionMean,
		"corruption_p10", s.CorruptionP10,
		"corruption_p50", s.CorruptionP50,
		"corruption_p90", s.CorruptionP90,
		"mana_territory", s.ManaTerritory,
		"corruption_territory", s.CorruptionTerritory,
		"corrupted_fraction", s.CorruptedFraction,
		"terrain_ticks", s.TerrainTicks,
		"corruption_ticks", s.CorruptionTicks,
		"promotions", s.Promotions,
		"demotions", s.Demotions,
		"events_started", s.EventsStarted,
		"placements", s.Placements,
		"fauna_spawned", s.FaunaSpawned,
		"fauna_died", s.FaunaDied,
		"unit_actions", s.UnitActions,
		"fauna", s.Fauna,
		"units", s.Units,
		"structures", s.Structures,
		"active_event", s.ActiveEvent,
	)
}
