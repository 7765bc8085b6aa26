package game

import (
	"log/slog"

	"github.com/pthm-cable/leyline/systems"
	"github.com/pthm-cable/leyline/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	fs := g.computeFieldStats()
	pop := telemetry.Population{
		Fauna:      g.fauna.Count(),
		Units:      g.units.Count(),
		Structures: g.structures.Len(),
	}
	active := systems.EventNone
	if k, _, ok := g.events.CurrentEvent(); ok {
		active = k
	}

	stats := g.collector.Flush(g.tick, fs, pop, active.String())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteEvent(bm.Record(stats.SimTimeSec)); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// onEventChange logs world events and writes them to the event log.
func (g *Game) onEventChange(c systems.EventChange) {
	if c.Started {
		g.collector.RecordEventStart()
	}
	if err := g.outputManager.WriteEvent(telemetry.NewEventChangeRecord(g.tick, g.SimTime(), c)); err != nil {
		slog.Error("failed to write event", "error", err)
	}
}

// recordPlacement counts and logs a structure placement.
func (g *Game) recordPlacement(s systems.Structure) {
	g.collector.RecordPlacement()
	slog.Info("structure placed",
		"id", s.ID,
		"kind", s.Kind.String(),
		"x", s.X,
		"y", s.Y,
		"tick", g.tick,
	)
	if err := g.outputManager.WriteEvent(telemetry.NewPlacementRecord(g.tick, g.SimTime(), s)); err != nil {
		slog.Error("failed to write placement", "error", err)
	}
}
