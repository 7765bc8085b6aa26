package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/field"
	"github.com/pthm-cable/leyline/systems"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("ticks per window = %d, want 10", c.WindowDurationTicks())
	}
	if c.ShouldFlush(9) || !c.ShouldFlush(10) {
		t.Error("ShouldFlush boundary wrong")
	}

	var res systems.StepResult
	res.Ran = []string{"terrain", "corruption"}
	res.Transitions[field.Barren][field.Attuned] = 3
	res.Transitions[field.Attuned][field.Crystallized] = 1
	res.Transitions[field.Crystallized][field.Attuned] = 2
	c.RecordStep(res)
	c.RecordStep(systems.StepResult{Ran: []string{"terrain"}})
	c.RecordEventStart()
	c.RecordPlacement()
	c.RecordFauna(systems.FaunaStats{Spawned: 2, Died: 1})
	c.RecordUnitActions(4)

	fs := FieldStats{Territory: Territory{Mana: 3, Corruption: 1}}
	stats := c.Flush(10, fs, Population{Fauna: 5, Units: 2, Structures: 1}, "mana_surge")

	tests := []struct {
		name      string
		got, want int
	}{
		{"terrain ticks", stats.TerrainTicks, 2},
		{"corruption ticks", stats.CorruptionTicks, 1},
		{"promotions", stats.Promotions, 4},
		{"demotions", stats.Demotions, 2},
		{"events", stats.EventsStarted, 1},
		{"placements", stats.Placements, 1},
		{"spawned", stats.FaunaSpawned, 2},
		{"died", stats.FaunaDied, 1},
		{"unit actions", stats.UnitActions, 4},
		{"fauna", stats.Fauna, 5},
		{"mana territory", stats.ManaTerritory, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d, want %d", tt.got, tt.want)
			}
		})
	}
	if stats.CorruptedFraction != 0.25 || stats.ActiveEvent != "mana_surge" {
		t.Errorf("fraction=%v event=%s", stats.CorruptedFraction, stats.ActiveEvent)
	}
	if stats.SimTimeSec < 0.99 || stats.SimTimeSec > 1.01 {
		t.Errorf("sim time = %v, want 1", stats.SimTimeSec)
	}

	// Counters reset after flush.
	next := c.Flush(20, FieldStats{}, Population{}, "none")
	if next.WindowStartTick != 10 || next.Promotions != 0 || next.UnitActions != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestBookmarkTerritoryFlip(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{WindowEndTick: 100, ManaTerritory: 50, CorruptionTerritory: 10})
	bms := bd.Check(WindowStats{WindowEndTick: 200, ManaTerritory: 20, CorruptionTerritory: 40})
	if len(bms) == 0 || bms[0].Type != BookmarkTerritoryFlip {
		t.Fatalf("bookmarks = %+v, want territory flip", bms)
	}
	if !strings.Contains(bms[0].Description, "corruption") {
		t.Errorf("description = %q", bms[0].Description)
	}
}

func TestBookmarkCorruptionSurgeAndRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 100), CorruptedFraction: 0.1})
	}

	found := false
	for _, bm := range bd.Check(WindowStats{WindowEndTick: 600, CorruptedFraction: 0.4}) {
		found = found || bm.Type == BookmarkCorruptionSurge
	}
	if !found {
		t.Error("expected corruption surge bookmark")
	}

	found = false
	for _, bm := range bd.Check(WindowStats{WindowEndTick: 700, CorruptedFraction: 0.15}) {
		found = found || bm.Type == BookmarkManaRecovery
	}
	if !found {
		t.Error("expected mana recovery bookmark")
	}
}

func TestBookmarkStalemateFiresOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	steady := WindowStats{ManaTerritory: 40, CorruptionTerritory: 30, ManaShare: 0.4, CorruptedFraction: 0.3}
	count := 0
	for i := 0; i < 20; i++ {
		steady.WindowEndTick = int32(i * 100)
		for _, bm := range bd.Check(steady) {
			if bm.Type == BookmarkStalemate {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("stalemate fired %d times, want 1", count)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := om.WriteConfig(config.MustDefaults()); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 100), ActiveEvent: "none"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{PhaseTerrain: 40}}, 100); err != nil {
		t.Fatal(err)
	}
	change := systems.EventChange{Kind: systems.ManaSurge, Started: true, Epicenters: []field.Emitter{{X: 7, Y: 9}}}
	if err := om.WriteEvent(NewEventChangeRecord(100, 10, change)); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteEvent(NewPlacementRecord(120, 12, systems.Structure{ID: 3, Kind: systems.KindPit, X: 1, Y: 2})); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	read := func(name string) []string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	lines := read("telemetry.csv")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "window_end,sim_time,barren") {
		t.Errorf("telemetry.csv = %q", lines)
	}
	if lines := read("perf.csv"); len(lines) != 2 || !strings.Contains(lines[0], "terrain_pct") {
		t.Errorf("perf.csv = %q", lines)
	}
	events := read("events.csv")
	if len(events) != 3 {
		t.Fatalf("events.csv = %q", events)
	}
	if !strings.Contains(events[1], "event_start,mana_surge,7,9,epicenters=1") {
		t.Errorf("event row = %q", events[1])
	}
	if !strings.Contains(events[2], "placement,pit,1,2,id=3") {
		t.Errorf("placement row = %q", events[2])
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml missing: %v", err)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Nil receivers are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteEvent(EventRecord{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager not inert")
	}
}
