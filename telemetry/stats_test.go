package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/leyline/field"
)

func TestComputeDistribution(t *testing.T) {
	tests := []struct {
		name                string
		values              []float64
		mean, p10, p50, p90 float64
	}{
		{"empty slice", []float64{}, 0, 0, 0, 0},
		{"single element", []float64{0.5}, 0.5, 0.5, 0.5, 0.5},
		{"one to ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 5.5, 1, 5, 9},
		{"all equal", []float64{0.3, 0.3, 0.3, 0.3}, 0.3, 0.3, 0.3, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, _, p10, p50, p90 := ComputeDistribution(tt.values)
			for _, c := range []struct {
				name      string
				got, want float64
			}{
				{"mean", mean, tt.mean},
				{"p10", p10, tt.p10},
				{"p50", p50, tt.p50},
				{"p90", p90, tt.p90},
			} {
				if math.Abs(c.got-c.want) > 1e-9 {
					t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
				}
			}
		})
	}
}

func TestComputeDistributionStd(t *testing.T) {
	_, std, _, _, _ := ComputeDistribution([]float64{0, 1, 0, 1})
	if math.Abs(std-0.5) > 1e-9 {
		t.Errorf("std = %v, want 0.5", std)
	}
}

func TestComputeFieldStats(t *testing.T) {
	g, err := field.New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	g.SetTerrain(0, 0, field.Attuned)
	g.SetTerrain(1, 0, field.Crystallized)
	g.SetTerrain(2, 0, field.AncientTree)
	g.SetCorruption(2, 0, 0.9) // magical but corrupted
	g.SetCorruption(3, 1, 0.5) // barren and corrupted

	fs, scratch := ComputeFieldStats(g, 0.3, nil)
	if len(scratch) != 8 {
		t.Errorf("scratch len = %d, want 8", len(scratch))
	}
	if fs.Counts[field.Barren] != 5 || fs.Counts.Magical() != 3 {
		t.Errorf("counts = %v", fs.Counts)
	}
	want := Territory{Mana: 2, Corruption: 2, Neutral: 4}
	if fs.Territory != want {
		t.Errorf("territory = %+v, want %+v", fs.Territory, want)
	}
	if math.Abs(fs.CorruptionMean-1.4/8) > 1e-6 {
		t.Errorf("mean = %v, want %v", fs.CorruptionMean, 1.4/8)
	}
	if math.Abs(fs.Territory.CorruptionShare()-0.25) > 1e-9 || math.Abs(fs.Territory.ManaShare()-0.25) > 1e-9 {
		t.Errorf("shares = %v / %v", fs.Territory.ManaShare(), fs.Territory.CorruptionShare())
	}

	// The grid must be left untouched by the in-place sort.
	if g.Corruption(2, 0) != 0.9 {
		t.Error("ComputeFieldStats mutated the grid")
	}
}

func TestTerritoryEmpty(t *testing.T) {
	var tr Territory
	if tr.ManaShare() != 0 || tr.CorruptionShare() != 0 {
		t.Error("empty territory should have zero shares")
	}
}
