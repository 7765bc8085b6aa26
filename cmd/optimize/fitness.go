package main

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/leyline/config"
	"github.com/pthm-cable/leyline/game"
	"github.com/pthm-cable/leyline/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	target      float64 // Desired corrupted fraction
	statsWindow float64

	mu          sync.Mutex
	lastBalance float64 // mean corrupted fraction from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, target float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		target:      target,
		statsWindow: 10.0, // 10 seconds per window
	}
}

// LastBalance returns the mean corrupted fraction from the most recent
// evaluation.
func (fe *FitnessEvaluator) LastBalance() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastBalance
}

// Fitness weights and collapse detection.
const (
	warmupWindows   = 3    // skip first N windows
	stabilityWeight = 0.5  // weight of corrupted-fraction std
	collapseShare   = 0.02 // a faction below this share has lost the map
	collapseWindows = 3    // consecutive windows below collapseShare end the run
)

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int32                   // ticks run before collapse (or maxTicks)
	collapsed   bool                    // one faction lost the map
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	balance float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Runs that fail to build score as the worst possible outcome.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))

	// Run all seeds in parallel
	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = seedResult{
				fitness: fe.computeFitness(r),
				balance: meanCorrupted(r.windowStats),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Printf("evaluation failed: %v\n", err)
		return math.Inf(1)
	}

	var totalFitness, totalBalance float64
	for _, r := range results {
		totalFitness += r.fitness
		totalBalance += r.balance
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastBalance = totalBalance / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless simulation run.
// Runs until one faction collapses or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg := fe.configFor(x)
	result := &runResult{}

	var lowWindows int
	g, err := game.New(cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
			if len(result.windowStats) <= warmupWindows {
				return
			}
			if stats.ManaShare < collapseShare || 1-stats.CorruptedFraction < collapseShare {
				lowWindows++
			} else {
				lowWindows = 0
			}
			result.collapsed = lowWindows >= collapseWindows
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	for g.Tick() < fe.maxTicks && !result.collapsed {
		g.Step()
	}
	result.ticks = g.Tick()
	return result, nil
}

// configFor returns a copy of the base config with x applied.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	return cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: |mean corrupted − target| + 0.5 × std(corrupted) + collapse penalty.
// The collapse penalty is the fraction of the run that was lost.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	valid := scoredWindows(r.windowStats)
	if len(valid) == 0 {
		return 1 + stabilityWeight
	}

	mean, std := stat.MeanStdDev(valid, nil)
	if math.IsNaN(std) {
		std = 0
	}
	fitness := math.Abs(mean-fe.target) + stabilityWeight*std
	if r.collapsed {
		fitness += 1 - float64(r.ticks)/float64(fe.maxTicks)
	}
	return fitness
}

// scoredWindows returns the corrupted fraction of every window past warmup.
func scoredWindows(windows []telemetry.WindowStats) []float64 {
	if len(windows) <= warmupWindows {
		return nil
	}
	out := make([]float64, 0, len(windows)-warmupWindows)
	for _, w := range windows[warmupWindows:] {
		out = append(out, w.CorruptedFraction)
	}
	return out
}

func meanCorrupted(windows []telemetry.WindowStats) float64 {
	valid := scoredWindows(windows)
	if len(valid) == 0 {
		return 0
	}
	return stat.Mean(valid, nil)
}
