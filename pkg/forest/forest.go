// Package forest implements a bagged ensemble of regression trees for daily
// demand prediction.
//
// Demand response to weather is threshold-like rather than linear (rain
// above a trace amount, heat above the terrace threshold), so the model has
// to learn step functions and feature interactions without manual crossing.
// A tree ensemble does that, needs no feature scaling, and yields a natural
// per-feature importance ranking from its split accounting.
//
// Training is deterministic: every stochastic step draws from an explicitly
// seeded PCG generator, with each tree's generator derived from the base
// seed and the tree's index. Trees are grown across available processors,
// but because no tree shares random state, the trained forest is
// bit-for-bit identical regardless of parallelism.
package forest

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
)

// Config holds the ensemble hyperparameters. They are fixed per deployment,
// not tuned per call, so repeated training on identical data yields
// identical predictions.
type Config struct {
	// Trees is the ensemble size. More stabilizes variance, with
	// diminishing returns past a few hundred.
	Trees int

	// MaxDepth caps each tree to prevent overfitting on a few thousand rows.
	MaxDepth int

	// MinLeafSamples is the minimum rows per leaf, so single-day outliers
	// are never memorized.
	MinLeafSamples int

	// Seed drives every stochastic step of training.
	Seed uint64
}

// DefaultConfig returns the production hyperparameters.
func DefaultConfig() Config {
	return Config{
		Trees:          300,
		MaxDepth:       8,
		MinLeafSamples: 5,
		Seed:           42,
	}
}

func (c Config) validate() error {
	if c.Trees <= 0 {
		return fmt.Errorf("trees must be > 0, got %d", c.Trees)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be > 0, got %d", c.MaxDepth)
	}
	if c.MinLeafSamples <= 0 {
		return fmt.Errorf("min leaf samples must be > 0, got %d", c.MinLeafSamples)
	}
	return nil
}

// Forest is a trained ensemble. It is immutable after Train returns: Predict
// and PredictBatch are pure reads, safe to call concurrently from multiple
// callers without locking.
type Forest struct {
	trees       []*node
	importances []float64
	numFeatures int
}

// Train fits the ensemble on a feature matrix and its targets. Rows must be
// non-empty and of uniform width.
func Train(x [][]float64, y []float64, cfg Config) (*Forest, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("forest config: %w", err)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("training set is empty")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) do not match targets (%d)", len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("feature rows are empty")
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}

	f := &Forest{
		trees:       make([]*node, cfg.Trees),
		numFeatures: width,
	}
	perTree := make([][]float64, cfg.Trees)

	workers := runtime.NumCPU()
	if workers > cfg.Trees {
		workers = cfg.Trees
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				// Each tree owns its generator, derived from the base
				// seed and the tree index, so results never depend on
				// which worker picked up which tree.
				rng := rand.New(rand.NewPCG(cfg.Seed, uint64(t)+1))
				f.trees[t], perTree[t] = growTree(x, y, cfg.MaxDepth, cfg.MinLeafSamples, width, rng)
			}
		}()
	}
	for t := 0; t < cfg.Trees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	f.importances = aggregateImportances(perTree, width)
	return f, nil
}

// aggregateImportances normalizes each tree's squared-error reductions and
// averages them across the ensemble, then renormalizes so the result sums
// to exactly 1. A forest that never split (constant target) reports uniform
// importance.
func aggregateImportances(perTree [][]float64, width int) []float64 {
	total := make([]float64, width)
	for _, imp := range perTree {
		var sum float64
		for _, v := range imp {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		for i, v := range imp {
			total[i] += v / sum
		}
	}

	var sum float64
	for _, v := range total {
		sum += v
	}
	if sum <= 0 {
		for i := range total {
			total[i] = 1 / float64(width)
		}
		return total
	}
	for i := range total {
		total[i] /= sum
	}
	return total
}

// Predict returns the ensemble mean for one feature vector.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// PredictBatch returns one prediction per input row, in input order.
func (f *Forest) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}

// Importances returns a copy of the per-feature importance weights, in
// feature-column order, summing to 1.
func (f *Forest) Importances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

// ImportanceMap associates importance weights with feature names. The
// returned map is unordered; sorting for display is the consumer's concern.
func (f *Forest) ImportanceMap(names []string) (map[string]float64, error) {
	if len(names) != f.numFeatures {
		return nil, fmt.Errorf("have %d feature names, forest was trained on %d features", len(names), f.numFeatures)
	}
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = f.importances[i]
	}
	return out, nil
}

// NumFeatures returns the feature width the forest was trained on.
func (f *Forest) NumFeatures() int {
	return f.numFeatures
}
