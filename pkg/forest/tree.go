package forest

import (
	"math"
	"math/rand/v2"
	"sort"
)

// node is one node of a regression tree. Leaves carry the mean target of
// the training rows that reached them; internal nodes route on a single
// feature threshold (left: value <= threshold, right: value > threshold).
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

func (n *node) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// treeBuilder grows one tree on a bootstrap sample. It accumulates the
// total squared-error reduction contributed by each feature, which the
// forest later normalizes into the importance report.
type treeBuilder struct {
	x           [][]float64
	y           []float64
	maxDepth    int
	minLeaf     int
	importances []float64
}

// growTree bootstrap-samples n rows with replacement using the tree's own
// rng and grows a depth-capped regression tree on them.
func growTree(x [][]float64, y []float64, maxDepth, minLeaf, numFeatures int, rng *rand.Rand) (*node, []float64) {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}

	b := &treeBuilder{
		x:           x,
		y:           y,
		maxDepth:    maxDepth,
		minLeaf:     minLeaf,
		importances: make([]float64, numFeatures),
	}
	return b.build(idx, 0), b.importances
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	sum, sqSum := b.sums(idx)
	n := float64(len(idx))
	mean := sum / n
	sse := sqSum - sum*sum/n

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || sse <= 1e-12 {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sse)
	if !ok {
		return &node{leaf: true, value: mean}
	}

	b.importances[feature] += gain

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children, honoring the minimum leaf size on both
// sides. Features are scanned in fixed order so tree construction is
// deterministic given the bootstrap sample.
func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	sorted := make([]int, n)
	bestSSE := math.Inf(1)

	for f := 0; f < len(b.importances); f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var leftSum, leftSq float64
		totalSum, totalSq := b.sums(idx)

		for i := 0; i < n-1; i++ {
			yi := b.y[sorted[i]]
			leftSum += yi
			leftSq += yi * yi

			// Can only split between distinct feature values.
			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nl := i + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))

			// The midpoint of two adjacent doubles can round up to next
			// itself, which would route every row left and leave an empty
			// right child. Split on cur directly in that case; the <=
			// routing rule keeps the partition identical.
			mid := (cur + next) / 2
			if mid >= next {
				mid = cur
			}

			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = mid
				ok = true
			}
		}
	}

	if !ok {
		return 0, 0, 0, false
	}
	gain = parentSSE - bestSSE
	if gain < 0 {
		gain = 0
	}
	return feature, threshold, gain, true
}

func (b *treeBuilder) sums(idx []int) (sum, sqSum float64) {
	for _, i := range idx {
		v := b.y[i]
		sum += v
		sqSum += v * v
	}
	return sum, sqSum
}
