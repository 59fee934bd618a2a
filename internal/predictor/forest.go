package predictor

import "math/rand"

// Forest hyperparameters are fixed for reproducibility.
const (
	forestTrees     = 50
	forestMaxDepth  = 10
	forestSeed      = 42
	minSamplesSplit = 2
)

// forest is a bagged ensemble of regression trees. Each tree fits a
// bootstrap sample of the training rows; predictions average over trees.
type forest struct {
	trees    []*treeNode
	maxDepth int
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func fitForest(rows [][]float64, targets []float64, nTrees, maxDepth int, seed int64) *forest {
	rng := rand.New(rand.NewSource(seed))
	f := &forest{
		trees:    make([]*treeNode, 0, nTrees),
		maxDepth: maxDepth,
	}

	n := len(rows)
	for t := 0; t < nTrees; t++ {
		sampleRows := make([][]float64, n)
		sampleTargets := make([]float64, n)
		for i := 0; i < n; i++ {
			idx := rng.Intn(n)
			sampleRows[i] = rows[idx]
			sampleTargets[i] = targets[idx]
		}
		f.trees = append(f.trees, buildTree(sampleRows, sampleTargets, 0, maxDepth))
	}

	return f
}

func (f *forest) predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func buildTree(rows [][]float64, targets []float64, depth, maxDepth int) *treeNode {
	if depth >= maxDepth || len(rows) < minSamplesSplit || allEqual(targets) {
		return &treeNode{leaf: true, value: meanOf(targets)}
	}

	feature, threshold, ok := bestSplit(rows, targets)
	if !ok {
		return &treeNode{leaf: true, value: meanOf(targets)}
	}

	var leftRows, rightRows [][]float64
	var leftTargets, rightTargets []float64
	for i, row := range rows {
		if row[feature] <= threshold {
			leftRows = append(leftRows, row)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightRows = append(rightRows, row)
			rightTargets = append(rightTargets, targets[i])
		}
	}

	if len(leftRows) == 0 || len(rightRows) == 0 {
		return &treeNode{leaf: true, value: meanOf(targets)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(leftRows, leftTargets, depth+1, maxDepth),
		right:     buildTree(rightRows, rightTargets, depth+1, maxDepth),
	}
}

// bestSplit scans every feature/value pair for the split minimizing the
// summed squared error of the two partitions. Row counts here are tiny
// (at most windowSize-featureOffset), so the exhaustive scan is cheap.
func bestSplit(rows [][]float64, targets []float64) (feature int, threshold float64, ok bool) {
	bestSSE := sse(targets)

	for j := 0; j < len(rows[0]); j++ {
		for _, row := range rows {
			t := row[j]
			var left, right []float64
			for i, r := range rows {
				if r[j] <= t {
					left = append(left, targets[i])
				} else {
					right = append(right, targets[i])
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			if s := sse(left) + sse(right); s < bestSSE {
				bestSSE = s
				feature = j
				threshold = t
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func sse(values []float64) float64 {
	mean := meanOf(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
