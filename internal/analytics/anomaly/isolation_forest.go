package anomaly

import (
	"math"
	"math/rand"
	"sort"

	"github.com/soltixdb/climatix/internal/analytics"
)

// IsolationForestDetector flags readings that are easy to isolate in the
// joint (temperature, humidity, illuminance) space. Channels are standardized
// on the snapshot itself, the forest is grown with a fixed seed, and the
// decision threshold is the contamination percentile of the sample scores.
//
// Reported scores follow the decision-function convention: negative means
// anomalous, and lower means more anomalous.
type IsolationForestDetector struct {
	cfg Config
}

// NewIsolationForestDetector creates an isolation forest detector
func NewIsolationForestDetector(cfg Config) *IsolationForestDetector {
	return &IsolationForestDetector{cfg: cfg}
}

// Name returns the algorithm name
func (d *IsolationForestDetector) Name() string {
	return string(StrategyIsolationForest)
}

// Detect fits a fresh forest to the snapshot and returns the samples whose
// score falls strictly below the contamination threshold.
func (d *IsolationForestDetector) Detect(ts analytics.TimeSeries) ([]Record, error) {
	n := ts.Len()
	if n < d.cfg.ForestMinSamples {
		return nil, analytics.NewInsufficientData("isolation forest anomaly detection", d.cfg.ForestMinSamples, n)
	}

	features, err := standardize(ts)
	if err != nil {
		return nil, err
	}

	forest := newIsolationForest(d.cfg.Trees, d.cfg.MaxSamples, d.cfg.Seed)
	forest.fit(features)
	scores := forest.scoreSamples(features)

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	offset := analytics.Percentile(sorted, 100*d.cfg.Contamination)

	var records []Record
	for i, s := range ts.Samples {
		if scores[i] < offset {
			records = append(records, newRecord(s, d.cfg.Thresholds, scores[i]-offset))
		}
	}
	return records, nil
}

// standardize scales every channel to zero mean and unit population
// variance. A constant channel keeps scale 1 and collapses to zeros.
func standardize(ts analytics.TimeSeries) ([][]float64, error) {
	features := make([][]float64, ts.Len())
	for i := range features {
		features[i] = make([]float64, len(analytics.Channels))
	}

	for j, ch := range analytics.Channels {
		values := ts.Values(ch)
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, analytics.NewComputationError("isolation forest anomaly detection", "non-finite "+string(ch)+" value")
			}
		}

		mean := analytics.Mean(values)
		scale := analytics.StdDev(values)
		if scale == 0 {
			scale = 1
		}
		for i, v := range values {
			features[i][j] = (v - mean) / scale
		}
	}
	return features, nil
}

type iTreeNode struct {
	splitFeature  int
	splitValue    float64
	left          *iTreeNode
	right         *iTreeNode
	isExternal    bool
	pathLengthAdj float64
}

type isolationForest struct {
	numTrees      int
	maxSamples    int
	maxDepth      int
	avgPathLength float64
	trees         []*iTreeNode
	rng           *rand.Rand
}

func newIsolationForest(numTrees, maxSamples int, seed int64) *isolationForest {
	return &isolationForest{
		numTrees:   numTrees,
		maxSamples: maxSamples,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// fit grows the trees one after another so the random stream, and therefore
// the result, depends only on the seed and the data.
func (f *isolationForest) fit(data [][]float64) {
	n := len(data)
	sampleSize := f.maxSamples
	if sampleSize > n {
		sampleSize = n
	}

	f.maxDepth = int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))
	f.avgPathLength = averagePathLength(float64(sampleSize))

	f.trees = make([]*iTreeNode, 0, f.numTrees)
	for i := 0; i < f.numTrees; i++ {
		indices := f.sampleIndices(n, sampleSize)
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = data[idx]
		}
		f.trees = append(f.trees, f.buildTree(sample, 0))
	}
}

func (f *isolationForest) sampleIndices(n, sampleSize int) []int {
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		indices[i] = i
	}

	f.rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	return indices[:sampleSize]
}

func (f *isolationForest) buildTree(data [][]float64, depth int) *iTreeNode {
	if len(data) <= 1 || depth >= f.maxDepth {
		return leaf(len(data))
	}

	// Only features that still vary inside the node can split it
	var candidates []int
	mins := make([]float64, len(data[0]))
	maxs := make([]float64, len(data[0]))
	for feature := range mins {
		mins[feature], maxs[feature] = data[0][feature], data[0][feature]
		for _, d := range data[1:] {
			mins[feature] = math.Min(mins[feature], d[feature])
			maxs[feature] = math.Max(maxs[feature], d[feature])
		}
		if mins[feature] < maxs[feature] {
			candidates = append(candidates, feature)
		}
	}
	if len(candidates) == 0 {
		return leaf(len(data))
	}

	splitFeature := candidates[f.rng.Intn(len(candidates))]
	minVal, maxVal := mins[splitFeature], maxs[splitFeature]
	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	var leftData, rightData [][]float64
	for _, d := range data {
		if d[splitFeature] < splitValue {
			leftData = append(leftData, d)
		} else {
			rightData = append(rightData, d)
		}
	}
	if len(leftData) == 0 || len(rightData) == 0 {
		return leaf(len(data))
	}

	return &iTreeNode{
		splitFeature: splitFeature,
		splitValue:   splitValue,
		left:         f.buildTree(leftData, depth+1),
		right:        f.buildTree(rightData, depth+1),
	}
}

func leaf(size int) *iTreeNode {
	return &iTreeNode{
		isExternal:    true,
		pathLengthAdj: averagePathLength(float64(size)),
	}
}

func (f *isolationForest) pathLength(point []float64, node *iTreeNode, depth int) float64 {
	if node.isExternal {
		return float64(depth) + node.pathLengthAdj
	}

	if point[node.splitFeature] < node.splitValue {
		return f.pathLength(point, node.left, depth+1)
	}
	return f.pathLength(point, node.right, depth+1)
}

// scoreSamples returns the opposite of the isolation score 2^(-E(h)/c(n)),
// so that lower values are more abnormal.
func (f *isolationForest) scoreSamples(data [][]float64) []float64 {
	scores := make([]float64, len(data))
	if len(f.trees) == 0 {
		return scores
	}

	for i, point := range data {
		var totalPathLength float64
		for _, tree := range f.trees {
			totalPathLength += f.pathLength(point, tree, 0)
		}
		avgPath := totalPathLength / float64(len(f.trees))

		if f.avgPathLength == 0 {
			scores[i] = -1
			continue
		}
		scores[i] = -math.Pow(2, -avgPath/f.avgPathLength)
	}
	return scores
}

// averagePathLength is the expected path length of an unsuccessful search in
// a binary search tree of n points.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}

	const eulerGamma = 0.5772156649015329
	return 2*(math.Log(n-1)+eulerGamma) - 2*(n-1)/n
}
