package predictor

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/tkaraxa/sibyl/internal/core"
)

// Horizon confidences are fixed constants, not derived from model variance.
const (
	confidence1d  = 75.0
	confidence7d  = 65.0
	confidence30d = 55.0

	dampen7d  = 0.7
	dampen30d = 0.5

	minTrainingRows = 10
	minAlignedRows  = 5
	splitSeed       = 42
	testFraction    = 0.2
)

// TrainedModel is an immutable fitted regressor plus its feature scaler.
// It is produced by Train and threaded into Predict; it is never persisted
// and is safe for concurrent reads.
type TrainedModel struct {
	forest *forest
	scaler *scaler

	// Accuracy is a pseudo-metric derived from held-out MSE,
	// max(0, 100 - MSE*10000), or 70.0 without a test set.
	Accuracy        float64
	TrainingSamples int
}

// Train fits a bagged-tree regressor on next-step percentage returns.
// Returns a wrapped core.ErrInsufficientData when fewer than 50 prices
// exist or too few feature rows survive alignment.
func Train(prices, volumes []float64) (*TrainedModel, error) {
	features := buildFeatures(prices, volumes)
	if len(features) < minTrainingRows {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("training requires at least %d feature rows, got %d", minTrainingRows, len(features)))
	}

	targets := buildTargets(len(features), prices)
	if len(targets) < len(features) {
		features = features[:len(targets)]
	} else if len(features) < len(targets) {
		targets = targets[:len(features)]
	}

	if len(features) < minAlignedRows {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("training requires at least %d aligned rows, got %d", minAlignedRows, len(features)))
	}

	trainX, testX, trainY, testY := split(features, targets)

	sc := fitScaler(trainX)
	trainScaled := sc.transformAll(trainX)
	testScaled := sc.transformAll(testX)

	f := fitForest(trainScaled, trainY, forestTrees, forestMaxDepth, forestSeed)

	accuracy := 70.0
	if len(testScaled) > 0 {
		var mse float64
		for i, row := range testScaled {
			d := f.predict(row) - testY[i]
			mse += d * d
		}
		mse /= float64(len(testScaled))
		accuracy = core.Round2(math.Max(0, 100-mse*10000))
	}

	return &TrainedModel{
		forest:          f,
		scaler:          sc,
		Accuracy:        accuracy,
		TrainingSamples: len(trainX),
	}, nil
}

// split partitions rows 80/20 with a fixed shuffle seed. With 5 or fewer
// rows the full set trains and the final row stands in as the test set.
func split(features [][]float64, targets []float64) (trainX, testX [][]float64, trainY, testY []float64) {
	n := len(features)
	if n <= minAlignedRows {
		last := n - 1
		return features, features[last:], targets, targets[last:]
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(splitSeed))
	rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

	testCount := int(math.Ceil(float64(n) * testFraction))
	for i, idx := range indices {
		if i < testCount {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		}
	}
	return trainX, testX, trainY, testY
}

// Predict scales the most recent feature vector with the model's fitted
// scaler, predicts one step of percentage return, and projects it over the
// three horizons with fixed dampening factors.
func Predict(model *TrainedModel, prices, volumes []float64) (core.PredictionSet, error) {
	if model == nil {
		return core.PredictionSet{}, core.ErrModelNotTrained
	}

	features := buildFeatures(prices, volumes)
	if len(features) == 0 {
		return core.PredictionSet{}, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("prediction requires at least %d prices, got %d", windowSize, len(prices)))
	}

	last := model.scaler.transform(features[len(features)-1])
	predicted := model.forest.predict(last)

	current := prices[len(prices)-1]

	change7d := predicted * 7 * dampen7d
	change30d := predicted * 30 * dampen30d

	return core.PredictionSet{
		CurrentPrice: core.Round2(current),
		Horizons: map[string]core.HorizonForecast{
			"1d": {
				Price:         core.Round2(current * (1 + predicted)),
				ChangePercent: core.Round2(predicted * 100),
				Confidence:    confidence1d,
			},
			"7d": {
				Price:         core.Round2(current * (1 + change7d)),
				ChangePercent: core.Round2(change7d * 100),
				Confidence:    confidence7d,
			},
			"30d": {
				Price:         core.Round2(current * (1 + change30d)),
				ChangePercent: core.Round2(change30d * 100),
				Confidence:    confidence30d,
			},
		},
	}, nil
}

// Predictor auto-trains on first use and serializes train/predict pairs so
// concurrent callers cannot interleave a retrain with a prediction.
type Predictor struct {
	mu    sync.Mutex
	model *TrainedModel
}

// New creates an untrained Predictor.
func New() *Predictor {
	return &Predictor{}
}

// Train fits a fresh model, replacing any previous one.
func (p *Predictor) Train(prices, volumes []float64) (*TrainedModel, error) {
	model, err := Train(prices, volumes)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
	return model, nil
}

// Predict trains on the given series if no model exists yet, then predicts.
// A training failure propagates as the predict failure.
func (p *Predictor) Predict(prices, volumes []float64) (core.PredictionSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		model, err := Train(prices, volumes)
		if err != nil {
			return core.PredictionSet{}, err
		}
		p.model = model
	}

	return Predict(p.model, prices, volumes)
}

// Model returns the current trained model, nil when untrained.
func (p *Predictor) Model() *TrainedModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}
