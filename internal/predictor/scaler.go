package predictor

import "math"

// scaler standardizes features to zero mean and unit variance.
// Fitted on training rows only; prediction rows reuse the fitted moments.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(rows [][]float64) *scaler {
	if len(rows) == 0 {
		return &scaler{}
	}

	dims := len(rows[0])
	s := &scaler{
		mean: make([]float64, dims),
		std:  make([]float64, dims),
	}

	for _, row := range rows {
		for j, v := range row {
			s.mean[j] += v
		}
	}
	for j := range s.mean {
		s.mean[j] /= float64(len(rows))
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - s.mean[j]
			s.std[j] += d * d
		}
	}
	for j := range s.std {
		s.std[j] = math.Sqrt(s.std[j] / float64(len(rows)))
		// Constant columns scale to zero-centered values untouched
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}

	return s
}

func (s *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.std[j]
	}
	return out
}

func (s *scaler) transformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.transform(row)
	}
	return out
}
