package model

import "math"

// standardScaler standardizes each feature column to zero mean and unit
// variance, mirroring how the training matrix was fitted.
type standardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func (s *standardScaler) fit(X [][]float64) {
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range X {
			sum += X[i][j]
		}
		s.Mean[j] = sum / float64(len(X))
	}

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range X {
			d := X[i][j] - s.Mean[j]
			sum += d * d
		}
		s.Std[j] = math.Sqrt(sum / float64(len(X)))
	}
}

func (s *standardScaler) transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			std := s.Std[j]
			if std == 0 {
				std = 1
			}
			scaled[j] = (v - s.Mean[j]) / std
		}
		out[i] = scaled
	}
	return out
}
