package model

import "math"

// logisticClassifier is a binary logistic-regression model trained with
// batch gradient descent. probability returns the positive-class
// (failure) probability.
type logisticClassifier struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (c *logisticClassifier) fit(X [][]float64, y []int, learningRate float64, epochs int) {
	n := len(X)
	cols := len(X[0])
	c.Weights = make([]float64, cols)
	c.Bias = 0

	gradW := make([]float64, cols)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i := range X {
			residual := c.probability(X[i]) - float64(y[i])
			for j, v := range X[i] {
				gradW[j] += residual * v
			}
			gradB += residual
		}

		scale := learningRate / float64(n)
		for j := range c.Weights {
			c.Weights[j] -= scale * gradW[j]
		}
		c.Bias -= scale * gradB
	}
}

func (c *logisticClassifier) probability(x []float64) float64 {
	z := c.Bias
	for j, w := range c.Weights {
		z += w * x[j]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
