package lexicon

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax converts raw scores into probabilities at the given temperature.
func softmax(raw []float64, temperature float64) []float64 {
	if len(raw) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}
	out := make([]float64, len(raw))
	copy(out, raw)
	floats.Scale(1/temperature, out)
	floats.AddConst(-floats.Max(out), out)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
