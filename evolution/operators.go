package evolution

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/orbs/neural"
)

// Crossover builds a child whose every weight and bias is taken from a or b
// with equal probability. Parents must share topology and activation.
func Crossover(rng *rand.Rand, a, b *neural.Brain) (*neural.Brain, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: crossover of %v/%s and %v/%s",
			neural.ErrShapeMismatch, a.Topology.Layers(), a.Activation, b.Topology.Layers(), b.Activation)
	}

	child := a.Clone()
	for i := range child.Weights {
		if rng.Float64() < 0.5 {
			child.Weights[i] = b.Weights[i]
		}
	}
	for i := range child.Biases {
		if rng.Float64() < 0.5 {
			child.Biases[i] = b.Biases[i]
		}
	}
	return child, nil
}

// Mutate perturbs each gene with probability rate by adding U[-1, 1].
// Returns the number of genes changed. A rate <= 0 leaves the brain untouched.
func Mutate(rng *rand.Rand, b *neural.Brain, rate float64) int {
	if rate <= 0 {
		return 0
	}
	n := mutateGenes(rng, b.Weights, rate)
	return n + mutateGenes(rng, b.Biases, rate)
}

func mutateGenes(rng *rand.Rand, genes []float32, rate float64) int {
	n := 0
	for i := range genes {
		if rng.Float64() < rate {
			genes[i] += float32(rng.Float64()*2 - 1)
			n++
		}
	}
	return n
}
