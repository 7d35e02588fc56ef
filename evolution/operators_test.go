package evolution

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/orbs/neural"
)

func TestCrossoverGenewise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := neural.NewBrain(rng, topo, neural.ReLU)
	b := neural.NewBrain(rng, topo, neural.ReLU)
	for i := range b.Biases {
		a.Biases[i] = -1
		b.Biases[i] = 1
	}

	child, err := Crossover(rng, a, b)
	if err != nil {
		t.Fatalf("Crossover: %v", err)
	}

	var fromA, fromB int
	for i, w := range child.Weights {
		switch w {
		case a.Weights[i]:
			fromA++
		case b.Weights[i]:
			fromB++
		default:
			t.Fatalf("weight %d = %v is from neither parent", i, w)
		}
	}
	for i, v := range child.Biases {
		if v != a.Biases[i] && v != b.Biases[i] {
			t.Fatalf("bias %d = %v is from neither parent", i, v)
		}
	}
	if fromA == 0 || fromB == 0 {
		t.Errorf("expected genes from both parents, got %d from a and %d from b", fromA, fromB)
	}

	child.Weights[0] = 1234
	if a.Weights[0] == 1234 || b.Weights[0] == 1234 {
		t.Error("child shares a buffer with a parent")
	}
}

func TestCrossoverSameParent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := neural.NewBrain(rng, topo, neural.ReLU)

	child, err := Crossover(rng, a, a)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Weights {
		if child.Weights[i] != a.Weights[i] {
			t.Fatalf("weight %d differs from the only parent", i)
		}
	}
}

func TestCrossoverShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := neural.NewBrain(rng, topo, neural.ReLU)

	tests := []struct {
		name string
		b    *neural.Brain
	}{
		{"hidden sizes", neural.NewBrain(rng, neural.Topology{Inputs: 16, Outputs: 2, Hidden: []int{8, 16}}, neural.ReLU)},
		{"inputs", neural.NewBrain(rng, neural.Topology{Inputs: 5, Outputs: 2, Hidden: []int{16, 8}}, neural.ReLU)},
		{"activation", neural.NewBrain(rng, topo, neural.Tanh)},
	}
	for _, tt := range tests {
		if _, err := Crossover(rng, a, tt.b); !errors.Is(err, neural.ErrShapeMismatch) {
			t.Errorf("%s: error = %v, want ErrShapeMismatch", tt.name, err)
		}
	}
}

func TestMutateZeroRate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := neural.NewBrain(rng, topo, neural.ReLU)
	before := b.Clone()

	if n := Mutate(rng, b, 0); n != 0 {
		t.Errorf("Mutate(rate 0) changed %d genes", n)
	}
	for i := range b.Weights {
		if math.Float32bits(b.Weights[i]) != math.Float32bits(before.Weights[i]) {
			t.Fatalf("weight %d changed at rate 0", i)
		}
	}
	for i := range b.Biases {
		if b.Biases[i] != before.Biases[i] {
			t.Fatalf("bias %d changed at rate 0", i)
		}
	}
}

func TestMutateFullRate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := neural.NewBrain(rng, topo, neural.ReLU)
	before := b.Clone()

	n := Mutate(rng, b, 1)
	if want := len(b.Weights) + len(b.Biases); n != want {
		t.Errorf("Mutate(rate 1) changed %d genes, want %d", n, want)
	}
	for i := range b.Weights {
		delta := math.Abs(float64(b.Weights[i] - before.Weights[i]))
		if delta > 1+1e-5 {
			t.Fatalf("weight %d moved by %v, want at most 1", i, delta)
		}
	}
}

func TestMutateRate(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	big := neural.Topology{Inputs: 100, Outputs: 2, Hidden: []int{100}}
	b := neural.NewBrain(rng, big, neural.ReLU)

	genes := len(b.Weights) + len(b.Biases)
	n := Mutate(rng, b, 0.03)
	frac := float64(n) / float64(genes)
	if frac < 0.02 || frac > 0.04 {
		t.Errorf("mutated fraction %.4f, want about 0.03", frac)
	}
}
