// Package neural provides feedforward neural network brains for orbs.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// ErrShapeMismatch reports an input length or topology that does not fit a brain.
var ErrShapeMismatch = errors.New("shape mismatch")

// Activation selects the hidden-layer nonlinearity. The output layer is always tanh.
type Activation uint8

const (
	ReLU Activation = iota
	Tanh
)

// ParseActivation converts a config name into an Activation.
func ParseActivation(name string) (Activation, error) {
	switch strings.ToLower(name) {
	case "relu", "":
		return ReLU, nil
	case "tanh":
		return Tanh, nil
	default:
		return ReLU, fmt.Errorf("unknown activation %q", name)
	}
}

// String returns the config name of the activation.
func (a Activation) String() string {
	if a == Tanh {
		return "tanh"
	}
	return "relu"
}

// Topology describes the layer sizes of a brain.
type Topology struct {
	Inputs  int
	Outputs int
	Hidden  []int
}

// Layers returns all layer sizes from input to output.
func (t Topology) Layers() []int {
	sizes := make([]int, 0, len(t.Hidden)+2)
	sizes = append(sizes, t.Inputs)
	sizes = append(sizes, t.Hidden...)
	return append(sizes, t.Outputs)
}

// WeightCount returns the number of connection weights.
func (t Topology) WeightCount() int {
	n := 0
	prev := t.Inputs
	for _, h := range t.Hidden {
		n += prev * h
		prev = h
	}
	return n + prev*t.Outputs
}

// BiasCount returns the number of biases (one per hidden and output unit).
func (t Topology) BiasCount() int {
	n := t.Outputs
	for _, h := range t.Hidden {
		n += h
	}
	return n
}

// Equal reports whether two topologies have identical layer sizes.
func (t Topology) Equal(o Topology) bool {
	if t.Inputs != o.Inputs || t.Outputs != o.Outputs || len(t.Hidden) != len(o.Hidden) {
		return false
	}
	for i := range t.Hidden {
		if t.Hidden[i] != o.Hidden[i] {
			return false
		}
	}
	return true
}

// Validate checks that every layer has at least one unit.
func (t Topology) Validate() error {
	if t.Inputs <= 0 || t.Outputs <= 0 {
		return fmt.Errorf("%w: inputs %d, outputs %d", ErrShapeMismatch, t.Inputs, t.Outputs)
	}
	for i, h := range t.Hidden {
		if h <= 0 {
			return fmt.Errorf("%w: hidden layer %d has size %d", ErrShapeMismatch, i, h)
		}
	}
	return nil
}

func (t Topology) clone() Topology {
	t.Hidden = append([]int(nil), t.Hidden...)
	return t
}

// Brain is a fully connected feedforward network stored as flat buffers.
//
// Weights are layer-major, then row-major by (input unit, output unit):
// layer l's block is an in×out matrix where W[i*out+o] connects input i to output o.
// Biases follow the same layer order, one per receiving unit.
type Brain struct {
	Topology   Topology
	Activation Activation
	Weights    []float32
	Biases     []float32
}

// NewBrain creates a randomly initialized brain.
// Weights are drawn from N(0, 1/fanIn), biases start at zero.
func NewBrain(rng *rand.Rand, topo Topology, act Activation) *Brain {
	b := &Brain{
		Topology:   topo.clone(),
		Activation: act,
		Weights:    make([]float32, topo.WeightCount()),
		Biases:     make([]float32, topo.BiasCount()),
	}

	layers := topo.Layers()
	off := 0
	for l := 0; l < len(layers)-1; l++ {
		in, out := layers[l], layers[l+1]
		scale := 1 / math.Sqrt(float64(in))
		for i := 0; i < in*out; i++ {
			b.Weights[off+i] = float32(rng.NormFloat64() * scale)
		}
		off += in * out
	}
	return b
}

// NewBrainFromParams builds a brain around existing buffers after checking their lengths.
// The buffers are copied.
func NewBrainFromParams(topo Topology, act Activation, weights, biases []float32) (*Brain, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if len(weights) != topo.WeightCount() {
		return nil, fmt.Errorf("%w: %d weights, topology needs %d", ErrShapeMismatch, len(weights), topo.WeightCount())
	}
	if len(biases) != topo.BiasCount() {
		return nil, fmt.Errorf("%w: %d biases, topology needs %d", ErrShapeMismatch, len(biases), topo.BiasCount())
	}
	return &Brain{
		Topology:   topo.clone(),
		Activation: act,
		Weights:    append([]float32(nil), weights...),
		Biases:     append([]float32(nil), biases...),
	}, nil
}

// InputSize returns the expected input length.
func (b *Brain) InputSize() int { return b.Topology.Inputs }

// OutputSize returns the output length.
func (b *Brain) OutputSize() int { return b.Topology.Outputs }

// Predict runs a single forward pass.
// Hidden layers use the brain's activation, the output layer uses tanh so
// every component lies in [-1, 1]. The brain is not modified.
func (b *Brain) Predict(input []float32) ([]float32, error) {
	if len(input) != b.Topology.Inputs {
		return nil, fmt.Errorf("%w: input length %d, brain expects %d", ErrShapeMismatch, len(input), b.Topology.Inputs)
	}

	layers := b.Topology.Layers()
	x := append([]float32(nil), input...)
	wOff, bOff := 0, 0
	for l := 0; l < len(layers)-1; l++ {
		in, out := layers[l], layers[l+1]

		y := make([]float32, out)
		copy(y, b.Biases[bOff:bOff+out])

		// y = Wᵀx + y with W stored in×out row-major
		w := blas32.General{Rows: in, Cols: out, Stride: out, Data: b.Weights[wOff : wOff+in*out]}
		blas32.Gemv(blas.Trans, 1, w,
			blas32.Vector{N: in, Inc: 1, Data: x},
			1, blas32.Vector{N: out, Inc: 1, Data: y})

		last := l == len(layers)-2
		for i, v := range y {
			switch {
			case last || b.Activation == Tanh:
				y[i] = float32(math.Tanh(float64(v)))
			case v < 0:
				y[i] = 0
			}
		}

		x = y
		wOff += in * out
		bOff += out
	}
	return x, nil
}

// SameShape reports whether two brains can be combined gene by gene.
func (b *Brain) SameShape(o *Brain) bool {
	return b.Activation == o.Activation && b.Topology.Equal(o.Topology)
}

// Clone creates a deep copy of the brain.
func (b *Brain) Clone() *Brain {
	return &Brain{
		Topology:   b.Topology.clone(),
		Activation: b.Activation,
		Weights:    append([]float32(nil), b.Weights...),
		Biases:     append([]float32(nil), b.Biases...),
	}
}
