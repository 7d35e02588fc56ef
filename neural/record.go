package neural

// Record is the serialized form of a brain.
// The activation is not stored; it comes from the loading configuration.
type Record struct {
	InputSize        int       `json:"inputSize"`
	OutputSize       int       `json:"outputSize"`
	HiddenLayerSizes []int     `json:"hiddenLayerSizes"`
	Weights          []float32 `json:"weights"`
	Biases           []float32 `json:"biases"`
}

// Record flattens the brain for serialization.
func (b *Brain) Record() Record {
	hidden := append([]int{}, b.Topology.Hidden...)
	return Record{
		InputSize:        b.Topology.Inputs,
		OutputSize:       b.Topology.Outputs,
		HiddenLayerSizes: hidden,
		Weights:          append([]float32(nil), b.Weights...),
		Biases:           append([]float32(nil), b.Biases...),
	}
}

// Topology returns the layer sizes described by the record.
func (r Record) Topology() Topology {
	return Topology{Inputs: r.InputSize, Outputs: r.OutputSize, Hidden: r.HiddenLayerSizes}
}

// FromRecord restores a brain, failing with ErrShapeMismatch when the
// buffer lengths disagree with the recorded topology.
// Records written without biases load with zero biases.
func FromRecord(r Record, act Activation) (*Brain, error) {
	if err := r.Topology().Validate(); err != nil {
		return nil, err
	}
	biases := r.Biases
	if len(biases) == 0 {
		biases = make([]float32, r.Topology().BiasCount())
	}
	return NewBrainFromParams(r.Topology(), act, r.Weights, biases)
}
