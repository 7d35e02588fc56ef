package evolution

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/orbs/neural"
)

var topo = neural.Topology{Inputs: 16, Outputs: 2, Hidden: []int{16, 8}}

func newPopulation(rng *rand.Rand, n int) []Scored {
	pop := make([]Scored, n)
	for i := range pop {
		pop[i] = Scored{Brain: neural.NewBrain(rng, topo, neural.ReLU), Fitness: float32(rng.Intn(1000))}
	}
	return pop
}

func elitistEngine(seed int64, k int) *Engine {
	return NewEngine(Config{Strategy: Elitist, EliteCount: k, MutationRate: 0.03}, rand.New(rand.NewSource(seed)))
}

func TestEvolveLength(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{4, 5, 24, 100} {
		e := elitistEngine(1, 4)
		next, err := e.Evolve(newPopulation(rng, n))
		if err != nil {
			t.Fatalf("n=%d: Evolve: %v", n, err)
		}
		if len(next) != n {
			t.Errorf("n=%d: got %d brains", n, len(next))
		}
		for i, b := range next {
			if b == nil {
				t.Fatalf("n=%d: slot %d is nil", n, i)
			}
		}
	}
}

func TestEvolveGenerationBoundary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pop := make([]Scored, 24)
	for i := range pop {
		pop[i] = Scored{Brain: neural.NewBrain(rng, topo, neural.ReLU), Fitness: float32(i)}
	}
	// Shuffle so the best brains are not already at the front
	rng.Shuffle(len(pop), func(i, j int) { pop[i], pop[j] = pop[j], pop[i] })

	want := Rank(pop)[:4]
	snapshots := make([][]float32, 4)
	for i, s := range want {
		snapshots[i] = append([]float32(nil), s.Brain.Weights...)
	}

	next, err := elitistEngine(7, 4).Evolve(pop)
	if err != nil {
		t.Fatalf("Evolve: %v", err)
	}
	if len(next) != 24 {
		t.Fatalf("got %d brains, want 24", len(next))
	}

	for i := 0; i < 4; i++ {
		if next[i] != want[i].Brain {
			t.Errorf("slot %d is not elite with fitness %v", i, want[i].Fitness)
		}
		for j, w := range snapshots[i] {
			if math.Float32bits(next[i].Weights[j]) != math.Float32bits(w) {
				t.Fatalf("elite %d weight %d changed", i, j)
			}
		}
	}
}

func TestEvolveChildrenOwnBuffers(t *testing.T) {
	pop := newPopulation(rand.New(rand.NewSource(3)), 12)
	next, err := elitistEngine(3, 4).Evolve(pop)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[*float32]int)
	for i, b := range next {
		p := &b.Weights[0]
		if j, ok := seen[p]; ok {
			t.Fatalf("brains %d and %d share a weight buffer", j, i)
		}
		seen[p] = i
	}
}

func TestEvolveInsufficientPopulation(t *testing.T) {
	e := elitistEngine(1, 4)
	pop := newPopulation(rand.New(rand.NewSource(1)), 3)

	if _, err := e.Evolve(pop); !errors.Is(err, ErrInsufficientPopulation) {
		t.Errorf("error = %v, want ErrInsufficientPopulation", err)
	}
	if _, err := e.Evolve(nil); !errors.Is(err, ErrInsufficientPopulation) {
		t.Errorf("empty population: error = %v, want ErrInsufficientPopulation", err)
	}
}

func TestEvolveShapeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	other := neural.Topology{Inputs: 16, Outputs: 2, Hidden: []int{4}}

	pop := []Scored{
		{Brain: neural.NewBrain(rng, topo, neural.ReLU), Fitness: 10},
		{Brain: neural.NewBrain(rng, other, neural.ReLU), Fitness: 9},
	}
	for i := 0; i < 48; i++ {
		pop = append(pop, Scored{Brain: neural.NewBrain(rng, topo, neural.ReLU), Fitness: 0})
	}

	_, err := elitistEngine(42, 2).Evolve(pop)
	if !errors.Is(err, neural.ErrShapeMismatch) {
		t.Errorf("error = %v, want ErrShapeMismatch", err)
	}
}

func TestRankStable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := neural.NewBrain(rng, topo, neural.ReLU)
	b := neural.NewBrain(rng, topo, neural.ReLU)
	c := neural.NewBrain(rng, topo, neural.ReLU)

	ranked := Rank([]Scored{{a, 5}, {b, 9}, {c, 5}})
	if ranked[0].Brain != b || ranked[1].Brain != a || ranked[2].Brain != c {
		t.Error("ties did not keep input order")
	}
}

func TestEvolveDeterministic(t *testing.T) {
	pop := newPopulation(rand.New(rand.NewSource(5)), 20)

	first, err := elitistEngine(99, 4).Evolve(pop)
	if err != nil {
		t.Fatal(err)
	}
	second, err := elitistEngine(99, 4).Evolve(pop)
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		for j := range first[i].Weights {
			if first[i].Weights[j] != second[i].Weights[j] {
				t.Fatalf("brain %d weight %d differs between runs with the same seed", i, j)
			}
		}
	}
}

func TestEliteFraction(t *testing.T) {
	e := NewEngine(Config{Strategy: Elitist, EliteFraction: 0.2}, rand.New(rand.NewSource(1)))
	if got := e.EliteCount(24); got != 5 {
		t.Errorf("EliteCount(24) = %d, want 5", got)
	}

	r, err := e.Generate(newPopulation(rand.New(rand.NewSource(1)), 24))
	if err != nil {
		t.Fatal(err)
	}
	if r.Elites != 5 {
		t.Errorf("Elites = %d, want 5", r.Elites)
	}
}

func TestEliteCountFunc(t *testing.T) {
	tests := []struct {
		n, count int
		fraction float64
		want     int
	}{
		{24, 4, 0, 4},
		{24, 4, 0.2, 5},
		{25, 4, 0.2, 5},
		{26, 4, 0.2, 6},
		{2, 4, 0.2, 1},
		{10, 3, 0.5, 5},
	}
	for _, tt := range tests {
		if got := EliteCount(tt.n, tt.count, tt.fraction); got != tt.want {
			t.Errorf("EliteCount(%d, %d, %v) = %d, want %d", tt.n, tt.count, tt.fraction, got, tt.want)
		}
	}
}

func TestReinitPoolIgnoresEliteCount(t *testing.T) {
	// Default config shape: a fixed elite count and no fraction.
	e := NewEngine(Config{Strategy: Reinit, EliteCount: 4, StagnationThreshold: 50}, rand.New(rand.NewSource(3)))
	if got := e.PoolSize(24); got != 5 {
		t.Fatalf("PoolSize(24) = %d, want 5", got)
	}

	// Every gene of the brain at rank r equals r, so with no mutation each
	// child gene names the rank it came from.
	rng := rand.New(rand.NewSource(42))
	pop := make([]Scored, 24)
	for i := range pop {
		b := neural.NewBrain(rng, topo, neural.ReLU)
		for j := range b.Weights {
			b.Weights[j] = float32(i)
		}
		for j := range b.Biases {
			b.Biases[j] = float32(i)
		}
		pop[i] = Scored{Brain: b, Fitness: float32(1000 - 10*i)}
	}

	r, err := e.Generate(pop)
	if err != nil {
		t.Fatal(err)
	}
	if r.Reinitialized {
		t.Fatal("unexpected stagnation reset")
	}
	seen := make(map[float32]bool)
	for i, b := range r.Brains {
		for _, g := range b.Weights {
			if g < 0 || g > 4 {
				t.Fatalf("slot %d has a gene from rank %v", i, g)
			}
			seen[g] = true
		}
	}
	for rank := float32(0); rank <= 4; rank++ {
		if !seen[rank] {
			t.Errorf("rank %v never contributed a gene", rank)
		}
	}
}

func TestReinitStagnation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pop := newPopulation(rng, 10)
	for i := range pop {
		pop[i].Fitness = float32(i) * 5 // best is 45
	}

	e := NewEngine(Config{Strategy: Reinit, EliteCount: 4, StagnationThreshold: 50}, rand.New(rand.NewSource(1)))
	r, err := e.Generate(pop)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Reinitialized {
		t.Fatal("expected stagnation reset")
	}
	if len(r.Brains) != len(pop) {
		t.Fatalf("got %d brains, want %d", len(r.Brains), len(pop))
	}
	for i, b := range r.Brains {
		if b == pop[i].Brain {
			t.Errorf("slot %d kept its old brain", i)
		}
		if !b.SameShape(pop[i].Brain) {
			t.Errorf("slot %d changed shape", i)
		}
	}
}

func TestReinitBreedsEverySlot(t *testing.T) {
	pop := newPopulation(rand.New(rand.NewSource(42)), 10)
	pop[0].Fitness = 500

	e := NewEngine(Config{Strategy: Reinit, EliteCount: 4, StagnationThreshold: 50, MutationRate: 0.03}, rand.New(rand.NewSource(1)))
	r, err := e.Generate(pop)
	if err != nil {
		t.Fatal(err)
	}
	if r.Reinitialized {
		t.Fatal("unexpected stagnation reset")
	}
	if r.Elites != 0 {
		t.Errorf("Elites = %d, want 0", r.Elites)
	}
	for i, b := range r.Brains {
		for _, s := range pop {
			if b == s.Brain {
				t.Errorf("slot %d reuses an input brain", i)
			}
		}
	}
}

func TestSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := elitistEngine(1, 4)

	loaded := []*neural.Brain{
		neural.NewBrain(rng, topo, neural.ReLU),
		neural.NewBrain(rng, neural.Topology{Inputs: 3, Outputs: 2}, neural.ReLU), // wrong shape
		neural.NewBrain(rng, topo, neural.ReLU),
	}

	pop := e.Seed(loaded, 6, topo, neural.ReLU)
	if len(pop) != 6 {
		t.Fatalf("got %d brains, want 6", len(pop))
	}
	if pop[0] != loaded[0] || pop[1] != loaded[2] {
		t.Error("matching loaded brains should fill the first slots")
	}
	for i, b := range pop {
		if !b.Topology.Equal(topo) {
			t.Errorf("slot %d has topology %v", i, b.Topology.Layers())
		}
	}

	fresh := e.Seed(nil, 3, topo, neural.Tanh)
	if len(fresh) != 3 || fresh[0].Activation != neural.Tanh {
		t.Errorf("fresh seed = %d brains, activation %v", len(fresh), fresh[0].Activation)
	}
}

func TestSeedTruncatesLoaded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	loaded := []*neural.Brain{
		neural.NewBrain(rng, topo, neural.ReLU),
		neural.NewBrain(rng, topo, neural.ReLU),
		neural.NewBrain(rng, topo, neural.ReLU),
	}
	pop := elitistEngine(1, 1).Seed(loaded, 2, topo, neural.ReLU)
	if len(pop) != 2 || pop[0] != loaded[0] || pop[1] != loaded[1] {
		t.Error("Seed should keep only the first n loaded brains")
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy("reinit"); err != nil || s != Reinit {
		t.Errorf("ParseStrategy(reinit) = %v, %v", s, err)
	}
	if _, err := ParseStrategy("roulette"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func BenchmarkEvolve(b *testing.B) {
	pop := newPopulation(rand.New(rand.NewSource(42)), 24)
	e := elitistEngine(42, 4)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Evolve(pop)
	}
}
