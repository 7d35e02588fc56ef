package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/orbs/components"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func target(id uint32, x, y, r float32) Entry {
	return Entry{ID: id, Kind: components.KindTarget, X: x, Y: y, Radius: r}
}

func TestRayCircleScenario(t *testing.T) {
	d, ok := RayCircle(0, 0, 1, 0, 50, 0, 5, 100)
	if !ok || !approx(d, 45) {
		t.Errorf("+X ray: got (%v, %v), want (45, true)", d, ok)
	}

	if _, ok := RayCircle(0, 0, 0, 1, 50, 0, 5, 100); ok {
		t.Error("+Y ray should miss")
	}
}

func TestRayCircleCases(t *testing.T) {
	tests := []struct {
		name   string
		cx, cy float32
		r      float32
		want   float32
		hit    bool
	}{
		{"behind origin", -50, 0, 5, 0, false},
		{"beyond range", 150, 0, 5, 0, false},
		{"grazing", 50, 5, 5, 50, true},
		{"just outside", 50, 5.01, 5, 0, false},
		{"off axis chord", 40, 3, 5, 36, true},
		{"origin inside", 2, 0, 5, 0, true},
	}
	for _, tt := range tests {
		d, ok := RayCircle(0, 0, 1, 0, tt.cx, tt.cy, tt.r, 100)
		if ok != tt.hit || (ok && !approx(d, tt.want)) {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", tt.name, d, ok, tt.want, tt.hit)
		}
	}
}

func TestRaycastPerception(t *testing.T) {
	p := NewRaycastPerception(4, 100)
	self := Observer{ID: 1, X: 0, Y: 0, Radius: 20}
	nearby := []Entry{target(2, 50, 0, 5)}

	var out components.Perception
	p.Perceive(self, nearby, &out)

	if len(out.Inputs) != 4 || len(out.Rays) != 4 {
		t.Fatalf("got %d inputs and %d rays, want 4 each", len(out.Inputs), len(out.Rays))
	}
	if !approx(out.Inputs[0], 0.45) {
		t.Errorf("+X ray = %v, want 0.45", out.Inputs[0])
	}
	for k := 1; k < 4; k++ {
		if out.Inputs[k] != 0 {
			t.Errorf("ray %d = %v, want 0", k, out.Inputs[k])
		}
		if out.Rays[k].Hit {
			t.Errorf("ray %d reported a hit", k)
		}
	}
	if !out.Rays[0].Hit || !approx(out.Rays[0].EndX, 45) || !approx(out.Rays[0].EndY, 0) {
		t.Errorf("ray 0 hit = %+v, want hit at (45, 0)", out.Rays[0])
	}
	if !approx(out.Rays[1].EndY, 100) {
		t.Errorf("missed ray 1 should end at vision range, got %+v", out.Rays[1])
	}
}

func TestRaycastNearestHitWins(t *testing.T) {
	p := NewRaycastPerception(1, 100)
	nearby := []Entry{
		target(2, 60, 0, 5),
		target(3, 30, 0, 5),
	}
	in := GatherInputs(p, Observer{ID: 1}, nearby)
	if !approx(in[0], 0.25) {
		t.Errorf("ray = %v, want 0.25", in[0])
	}
}

func TestRaycastIgnoresNonTargets(t *testing.T) {
	p := NewRaycastPerception(1, 100)
	nearby := []Entry{
		{ID: 2, Kind: components.KindOrb, X: 30, Y: 0, Radius: 20},
		{ID: 3, Kind: components.KindTarget, X: float32(math.NaN()), Y: 0, Radius: 5},
		{ID: 4, Kind: components.KindTarget, X: 40, Y: 0, Radius: -1},
	}
	in := GatherInputs(p, Observer{ID: 1}, nearby)
	if in[0] != 0 {
		t.Errorf("ray = %v, want 0", in[0])
	}
}

func TestRaycastDeterministic(t *testing.T) {
	p := NewRaycastPerception(16, 200)
	nearby := randomEntries(newTestRand(), 100)
	self := Observer{ID: 1000, X: 400, Y: 300}

	a := GatherInputs(p, self, nearby)
	b := GatherInputs(p, self, nearby)
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("ray %d differs between identical calls", i)
		}
		if a[i] < 0 || a[i] > 1 {
			t.Fatalf("ray %d = %v outside [0, 1]", i, a[i])
		}
	}
}

func TestRaycastReusesBuffers(t *testing.T) {
	p := NewRaycastPerception(8, 100)
	var out components.Perception
	p.Perceive(Observer{}, nil, &out)
	first := &out.Inputs[0]
	p.Perceive(Observer{}, nil, &out)
	if &out.Inputs[0] != first {
		t.Error("Perceive reallocated a buffer that was large enough")
	}
}

func TestNearestPerception(t *testing.T) {
	p := &NearestPerception{Targets: 2, VisionRange: 200, Width: 100, Height: 100, Sentinel: -1}
	self := Observer{ID: 1, X: 50, Y: 50, WallContact: true}
	nearby := []Entry{
		{ID: 2, Kind: components.KindOrb, X: 90, Y: 90},
		{ID: 3, Kind: components.KindOrb, X: 60, Y: 50},
		target(4, 10, 10, 5),
		target(5, 55, 55, 5),
		target(6, 45, 45, 5), // same distance as 5, discovered later
	}

	in := GatherInputs(p, self, nearby)
	want := []float32{1, 0.5, 0.5, 0.6, 0.5, 0.55, 0.55, 0.45, 0.45}
	if len(in) != p.InputSize() {
		t.Fatalf("got %d inputs, want %d", len(in), p.InputSize())
	}
	for i := range want {
		if !approx(in[i], want[i]) {
			t.Errorf("input %d = %v, want %v", i, in[i], want[i])
		}
	}
}

func TestNearestPerceptionPadding(t *testing.T) {
	p := &NearestPerception{Targets: 3, VisionRange: 200, Width: 100, Height: 100, Sentinel: -1}
	self := Observer{ID: 1, X: 20, Y: 80}
	nearby := []Entry{
		{ID: 1, Kind: components.KindOrb, X: 20, Y: 80}, // self
		target(2, 150, -10, 5),
	}

	in := GatherInputs(p, self, nearby)
	want := []float32{0, 0.2, 0.8, -1, -1, 1, 0, -1, -1, -1, -1}
	if len(in) != len(want) {
		t.Fatalf("got %d inputs, want %d", len(in), len(want))
	}
	for i := range want {
		if !approx(in[i], want[i]) {
			t.Errorf("input %d = %v, want %v", i, in[i], want[i])
		}
	}
}

func TestNearestPerceptionVisionRange(t *testing.T) {
	p := &NearestPerception{Targets: 2, VisionRange: 50, Width: 1000, Height: 1000, Sentinel: -1}
	self := Observer{ID: 1, X: 100, Y: 100, Radius: 5}
	entries := []Entry{
		{ID: 1, Kind: components.KindOrb, X: 100, Y: 100, Radius: 5},
		{ID: 2, Kind: components.KindOrb, X: 600, Y: 600, Radius: 5},
		target(3, 900, 900, 5),
		target(4, 950, 100, 5),
		target(5, 130, 100, 5),
	}
	want := []float32{0, 0.1, 0.1, -1, -1, 0.13, 0.1, -1, -1}

	// Same entities, one tree that never splits and one that does.
	for _, capacity := range []int{100, 1} {
		tree := NewQuadTree(Rect{W: 1000, H: 1000}, capacity, 6)
		for _, e := range entries {
			tree.Insert(e)
		}
		nearby := tree.RetrieveRadius(nil, self.X, self.Y, p.QueryRadius(), NoExclude)
		in := GatherInputs(p, self, nearby)
		for i := range want {
			if !approx(in[i], want[i]) {
				t.Errorf("capacity %d: input %d = %v, want %v", capacity, i, in[i], want[i])
			}
		}
	}
}

func TestInsertRankedStable(t *testing.T) {
	var best []ranked
	for i, d := range []float32{5, 1, 5, 3, 1, 9} {
		best = insertRanked(best, ranked{e: Entry{ID: uint32(i)}, d2: d}, 4)
	}
	wantIDs := []uint32{1, 4, 3, 0}
	for i, id := range wantIDs {
		if best[i].e.ID != id {
			t.Errorf("slot %d = entry %d, want %d", i, best[i].e.ID, id)
		}
	}
}

func BenchmarkRaycast(b *testing.B) {
	p := NewRaycastPerception(16, 200)
	nearby := randomEntries(newTestRand(), 40)
	var out components.Perception
	self := Observer{ID: 1000, X: 400, Y: 300}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Perceive(self, nearby, &out)
	}
}
