package systems

import (
	"math/rand"
	"testing"
)

func TestSpawnFieldUniformBounds(t *testing.T) {
	f := NewSpawnField(1, arena, 10, false, 0.01, 2)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		x, y := f.Sample(rng)
		if x < 10 || x > arena.W-10 || y < 10 || y > arena.H-10 {
			t.Fatalf("sample (%v, %v) outside margin", x, y)
		}
	}
	if f.Density(100, 100) != 1 {
		t.Error("uniform density should be 1")
	}
}

func TestSpawnFieldClustered(t *testing.T) {
	f := NewSpawnField(7, arena, 10, true, 0.01, 2)

	for x := float32(0); x < arena.W; x += 37 {
		for y := float32(0); y < arena.H; y += 41 {
			if d := f.Density(x, y); d < 0 || d > 1 {
				t.Fatalf("Density(%v, %v) = %v outside [0, 1]", x, y, d)
			}
		}
	}

	a := rand.New(rand.NewSource(3))
	b := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		ax, ay := f.Sample(a)
		bx, by := f.Sample(b)
		if ax != bx || ay != by {
			t.Fatalf("sample %d differs for the same seed", i)
		}
		if !arena.Contains(ax, ay) {
			t.Fatalf("sample (%v, %v) outside arena", ax, ay)
		}
	}
}

func TestSpawnFieldRasterize(t *testing.T) {
	uniform := NewSpawnField(1, arena, 10, false, 0.01, 2)
	if uniform.Clustered() {
		t.Error("uniform field reports clustered")
	}
	grid := uniform.Rasterize(8, 4, nil)
	if len(grid) != 32 {
		t.Fatalf("len = %d, want 32", len(grid))
	}
	for i, v := range grid {
		if v != 1 {
			t.Fatalf("cell %d = %v, want 1", i, v)
		}
	}

	clustered := NewSpawnField(7, arena, 10, true, 0.01, 2)
	reuse := make([]float32, 0, 64)
	grid = clustered.Rasterize(8, 4, reuse)
	if &grid[0] != &reuse[:1][0] {
		t.Error("Rasterize did not reuse dst")
	}
	cellW, cellH := arena.W/8, arena.H/4
	want := float32(clustered.Density(arena.X+2.5*cellW, arena.Y+1.5*cellH))
	if grid[1*8+2] != want {
		t.Errorf("cell (2,1) = %v, want %v", grid[1*8+2], want)
	}

	if got := clustered.Rasterize(0, 4, grid); len(got) != 0 {
		t.Errorf("zero columns gave %d cells", len(got))
	}
}
