package systems

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
)

// maxSpawnAttempts bounds rejection sampling in clustered mode.
const maxSpawnAttempts = 64

// SpawnField picks spawn positions inside the arena. In clustered mode a
// simplex noise density makes targets bunch into patches.
type SpawnField struct {
	area      Rect
	margin    float32
	clustered bool
	scale     float64
	contrast  float64
	noise     opensimplex.Noise
}

// NewSpawnField creates a field over area. Positions keep margin away from
// the edges. scale is the noise frequency and contrast the exponent applied to
// the normalized noise (higher = tighter patches).
func NewSpawnField(seed int64, area Rect, margin float32, clustered bool, scale, contrast float64) *SpawnField {
	if contrast <= 0 {
		contrast = 1
	}
	return &SpawnField{
		area:      area,
		margin:    margin,
		clustered: clustered,
		scale:     scale,
		contrast:  contrast,
		noise:     opensimplex.NewNormalized(seed),
	}
}

// Density returns the relative spawn likelihood at a point, in [0, 1].
func (f *SpawnField) Density(x, y float32) float64 {
	if !f.clustered {
		return 1
	}
	n := f.noise.Eval2(float64(x)*f.scale, float64(y)*f.scale)
	return math.Pow(n, f.contrast)
}

// Sample draws a position using rng.
func (f *SpawnField) Sample(rng *rand.Rand) (x, y float32) {
	x, y = f.uniform(rng)
	if !f.clustered {
		return x, y
	}
	for i := 0; i < maxSpawnAttempts; i++ {
		if rng.Float64() < f.Density(x, y) {
			return x, y
		}
		x, y = f.uniform(rng)
	}
	return x, y
}

func (f *SpawnField) uniform(rng *rand.Rand) (float32, float32) {
	w := f.area.W - 2*f.margin
	h := f.area.H - 2*f.margin
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	x := f.area.X + f.margin + rng.Float32()*w
	y := f.area.Y + f.margin + rng.Float32()*h
	return x, y
}

// Clustered reports whether the field uses noise density.
func (f *SpawnField) Clustered() bool { return f.clustered }

// Rasterize samples Density at the center of each cell of a cols x rows grid
// laid over the area, row-major, reusing dst when it is large enough.
func (f *SpawnField) Rasterize(cols, rows int, dst []float32) []float32 {
	if cols <= 0 || rows <= 0 {
		return dst[:0]
	}
	n := cols * rows
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	cellW := f.area.W / float32(cols)
	cellH := f.area.H / float32(rows)
	for y := 0; y < rows; y++ {
		wy := f.area.Y + (float32(y)+0.5)*cellH
		for x := 0; x < cols; x++ {
			wx := f.area.X + (float32(x)+0.5)*cellW
			dst[y*cols+x] = float32(f.Density(wx, wy))
		}
	}
	return dst
}
