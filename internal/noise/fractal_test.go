package noise

import (
	"math"
	"testing"
)

func TestFractalRange(t *testing.T) {
	for yi := 0; yi < 200; yi++ {
		for xi := 0; xi < 200; xi++ {
			x := -10.0 + float64(xi)*0.1003
			y := -10.0 + float64(yi)*0.1007
			v := Fractal(x, y)
			if v < 0.3 || v > 0.76875 {
				t.Fatalf("Fractal(%v, %v) = %v, want within [0.3, 0.76875]", x, y, v)
			}
		}
	}
}

func TestFractalDeterministic(t *testing.T) {
	points := [][2]float64{{0, 0}, {0.3, 0.7}, {2.5, 1.25}, {-4, 3}}
	for _, p := range points {
		if a, b := Fractal(p[0], p[1]), Fractal(p[0], p[1]); a != b {
			t.Errorf("Fractal(%v, %v) not bit-identical: %v != %v", p[0], p[1], a, b)
		}
	}
}

func TestFractalKnownValues(t *testing.T) {
	tests := []struct {
		x, y float64
		want float64
	}{
		// (0,0) is a fixed point of the octave transform: every octave
		// samples the lattice corner value 0.5, so the result is exactly
		// 0.3 + 0.5*0.9375*0.5.
		{0.0, 0.0, 0.534375},
		{0.3, 0.7, 0.4932370633},
		{2.5, 1.25, 0.4536105781},
		{-4.0, 3.0, 0.4256512165},
	}
	for _, tt := range tests {
		got := Fractal(tt.x, tt.y)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Fractal(%v, %v) = %.10f, want %.10f", tt.x, tt.y, got, tt.want)
		}
	}
}

// TestFractalOctaveWeights feeds a sampler that responds on exactly one
// octave and checks each octave carries its specified weight, in decreasing
// order of influence.
func TestFractalOctaveWeights(t *testing.T) {
	wantWeights := [4]float64{0.5, 0.25, 0.125, 0.0625}

	for active, want := range wantWeights {
		call := 0
		sample := func(x, y float64) float64 {
			c := call
			call++
			if c == active {
				return 1.0
			}
			return 0.0
		}
		got := fractalSum(sample, 1.0, 2.0)
		if math.Abs(got-(0.3+0.5*want)) > 1e-15 {
			t.Errorf("octave %d contribution = %v, want %v", active, got-0.3, 0.5*want)
		}
	}
}

// TestFractalOctaveCoordinates verifies the fixed linear transform applied
// between octaves: (x, y) -> (1.6x + y, -x + 1.6y).
func TestFractalOctaveCoordinates(t *testing.T) {
	var coords [][2]float64
	sample := func(x, y float64) float64 {
		coords = append(coords, [2]float64{x, y})
		return 0.0
	}
	fractalSum(sample, 1.0, 2.0)

	want := [][2]float64{
		{1.0, 2.0},
		{1.6*1.0 + 2.0, -1.0 + 1.6*2.0},
	}
	want = append(want,
		[2]float64{1.6*want[1][0] + want[1][1], -want[1][0] + 1.6*want[1][1]})
	want = append(want,
		[2]float64{1.6*want[2][0] + want[2][1], -want[2][0] + 1.6*want[2][1]})

	if len(coords) != 4 {
		t.Fatalf("sampler called %d times, want 4", len(coords))
	}
	for i := range want {
		if coords[i] != want[i] {
			t.Errorf("octave %d coordinate = %v, want %v", i, coords[i], want[i])
		}
	}
}
