// Package noise implements the 2D simplex gradient noise primitive and the
// four-octave fractal sum used for heightmap generation. Both functions are
// pure and deterministic; the gradient selection uses a closed-form
// polynomial permutation instead of a lookup table, which makes the field
// tileable with period 289 lattice cells.
package noise

import "math"

// Skew/unskew constants for the 2D simplex lattice and the gradient
// derivation. Calibrated values; changing any of them shifts the output
// range or breaks continuity at cell boundaries.
const (
	unskew   = 0.211324865405187  // (3 - sqrt(3)) / 6
	skew     = 0.366025403784439  // (sqrt(3) - 1) / 2
	unskew2  = -0.577350269189626 // -1 + 2 * unskew
	gradStep = 0.024390243902439  // 1 / 41
)

// mod289 wraps x into [0, 289). Keeping lattice coordinates in this range
// bounds the intermediate values of the permutation polynomial so they stay
// exactly representable in a float64.
func mod289(x float64) float64 {
	return x - math.Floor(x*(1.0/289.0))*289.0
}

// permute is the gradient-selector hash h(x) = (x*x*34 + x) mod 289.
func permute(x float64) float64 {
	return mod289((x*34.0 + 1.0) * x)
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

// Simplex evaluates 2D simplex gradient noise at (x, y) and returns a value
// in [0, 1]. Same input always yields the bit-identical output.
func Simplex(x, y float64) float64 {
	// Skew the input into the triangular lattice and locate the cell origin.
	s := (x + y) * skew
	ix := math.Floor(x + s)
	iy := math.Floor(y + s)

	// Unskew back to get the offset from the cell origin (corner 0).
	t := (ix + iy) * unskew
	x0 := x - ix + t
	y0 := y - iy + t

	// Middle corner: (1,0) in the lower triangle, (0,1) in the upper.
	var i1x, i1y float64
	if x0 >= y0 {
		i1x, i1y = 1.0, 0.0
	} else {
		i1x, i1y = 0.0, 1.0
	}

	x1 := x0 + unskew - i1x
	y1 := y0 + unskew - i1y
	x2 := x0 + unskew2
	y2 := y0 + unskew2

	// Wrap the cell so the permutation stays in a safe numeric range.
	gx := mod289(ix)
	gy := mod289(iy)

	p0 := permute(permute(gy) + gx)
	p1 := permute(permute(gy+i1y) + gx + i1x)
	p2 := permute(permute(gy+1.0) + gx + 1.0)

	sum := corner(p0, x0, y0) + corner(p1, x1, y1) + corner(p2, x2, y2)

	return 0.5 + 65.0*sum
}

// corner computes one simplex corner's contribution: a quartic falloff
// weight times the pseudo-random gradient dotted with the corner offset.
func corner(p, ox, oy float64) float64 {
	m := 0.5 - (ox*ox + oy*oy)
	if m < 0 {
		return 0
	}
	m = m * m
	m = m * m

	g := 2.0*fract(p*gradStep) - 1.0
	h := math.Abs(g) - 0.5
	a0 := g - math.Floor(g+0.5)

	// Renormalizes the gradient so the full sum lands in [-1, 1].
	m *= 1.79284291400159 - 0.85373472095314*(a0*a0+h*h)

	return m * (a0*ox + h*oy)
}
