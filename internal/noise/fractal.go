package noise

// octaveWeights are the fixed per-octave amplitudes of the fractal sum.
// They total 0.9375, which the final rescale maps into [0.3, 0.76875].
var octaveWeights = [4]float64{0.5, 0.25, 0.125, 0.0625}

// Octave transform between successive octaves. Not a true rotation; a
// calibrated scale+shear chosen to decorrelate octave lattice alignment.
const (
	octaveXX = 1.6
	octaveXY = 1.0
	octaveYX = -1.0
	octaveYY = 1.6
)

// Fractal evaluates the four-octave fractal sum of Simplex at (x, y) and
// returns a value in [0.3, 0.76875]. Each octave samples at the previous
// coordinate transformed by the fixed octave matrix.
func Fractal(x, y float64) float64 {
	return fractalSum(Simplex, x, y)
}

// fractalSum folds the octave weights over an arbitrary sampler so the
// accumulation scheme can be exercised independently of the primitive.
func fractalSum(sample func(x, y float64) float64, x, y float64) float64 {
	sum := 0.0
	for _, w := range octaveWeights {
		sum += w * sample(x, y)
		x, y = octaveXX*x+octaveXY*y, octaveYX*x+octaveYY*y
	}
	return 0.3 + 0.5*sum
}
