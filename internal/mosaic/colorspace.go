package mosaic

import (
	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a color triple with channel values in [0,255]. Values are floats
// because cell and palette colors are pixel averages, not pixel samples.
type RGB [3]float64

// Lab is a CIE L*a*b* triple on the conventional scale: L in [0,100],
// a and b roughly in [-128,127]. White (255,255,255) maps to (100,0,0).
type Lab [3]float64

// ToLab converts a batch of RGB triples to CIE LAB under the D65 illuminant.
//
// The pipeline is the standard one: sRGB channels are gamma-expanded to
// linear light (piecewise: c/12.92 below the 0.04045 knee, otherwise
// ((c+0.055)/1.055)^2.4), mapped to XYZ via the D65 matrix, and pushed
// through the CIE f(t) nonlinearity (cube root above t=0.008856, linear
// ramp below). go-colorful carries the colorimetry; this function batches
// it and rescales from go-colorful's [0,1] L range to the conventional
// [0,100] range.
//
// ToLab is pure and deterministic. Output ordering matches input ordering.
func ToLab(batch []RGB) []Lab {
	out := make([]Lab, len(batch))
	for i, c := range batch {
		col := colorful.Color{R: c[0] / 255.0, G: c[1] / 255.0, B: c[2] / 255.0}
		l, a, b := col.Lab()
		out[i] = Lab{l * 100.0, a * 100.0, b * 100.0}
	}
	return out
}
