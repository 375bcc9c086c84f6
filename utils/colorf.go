package utils

import "image/color"

type ColorFloat [4]float32

func (c *ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float32(256*256 - 1)
	r = uint32(c[0] * mf)
	g = uint32(c[1] * mf)
	b = uint32(c[2] * mf)
	a = uint32(c[3] * mf)
	return
}

func NewColorFloat(c []float32) ColorFloat {
	return ColorFloat{c[0], c[1], c[2], 1.0}
}

// Lerp mixes c towards to, t is clamped to [0, 1].
func (c ColorFloat) Lerp(to ColorFloat, t float32) ColorFloat {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	var result ColorFloat
	for i := range result {
		result[i] = c[i] + (to[i]-c[i])*t
	}
	return result
}

func (c ColorFloat) NRGBA() color.NRGBA {
	const m = float32(255)
	return color.NRGBA{
		R: uint8(c[0]*m + 0.5),
		G: uint8(c[1]*m + 0.5),
		B: uint8(c[2]*m + 0.5),
		A: uint8(c[3]*m + 0.5),
	}
}
