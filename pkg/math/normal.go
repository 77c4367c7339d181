package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalElem is the set of element types a stored unit normal may use.
// int8 normals are quantized with a scale of 127.
type NormalElem interface {
	~int8 | ~float32 | ~float64
}

// NormalScale is the quantization scale used for int8 normals.
const NormalScale = 127.0

// Normal3 is a unit normal stored with element type N.
type Normal3[N NormalElem] [3]N

// QuantizeNormal stores the unit vector n in a Normal3[N].
func QuantizeNormal[N NormalElem](n mgl64.Vec3) Normal3[N] {
	var out Normal3[N]
	var zero N
	_, quantized := any(zero).(int8)
	for i := range out {
		if quantized {
			out[i] = N(math.Round(n[i] * NormalScale))
		} else {
			out[i] = N(n[i])
		}
	}
	return out
}

// Vec64 decodes the normal back to a float64 vector. Quantized normals are
// not renormalized here; callers normalize after interpolation.
func (n Normal3[N]) Vec64() mgl64.Vec3 {
	var zero N
	scale := 1.0
	if _, quantized := any(zero).(int8); quantized {
		scale = 1.0 / NormalScale
	}
	return mgl64.Vec3{float64(n[0]) * scale, float64(n[1]) * scale, float64(n[2]) * scale}
}
