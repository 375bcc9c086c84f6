package utils

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func Vec3To32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func Vec3sTo32(in []mgl64.Vec3) [][3]float32 {
	out := make([][3]float32, len(in))
	for i, v := range in {
		out[i] = Vec3To32(v)
	}
	return out
}

func Mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func Mat4sTo32(in []mgl64.Mat4) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(in))
	for i, m := range in {
		out[i] = Mat4To32(m)
	}
	return out
}
