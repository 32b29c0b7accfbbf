package utils

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// MemUsage is the heap usage of the process as a log field.
func MemUsage() zap.Field {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return zap.String("memory", fmt.Sprintf("Alloc = %v MiB TotalAlloc = %v MiB Sys = %v MiB NumGC = %v",
		bToMb(m.Alloc), bToMb(m.TotalAlloc), bToMb(m.Sys), m.NumGC))
}

// IsNan reports whether A holds a NaN.
func IsNan(A any) bool {
	switch v := A.(type) {
	case float64:
		return math.IsNaN(v)
	case []float64:
		for _, f := range v {
			if math.IsNaN(f) {
				return true
			}
		}
	case []complex128:
		for _, c := range v {
			if math.IsNaN(real(c)) || math.IsNaN(imag(c)) {
				return true
			}
		}
	case mat.Matrix:
		r, c := v.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if math.IsNaN(v.At(i, j)) {
					return true
				}
			}
		}
	}
	return false
}
