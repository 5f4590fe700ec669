package waveform

import "math"

// Point is one generated sample.
type Point struct {
	X float32
	Y float32
}

// Params describes a sine wave and how many samples to take from it.
type Params struct {
	Amplitude float32
	Frequency float32
	Phase     float32
	Count     int
}

// Generate returns the sequence described by p.
func (p Params) Generate() []Point {
	return Generate(p.Amplitude, p.Frequency, p.Phase, p.Count)
}

// Generate returns count samples of amplitude*sin(frequency*x + phase) for
// x = 0, 1, ..., count-1. A non-positive count yields an empty sequence.
//
// The argument is computed in float32 and widened only for math.Sin, so
// results match a single-precision implementation.
func Generate(amplitude, frequency, phase float32, count int) []Point {
	if count <= 0 {
		return []Point{}
	}

	points := make([]Point, count)
	for i := range points {
		x := float32(i)
		points[i] = Point{
			X: x,
			Y: amplitude * float32(math.Sin(float64(frequency*x+phase))),
		}
	}
	return points
}
