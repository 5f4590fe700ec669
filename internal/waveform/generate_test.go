package waveform

import (
	"math"
	"testing"
)

const tolerance = 1e-4

func TestGenerate_Scenario(t *testing.T) {
	got := Generate(2.0, 0.1, 0.0, 3)

	// 2*sin(0.1) and 2*sin(0.2).
	want := []Point{{0, 0}, {1, 0.1997}, {2, 0.3973}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].X != want[i].X {
			t.Errorf("point %d: X = %v, want %v", i, got[i].X, want[i].X)
		}
		if math.Abs(float64(got[i].Y-want[i].Y)) > tolerance {
			t.Errorf("point %d: Y = %v, want %v", i, got[i].Y, want[i].Y)
		}
		// Every y in this scenario truncates to zero.
		if y := int16(got[i].Y); y != 0 {
			t.Errorf("point %d: int16(Y) = %d, want 0", i, y)
		}
	}
}

func TestGenerate_Properties(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"default", Params{Amplitude: 2.0, Frequency: 0.1, Phase: 0, Count: 10}},
		{"phase shifted", Params{Amplitude: 5, Frequency: 0.5, Phase: 1.2, Count: 25}},
		{"negative amplitude", Params{Amplitude: -3, Frequency: 1, Phase: 0, Count: 7}},
		{"zero frequency", Params{Amplitude: 4, Frequency: 0, Phase: math.Pi / 2, Count: 4}},
		{"single sample", Params{Amplitude: 1, Frequency: 1, Phase: 0, Count: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			got := p.Generate()

			if len(got) != p.Count {
				t.Fatalf("len = %d, want %d", len(got), p.Count)
			}
			for i, pt := range got {
				if pt.X != float32(i) {
					t.Errorf("point %d: X = %v, want %d", i, pt.X, i)
				}
				want := float64(p.Amplitude) * math.Sin(float64(p.Frequency)*float64(i)+float64(p.Phase))
				if math.Abs(float64(pt.Y)-want) > tolerance*math.Max(1, math.Abs(float64(p.Amplitude))) {
					t.Errorf("point %d: Y = %v, want %v", i, pt.Y, want)
				}
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(2.5, 0.37, 0.2, 50)
	b := Generate(2.5, 0.37, 0.2, 50)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGenerate_EmptyCounts(t *testing.T) {
	for _, count := range []int{0, -1} {
		got := Generate(1, 1, 0, count)
		if got == nil || len(got) != 0 {
			t.Errorf("Generate(count=%d) = %v, want empty non-nil slice", count, got)
		}
	}
}
