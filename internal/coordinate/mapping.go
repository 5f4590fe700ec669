package coordinate

import "github.com/nerrad567/waveform-core/internal/waveform"

// FromPoint splits p into its x record and its y record, in that order.
func FromPoint(p waveform.Point) [2]Coordinate {
	return [2]Coordinate{
		{Value: Truncate(p.X), Axis: AxisX},
		{Value: Truncate(p.Y), Axis: AxisY},
	}
}

// Truncate converts f to int16 by dropping the fractional part.
//
// There is no rounding and no range check. Values outside
// [-32768, 32767] (and NaN) produce an implementation-dependent result,
// so amplitudes must stay well inside the int16 range.
func Truncate(f float32) int16 {
	return int16(f)
}
