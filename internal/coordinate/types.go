package coordinate

// Axis tags which component of a point a record holds.
type Axis string

// Axis tags. No other values are ever persisted.
const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Valid reports whether a is one of the two axis tags.
func (a Axis) Valid() bool {
	return a == AxisX || a == AxisY
}

// Coordinate is one persisted value on one axis.
type Coordinate struct {
	Value int16 `json:"value"`
	Axis  Axis  `json:"axis"`
}

// fields lists the persisted columns in declaration order. Insert binds
// arguments and reads results in this order.
var fields = []string{"value", "axis"}

func (c Coordinate) args() []any {
	return []any{int64(c.Value), string(c.Axis)}
}
