package metrics

// Gauge tracks a point-in-time value that moves both ways, such as log
// buffer occupancy.
type Gauge interface {
	Metrics
	// Update sets the gauge's absolute value.
	Update(value Value)
	// UpdateWithDim sets the gauge's absolute value under the given
	// dimensions.
	UpdateWithDim(value Value, dimensions Dimension)
}

type gauge struct {
	name  string
	group string
}

func (g *gauge) Name() string {
	return g.name
}

func (g *gauge) Group() string {
	return g.group
}

// Policy returns Policy_Set; the newest sample overwrites earlier ones.
func (g *gauge) Policy() Policy {
	return Policy_Set
}

func (g *gauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

func (g *gauge) UpdateWithDim(v Value, dimensions Dimension) {
	publish(Record{
		metrics:    g,
		value:      v,
		dimensions: dimensions,
	})
}
