package metrics

// Counter accumulates monotonically: received datagrams, dropped
// commands, evicted logs, skipped dump entries.
type Counter interface {
	Metrics
	// IncrWithDim adds delta under the given dimensions.
	IncrWithDim(delta Value, dimensions Dimension)
	// Incr adds delta without dimensions.
	Incr(delta Value)
}

type counter struct {
	name  string
	group string
}

func (c *counter) Name() string {
	return c.name
}

func (c *counter) Group() string {
	return c.group
}

// Policy returns Policy_Sum; deltas from the same counter aggregate by
// addition.
func (c *counter) Policy() Policy {
	return Policy_Sum
}

func (c *counter) Incr(v Value) {
	c.IncrWithDim(v, nil)
}

func (c *counter) IncrWithDim(v Value, dimensions Dimension) {
	publish(Record{
		metrics:    c,
		value:      v,
		dimensions: dimensions,
	})
}
