package metrics

// Record represents a single metric measurement with its metadata.
// It contains the metric definition, measured value, count (for averaging),
// and associated dimensions for labeling.
type Record struct {
	metrics    Metrics   // The metric being recorded
	value      Value     // The measured value
	cnt        int       // Count of values (used for averaging calculations)
	dimensions Dimension // Key-value pairs for metric labeling
}

// Clone creates a deep copy of the Record with all its fields and dimensions.
func (r *Record) Clone() *Record {
	cp := &Record{
		metrics: r.metrics,
		value:   r.value,
		cnt:     r.cnt,
	}
	cp.dimensions = make(Dimension, len(r.dimensions))
	for k, v := range r.dimensions {
		cp.dimensions[k] = v
	}
	return cp
}

// SetMetrics sets the metric definition for this record.
func (r *Record) SetMetrics(m Metrics) {
	r.metrics = m
}

// SetValue sets the measured value for this record.
func (r *Record) SetValue(v Value) {
	r.value = v
}

// SetDimension sets the dimensions (labels) for this record.
func (r *Record) SetDimension(d Dimension) {
	r.dimensions = d
}

// Metrics returns the metric definition associated with this record.
func (r *Record) Metrics() Metrics {
	return r.metrics
}

// Value returns the processed value based on the metric's aggregation policy.
// For Policy_Avg it returns the average value (value/count); for other
// policies it returns the raw value.
func (r *Record) Value() Value {
	if r.metrics.Policy() == Policy_Avg && r.cnt != 0 {
		return r.value / Value(r.cnt)
	}
	return r.value
}

// RawData returns the raw value and count without any processing.
// This is useful for aggregation operations that need the underlying data.
func (r *Record) RawData() (Value, int) {
	return r.value, r.cnt
}

// Dimensions returns the key-value pairs used for metric labeling.
func (r *Record) Dimensions() map[string]string {
	return r.dimensions
}
