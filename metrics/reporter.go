package metrics

var _Reporters []Reporter

// Reporter ships finished records to a backend. The daemon registers the
// reporter plugins configured at startup; a build without any reporter
// still counts, it just reports nowhere.
type Reporter interface {
	Report(r Record)
}

// publish fans a record out to every registered reporter. Counters and
// gauges both go through here so reporter registration is the single
// point of control.
func publish(r Record) {
	for _, reporter := range _Reporters {
		reporter.Report(r)
	}
}
