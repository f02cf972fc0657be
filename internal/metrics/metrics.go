// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on the /debug/vars HTTP endpoint served by the API.
package metrics

import "expvar"

// Pipeline counters.
var (
	LoadsTotal        = expvar.NewInt("marquee_loads_total")
	LoadFailuresTotal = expvar.NewInt("marquee_load_failures_total")
	RowsRead          = expvar.NewInt("marquee_rows_read_total")
	RowsDropped       = expvar.NewInt("marquee_rows_dropped_total")
	DiagnosticsTotal  = expvar.NewInt("marquee_diagnostics_total")
	GraphPushesTotal  = expvar.NewInt("marquee_graph_pushes_total")
)

// Gauges describing the current model.
var (
	Productions = expvar.NewInt("marquee_productions")
	Lanes       = expvar.NewInt("marquee_lanes")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
