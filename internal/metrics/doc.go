// Package metrics records run, stage, file and translation metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	type Runner struct {
//	    recorder metrics.Recorder
//	}
//
// When metrics are enabled the CLI swaps in a PrometheusRecorder bound to its
// own registry. A batch run writes the registry to a node_exporter textfile
// after it finishes (WriteTextfile); the schedule command can additionally
// serve it over HTTP (HTTPHandler).
package metrics
