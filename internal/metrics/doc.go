// Package metrics exposes Prometheus counters for a filekit.Storage.
//
// Metrics are fed by storage events, so any Storage can be instrumented
// without changes to the library:
//
//	m, err := metrics.New(prometheus.NewRegistry(), "s3://uploads")
//	m.Observe(store)
//	...
//	m.RecordSaveResults(results)
//	m.WriteToTextfile("/var/lib/node_exporter/filekit.prom")
//
// The CLI writes the textfile format so runs can be picked up by the node
// exporter textfile collector.
package metrics
