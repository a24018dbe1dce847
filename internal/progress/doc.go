// Package progress reports the progress of a batch of saves or deletes.
//
// A Reporter is fed by storage events via Observe and by explicit failure
// reports from the caller. It writes to stderr so stdout stays reserved for
// the stored paths.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Operation:  "Saving",
//	    TotalFiles: len(files),
//	})
//	reporter.Observe(store)
//
//	reporter.Start()
//	defer reporter.Stop()
//
// # Output Format
//
//	[filekit] Saving 120 files (1.2 GiB)
//	[filekit] Progress: 45.0% | 54 / 120 files | 512 MiB | 1 failed
//	[filekit] Done: 119 succeeded | 1 failed | 1.2 GiB
//	[filekit] Total time: 1m 12s
package progress
