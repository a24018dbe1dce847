// Package http fetches remote sources over HTTP so the CLI can store URLs
// the same way it stores local files.
//
// Requests are retried with exponential backoff and jitter on connection
// errors and 5xx responses. Client errors (404, 403, 401) fail immediately.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	// Download into a temp dir, keeping the remote file name
//	fetched, err := client.Fetch(ctx, "https://example.com/photo.jpg", tmpDir)
//	// fetched.Path == tmpDir + "/photo.jpg"
package http
