// Package config defines configuration structures for the filekit CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (FILEKIT_ prefix)
//   - YAML configuration file
//
// Later sources override earlier ones: defaults, file, environment, flags.
//
// # Example
//
//	bucket: s3://uploads?region=eu-west-1
//	base_url: https://cdn.example.com/uploads
//	max_dir_files: 10000
//	namer: uuid
//	lock:
//	  redis_addr: localhost:6379
//	  ttl: 10s
//	fetch:
//	  timeout: 2m
//	  retry:
//	    attempts: 5
//	    backoff: 500ms
package config
