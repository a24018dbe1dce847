package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitSourceNotAccess = 3
	ExitStorageError    = 5
	ExitPartialFailure  = 8
)

// stdout receives command results (stored paths, URLs, shard indexes).
// Status lines go to stderr.
var stdout io.Writer = os.Stdout

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "save":
		return runSave(cmdArgs)
	case "delete":
		return runDelete(cmdArgs)
	case "shard":
		return runShard(cmdArgs)
	case "url":
		return runURL(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: filekit <command> [options]

Commands:
  save      Store local files or HTTP URLs in sharded directories
  delete    Remove stored objects
  shard     Print the shard index the next save will use
  url       Print the public URL of stored objects

Run 'filekit <command> -h' for command-specific help.`)
}
