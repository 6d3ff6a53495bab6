// Package cmd implements the command-line interface of dht. It provides
// a command to run the server and commands to talk to it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the dht server
//   - kv: One-shot key-value operations (get, set, del) and a load generator (perf)
//   - repl: Interactive client with line editing and history
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dht --help for a list of all commands.
package cmd
