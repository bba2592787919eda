// Package cmd implements the command-line interface for the kLock keyed
// mutual-exclusion library. The library itself is a pure in-process Go
// API with no external surface, the CLI exists for exploring and
// benchmarking its behavior.
//
// The package is organized into several subpackages:
//
//   - bench: Contention benchmark driving the manager with configurable
//     workers, key spread, hold times and engine choice
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See klock -help for a list of all commands.
package cmd
