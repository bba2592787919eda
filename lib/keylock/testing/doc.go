// Package testing provides a reusable conformance test suite and
// benchmark suite for the keylock manager, parameterized over registry
// engines.
//
// The package contains:
//   - lock_testing: RunLockSuite, behavioral tests every registry engine
//     must pass when driving a keylock.Manager (mutual exclusion, timeout
//     lower bounds, cancellation responsiveness, backoff boundaries,
//     idempotent release)
//   - lock_benchmarks: RunLockBenchmarks, throughput benchmarks for
//     contended and uncontended acquisition
//
// This package is particularly useful for:
//   - Registry developers implementing the registry.IRegistry interface
//   - Regression testing of the acquisition loop timing behavior
//
// The suites only rely on the public manager surface, so they measure
// exactly what library users observe.
package testing
