// Package perf holds latency budgets and benchmarks that run with the regular
// test suite.
package perf
