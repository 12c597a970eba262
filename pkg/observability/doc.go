/*
Package observability provides tools for monitoring the coach engine.

Metrics exports Prometheus counters for opens, closes, transitions and fallbacks.
LoggingHooks writes an audit line per lifecycle event. Both are plain
domain.LifecycleHooks and can be combined with Merge.
*/
package observability
