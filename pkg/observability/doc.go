/*
Package observability provides tools for monitoring listeners.

It includes Prometheus metrics and structured logging built as
domain.LifecycleHooks, a Chain helper to combine them, and an event Stream
that fans listener events out to subscribers such as SSE clients.
*/
package observability
