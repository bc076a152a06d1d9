// Package livehost is a deliberately small callback.Host used by the
// example app and the integration tests.
//
// It implements just enough of the callback-graph model to drive a guard:
// component properties live in a flat store, setting a property fires the
// callbacks subscribed to it via Input deps, and written outputs cascade.
// There is no diffing, no scheduling, and no per-client session state;
// production deployments sit the guard on a real reactive framework.
//
// Server wraps a Host with an HTTP transport: the page is served as plain
// HTML, interactions arrive over a WebSocket, and the re-rendered content
// region is pushed back after each event.
package livehost
