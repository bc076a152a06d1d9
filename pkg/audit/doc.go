// Package audit records authentication events emitted by the guard.
//
// Events carry a kind (login, login_failed, logout, token_rejected), the
// username where known, and a short token fingerprint. Raw token values
// never reach a sink.
//
// SlogSink writes events to a structured logger; S3Sink batches them as
// JSON lines and uploads to an object store for retention.
package audit
