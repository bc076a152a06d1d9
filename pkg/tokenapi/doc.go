// Package tokenapi defines the authentication backend contract the guard
// delegates to, plus a family of backend implementations.
//
// The contract is three operations:
//
//   - IssueToken exchanges credentials for an opaque session token.
//   - Status revalidates a live token, returning the same token, a
//     refreshed one, or the empty string when the token is no longer valid.
//   - Revoke invalidates a token server-side.
//
// The empty string is the null-equivalent at this layer. The guard maps it
// to its own sentinel and never interprets token contents; tokens are
// opaque end to end.
//
// Implementations: MemoryAPI for single-process demos and development,
// RedisAPI for shared deployments, SQLAPI for database-backed deployments.
// WithMetrics and WithTracing wrap any API with Prometheus counters and
// OpenTelemetry spans.
package tokenapi
