// Package tokenstore persists the ephemeral single-use state of the
// authentication core in Redis: email verification codes, password reset
// tokens, and the digest of each user's active refresh token.
//
// Expiry is enforced with Redis TTLs, so an expired record is
// indistinguishable from one that never existed. Every multi-step mutation
// (supersede-and-save, lookup-and-delete, compare-and-delete) runs as a
// single server-side Lua script, which makes the one-shot consumption
// invariants hold under concurrent requests for the same key: of two racing
// consumers exactly one observes the record.
//
// Raw secrets never reach this package. Verification codes are stored as
// opaque lookup values with no credential power beyond their one use; reset
// and refresh tokens are stored only as SHA-256 digests.
package tokenstore
