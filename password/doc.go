// Package password implements credential hashing and verification with
// argon2id.
//
// # Output format
//
// Digests are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
//
// The [Hasher] supports transparent parameter upgrades: when a stored digest
// was produced with weaker parameters, [Hasher.NeedsRehash] returns true so
// the caller can re-hash on the next successful verification.
//
// This package owns hashing only. Credential lookup, reuse policy, and
// failure shaping belong to the engine.
package password
