// Package token mints and verifies the signed bearer artifacts of the
// authentication core: short-lived access tokens and long-lived refresh
// tokens. Both are HS256 JWTs carrying a minimal claim set (subject, issued
// at, expiry), signed with distinct secrets so one class of token can never
// be replayed as the other.
//
// Tokens are stateless here; the refresh token's server-side digest lives in
// package tokenstore.
package token
