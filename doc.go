// Package crmauth is the credential and session lifecycle core of the CRM
// backend: signup with email verification, credential validation, JWT
// access/refresh issuance with mandatory rotation, password change and reset
// flows, and logout.
//
// The [Engine] is the single public operation surface. It is built once via
// [Builder] and is safe for concurrent use; all mutable state lives in the
// persistent stores (PostgreSQL for user records, Redis for ephemeral
// single-use tokens), never in the process.
//
// # Architecture boundaries
//
// HTTP routing, request validation, and outbound email delivery are external
// collaborators. The engine consumes them through the narrow [UserStore] and
// [Notifier] interfaces and exposes typed results and sentinel errors; it
// never shapes transport responses.
//
// # Failure semantics
//
// Enumeration-sensitive operations deliberately collapse their failure
// modes: wrong password, unknown email, and unverified email are one
// indistinguishable [ErrBadCredentials]; forget-password acknowledges
// identically whether or not the account exists. Infrastructure failures
// (store unreachable, signing misconfiguration) surface as distinct errors,
// never as auth failures.
package crmauth
