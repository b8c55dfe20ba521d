// Package middleware exposes the HTTP route guard built on top of
// crmauth.Engine access-token validation.
//
// Routes declare a [Policy]; [Guard] reads the Authorization header for
// protected routes, resolves the bearer token through Engine.CurrentUser,
// and injects the caller's identity into the request context.
//
// This package translates HTTP semantics into Engine calls. It does not
// parse tokens or touch the stores itself; every accept/reject decision is
// delegated to the Engine.
package middleware
