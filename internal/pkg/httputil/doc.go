// Package httputil provides shared HTTP request/response helpers for
// handlers.
//
// Handlers use these instead of raw http.ResponseWriter calls so every
// endpoint returns the same JSON envelope and error structure.
package httputil
