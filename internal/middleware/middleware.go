// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns such as request
// logging, request ids, tracing, response headers (CORS and content type),
// header validation and panic recovery.
package middleware
