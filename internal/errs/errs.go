// Package errs defines the error shapes returned to API clients.
//
// Every error written by the HTTP layer is an *HTTPError serialized as JSON,
// so clients always receive the same structure: a machine code, a message,
// optional details and optional field-level validation errors.
package errs
