// Package handler is the HTTP entry point for business logic after the router.
//
// It parses requests, validates input with the validation package, calls the
// service layer and converts domain errors into errs.HTTPError responses.
package handler
