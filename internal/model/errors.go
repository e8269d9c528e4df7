package model

import (
	"errors"
	"fmt"
)

// ValidationError reports a request with a bad header or body shape.
type ValidationError struct {
	Message string
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// InvalidIDError reports an identifier that is not syntactically valid.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("Id invalido: %q no es un identificador valido", e.ID)
}

// NotFoundError reports that no Tarea exists with the given id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "No existen tareas"
	}
	return fmt.Sprintf("Id invalido: no existe una tarea con id %s", e.ID)
}

// PersistenceError wraps a failure reported by the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Summary(), e.Err)
}

// Summary describes the failed operation without the driver detail.
func (e *PersistenceError) Summary() string {
	return fmt.Sprintf("Error al %s la tarea", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsInvalidID reports whether err is, or wraps, an InvalidIDError.
func IsInvalidID(err error) bool {
	var invalid *InvalidIDError
	return errors.As(err, &invalid)
}
