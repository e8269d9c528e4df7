// Package model holds the Tarea entity, its status enum and the domain
// errors raised by the repository.
package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle state of a Tarea.
type Status string

const (
	StatusPendiente  Status = "PENDIENTE"
	StatusEnProgreso Status = "EN_PROGRESO"
	StatusTerminada  Status = "TERMINADA"
)

// Statuses lists every valid status, in lifecycle order.
var Statuses = []Status{StatusPendiente, StatusEnProgreso, StatusTerminada}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Tarea is a unit of work record.
//
// Date is the last-modification timestamp and stays nil until the first
// update. CreatedAt is set by the store on save.
type Tarea struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Date        *time.Time `json:"date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateFields are the caller-supplied fields of a new Tarea.
type CreateFields struct {
	Description string
}

// UpdateFields are the caller-supplied fields of an update. Nil fields are
// left untouched.
type UpdateFields struct {
	Description *string
	Status      *Status
}

// NewID returns a fresh identifier in the store's id format.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ParseID validates the syntax of a Tarea identifier (24 hex characters) and
// returns it normalized to lower case.
func ParseID(id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return "", &InvalidIDError{ID: id}
	}
	return oid.Hex(), nil
}

// NextDate returns the modification timestamp for an update happening at
// now. The result is truncated to millisecond precision and always later
// than previous, so successive updates yield strictly increasing dates.
func NextDate(previous *time.Time, now time.Time) time.Time {
	next := now.UTC().Truncate(time.Millisecond)
	if previous != nil && !next.After(*previous) {
		next = previous.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return next
}
