// Package id issues the run identifiers attached to every log line of a
// sync pass.
package id

import (
	"github.com/google/uuid"
)

// NewRunID returns a time-ordered UUID so runs sort by start time in log
// search. It falls back to a random UUID if the clock sequence fails.
func NewRunID() string {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v.String()
}
