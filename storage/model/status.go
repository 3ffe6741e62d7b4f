package model

import (
	"fmt"
)

// Status describes the lifecycle state of a stored record, e.g. an
// orchestration or one of its participants.
type Status int

// Constants for Status
const (
	StatusActive Status = iota
	StatusCompleted
	StatusCancelled
	StatusRemoved
)

// String returns the canonical string representation for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Valid reports whether the status is one of the defined constants.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusRemoved:
		return true
	default:
		return false
	}
}

// Terminal reports whether an orchestration in this status accepts no
// further changes.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// MarshalJSON encodes the status as a JSON string.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte("\"" + s.String() + "\""), nil
}

// UnmarshalJSON decodes the status from a JSON string.
func (s *Status) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("status must be a JSON string")
	}
	ps, err := ParseStatus(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*s = ps
	return nil
}

// ParseStatus converts a string to a Status, returning an error for invalid values.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "active":
		return StatusActive, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	case "removed":
		return StatusRemoved, nil
	}
	return 0, fmt.Errorf("invalid status: %s", v)
}
