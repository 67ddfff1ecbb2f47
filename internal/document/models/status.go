package models

import (
	"strings"

	dErrors "docregistry/pkg/domain-errors"
)

// Status is the lifecycle state of a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// transitions lists the states reachable from each state. Nothing returns to pending.
var transitions = map[Status][]Status{
	StatusPending:  {StatusVerified, StatusRejected},
	StatusVerified: {StatusRejected},
	StatusRejected: {StatusVerified},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts only the three known states.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of [pending verified rejected]")
	}
	return status, nil
}

// CanTransitionTo reports whether next is reachable from s. Staying put is always allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return next.IsValid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
