package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "neurowatch/pkg/domain-errors"
)

// Typed identifiers keep event and query handles from being mixed up at
// compile time. SubjectID stays a string: it is an opaque correlation key
// owned by the upstream learner platform, not something we mint.
type (
	EventID uuid.UUID
	QueryID uuid.UUID

	SubjectID string
)

// NewEventID mints a fresh event identifier.
func NewEventID() EventID {
	return EventID(uuid.New())
}

// NewQueryID mints a fresh active-learning query identifier.
func NewQueryID() QueryID {
	return QueryID(uuid.New())
}

// ParseEventID validates and returns an EventID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// ParseSubjectID validates an opaque subject identifier. The only invariant
// we can enforce is non-emptiness; the upstream platform owns the format.
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id must not be empty")
	}
	return SubjectID(s), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id QueryID) String() string { return uuid.UUID(id).String() }

func (id EventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id QueryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id SubjectID) String() string { return string(id) }
