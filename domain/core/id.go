package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID        ID
	RecordingID  ID
	ChannelLabel ID
)

func (id RunID) String() string        { return ID(id).String() }
func (id RecordingID) String() string  { return ID(id).String() }
func (id ChannelLabel) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseRecordingID parses a string into RecordingID
func ParseRecordingID(s string) (RecordingID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("recording ID cannot be empty")
	}
	return RecordingID(s), nil
}
