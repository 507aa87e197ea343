// Package idgen mints board identifiers and validates member handles.
package idgen

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

const maxHandleLen = 64

var handlePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// NewBoardID returns a time-ordered UUIDv7, or a random UUIDv4 when the
// clock source fails.
func NewBoardID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ValidateHandle checks a member id: lowercase letters, digits and dashes,
// starting with a letter and ending with a letter or digit, at most 64 bytes.
func ValidateHandle(id string) error {
	if len(id) > maxHandleLen {
		return fmt.Errorf("member id too long (max %d characters)", maxHandleLen)
	}
	if !handlePattern.MatchString(id) {
		return fmt.Errorf("member id %q is invalid: must match %s", id, handlePattern.String())
	}
	return nil
}
