// Package validate implements the input-validation contracts the spec
// names (pagination bounds, non-empty patterns) plus a struct-tag-based
// validator (Struct), built on github.com/go-playground/validator/v10. The
// CLI's parameter structs carry no validate tags and are not passed to
// Struct; their fields are checked by Pagination and NonEmptyPattern inside
// the engine.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a validation failure surfaced synchronously to the caller. It is
// never persisted and never wraps an I/O error.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Pagination validates a (startIndex, maxResults) pair: startIndex must be
// non-negative, and maxResults, if provided, must be positive.
func Pagination(startIndex int, maxResults *int) error {
	if startIndex < 0 {
		return newError("start_index must be a non-negative integer, got %d", startIndex)
	}
	if maxResults != nil && *maxResults <= 0 {
		return newError("max_results must be a positive integer, got %d", *maxResults)
	}
	return nil
}

// NonEmptyPattern validates that pattern is non-empty after trimming
// whitespace.
func NonEmptyPattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return newError("pattern must not be empty")
	}
	return nil
}

// structValidator is shared across calls; validator.Validate is safe for
// concurrent use once struct tags are cached.
var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate:"..."` struct tags, returning a
// single *Error summarizing every failing field.
func Struct(s any) error {
	if err := structValidator.Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return newError("%v", err)
		}
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
		}
		return newError("validation failed: %s", strings.Join(parts, "; "))
	}
	return nil
}
