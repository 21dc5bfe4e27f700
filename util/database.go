package util

import (
	"strings"
)

// IsDuplicateRecordError reports whether the error is a unique constraint
// violation from postgres.
func IsDuplicateRecordError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint")
}
