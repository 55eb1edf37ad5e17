package db

import (
	"strings"

	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique constraint violation. Postgres errors are
// matched on SQLSTATE and constraint name; other drivers fall back to the message text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if name, ok := pkgerrors.UniqueConstraint(err); ok {
		return constraintName == "" || name == constraintName
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName != "" && strings.Contains(msg, "duplicate key value") {
		return strings.Contains(msg, constraintName)
	}
	return true
}
