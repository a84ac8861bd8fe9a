package domain

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/sparkify/internal/source"
	"github.com/smallbiznis/sparkify/pkg/db"
)

var (
	ErrInvalidConfig = errors.New("invalid_config")
	ErrUnknownKind   = errors.New("unknown_source_kind")
)

// Failure reasons attached to skipped files in logs and metrics.
const (
	FailureParse      = "parse"
	FailureConstraint = "constraint"
	FailureDatabase   = "database"
	FailureOther      = "other"
)

// PersistenceError reports a failed write or lookup. The file transaction
// has been rolled back when it is returned.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FailureReason classifies why a file was not loaded. Constraint violations
// point at bad source values; other database failures usually do not.
func FailureReason(err error) string {
	var (
		parseErr   *source.FileParseError
		persistErr *PersistenceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &parseErr):
		return FailureParse
	case db.IsDuplicateKeyErr(err), db.IsCheckViolationErr(err):
		return FailureConstraint
	case errors.As(err, &persistErr):
		return FailureDatabase
	default:
		return FailureOther
	}
}
