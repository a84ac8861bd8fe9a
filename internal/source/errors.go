package source

import "fmt"

// FileParseError reports a file that cannot be read or is not valid JSON.
// The whole file is skipped.
type FileParseError struct {
	Path string
	Err  error
}

func (e *FileParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *FileParseError) Unwrap() error { return e.Err }

// FieldMissingError reports a row whose required field is absent or unusable.
// Only that row is skipped.
type FieldMissingError struct {
	Path  string
	Line  int
	Field string
	Err   error
}

func (e *FieldMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: field %q invalid: %v", e.Path, e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("%s:%d: field %q missing", e.Path, e.Line, e.Field)
}

func (e *FieldMissingError) Unwrap() error { return e.Err }
