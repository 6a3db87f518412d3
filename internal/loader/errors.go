package loader

import "fmt"

// NotFoundError indicates the input file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("Error: File not found at %s", e.Path) }

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError indicates the file is not well-formed delimited text, or a
// timestamp cell could not be interpreted.
type ParseError struct {
	Row int // 1-based data row; 0 for the header
	Err error
}

func (e *ParseError) Error() string {
	return "Error: Failed to parse CSV. Please check the file format."
}

func (e *ParseError) Unwrap() error { return e.Err }

// Detail describes the underlying problem for logs.
func (e *ParseError) Detail() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("header: %v", e.Err)
}

// UnexpectedError wraps any other load failure.
type UnexpectedError struct{ Err error }

func (e *UnexpectedError) Error() string { return fmt.Sprintf("Unexpected error: %v", e.Err) }

func (e *UnexpectedError) Unwrap() error { return e.Err }
