package analysis

import "fmt"

// MissingColumnError indicates a column the analysis needs is not in the header.
type MissingColumnError struct{ Column string }

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("Error: Missing expected data column - '%s'", e.Column)
}

// UnexpectedError wraps any other analysis failure.
type UnexpectedError struct{ Err error }

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("Unexpected error during analysis: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
