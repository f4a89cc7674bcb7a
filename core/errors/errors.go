// Package errors provides standardized error types and helpers for the sequel codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Every error the engine
// produces unwraps to exactly one of these.
var (
	// ErrTruncated indicates the file is shorter than a structural field demands
	ErrTruncated = errors.New("truncated")
	// ErrOutOfRange indicates a page, column, or overflow-chain reference outside valid bounds
	ErrOutOfRange = errors.New("out of range")
	// ErrCorruptPage indicates an unrecognized page type or inconsistent cell layout
	ErrCorruptPage = errors.New("corrupt page")
	// ErrMalformedRecord indicates a record header/body length mismatch
	ErrMalformedRecord = errors.New("malformed record")
	// ErrSchemaNotFound indicates a table or index name with no schema entry
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrColumnNotFound indicates a projected or predicate column absent from the table
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnsupportedQuery indicates a statement outside the supported grammar
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// PageError represents a failure reading or decoding a database page
type PageError struct {
	Page    uint32 // 1-based page number
	Message string // Error details
	Err     error  // Sentinel or underlying error
}

func (e *PageError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("page %d: %s", e.Page, e.Message)
	}
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorruptPage
}

// RecordError represents a failure decoding a cell payload into column values
type RecordError struct {
	Rowid   int64  // Rowid of the offending cell, 0 if unknown
	Message string // Error details
	Err     error  // Sentinel or underlying error
}

func (e *RecordError) Error() string {
	if e.Rowid != 0 {
		return fmt.Sprintf("record at rowid %d: %s", e.Rowid, e.Message)
	}
	return fmt.Sprintf("record: %s", e.Message)
}

func (e *RecordError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedRecord
}

// SchemaError represents a missing or unusable schema entry
type SchemaError struct {
	Kind string // "table" or "index"
	Name string // Object name looked up
	Err  error  // Underlying error, if any
}

func (e *SchemaError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s not found", e.Kind)
}

func (e *SchemaError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSchemaNotFound
}

// QueryError represents a statement the executor cannot serve
type QueryError struct {
	SQL     string // Offending statement text
	Message string // Why it is rejected
	Err     error  // Sentinel or underlying error
}

func (e *QueryError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cannot execute %q: %s", e.SQL, e.Message)
	}
	return fmt.Sprintf("cannot execute %q: %v", e.SQL, e.Err)
}

func (e *QueryError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupportedQuery
}

// Helper functions for creating common errors

// NewPage creates a PageError wrapping the given sentinel
func NewPage(page uint32, sentinel error, message string) *PageError {
	return &PageError{Page: page, Message: message, Err: sentinel}
}

// NewRecord creates a RecordError
func NewRecord(rowid int64, message string) *RecordError {
	return &RecordError{Rowid: rowid, Message: message}
}

// NewSchema creates a SchemaError for a missing object
func NewSchema(kind, name string) *SchemaError {
	return &SchemaError{Kind: kind, Name: name}
}

// NewQuery creates a QueryError
func NewQuery(sql, message string) *QueryError {
	return &QueryError{SQL: sql, Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
