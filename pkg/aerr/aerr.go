// Package aerr defines the class analyser's error taxonomy (spec §7).
package aerr

import (
	"errors"
	"fmt"
)

// Kind classifies an analyser error for callers that need to branch on it
// (the dependency closure walker recovers NoClassFile and nothing else).
type Kind string

const (
	// NoClassFile means a class name could not be resolved to a library,
	// or its source file does not exist. Logged and non-fatal inside the
	// dependency closure walk; fatal everywhere else.
	NoClassFile Kind = "NoClassFile"
	// SourceIoError means a source file could not be stat'd or read.
	SourceIoError Kind = "SourceIoError"
	// ParseError means the external ClassFile compiler failed on a class.
	ParseError Kind = "ParseError"
	// MetaWriteDuplicate means saveMeta was called twice for the same
	// class within one run — a programmer error, never recovered.
	MetaWriteDuplicate Kind = "MetaWriteDuplicate"
	// DbParseError means db.json could not be parsed; the run aborts
	// before any class is compiled.
	DbParseError Kind = "DbParseError"
)

// Error is a structured analyser error, grounded on the teacher's
// RegistryError{Code, Message, Details}.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an *Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured details (e.g. the offending class name).
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Is reports whether err, or an error it wraps, is an *Error of the
// given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
