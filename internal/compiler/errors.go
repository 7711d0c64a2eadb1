package compiler

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal ingestion or build failure.
type ErrorKind string

const (
	UnrecognizedAttribute      ErrorKind = "UnrecognizedAttribute"
	UnrecognizedQualifierToken ErrorKind = "UnrecognizedQualifierToken"
	UnrecognizedElementShape   ErrorKind = "UnrecognizedElementShape"
	CyclicExtension            ErrorKind = "CyclicExtension"
	UnrecognizedOptionality    ErrorKind = "UnrecognizedOptionality"
)

// Sentinel errors for errors.Is matching.
var (
	ErrUnrecognizedAttribute      = errors.New("unrecognized attribute")
	ErrUnrecognizedQualifierToken = errors.New("unrecognized qualifier token")
	ErrUnrecognizedElementShape   = errors.New("unrecognized element shape")
	ErrCyclicExtension            = errors.New("cyclic extension")
)

// Error codes. E2xx are build errors; E0xx belong to the command line.
const (
	CodeUnrecognizedAttribute      = "E201"
	CodeUnrecognizedQualifierToken = "E202"
	CodeUnrecognizedElementShape   = "E203"
	CodeCyclicExtension            = "E204"
	CodeUnrecognizedOptionality    = "E205"
)

// DeclError is a fatal error tied to one declaration.
// Decl names the offending struct or command; Detail says what was wrong.
type DeclError struct {
	Kind   ErrorKind
	Decl   string
	Detail string
	Code   string
}

func (e *DeclError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", e.Code, e.Kind, e.Decl, e.Detail)
}

// Is maps the kind onto its sentinel. An unrecognized optionality value is
// an attribute failure.
func (e *DeclError) Is(target error) bool {
	switch e.Kind {
	case UnrecognizedAttribute, UnrecognizedOptionality:
		return target == ErrUnrecognizedAttribute
	case UnrecognizedQualifierToken:
		return target == ErrUnrecognizedQualifierToken
	case UnrecognizedElementShape:
		return target == ErrUnrecognizedElementShape
	case CyclicExtension:
		return target == ErrCyclicExtension
	}
	return false
}

var codes = map[ErrorKind]string{
	UnrecognizedAttribute:      CodeUnrecognizedAttribute,
	UnrecognizedQualifierToken: CodeUnrecognizedQualifierToken,
	UnrecognizedElementShape:   CodeUnrecognizedElementShape,
	CyclicExtension:            CodeCyclicExtension,
	UnrecognizedOptionality:    CodeUnrecognizedOptionality,
}

func declError(kind ErrorKind, name, format string, args ...any) *DeclError {
	return &DeclError{
		Kind:   kind,
		Decl:   name,
		Detail: fmt.Sprintf(format, args...),
		Code:   codes[kind],
	}
}
