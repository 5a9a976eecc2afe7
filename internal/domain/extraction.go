package domain

import "fmt"

type ExtractionKind int

const (
	ExtractionEmpty ExtractionKind = iota
	ExtractionSuccess
	ExtractionParseError
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractionSuccess:
		return "success"
	case ExtractionParseError:
		return "parse_error"
	default:
		return "empty"
	}
}

// ExtractionResult is the outcome of one model extraction step. Exactly one of
// the three cases holds: Success carries Value, ParseError carries Err and the
// raw model output, Empty carries nothing.
type ExtractionResult[T any] struct {
	Kind  ExtractionKind
	Value T
	Raw   string
	Err   error
}

func Extracted[T any](v T) ExtractionResult[T] {
	return ExtractionResult[T]{Kind: ExtractionSuccess, Value: v}
}

func EmptyExtraction[T any]() ExtractionResult[T] {
	return ExtractionResult[T]{Kind: ExtractionEmpty}
}

func ExtractionFailed[T any](raw string, err error) ExtractionResult[T] {
	return ExtractionResult[T]{Kind: ExtractionParseError, Raw: raw, Err: err}
}

func (r ExtractionResult[T]) Ok() bool {
	return r.Kind == ExtractionSuccess
}

func (r ExtractionResult[T]) String() string {
	if r.Kind == ExtractionParseError {
		return fmt.Sprintf("parse_error: %v", r.Err)
	}
	return r.Kind.String()
}
