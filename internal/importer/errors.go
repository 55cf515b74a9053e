package importer

import (
	"errors"
	"fmt"
)

// Kind classifies why an import failed.
type Kind string

const (
	KindNone              Kind = ""
	KindNotFound          Kind = "not_found"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindRead              Kind = "read"
	KindSchemaMismatch    Kind = "schema_mismatch"
	KindInvalidData       Kind = "invalid_data"
	KindStorage           Kind = "storage"
)

// Error carries the failure kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func fail(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
