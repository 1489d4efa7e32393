package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind groups gRPC status codes by how catalog callers react to them.
type ErrorKind int

const (
	// KindOther covers permission and unclassified failures.
	KindOther ErrorKind = iota
	// KindNotFound means the document is absent or its id is malformed.
	KindNotFound
	// KindConflict means a create hit an existing document or a transaction lost contention.
	KindConflict
	// KindUnavailable means the backend could not answer right now.
	KindUnavailable
)

// Error implements repositories.RepositoryError for Firestore backed stores.
type Error struct {
	op   string
	kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Kind reports the classification derived from the gRPC status.
func (e *Error) Kind() ErrorKind {
	if e == nil {
		return KindOther
	}
	return e.kind
}

func (e *Error) IsNotFound() bool    { return e.Kind() == KindNotFound }
func (e *Error) IsConflict() bool    { return e.Kind() == KindConflict }
func (e *Error) IsUnavailable() bool { return e.Kind() == KindUnavailable }

func kindOf(code codes.Code) ErrorKind {
	switch code {
	case codes.NotFound, codes.InvalidArgument:
		return KindNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange:
		return KindConflict
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded:
		return KindUnavailable
	default:
		return KindOther
	}
}

// classifiedError matches errors that already carry repository semantics, such as a
// catalog error returned from inside a transaction callback.
type classifiedError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// WrapError classifies err for repository callers. Cancellation and deadline errors are
// returned as the context sentinels.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code := status.Code(err)
	switch code {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}

	var repoErr *Error
	if errors.As(err, &repoErr) {
		if repoErr.op == "" {
			repoErr.op = op
		}
		return repoErr
	}
	var classified classifiedError
	if errors.As(err, &classified) {
		return err
	}
	return &Error{op: op, kind: kindOf(code), err: err}
}
