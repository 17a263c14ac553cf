package types

import (
	"golang.org/x/xerrors"
)

// Result carries either a value or an error, never both.
type Result[T any] struct {
	val T
	err error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{val: v}
}

func Fail[T any](err error) Result[T] {
	if err == nil {
		err = xerrors.New("failed without error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

func (r Result[T]) Err() error {
	return r.err
}

// Value returns the zero value and false on failure.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.val, true
}

func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.val, nil
}
