package types

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ErrCode is the persisted form of an outcome, kept in receipts and sent over rpc.
type ErrCode uint16

const (
	CodeOK ErrCode = iota
	CodeUnauthorized
	CodeNotFound
	CodeAlreadySigned
	CodeAlreadyExecuted
	CodeInsufficientFunds
	CodeRemoteFailure
	CodeInvalidParams
	CodeLowNonce
	CodeInvalidSign
	CodeInternal
)

func (c ErrCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInternal:
		return "internal"
	}

	for _, ce := range codeErrs {
		if ce.code == c {
			return ce.err.Error()
		}
	}
	return "code-" + strconv.Itoa(int(c))
}

var (
	ErrUnauthorized      = xerrors.New("unauthorized")
	ErrNotFound          = xerrors.New("transaction not found")
	ErrAlreadySigned     = xerrors.New("already signed")
	ErrAlreadyExecuted   = xerrors.New("already executed")
	ErrInsufficientFunds = xerrors.New("insufficient funds")
	ErrRemoteFailure     = xerrors.New("remote failure")
	ErrInvalidParams     = xerrors.New("invalid params")
	ErrLowNonce          = xerrors.New("nonce too low")
	ErrInvalidSign       = xerrors.New("invalid signature")
)

var codeErrs = []struct {
	code ErrCode
	err  error
}{
	{CodeUnauthorized, ErrUnauthorized},
	{CodeNotFound, ErrNotFound},
	{CodeAlreadySigned, ErrAlreadySigned},
	{CodeAlreadyExecuted, ErrAlreadyExecuted},
	{CodeInsufficientFunds, ErrInsufficientFunds},
	{CodeRemoteFailure, ErrRemoteFailure},
	{CodeInvalidParams, ErrInvalidParams},
	{CodeLowNonce, ErrLowNonce},
	{CodeInvalidSign, ErrInvalidSign},
}

// ErrCodeOf maps err to the code of the first sentinel it wraps.
func ErrCodeOf(err error) ErrCode {
	if err == nil {
		return CodeOK
	}

	for _, ce := range codeErrs {
		if xerrors.Is(err, ce.err) {
			return ce.code
		}
	}

	return CodeInternal
}

func sentinelOf(code ErrCode) error {
	for _, ce := range codeErrs {
		if ce.code == code {
			return ce.err
		}
	}
	return nil
}

// CodedError is an error rebuilt from a persisted or transmitted code.
// It prints the original message and matches its sentinel with xerrors.Is.
type CodedError struct {
	Code ErrCode
	Msg  string
}

func (e *CodedError) Error() string {
	return e.Msg
}

func (e *CodedError) Unwrap() error {
	return sentinelOf(e.Code)
}

// ErrorFromCode rebuilds an error that still matches its sentinel with xerrors.Is.
func ErrorFromCode(code ErrCode, msg string) error {
	if code == CodeOK {
		return nil
	}

	se := sentinelOf(code)
	if se != nil && (msg == "" || msg == se.Error()) {
		return se
	}
	if msg == "" {
		msg = code.String()
	}

	return &CodedError{Code: code, Msg: msg}
}

// rpc error messages carry their code as a "[n] " prefix
const wirePrefix = "["

// ErrorToWire renders err with its code so the far side of an rpc
// connection can rebuild it with ErrorFromWire.
func ErrorToWire(err error) string {
	return wirePrefix + strconv.Itoa(int(ErrCodeOf(err))) + "] " + err.Error()
}

// ErrorFromWire rebuilds the error behind an ErrorToWire message; errors
// without a code, such as transport failures, are returned unchanged.
func ErrorFromWire(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, wirePrefix) {
		return err
	}

	num, rest, ok := strings.Cut(msg[len(wirePrefix):], "] ")
	if !ok {
		return err
	}

	code, perr := strconv.ParseUint(num, 10, 16)
	if perr != nil {
		return err
	}

	return ErrorFromCode(ErrCode(code), rest)
}

// RemoteError is a failure reported by the contract endpoint.
type RemoteError struct {
	Method string
	Err    error
}

func (e *RemoteError) Error() string {
	return "remote " + e.Method + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteFailure
}

func NewRemoteError(method string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Method: method, Err: err}
}
