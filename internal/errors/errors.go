package errors

import (
	"errors"
	"fmt"
)

// Code identifies the failure class of a CLI error.
type Code int

const (
	CodeInternal Code = iota + 1
	CodeUsage
	CodeConfiguration
	CodeUnsupportedNetwork
	CodeABILoad
	CodeParse
	CodeInsufficientBalance
	CodeAllowance
	CodeGasEstimation
	CodeNetwork
)

var codeNames = map[Code]string{
	CodeInternal:            "internal",
	CodeUsage:               "usage",
	CodeConfiguration:       "configuration",
	CodeUnsupportedNetwork:  "unsupported_network",
	CodeABILoad:             "abi_load",
	CodeParse:               "parse",
	CodeInsufficientBalance: "insufficient_balance",
	CodeAllowance:           "allowance",
	CodeGasEstimation:       "gas_estimation",
	CodeNetwork:             "network",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is a typed CLI error that carries a failure class.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether the outermost typed error in err's chain has the given code.
func Is(err error, code Code) bool {
	cliErr, ok := As(err)
	return ok && cliErr.Code == code
}

// ExitCode maps err to a process exit status. Every failure class exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
