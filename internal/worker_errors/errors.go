package workererrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Carries an exit code along with an error so the app can exit correctly
type ExitError struct {
	Err  error
	Code int
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d", e.Code)
	}

	return fmt.Sprintf("%d: %s", e.Code, e.Err.Error())
}

func (e ExitError) Unwrap() error {
	return e.Err
}

// Wrap an error with an exit code
func ExitErrorWrap(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

// Carries the taxonomy codes and structured context of a failed processing step.
//
// Err is kept for logs and traces only, it is never persisted.
type ProcessingError struct {
	Err     error
	Context map[string]string
	Codes   []Code
	// no redelivery can succeed, whatever the codes say
	Terminal bool
}

func (e *ProcessingError) Error() string {
	codes := make([]string, 0, len(e.Codes))
	for _, c := range e.Codes {
		codes = append(codes, string(c))
	}

	if e.Err == nil {
		return strings.Join(codes, ",")
	}
	return fmt.Sprintf("%s: %s", strings.Join(codes, ","), e.Err.Error())
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Sorted context keys, for deterministic logging
func (e *ProcessingError) ContextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Wrap an error with a taxonomy code and optional key value context pairs
func Wrap(code Code, err error, kv ...string) error {
	ctx := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[kv[i]] = kv[i+1]
	}
	return &ProcessingError{Codes: []Code{code}, Context: ctx, Err: err}
}

// WrapTerminal is Wrap for failures that another delivery cannot fix
func WrapTerminal(code Code, err error, kv ...string) error {
	wrapped := Wrap(code, err, kv...).(*ProcessingError)
	wrapped.Terminal = true
	return wrapped
}

// Classify returns the codes and context carried by err. Errors that carry no codes classify as UNKNOWN_ERROR.
func Classify(err error) ([]Code, map[string]string) {
	var pe *ProcessingError
	if errors.As(err, &pe) && len(pe.Codes) > 0 {
		return pe.Codes, pe.Context
	}
	return []Code{CodeUnknown}, map[string]string{}
}

// Retryable reports whether any of codes is worth another delivery attempt
func Retryable(codes []Code) bool {
	for _, c := range codes {
		if Lookup(c).Retryable {
			return true
		}
	}
	return false
}

// IsRetryable reports whether another delivery could succeed where err failed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProcessingError
	if errors.As(err, &pe) && pe.Terminal {
		return false
	}

	codes, _ := Classify(err)
	return Retryable(codes)
}
