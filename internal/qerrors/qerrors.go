// Package qerrors defines the two error channels used by the core, per the
// error handling design: fatal errors (grammar-load and conjugation bugs,
// which carry diagnostic context and should never be silently swallowed) and
// soft errors (parse/legality failures, which are reported as data in a
// ParseResults rather than via the error return).
package qerrors

import "fmt"

// kind distinguishes the two error channels at runtime, for callers that
// need to decide whether to log-and-continue or abort.
type kind int

const (
	kindFatal kind = iota
	kindSoft
)

type coreError struct {
	kind    kind
	msg     string
	context string
	wrap    error
}

func (e *coreError) Error() string {
	if e.context != "" {
		return fmt.Sprintf("%s: %s", e.msg, e.context)
	}
	return e.msg
}

// Unwrap gives the error that this one wraps, if any.
func (e *coreError) Unwrap() error {
	return e.wrap
}

// IsFatal returns whether err is a fatal core error (grammar load or
// conjugation failure). Errors from outside this package are never fatal by
// this definition; callers that want to treat unknown errors as fatal should
// do so explicitly.
func IsFatal(err error) bool {
	ce, ok := err.(*coreError)
	return ok && ce.kind == kindFatal
}

// IsSoft returns whether err is a soft core error (parse or semantic-legality
// failure).
func IsSoft(err error) bool {
	ce, ok := err.(*coreError)
	return ok && ce.kind == kindSoft
}

// Fatal returns a new fatal error for a grammar-load or conjugation bug. The
// context string carries the full diagnosis (symbol names, requested forms,
// the gram_props_list contents).
func Fatal(msg, context string) error {
	return &coreError{kind: kindFatal, msg: msg, context: context}
}

// Fatalf is Fatal with a formatted message and no separate context.
func Fatalf(format string, a ...interface{}) error {
	return &coreError{kind: kindFatal, msg: fmt.Sprintf(format, a...)}
}

// WrapFatal wraps an existing error as fatal, preserving it for Unwrap.
func WrapFatal(err error, msg, context string) error {
	return &coreError{kind: kindFatal, msg: msg, context: context, wrap: err}
}

// Soft returns a new soft error: a parse failure or a per-path semantic
// illegality. Soft errors are never propagated as the operation's error
// return from parse; they are converted to a ParseResults.Message or simply
// cause a search branch to be discarded.
func Soft(msg string) error {
	return &coreError{kind: kindSoft, msg: msg}
}

// Softf is Soft with a formatted message.
func Softf(format string, a ...interface{}) error {
	return &coreError{kind: kindSoft, msg: fmt.Sprintf(format, a...)}
}

// Message returns the human-readable message of err: for a coreError, its
// msg field; otherwise err.Error().
func Message(err error) string {
	if ce, ok := err.(*coreError); ok {
		return ce.msg
	}
	return err.Error()
}

// Sentinel soft-failure messages surfaced directly as ParseResults.Message.
const (
	MsgFailedToReachStart = "failed to reach start"
	MsgFailedToFindLegal  = "failed to find legal parse trees"
)
