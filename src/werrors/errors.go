// Package werrors is a unified errors package for the Wren-style runtime so
// that compile-time and run-time failures are formatted and handled the same way
// no matter where in the VM they originate.
package werrors

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// Kind distinguishes where an Error originates so callers (interpret, the
	// slot API, a host errorFn) can react differently to it.
	Kind int
	// Error captures every failure surfaced by the VM: a compile error reported
	// before any fiber exists, a runtime error carried in a fiber's error slot, or
	// a host-side misuse of the embedding API (bad slot index, stale handle).
	Error struct {
		Kind      Kind
		Module    string
		Line      int
		Err       error
		Traceback []Frame
		// Value is the raw Wren value that was thrown, when Kind is RuntimeErr and
		// the fiber aborted with a non-string value.
		Value any
	}
	// Frame is a single stack-trace line: a module/function pair and the source
	// line active when the trace was captured. Module == "" marks a core-module
	// frame; those are omitted from host-visible traces.
	Frame struct {
		Module string
		Name   string
		Line   int
		// IsStub marks a call-handle stub frame, also omitted from traces.
		IsStub bool
	}
)

const (
	// CompileErr is returned by Interpret when the (external) compiler rejects
	// the source; no fiber is created and there is no traceback.
	CompileErr Kind = iota
	// RuntimeErr is any error that ends up in a fiber's error slot.
	RuntimeErr
	// HostErr is a misuse of the embedding API surface: a bad slot index, a
	// stale handle, calling into a fiber that isn't suspended.
	HostErr
)

func (err *Error) Error() string {
	switch err.Kind {
	case CompileErr:
		return fmt.Sprintf("[%s line %d] Error: %v", err.Module, err.Line, err.Err)
	case HostErr:
		return fmt.Sprintf("wren: %v", err.Err)
	default:
		var buf strings.Builder
		buf.WriteString(err.Err.Error())
		for _, f := range err.Traceback {
			if f.Module == "" || f.IsStub {
				continue
			}
			buf.WriteByte('\n')
			buf.WriteString(f.String())
		}
		return buf.String()
	}
}

// String formats a single trace line the way a host errorFn prints it:
// "at <name> (<module>:<line>)".
func (f Frame) String() string {
	line := strconv.Itoa(f.Line)
	return "\tat " + f.Name + " (" + f.Module + ":" + line + ")"
}

// New wraps a plain error into a RuntimeErr with no traceback; callers append
// frames as the error propagates up the call stack.
func New(module string, line int, err error) *Error {
	return &Error{Kind: RuntimeErr, Module: module, Line: line, Err: err}
}

// Format builds an error message using Wren's mini-formatter : '$'
// interpolates a string argument, '@' interpolates a stringified value, any
// other rune is literal. args are consumed left to right as placeholders are
// encountered; extra args are ignored, missing args render as empty.
func Format(pattern string, args ...any) string {
	var buf strings.Builder
	next := 0
	arg := func() any {
		if next >= len(args) {
			return ""
		}
		v := args[next]
		next++
		return v
	}
	for _, r := range pattern {
		switch r {
		case '$':
			fmt.Fprintf(&buf, "%s", arg())
		case '@':
			fmt.Fprintf(&buf, "%v", arg())
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
