package runtime

import (
	"errors"
	"fmt"

	"github.com/wrengo/wren/src/werrors"
)

// abortError wraps the exact Value a fiber aborted with (`Fiber.abort(_)`,
// vm.AbortFiber), so it reaches a Try ancestor unchanged instead of being
// flattened to its string form and back into a fresh ObjString. Error()
// still renders text, for callers (reportRuntimeError, an uncaught abort at
// the root fiber) that only ever wanted a message.
type abortError struct {
	value Value
}

func (e *abortError) Error() string { return ToString(e.value) }

// errorValue converts a Go error surfaced from step() into the Value a Try
// ancestor should receive: an abortError's original Value unchanged (per
// spec, an aborted fiber's error can be any non-null value), otherwise the
// message wrapped as an ObjString the way every other runtime error reports.
func (vm *VM) errorValue(err error) Value {
	var abort *abortError
	if errors.As(err, &abort) {
		return abort.value
	}
	return ObjVal(vm.NewString(err.Error()))
}

// werrNew builds a *werrors.Error using the current fiber's top frame for
// module/line context, formatting msg with werrors.Format's `$`/`@`
// mini-formatter. Used throughout the runtime for the same
// argument-type-check style messages original_source's VM primitives raise.
func werrNew(vm *VM, pattern string, args ...any) *werrors.Error {
	msg := werrors.Format(pattern, args...)
	module, line := "", 0
	if vm.fiber != nil && len(vm.fiber.frames) > 0 {
		top := vm.fiber.frames[len(vm.fiber.frames)-1]
		if top.closure != nil {
			line = top.closure.fn.LineAt(top.ip)
			if top.closure.fn.Module != nil {
				module = top.closure.fn.Module.Name()
			}
		}
	}
	return werrors.New(module, line, errors.New(msg))
}

// reportRuntimeError builds the traceback for the fiber that aborted from
// that fiber's own frame stack (callers run it right after
// propagateRuntimeError, which does not pop frames), surfacing it to
// the host via Config.Error: one call with the message,
// one per frame for the trace. Core-module and stub frames are omitted.
// The header message is prefixed with fiber.ID so a host running several
// fibers/VMs concurrently can tell which one a trace belongs to.
func (vm *VM) reportRuntimeError(fiber *ObjFiber, msg string) {
	if vm.config.Error == nil {
		return
	}
	line := 0
	module := ""
	if len(fiber.frames) > 0 {
		top := fiber.frames[len(fiber.frames)-1]
		if top.closure != nil {
			line = top.closure.fn.LineAt(top.ip)
			if top.closure.fn.Module != nil {
				module = top.closure.fn.Module.Name()
			}
		}
	}
	vm.config.Error(werrors.RuntimeErr, module, line, fmt.Sprintf("[fiber %s] %s", fiber.ID, msg))
	for i := len(fiber.frames) - 1; i >= 0; i-- {
		frame := fiber.frames[i]
		if frame.closure == nil || frame.closure.fn.Module == nil || frame.closure.fn.Module.Name() == "" {
			continue // core-module or stub frame, omitted from the trace
		}
		vm.config.Error(werrors.RuntimeErr, frame.closure.fn.Module.Name(), frame.closure.fn.LineAt(frame.ip), frame.closure.fn.Name())
	}
}

// reportCompileError surfaces a compile-time rejection the host's (external)
// compiler handed back, routed through Config.Error's CompileError variant.
func (vm *VM) reportCompileError(module string, line int, msg string) {
	if vm.config.Error != nil {
		vm.config.Error(werrors.CompileErr, module, line, msg)
	}
}
