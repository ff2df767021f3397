package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DebugBreak opens an interactive readline prompt over fiber's current
// frame, the way tanema-luaf/src/runtime/repl.go's REPL lets a user poke at
// live state, retargeted here from a whole-program REPL to an
// embedder-invoked debug hook a foreign method can call mid-execution.
// Commands: `locals` dumps the
// current frame's register window, `bt` prints a short backtrace, `c`
// resumes. Output goes through in/out rather than os.Stdin/Stdout so a host
// embedding the VM headlessly can wire its own terminal.
func (vm *VM) DebugBreak(fiber *ObjFiber, in io.ReadCloser, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "(wren-dbg) ",
		Stdin:           in,
		Stdout:          out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		cmd := strings.TrimSpace(line)
		switch {
		case cmd == "c" || cmd == "continue":
			return nil
		case cmd == "bt" || cmd == "backtrace":
			vm.printBacktrace(fiber, out)
		case cmd == "locals":
			vm.printLocals(fiber, out)
		case cmd == "":
			// ignore
		default:
			fmt.Fprintf(out, "unknown command: %s\n", cmd)
		}
	}
}

func (vm *VM) printBacktrace(fiber *ObjFiber, out io.Writer) {
	for i := len(fiber.frames) - 1; i >= 0; i-- {
		f := fiber.frames[i]
		name := "?"
		line := 0
		if f.closure != nil {
			name = f.closure.fn.Name()
			line = f.closure.fn.LineAt(f.ip)
		}
		fmt.Fprintf(out, "#%d %s:%d\n", i, name, line)
	}
}

func (vm *VM) printLocals(fiber *ObjFiber, out io.Writer) {
	if len(fiber.frames) == 0 {
		fmt.Fprintln(out, "<no active frame>")
		return
	}
	top := fiber.frames[len(fiber.frames)-1]
	end := top.stackStart + top.closure.fn.MaxSlots
	if end > len(fiber.stack) {
		end = len(fiber.stack)
	}
	for i := top.stackStart; i < end; i++ {
		fmt.Fprintf(out, "  R[%d] = %s\n", i-top.stackStart, ToString(fiber.stack[i]))
	}
}
