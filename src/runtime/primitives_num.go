package runtime

import (
	"math"
	"strconv"
)

// registerNumPrimitives wires Num's arithmetic/comparison/math-library
// methods, grounded on "wrenAdd handles number+number" note and
// _examples/original_source's wren_core.c number primitives for the set of
// math functions (sqrt/floor/ceil/etc.) and their error-message wording.
func registerNumPrimitives(vm *VM) {
	c := vm.numClass

	binaryNum := func(sig string, f func(a, b float64) float64) {
		bind(vm, c, sig, func(vm *VM, fiber *ObjFiber, args []Value) bool {
			if !args[1].IsNum() {
				return argErr(vm, "Right operand must be a number.")
			}
			args[0] = NumVal(f(args[0].AsNum(), args[1].AsNum()))
			return true
		})
	}
	binaryBool := func(sig string, f func(a, b float64) bool) {
		bind(vm, c, sig, func(vm *VM, fiber *ObjFiber, args []Value) bool {
			if !args[1].IsNum() {
				return argErr(vm, "Right operand must be a number.")
			}
			args[0] = BoolVal(f(args[0].AsNum(), args[1].AsNum()))
			return true
		})
	}
	unaryNum := func(sig string, f func(a float64) float64) {
		bind(vm, c, sig, func(vm *VM, fiber *ObjFiber, args []Value) bool {
			args[0] = NumVal(f(args[0].AsNum()))
			return true
		})
	}

	binaryNum("+(_)", func(a, b float64) float64 { return a + b })
	binaryNum("-(_)", func(a, b float64) float64 { return a - b })
	binaryNum("*(_)", func(a, b float64) float64 { return a * b })
	binaryNum("/(_)", func(a, b float64) float64 { return a / b })
	binaryNum("%(_)", func(a, b float64) float64 { return math.Mod(a, b) })
	binaryBool("<(_)", func(a, b float64) bool { return a < b })
	binaryBool("<=(_)", func(a, b float64) bool { return a <= b })
	binaryBool(">(_)", func(a, b float64) bool { return a > b })
	binaryBool(">=(_)", func(a, b float64) bool { return a >= b })

	unaryNum("-", func(a float64) float64 { return -a })
	unaryNum("abs", math.Abs)
	unaryNum("sqrt", math.Sqrt)
	unaryNum("floor", math.Floor)
	unaryNum("ceil", math.Ceil)
	unaryNum("round", math.Round)
	unaryNum("sin", math.Sin)
	unaryNum("cos", math.Cos)
	unaryNum("tan", math.Tan)
	unaryNum("log", math.Log)
	unaryNum("exp", math.Exp)
	unaryNum("truncate", math.Trunc)
	unaryNum("fraction", func(a float64) float64 { _, frac := math.Modf(a); return frac })

	bind(vm, c, "==(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(args[1].IsNum() && args[0].AsNum() == args[1].AsNum())
		return true
	})
	bind(vm, c, "!=(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(!args[1].IsNum() || args[0].AsNum() != args[1].AsNum())
		return true
	})
	bind(vm, c, "isNan", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(math.IsNaN(args[0].AsNum()))
		return true
	})
	bind(vm, c, "isInfinity", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(math.IsInf(args[0].AsNum(), 0))
		return true
	})
	bind(vm, c, "..(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !args[1].IsNum() {
			return argErr(vm, "Right operand must be a number.")
		}
		args[0] = ObjVal(vm.NewRange(args[0].AsNum(), args[1].AsNum(), true))
		return true
	})
	bind(vm, c, "...(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !args[1].IsNum() {
			return argErr(vm, "Right operand must be a number.")
		}
		args[0] = ObjVal(vm.NewRange(args[0].AsNum(), args[1].AsNum(), false))
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(formatNum(args[0].AsNum())))
		return true
	})

	bindMeta(vm, c, "pi", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(math.Pi)
		return true
	})
	bindMeta(vm, c, "infinity", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(math.Inf(1))
		return true
	})
	bindMeta(vm, c, "nan", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(math.NaN())
		return true
	})
	bindMeta(vm, c, "fromString(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s, ok := args[1].AsObj().(*ObjString)
		if !ok {
			return argErr(vm, "Argument must be a string.")
		}
		n, err := strconv.ParseFloat(s.value, 64)
		if err != nil {
			args[0] = NullVal
		} else {
			args[0] = NumVal(n)
		}
		return true
	})
}
