// Package generate implements the native code generator: a single-pass
// lowering of an optimized AST into a scalar SSE single-precision
// function, using github.com/llir/llvm as the abstract instruction
// emitter spec §4.6 calls for (virtual registers are LLVM SSA values;
// prologue/epilogue and calling convention come from ir.NewFunc;
// finalization to executable memory is delegated to an Emitter, see
// emit.go).
package generate

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"fexpr/ast"
	"fexpr/env"
)

// signBit flips an f32's sign bit (XORPS) and clearSignBy clears it
// (ANDPS). The reference implementation this generator is grounded on
// used the seven-hex-digit typo 0x8000000 for the ANDPS mask; fexpr
// uses the arithmetically correct 0x7FFFFFFF (see abs lowering below
// and the regression test in generate_test.go).
const (
	signBit     uint32 = 0x80000000
	clearSignBy uint32 = 0x7FFFFFFF
)

// unsupportedOp is returned when a node cannot be lowered to native
// code at all (currently: '%', which the source this generator is
// grounded on never lowered either, '^', and calls to functions without
// a recognized intrinsic id). The caller (fexpr.Expression)
// treats this as a signal to fall back to the tree interpreter rather
// than emit something that computes the wrong answer.
type unsupportedOp struct {
	detail string
}

func (e *unsupportedOp) Error() string { return "generate: cannot lower " + e.detail }

// jitVar is a lowered sub-expression: either an XMM virtual register or
// a memory reference (variable slot, constant pool entry). readOnly
// mirrors spec §4.6's register discipline: constants and variable
// loads are read-only, so any in-place arithmetic on one must first
// copy it into a fresh writable register.
type jitVar struct {
	val      value.Value
	readOnly bool
}

// function holds the per-compilation state threaded through lowering:
// the module and function being built, the entry block, and the
// append-only constant pool.
type function struct {
	mod    *ir.Module
	fn     *ir.Func
	block  *ir.Block
	user   *ir.Param
	result *ir.Param
	vars   *ir.Param

	pool      []float32
	poolIndex map[float32]int
}

func newFunction(name string) *function {
	mod := ir.NewModule()

	user := ir.NewParam("user", types.NewPointer(types.I8))
	result := ir.NewParam("result_out", types.NewPointer(types.Float))
	vars := ir.NewParam("variables_base", types.NewPointer(types.Float))

	fn := mod.NewFunc(name, types.Void, user, result, vars)
	block := fn.NewBlock("entry")

	return &function{
		mod:       mod,
		fn:        fn,
		block:     block,
		user:      user,
		result:    result,
		vars:      vars,
		poolIndex: make(map[float32]int),
	}
}

// constIndex returns v's slot in the constant pool, appending it if it
// is not already present (deduplicated by value, per spec §4.6).
func (f *function) constIndex(v float32) int {
	if idx, ok := f.poolIndex[v]; ok {
		return idx
	}
	idx := len(f.pool)
	f.pool = append(f.pool, v)
	f.poolIndex[v] = idx
	return idx
}

// loadConstant materializes a constant pool entry as a read-only jitVar.
// Each pool entry is its own module-level global named k<index>,
// defined once on first use and loaded directly by name; there is no
// single pool base address.
func (f *function) loadConstant(v float32) jitVar {
	idx := f.constIndex(v)
	name := fmt.Sprintf("k%d", idx)
	var global *ir.Global
	for _, existing := range f.mod.Globals {
		if existing.Name() == name {
			global = existing
			break
		}
	}
	if global == nil {
		global = f.mod.NewGlobalDef(name, constant.NewFloat(types.Float, float64(v)))
	}
	loaded := f.block.NewLoad(types.Float, global)
	return jitVar{val: loaded, readOnly: true}
}

// loadVariable reads a variable slot as a read-only jitVar.
func (f *function) loadVariable(offset int32) jitVar {
	ptr := f.block.NewGetElementPtr(types.Float, f.vars, constant.NewInt(types.I64, int64(offset/4)))
	loaded := f.block.NewLoad(types.Float, ptr)
	return jitVar{val: loaded, readOnly: true}
}

// writable returns v unchanged if it is already a fresh register,
// otherwise copies it into one, implementing spec §4.6's rule that
// in-place arithmetic on a read-only operand must be preceded by a copy.
func (f *function) writable(v jitVar) jitVar {
	if !v.readOnly {
		return v
	}
	copied := f.block.NewFAdd(v.val, constant.NewFloat(types.Float, 0))
	return jitVar{val: copied, readOnly: false}
}

// Lower performs the single-pass lowering of root into f's entry
// block, storing the final value to *result_out, and returns an error
// (never emitting the function) if root uses a construct with no
// native lowering.
func (f *function) lower(root *ast.Node) error {
	v, err := f.lowerNode(root)
	if err != nil {
		return err
	}
	f.block.NewStore(v.val, f.result)
	f.block.NewRet(nil)
	return nil
}

func (f *function) lowerNode(n *ast.Node) (jitVar, error) {
	switch n.Kind {
	case ast.Block:
		var last jitVar
		for _, stmt := range n.Statements {
			v, err := f.lowerNode(stmt)
			if err != nil {
				return jitVar{}, err
			}
			last = v
		}
		return last, nil

	case ast.Constant:
		return f.loadConstant(n.Value), nil

	case ast.Variable:
		return f.loadVariable(n.Var.ByteOffset()), nil

	case ast.Operator:
		return f.lowerOperator(n)

	case ast.Call:
		return f.lowerCall(n)

	case ast.Transform:
		return f.lowerTransform(n)

	default:
		return jitVar{}, &unsupportedOp{detail: n.Kind.String()}
	}
}

func (f *function) lowerOperator(n *ast.Node) (jitVar, error) {
	if n.Op == ast.Assign {
		rhs, err := f.lowerNode(n.Right)
		if err != nil {
			return jitVar{}, err
		}
		rhs = f.writable(rhs)
		ptr := f.block.NewGetElementPtr(types.Float, f.vars, constant.NewInt(types.I64, int64(n.Left.Var.ByteOffset()/4)))
		f.block.NewStore(rhs.val, ptr)
		return rhs, nil
	}

	if n.Op == ast.Mod {
		return jitVar{}, &unsupportedOp{detail: "'%' (no SSE lowering)"}
	}

	// Identical-variable detection: `x op x` loads the slot once.
	if n.Left.Kind == ast.Variable && n.Right.Kind == ast.Variable &&
		n.Left.Var.ByteOffset() == n.Right.Var.ByteOffset() {
		v := f.loadVariable(n.Left.Var.ByteOffset())
		return f.lowerBinary(n.Op, v, v)
	}

	left, err := f.lowerNode(n.Left)
	if err != nil {
		return jitVar{}, err
	}
	right, err := f.lowerNode(n.Right)
	if err != nil {
		return jitVar{}, err
	}

	// Commutative ops: prefer the writable side as the destination to
	// avoid an extra copy.
	if (n.Op == ast.Add || n.Op == ast.Mul) && left.readOnly && !right.readOnly {
		left, right = right, left
	}

	return f.lowerBinary(n.Op, left, right)
}

func (f *function) lowerBinary(op ast.Op, left, right jitVar) (jitVar, error) {
	dst := f.writable(left)
	var v value.Value
	switch op {
	case ast.Add:
		v = f.block.NewFAdd(dst.val, right.val)
	case ast.Sub:
		v = f.block.NewFSub(dst.val, right.val)
	case ast.Mul:
		v = f.block.NewFMul(dst.val, right.val)
	case ast.Div:
		v = f.block.NewFDiv(dst.val, right.val)
	default:
		return jitVar{}, &unsupportedOp{detail: op.String()}
	}
	return jitVar{val: v, readOnly: false}, nil
}

func (f *function) lowerTransform(n *ast.Node) (jitVar, error) {
	child, err := f.lowerNode(n.Child)
	if err != nil {
		return jitVar{}, err
	}
	if n.TransformKind != ast.Negate {
		return child, nil
	}
	return f.xorSign(child), nil
}

// xorSign implements XORPS against the sign-mask constant: bitcast the
// f32 to i32, xor with 0x80000000, bitcast back.
func (f *function) xorSign(v jitVar) jitVar {
	asInt := f.block.NewBitCast(v.val, types.I32)
	flipped := f.block.NewXor(asInt, constant.NewInt(types.I32, int64(signBit)))
	back := f.block.NewBitCast(flipped, types.Float)
	return jitVar{val: back, readOnly: false}
}

// andClearSign implements ANDPS against the corrected sign-clear mask
// for abs: bitcast, and, bitcast back.
func (f *function) andClearSign(v jitVar) jitVar {
	asInt := f.block.NewBitCast(v.val, types.I32)
	cleared := f.block.NewAnd(asInt, constant.NewInt(types.I32, int64(clearSignBy)))
	back := f.block.NewBitCast(cleared, types.Float)
	return jitVar{val: back, readOnly: false}
}

func (f *function) lowerCall(n *ast.Node) (jitVar, error) {
	fn, ok := n.Func.(*env.Function)
	if !ok {
		return jitVar{}, &unsupportedOp{detail: "call to non-native function binding"}
	}

	args := make([]jitVar, len(n.Args))
	for i, a := range n.Args {
		v, err := f.lowerNode(a)
		if err != nil {
			return jitVar{}, err
		}
		args[i] = v
	}

	switch fn.FunctionID() {
	case env.IDMin:
		return jitVar{val: f.block.NewCall(intrinsicDecl(f.mod, "llvm.minnum.f32"), args[0].val, args[1].val)}, nil
	case env.IDMax:
		return jitVar{val: f.block.NewCall(intrinsicDecl(f.mod, "llvm.maxnum.f32"), args[0].val, args[1].val)}, nil
	case env.IDAvg:
		sum, err := f.lowerBinary(ast.Add, args[0], args[1])
		if err != nil {
			return jitVar{}, err
		}
		half := f.loadConstant(0.5)
		return f.lowerBinary(ast.Mul, sum, half)
	case env.IDAbs:
		return f.andClearSign(args[0]), nil
	case env.IDReciprocal:
		return f.reciprocal(args[0]), nil
	case env.IDSqrt:
		return jitVar{val: f.block.NewCall(intrinsicDecl(f.mod, "llvm.sqrt.f32"), args[0].val)}, nil
	default:
		// fn.Invoke wraps an arbitrary Go closure. Its code pointer has
		// no C-compatible entry point (Go's calling convention, the g
		// register, and any closure context it captures are all absent
		// from a plain call emitted by clang), so a call the JIT itself
		// could make would corrupt memory. Every binding without a
		// recognized intrinsic id is native-code-unsupported; the
		// caller falls back to the tree interpreter.
		return jitVar{}, &unsupportedOp{detail: "call to '" + fn.SymbolName() + "' (no native intrinsic)"}
	}
}

// intrinsicDecl returns (declaring if necessary) an LLVM intrinsic
// function of the given name with a single-precision unary/binary
// float signature, inferred from name's suffix.
func intrinsicDecl(mod *ir.Module, name string) *ir.Func {
	for _, existing := range mod.Funcs {
		if existing.Name() == name {
			return existing
		}
	}
	switch name {
	case "llvm.sqrt.f32":
		return mod.NewFunc(name, types.Float, ir.NewParam("", types.Float))
	default: // binary: minnum, maxnum
		return mod.NewFunc(name, types.Float, ir.NewParam("", types.Float), ir.NewParam("", types.Float))
	}
}

// reciprocal implements RCPSS, the dedicated approximate-reciprocal
// instruction the source generator emits directly on the operand
// (unlike avg, which really is expanded algebraically). RCPSS is a
// packed SSE instruction operating on the low lane of a <4 x float>
// register and ignoring the rest, so the scalar operand is widened
// into an otherwise-undefined vector, run through
// llvm.x86.sse.rcp.ss, and the low lane extracted back out. Its
// relative error (up to ~1.5e-3) is exactly why the interp/JIT
// agreement tolerance is 1e-3 rather than tighter.
func (f *function) reciprocal(v jitVar) jitVar {
	vecTy := types.NewVector(4, types.Float)
	widened := f.block.NewInsertElement(constant.NewUndef(vecTy), v.val, constant.NewInt(types.I32, 0))
	approx := f.block.NewCall(rcpssDecl(f.mod), widened)
	lane := f.block.NewExtractElement(approx, constant.NewInt(types.I32, 0))
	return jitVar{val: lane, readOnly: false}
}

// rcpssDecl returns (declaring if necessary) the x86 RCPSS intrinsic,
// which takes and returns a <4 x float> vector.
func rcpssDecl(mod *ir.Module) *ir.Func {
	const name = "llvm.x86.sse.rcp.ss"
	for _, existing := range mod.Funcs {
		if existing.Name() == name {
			return existing
		}
	}
	vecTy := types.NewVector(4, types.Float)
	return mod.NewFunc(name, vecTy, ir.NewParam("", vecTy))
}
