// Package interp implements the tree interpreter: a recursive evaluator
// over the AST that serves both as the correctness reference for the
// native code generator and as its fallback when JIT emission fails.
package interp

import (
	"math"

	"fexpr/ast"
)

// floatsPerWord is the stride between variable slots: offsets are byte
// offsets into the caller's f32 array (spec §3.1), and a float32 is 4
// bytes wide.
const floatsPerWord = 4

// Evaluate walks root and returns its value, reading and writing
// variables through variablesBase, which the caller owns.
func Evaluate(root *ast.Node, variablesBase []float32) float32 {
	return eval(root, variablesBase)
}

func eval(n *ast.Node, vars []float32) float32 {
	switch n.Kind {
	case ast.Block:
		var value float32
		for _, stmt := range n.Statements {
			value = eval(stmt, vars)
		}
		return value

	case ast.Constant:
		return n.Value

	case ast.Variable:
		return vars[n.Var.ByteOffset()/floatsPerWord]

	case ast.Operator:
		if n.Op == ast.Assign {
			value := eval(n.Right, vars)
			vars[n.Left.Var.ByteOffset()/floatsPerWord] = value
			return value
		}
		return binaryOp(n.Op, eval(n.Left, vars), eval(n.Right, vars))

	case ast.Call:
		args := make([]float32, len(n.Args))
		for i, a := range n.Args {
			args[i] = eval(a, vars)
		}
		return n.Func.Invoke(args)

	case ast.Transform:
		value := eval(n.Child, vars)
		if n.TransformKind == ast.Negate {
			return -value
		}
		return value

	default:
		panic("interp: unreachable node kind")
	}
}

func binaryOp(op ast.Op, l, r float32) float32 {
	switch op {
	case ast.Add:
		return l + r
	case ast.Sub:
		return l - r
	case ast.Mul:
		return l * r
	case ast.Div:
		return l / r
	case ast.Mod:
		return float32(math.Mod(float64(l), float64(r)))
	case ast.Pow:
		return float32(math.Pow(float64(l), float64(r)))
	default:
		panic("interp: unreachable operator")
	}
}
