// Package optimize implements the bottom-up algebraic rewrite pass:
// constant folding, zero/one/negative-one identities, and constant
// reassociation across associative operators (spec §4.4).
package optimize

import (
	"math"

	"fexpr/ast"
)

// Optimize rewrites root in place (returning the possibly-new root) and
// reuses b to mint any replacement nodes, so ids stay unique within the
// compilation that produced root.
func Optimize(b *ast.Builder, root *ast.Node) *ast.Node {
	result := optimizeNode(b, root)
	result.Parent = nil
	return result
}

func optimizeNode(b *ast.Builder, n *ast.Node) *ast.Node {
	switch n.Kind {
	case ast.Block:
		for i, s := range n.Statements {
			r := optimizeNode(b, s)
			r.Parent = n
			n.Statements[i] = r
		}
		return n
	case ast.Operator:
		return optimizeOperator(b, n)
	case ast.Call:
		return optimizeCall(b, n)
	case ast.Transform:
		return optimizeTransform(b, n)
	default: // Constant, Variable: leaves, nothing to rewrite
		return n
	}
}

func optimizeOperator(b *ast.Builder, n *ast.Node) *ast.Node {
	left := optimizeNode(b, n.Left)
	left.Parent = n
	n.Left = left

	right := optimizeNode(b, n.Right)
	right.Parent = n
	n.Right = right

	if n.Op != ast.Assign && left.Kind == ast.Constant && right.Kind == ast.Constant {
		return b.NewConstant(evalConstOp(n.Op, left.Value, right.Value))
	}

	if n.Op != ast.Assign {
		if left.Kind == ast.Constant && right.Kind != ast.Constant {
			if repl, ok := identity(b, n.Op, left.Value, right, true); ok {
				return repl
			}
		} else if right.Kind == ast.Constant && left.Kind != ast.Constant {
			if repl, ok := identity(b, n.Op, right.Value, left, false); ok {
				return repl
			}
		}
	}

	if n.Op == ast.Add || n.Op == ast.Mul {
		if left.Kind == ast.Constant && right.Kind != ast.Constant {
			if repl, ok := reassociate(b, n.Op, left.Value, right); ok {
				return repl
			}
		} else if right.Kind == ast.Constant && left.Kind != ast.Constant {
			if repl, ok := reassociate(b, n.Op, right.Value, left); ok {
				return repl
			}
		}
	}

	return n
}

func optimizeCall(b *ast.Builder, n *ast.Node) *ast.Node {
	allConstant := true
	for i, a := range n.Args {
		r := optimizeNode(b, a)
		r.Parent = n
		n.Args[i] = r
		if !r.IsConstant() {
			allConstant = false
		}
	}

	if allConstant && n.Func.Foldable() {
		args := make([]float32, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.Value
		}
		return b.NewConstant(n.Func.Invoke(args))
	}

	return n
}

func optimizeTransform(b *ast.Builder, n *ast.Node) *ast.Node {
	child := optimizeNode(b, n.Child)
	child.Parent = n
	n.Child = child

	if n.TransformKind == ast.Negate {
		if child.Kind == ast.Constant {
			return b.NewConstant(-child.Value)
		}
		if child.Kind == ast.Transform && child.TransformKind == ast.Negate {
			return child.Child
		}
	}

	return n
}

func evalConstOp(op ast.Op, l, r float32) float32 {
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
		panic("optimize: cannot fold assignment")
	}
}

// identity applies the v=0/1/-1 algebraic identities of spec §4.4. c is
// the constant operand's value, other is the non-constant sibling, and
// constOnLeft says whether c was the operator's left child (so other
// was the right child) or vice versa.
func identity(b *ast.Builder, op ast.Op, c float32, other *ast.Node, constOnLeft bool) (*ast.Node, bool) {
	switch c {
	case 0:
		switch op {
		case ast.Add:
			return other, true
		case ast.Mul:
			return b.NewConstant(0), true
		case ast.Sub:
			if constOnLeft {
				return b.NewTransform(ast.Negate, other), true // 0 - x -> -x
			}
			return other, true // x - 0 -> x
		case ast.Div:
			if constOnLeft {
				return b.NewConstant(0), true // 0 / x -> 0
			}
			// x / 0 is left unchanged; runtime yields inf/NaN per IEEE-754.
		}
	case 1:
		switch op {
		case ast.Mul:
			return other, true
		case ast.Div:
			if !constOnLeft {
				return other, true // x / 1 -> x
			}
		case ast.Pow:
			if !constOnLeft {
				return other, true // x ^ 1 -> x
			}
			return b.NewConstant(1), true // 1 ^ x -> 1
		}
	case -1:
		switch op {
		case ast.Mul:
			return b.NewTransform(ast.Negate, other), true
		case ast.Div:
			if !constOnLeft {
				return b.NewTransform(ast.Negate, other), true // x / -1 -> -x
			}
		}
	}
	return nil, false
}

// reassociate looks for a Constant reachable from tree through a chain
// of Operator nodes of the same op, folds it together with c, and
// splices the remainder back in, per spec §4.4's associative
// reassociation rule. It returns ok=false if no such constant exists.
func reassociate(b *ast.Builder, op ast.Op, c float32, tree *ast.Node) (*ast.Node, bool) {
	site := findFoldableConstant(op, tree)
	if site == nil {
		return nil, false
	}

	var innerConst float32
	var remainder *ast.Node
	if site.leftIsConstant {
		innerConst = site.node.Left.Value
		remainder = site.node.Right
	} else {
		innerConst = site.node.Right.Value
		remainder = site.node.Left
	}

	combined := evalConstOp(op, c, innerConst)

	if site.node == tree {
		return b.NewOperator(op, b.NewConstant(combined), remainder), true
	}

	ast.Replace(site.node, remainder)
	return b.NewOperator(op, b.NewConstant(combined), tree), true
}

type foldSite struct {
	node           *ast.Node
	leftIsConstant bool
}

// findFoldableConstant descends through Operator nodes sharing op
// looking for one with a Constant child, stopping at the first
// non-same-op node (the fold must not reach through a different
// operator, since that would change the expression's meaning).
func findFoldableConstant(op ast.Op, n *ast.Node) *foldSite {
	if n.Kind != ast.Operator || n.Op != op {
		return nil
	}
	if n.Left.Kind == ast.Constant {
		return &foldSite{node: n, leftIsConstant: true}
	}
	if n.Right.Kind == ast.Constant {
		return &foldSite{node: n, leftIsConstant: false}
	}
	if site := findFoldableConstant(op, n.Left); site != nil {
		return site
	}
	return findFoldableConstant(op, n.Right)
}
