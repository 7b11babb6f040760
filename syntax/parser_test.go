package syntax

import (
	"errors"
	"testing"

	"fexpr/ast"
	"fexpr/common"
	"fexpr/env"
)

func testEnv(t *testing.T) env.Environment {
	t.Helper()
	e := env.New()
	if err := e.AddVariable("x", 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.AddVariable("y", 4, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.AddBundle(env.Math); err != nil {
		t.Fatal(err)
	}
	return e
}

// TestPrecedence is testable property 7.
func TestPrecedence(t *testing.T) {
	e := testEnv(t)

	root, err := NewParser("x+y*x", e).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != ast.Operator || root.Op != ast.Add {
		t.Fatalf("a+b*c: top node = %v %v, want Add", root.Kind, root.Op)
	}
	if root.Right.Kind != ast.Operator || root.Right.Op != ast.Mul {
		t.Fatalf("a+b*c: right child = %v %v, want Mul", root.Right.Kind, root.Right.Op)
	}

	root, err = NewParser("x^x^y", e).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != ast.Operator || root.Op != ast.Pow {
		t.Fatalf("a^b^c: top node = %v %v, want Pow", root.Kind, root.Op)
	}
	if root.Right.Kind != ast.Operator || root.Right.Op != ast.Pow {
		t.Fatalf("a^b^c: right associativity broken, right child = %v", root.Right.Kind)
	}

	root, err = NewParser("-x^2", e).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != ast.Transform || root.TransformKind != ast.Negate {
		t.Fatalf("-a^2: top node = %v, want Transform(negate)", root.Kind)
	}
	if root.Child.Kind != ast.Operator || root.Child.Op != ast.Pow {
		t.Fatalf("-a^2: child = %v, want Pow", root.Child.Kind)
	}
}

func TestParseDeterminism(t *testing.T) {
	e := testEnv(t)
	src := "(x+y)*(1.19+x)-min(x,y)"

	a, err := NewParser(src, e).Parse()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewParser(src, e).Parse()
	if err != nil {
		t.Fatal(err)
	}

	if shape(a) != shape(b) {
		t.Fatalf("parse(s) not deterministic: %q != %q", shape(a), shape(b))
	}
}

func shape(n *ast.Node) string {
	switch n.Kind {
	case ast.Constant:
		return "C"
	case ast.Variable:
		return "V(" + n.Var.SymbolName() + ")"
	case ast.Operator:
		return "(" + shape(n.Left) + n.Op.String() + shape(n.Right) + ")"
	case ast.Call:
		s := n.Func.SymbolName() + "("
		for i, a := range n.Args {
			if i > 0 {
				s += ","
			}
			s += shape(a)
		}
		return s + ")"
	case ast.Transform:
		return "neg(" + shape(n.Child) + ")"
	case ast.Block:
		s := "{"
		for i, stmt := range n.Statements {
			if i > 0 {
				s += ";"
			}
			s += shape(stmt)
		}
		return s + "}"
	default:
		return "?"
	}
}

func TestParseErrors(t *testing.T) {
	e := testEnv(t)

	tests := []struct {
		src  string
		code common.Code
	}{
		{"", common.NoExpression},
		{"1x", common.InvalidToken},
		{"1 +", common.ExpectedExpression},
		{"1 = 2", common.AssignmentToNonVariable},
		{"nosuchsymbol", common.NoSymbol},
		{"min(1)", common.ArgumentsMismatch},
		{"min(1,2,3)", common.ArgumentsMismatch},
		{"(1", common.UnexpectedToken},
	}

	for _, tc := range tests {
		_, err := NewParser(tc.src, e).Parse()
		if err == nil {
			t.Errorf("parse(%q) succeeded, want error %v", tc.src, tc.code)
			continue
		}
		var ce *common.Error
		if !errors.As(err, &ce) {
			t.Errorf("parse(%q) error is not *common.Error: %v", tc.src, err)
			continue
		}
		if ce.Code != tc.code {
			t.Errorf("parse(%q) code = %v, want %v", tc.src, ce.Code, tc.code)
		}
	}
}

func TestParseAssignmentRequiresVariable(t *testing.T) {
	e := testEnv(t)
	root, err := NewParser("x = y + 1", e).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != ast.Operator || root.Op != ast.Assign {
		t.Fatalf("x = y+1: top = %v %v, want Assign", root.Kind, root.Op)
	}
}
