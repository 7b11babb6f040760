package syntax

import (
	"fexpr/ast"
	"fexpr/common"
	"fexpr/env"
)

// Precedence & associativity table (spec §4.3). Unary minus is handled
// separately in parseUnary; see the comment there for why it does not
// simply use unary minus's nominal precedence (25) as its own
// right-binding power.
const (
	precAssign = 5
	precAdd    = 10
	precMul    = 15
	precPow    = 20
)

var precedence = map[byte]int{
	'=': precAssign,
	'+': precAdd,
	'-': precAdd,
	'*': precMul,
	'/': precMul,
	'%': precMul,
	'^': precPow,
}

var rightAssoc = map[byte]bool{
	'=': true,
	'^': true,
}

func opFromByte(b byte) ast.Op {
	switch b {
	case '=':
		return ast.Assign
	case '+':
		return ast.Add
	case '-':
		return ast.Sub
	case '*':
		return ast.Mul
	case '/':
		return ast.Div
	case '%':
		return ast.Mod
	case '^':
		return ast.Pow
	default:
		panic("syntax: unreachable operator byte")
	}
}

// Parser is a Pratt-style operator-precedence parser that resolves
// symbols against an Environment as it goes, producing a typed AST
// directly rather than a generic parse tree.
type Parser struct {
	src string
	tok *Tokenizer
	env env.Environment
	b   ast.Builder
}

func NewParser(src string, e env.Environment) *Parser {
	return &Parser{src: src, tok: NewTokenizer(src), env: e}
}

// Builder returns the id-minting Builder this Parser uses for every
// node it creates. Callers that rewrite the resulting tree (e.g. the
// optimizer) must reuse this same Builder rather than minting a fresh
// one, since two independent Builders both start numbering at 0 and
// would hand out colliding ids within a single compilation.
func (p *Parser) Builder() *ast.Builder {
	return &p.b
}

func (p *Parser) errorAt(code common.Code, message string, tok Token) error {
	return common.NewPositionedError(code, message, common.Position{Offset: tok.Offset, Length: tok.Length})
}

// Parse consumes the whole token stream and returns the root of the
// resulting AST: a single node for one statement, a Block for several,
// and a no-expression error for empty input.
func (p *Parser) Parse() (*ast.Node, error) {
	var statements []*ast.Node

	for {
		tok := p.tok.Peek()
		if tok.Kind == EndOfInput {
			break
		}
		if tok.Kind == Semicolon {
			p.tok.Next()
			continue
		}

		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		statements = append(statements, expr)

		tok = p.tok.Peek()
		switch tok.Kind {
		case Semicolon:
			p.tok.Next()
			continue
		case EndOfInput:
		default:
			p.tok.Next()
			return nil, p.errorAt(common.UnexpectedToken, "expected ';' or end of input", tok)
		}
		break
	}

	switch len(statements) {
	case 0:
		return nil, common.NewError(common.NoExpression, "no expression to parse")
	case 1:
		return statements[0], nil
	default:
		return p.b.NewBlock(statements), nil
	}
}

// parseExpr implements precedence climbing: it will not return until
// the next operator's precedence drops below minPrec.
func (p *Parser) parseExpr(minPrec int) (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.tok.Peek()
		if tok.Kind != Operator {
			break
		}
		prec, ok := precedence[tok.Op]
		if !ok || prec < minPrec {
			break
		}
		p.tok.Next()

		nextMin := prec + 1
		if rightAssoc[tok.Op] {
			nextMin = prec
		}

		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}

		op := opFromByte(tok.Op)
		if op == ast.Assign && left.Kind != ast.Variable {
			return nil, p.errorAt(common.AssignmentToNonVariable, "left side of '=' must be a variable", tok)
		}
		if op == ast.Assign && left.Var.ReadOnly() {
			return nil, p.errorAt(common.AssignmentToNonVariable, "cannot assign to read-only variable '"+left.Var.SymbolName()+"'", tok)
		}

		left = p.b.NewOperator(op, left, right)
	}

	return left, nil
}

// parseUnary handles the optional leading '+'/'-' before an atom. A
// leading '+' is discarded. A leading '-' recurses at precPow rather
// than at unary minus's own nominal precedence (25): this is what
// makes `-a^2` parse as `Transform(negate, Pow(a, 2))` instead of
// `Pow(Transform(negate, a), 2)`, matching the documented redesign of
// the source parser's associativity quirk (unary minus reads as loose
// as `^` is tight, then binds tighter than every operator weaker than
// `^`).
func (p *Parser) parseUnary() (*ast.Node, error) {
	tok := p.tok.Peek()

	if tok.Kind == Operator && tok.Op == '+' {
		p.tok.Next()
		return p.parseUnary()
	}

	if tok.Kind == Operator && tok.Op == '-' {
		p.tok.Next()
		operand, err := p.parseExpr(precPow)
		if err != nil {
			return nil, err
		}
		return p.b.NewTransform(ast.Negate, operand), nil
	}

	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.tok.Next()

	switch tok.Kind {
	case Integer, Float:
		value, ok := ParseNumber(tok.Payload)
		if !ok {
			return nil, p.errorAt(common.InvalidToken, "malformed numeric literal", tok)
		}
		return p.b.NewConstant(value), nil

	case LParen:
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		closing := p.tok.Next()
		if closing.Kind != RParen {
			return nil, p.errorAt(common.UnexpectedToken, "expected ')'", closing)
		}
		return inner, nil

	case Symbol:
		name := tok.Payload
		if p.tok.Peek().Kind == LParen {
			return p.parseCall(name, tok)
		}

		kind, constVal, variable, _ := p.env.Resolve(name)
		switch kind {
		case env.BindingConstant:
			return p.b.NewConstant(constVal), nil
		case env.BindingVariable:
			return p.b.NewVariable(variable), nil
		case env.BindingFunction:
			return nil, p.errorAt(common.NoSymbol, "function '"+name+"' used without call syntax", tok)
		default:
			return nil, p.errorAt(common.NoSymbol, "undefined symbol '"+name+"'", tok)
		}

	case InvalidToken:
		return nil, p.errorAt(common.InvalidToken, "invalid token", tok)

	default:
		return nil, p.errorAt(common.ExpectedExpression, "expected an expression", tok)
	}
}

func (p *Parser) parseCall(name string, nameTok Token) (*ast.Node, error) {
	p.tok.Next() // consume '('

	kind, _, _, fn := p.env.Resolve(name)
	if kind != env.BindingFunction {
		return nil, p.errorAt(common.NoSymbol, "undefined function '"+name+"'", nameTok)
	}

	var args []*ast.Node
	if p.tok.Peek().Kind != RParen {
		for {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.tok.Peek().Kind == Comma {
				p.tok.Next()
				continue
			}
			break
		}
	}

	closing := p.tok.Next()
	if closing.Kind != RParen {
		return nil, p.errorAt(common.UnexpectedToken, "expected ')'", closing)
	}

	if len(args) != fn.Arity() {
		message := "too many arguments"
		if len(args) < fn.Arity() {
			message = "not enough arguments"
		}
		return nil, p.errorAt(common.ArgumentsMismatch, message, nameTok)
	}

	return p.b.NewCall(fn, args), nil
}
