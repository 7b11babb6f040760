package generate

import (
	"fmt"

	"fexpr/ast"
)

// Compiled is a finalized native evaluator for one expression, plus the
// teardown hook for the resources its Emitter allocated.
type Compiled struct {
	Eval    EvalFunc
	Release func()
	// IRText is the textual LLVM IR that was finalized, kept only for
	// callers that want to inspect what was emitted (spec's Verbose
	// option).
	IRText string
}

// Generate lowers root to native code through e and returns a Compiled
// evaluator. It returns an error, without any side effect the caller
// need undo, whenever root uses a construct the generator does not
// support (currently: '%', '^', and calls to functions without a
// recognized intrinsic id); callers are expected to fall back to
// interp.Evaluate in that case rather than treat it as fatal, matching
// spec's requirement that JIT fallback only ever be observable as a
// slower evaluation path, never a wrong one.
func Generate(e Emitter, root *ast.Node) (*Compiled, error) {
	fn := newFunction("eval")

	if err := fn.lower(root); err != nil {
		return nil, err
	}

	irText := fn.mod.String()

	eval, release, err := e.Finalize(irText, "eval")
	if err != nil {
		return nil, fmt.Errorf("generate: finalize: %w", err)
	}

	return &Compiled{Eval: eval, Release: release, IRText: irText}, nil
}
