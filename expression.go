package fexpr

import (
	"fexpr/ast"
	"fexpr/generate"
	"fexpr/interp"
	"fexpr/logging"
	"fexpr/optimize"
	"fexpr/syntax"
)

// Expression is a compiled, ready-to-evaluate expression: an owned
// snapshot of the Environment it was resolved against, plus either a
// finalized native evaluator or (if compiled with NoJIT, or if native
// emission failed) the AST for tree-walking fallback.
type Expression struct {
	env  Environment
	root *ast.Node

	compiled *generate.Compiled
	jitLog   string
}

// Create parses, optionally optimizes, and (unless NoJIT is set)
// natively compiles source against e, returning a ready Expression. e
// is cloned, so later mutations to the caller's Environment are not
// observed by the returned Expression (spec §5's isolation guarantee).
//
// If native compilation fails or is disabled, evaluation transparently
// falls back to the tree interpreter; this is never surfaced as an
// error (spec §7). Results of the two paths can differ slightly: the
// native path computes reciprocal with the approximate RCPSS
// instruction.
func Create(e Environment, source string, opts Options) (*Expression, error) {
	snapshot := e.Clone()
	verbose := opts.has(Verbose)
	log := logging.Global()

	if verbose {
		log.BeginPhase("Parsing")
	}
	parser := syntax.NewParser(source, snapshot)
	root, err := parser.Parse()
	if verbose {
		log.EndPhase(err == nil)
	}
	if err != nil {
		return nil, err
	}

	if !opts.has(NoOptimize) {
		if verbose {
			log.BeginPhase("Optimizing")
		}
		// Reuse the parser's own Builder so every replacement node the
		// optimizer mints continues that Builder's id sequence instead
		// of colliding with still-live ids from the parse (ast.Builder
		// ids are only unique within a single Builder's lifetime).
		root = optimize.Optimize(parser.Builder(), root)
		if verbose {
			log.EndPhase(true)
		}
	}

	expr := &Expression{env: snapshot, root: root}

	if !opts.has(NoJIT) {
		if verbose {
			log.BeginPhase("Generating")
		}
		compiled, jitErr := generate.Generate(&generate.ToolchainEmitter{}, root)
		if verbose {
			log.EndPhase(jitErr == nil)
		}
		if jitErr == nil {
			expr.compiled = compiled
			if verbose {
				expr.jitLog = compiled.IRText
			}
		}
		// jitErr != nil: fall through to interpreter, never surfaced
		// to the caller as a compile failure.
	}

	return expr, nil
}

// Evaluate runs the compiled expression against variablesBase, which
// the caller owns and which Variable bindings index into by byte
// offset. Assignment writes are committed back into variablesBase.
func (x *Expression) Evaluate(variablesBase []float32) float32 {
	if x.compiled != nil {
		var result float32
		var base *float32
		if len(variablesBase) > 0 {
			base = &variablesBase[0]
		}
		x.compiled.Eval(0, &result, base)
		return result
	}
	return interp.Evaluate(x.root, variablesBase)
}

// JITLog returns the LLVM IR text captured for this expression when it
// was created with the Verbose option and native compilation
// succeeded. It is empty otherwise.
func (x *Expression) JITLog() string {
	return x.jitLog
}

// Destroy removes the temporary files behind the Expression's native
// code, if any, and stops using the native evaluator. The shared object
// that was loaded stays mapped for the life of the process. It is safe
// to call more than once and safe to omit for interpreter-only
// expressions.
func (x *Expression) Destroy() {
	if x.compiled != nil && x.compiled.Release != nil {
		x.compiled.Release()
		x.compiled = nil
	}
}
