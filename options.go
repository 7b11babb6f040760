package fexpr

// Options is a bit set controlling how Create compiles an expression.
type Options uint8

const (
	// NoJIT forces interpreter-only evaluation, skipping native code
	// generation entirely.
	NoJIT Options = 1 << iota
	// NoOptimize skips the algebraic rewrite pass, compiling the AST
	// exactly as parsed. Mostly useful for testing the optimizer
	// itself against its own input.
	NoOptimize
	// Verbose captures the emitted LLVM IR text for inspection via
	// Expression.JITLog, instead of discarding it once finalized.
	Verbose
)

func (o Options) has(flag Options) bool { return o&flag != 0 }
