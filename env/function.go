package env

// Intrinsic function ids the native code generator recognizes for inline
// lowering (spec §4.1, §4.6). IDNone marks a function with no intrinsic
// lowering; the native code generator does not lower calls to it.
const (
	IDNone = iota
	IDMin
	IDMax
	IDAvg
	IDCeil
	IDFloor
	IDRound
	IDAbs
	IDReciprocal
	IDSqrt
	IDPow
	IDLog
	IDLog10
	IDSin
	IDCos
	IDTan
	IDSinh
	IDCosh
	IDTanh
	IDAsin
	IDAcos
	IDAtan
	IDAtan2
)

// MaxArity is the largest argument count a function binding may declare.
const MaxArity = 8

// NativeFunc is the Go-callable form of a function binding. It always
// receives exactly Arity() arguments in args: registration checks that
// the arity is within 0..MaxArity, and the parser rejects any call whose
// argument count differs from it.
type NativeFunc func(args []float32) float32

// Function is a function binding: a name resolves to a callable native
// function, its arity, whether the optimizer may fold calls to it at
// compile time, and (for the native code generator's intrinsic
// lowering) a numeric function id. Bindings without a recognized
// intrinsic id have no native lowering at all: a Go closure's code
// pointer has no C-ABI entry point a JIT'd caller could invoke, so the
// native code generator only ever calls through functionID's inline
// lowering and falls back to the interpreter for anything else.
type Function struct {
	name       string
	call       NativeFunc
	arity      int
	foldable   bool
	functionID int
}

// NewFunction builds a Function binding.
func NewFunction(name string, fn NativeFunc, arity int, foldable bool, functionID int) *Function {
	return &Function{
		name:       name,
		call:       fn,
		arity:      arity,
		foldable:   foldable,
		functionID: functionID,
	}
}

func (f *Function) SymbolName() string { return f.name }
func (f *Function) Arity() int         { return f.arity }
func (f *Function) Foldable() bool     { return f.foldable }
func (f *Function) FunctionID() int    { return f.functionID }

// Invoke calls the bound function. Callers (parser, interpreter) are
// responsible for ensuring len(args) == Arity(); this is checked once
// at parse time per spec's arguments-mismatch contract rather than on
// every evaluation.
func (f *Function) Invoke(args []float32) float32 {
	return f.call(args)
}

func (f *Function) equal(other *Function) bool {
	return f.name == other.name &&
		f.arity == other.arity &&
		f.foldable == other.foldable &&
		f.functionID == other.functionID
}
