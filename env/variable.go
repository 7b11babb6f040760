package env

// VarFlags carries the per-variable behavior bits spec §3.1 describes.
type VarFlags uint8

const (
	// ReadOnly forbids assignment through this variable; the parser
	// rejects `name = expr` for such a binding at compile time.
	ReadOnly VarFlags = 1 << iota
)

// Variable is a variable binding: a name resolves to a byte offset into
// the caller-supplied f32 array handed to the evaluator at call time.
type Variable struct {
	name   string
	offset int32
	flags  VarFlags
}

func NewVariable(name string, offset int32, flags VarFlags) *Variable {
	return &Variable{name: name, offset: offset, flags: flags}
}

func (v *Variable) SymbolName() string { return v.name }
func (v *Variable) ByteOffset() int32  { return v.offset }
func (v *Variable) ReadOnly() bool     { return v.flags&ReadOnly != 0 }

func (v *Variable) equal(other *Variable) bool {
	return v.name == other.name && v.offset == other.offset && v.flags == other.flags
}
