package generate

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ebitengine/purego"
)

// EvalFunc is the ABI a finalized compiled expression exposes: it reads
// caller-owned variable storage and the constant pool that was baked
// into the emitted object, and writes the expression's value through
// result.
type EvalFunc func(user uintptr, result *float32, variablesBase *float32)

// Emitter turns an in-memory LLVM module into a callable EvalFunc. It
// is the abstract collaborator spec §4.6 treats the code generator's
// backend as: this package only ever talks to it through Finalize, so
// swapping the toolchain (or, on a platform without one, skipping
// native codegen and falling back to the interpreter) never touches
// the lowering logic in lower.go.
type Emitter interface {
	Finalize(irText, symbol string) (EvalFunc, func(), error)
}

// ToolchainEmitter finalizes a module by shelling out to clang to
// compile textual LLVM IR straight to a shared object, then loading it
// with purego, which gives fexpr a callable Go func value without
// cgo. This mirrors the split the teacher's own generator took: build
// the IR with llir/llvm, hand the actual machine-code emission to an
// external toolchain.
type ToolchainEmitter struct {
	// Clang is the compiler invoked to turn IR into a shared object.
	// Defaults to "clang" when empty.
	Clang string
}

func (e *ToolchainEmitter) clang() string {
	if e.Clang != "" {
		return e.Clang
	}
	return "clang"
}

// Finalize writes irText to a temporary .ll file, compiles it to a
// shared object with -O2, dlopens it, and binds symbol as an EvalFunc.
// The returned cleanup func removes the temporary files and must be
// called once the EvalFunc is no longer needed; it does not unload the
// library, since purego provides no safe unload primitive and the
// process lifetime is expected to own it.
func (e *ToolchainEmitter) Finalize(irText, symbol string) (EvalFunc, func(), error) {
	dir, err := os.MkdirTemp("", "fexpr-jit-")
	if err != nil {
		return nil, nil, fmt.Errorf("generate: create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	irPath := filepath.Join(dir, "expr.ll")
	if err := os.WriteFile(irPath, []byte(irText), 0o600); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("generate: write IR: %w", err)
	}

	soPath := filepath.Join(dir, "expr.so")
	cmd := exec.Command(e.clang(), "-O2", "-shared", "-fPIC", irPath, "-o", soPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("generate: clang failed: %w: %s", err, out)
	}

	lib, err := purego.Dlopen(soPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("generate: dlopen: %w", err)
	}

	var fn func(user uintptr, result *float32, variablesBase *float32)
	purego.RegisterLibFunc(&fn, lib, symbol)

	return EvalFunc(fn), cleanup, nil
}
