package env

import (
	"math"

	"fexpr/common"
)

// Bundle identifies a pre-packaged group of bindings loadable in one call.
type Bundle int

const (
	// Math registers E, PI, and the closed list of unary/binary math
	// functions with their intrinsic ids.
	Math Bundle = iota + 1
	// All loads every defined bundle. Math is currently the only one,
	// so All is equivalent to Math, but callers should prefer All when
	// they mean "everything this version of fexpr ships" since future
	// bundles join the All rotation automatically.
	All

	bundleCount
)

func unary(f func(float32) float32) NativeFunc {
	return func(args []float32) float32 { return f(args[0]) }
}

func binary(f func(float32, float32) float32) NativeFunc {
	return func(args []float32) float32 { return f(args[0], args[1]) }
}

func f32(f func(float64) float64) func(float32) float32 {
	return func(x float32) float32 { return float32(f(float64(x))) }
}

func f32_2(f func(float64, float64) float64) func(float32, float32) float32 {
	return func(x, y float32) float32 { return float32(f(float64(x), float64(y))) }
}

// AddBundle loads a pre-packaged group of bindings into e.
func (e *Environment) AddBundle(b Bundle) error {
	switch b {
	case Math:
		return e.addMathBundle()
	case All:
		for i := Bundle(1); i < bundleCount; i++ {
			if err := e.AddBundle(i); err != nil {
				return err
			}
		}
		return nil
	default:
		return common.NewError(common.InvalidArgument, "unknown environment bundle")
	}
}

func (e *Environment) addMathBundle() error {
	if err := e.AddConstant("E", float32(math.E)); err != nil {
		return err
	}
	if err := e.AddConstant("PI", float32(math.Pi)); err != nil {
		return err
	}

	minf := func(x, y float32) float32 {
		if x < y {
			return x
		}
		return y
	}
	maxf := func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	}
	avgf := func(x, y float32) float32 { return (x + y) * 0.5 }
	reciprocal := func(x float32) float32 { return 1 / x }

	type fn struct {
		name  string
		arity int
		id    int
		call  NativeFunc
	}

	fns := []fn{
		{"min", 2, IDMin, binary(minf)},
		{"max", 2, IDMax, binary(maxf)},
		{"avg", 2, IDAvg, binary(avgf)},
		{"ceil", 1, IDCeil, unary(f32(math.Ceil))},
		{"floor", 1, IDFloor, unary(f32(math.Floor))},
		{"round", 1, IDRound, unary(f32(math.Round))},
		{"abs", 1, IDAbs, unary(f32(math.Abs))},
		{"reciprocal", 1, IDReciprocal, unary(reciprocal)},
		{"sqrt", 1, IDSqrt, unary(f32(math.Sqrt))},
		{"pow", 2, IDPow, binary(f32_2(math.Pow))},
		{"log", 1, IDLog, unary(f32(math.Log))},
		{"log10", 1, IDLog10, unary(f32(math.Log10))},
		{"sin", 1, IDSin, unary(f32(math.Sin))},
		{"cos", 1, IDCos, unary(f32(math.Cos))},
		{"tan", 1, IDTan, unary(f32(math.Tan))},
		{"sinh", 1, IDSinh, unary(f32(math.Sinh))},
		{"cosh", 1, IDCosh, unary(f32(math.Cosh))},
		{"tanh", 1, IDTanh, unary(f32(math.Tanh))},
		{"asin", 1, IDAsin, unary(f32(math.Asin))},
		{"acos", 1, IDAcos, unary(f32(math.Acos))},
		{"atan", 1, IDAtan, unary(f32(math.Atan))},
		{"atan2", 2, IDAtan2, binary(f32_2(math.Atan2))},
	}

	for _, f := range fns {
		if err := e.AddFunction(f.name, f.call, f.arity, true, f.id); err != nil {
			return err
		}
	}
	return nil
}
