// Package cmd is fexpr's command-line driver: a thin one-shot/REPL
// evaluator built to exercise the library end to end, following the
// teacher's Execute/olive-based shape rather than the module-build
// pipeline it originally drove.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ComedicChimera/olive"

	"fexpr"
	"fexpr/common"
	"fexpr/config"
	"fexpr/logging"
)

// Execute runs the fexpr command-line application.
func Execute() {
	cli := olive.NewCLI("fexpr", "fexpr compiles and evaluates arithmetic expressions", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warning", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	evalCmd := cli.AddSubcommand("eval", "compile and evaluate a single expression", true)
	evalCmd.AddPrimaryArg("expression", "the expression source text", true)
	evalCmd.AddStringArg("manifest", "m", "path to a TOML bindings manifest", false)
	evalCmd.AddFlag("no-jit", "nj", "force interpreter-only evaluation")
	evalCmd.AddFlag("no-optimize", "no", "skip the optimizer")
	evalCmd.AddFlag("verbose", "vb", "show compile-phase timing and the emitted JIT IR")
	evalCmd.AddStringArg("vars", "v", "comma-separated name=value pairs bound as read/write variables", false)

	cli.AddSubcommand("repl", "read-eval-print loop over stdin", true)
	cli.AddSubcommand("version", "print the fexpr version", false)

	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "eval":
		logging.Initialize(result.Arguments["loglevel"].(string))
		execEval(subResult)
	case "repl":
		logging.Initialize(result.Arguments["loglevel"].(string))
		execRepl()
	case "version":
		logging.PrintInfoMessage("fexpr Version", common.Version)
	}
}

func execEval(result *olive.ArgParseResult) {
	source, _ := result.PrimaryArg()

	e := fexpr.NewEnvironment()
	if err := e.AddBundle(fexpr.Math); err != nil {
		logging.PrintErrorMessage("Environment Error", err)
		return
	}

	names, values, err := bindVars(&e, argString(result, "vars"))
	if err != nil {
		logging.PrintErrorMessage("Variable Error", err)
		return
	}

	if manifestPath := argString(result, "manifest"); manifestPath != "" {
		if err := config.Load(manifestPath, &e); err != nil {
			logging.PrintErrorMessage("Manifest Error", err)
			return
		}
	}

	opts := fexpr.Options(0)
	if v, ok := result.Arguments["no-jit"].(bool); ok && v {
		opts |= fexpr.NoJIT
	}
	if v, ok := result.Arguments["no-optimize"].(bool); ok && v {
		opts |= fexpr.NoOptimize
	}
	if v, ok := result.Arguments["verbose"].(bool); ok && v {
		opts |= fexpr.Verbose
	}

	expr, err := fexpr.Create(e, source, opts)
	if err != nil {
		logging.Global().LogCompileError(source, err)
		return
	}
	defer expr.Destroy()

	value := expr.Evaluate(values)
	logging.PrintInfoMessage("Result", formatResult(value, names, values))

	if jitLog := expr.JITLog(); jitLog != "" {
		logging.PrintInfoMessage("JIT IR", jitLog)
	}
}

// bindVars parses a "name=value,name=value" list into an Environment's
// variable table plus the backing storage array Evaluate reads and
// writes through.
func bindVars(e *fexpr.Environment, spec string) (names []string, values []float32, err error) {
	if spec == "" {
		return nil, nil, nil
	}

	for i, pair := range strings.Split(spec, ",") {
		nameValue := strings.SplitN(pair, "=", 2)
		if len(nameValue) != 2 {
			return nil, nil, fmt.Errorf("malformed binding %q, expected name=value", pair)
		}
		name := strings.TrimSpace(nameValue[0])
		v, perr := strconv.ParseFloat(strings.TrimSpace(nameValue[1]), 32)
		if perr != nil {
			return nil, nil, fmt.Errorf("malformed value in %q: %w", pair, perr)
		}

		if err := e.AddVariable(name, int32(i*4), 0); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		values = append(values, float32(v))
	}

	return names, values, nil
}

func formatResult(value float32, names []string, values []float32) string {
	if len(names) == 0 {
		return fmt.Sprintf("%v", value)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v", value)
	for i, name := range names {
		fmt.Fprintf(&b, "  (%s = %v)", name, values[i])
	}
	return b.String()
}

func argString(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// execRepl reads expressions from stdin one line at a time, evaluating
// each against a shared Environment that holds the All bundle and no
// variables, so every line is evaluated on its own with no variable
// storage.
func execRepl() {
	e := fexpr.NewEnvironment()
	if err := e.AddBundle(fexpr.All); err != nil {
		logging.PrintErrorMessage("Environment Error", err)
		return
	}

	logging.PrintInfoMessage("fexpr", common.Version+" REPL, empty line to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return
		}

		expr, err := fexpr.Create(e, line, fexpr.Verbose)
		if err != nil {
			logging.Global().LogCompileError(line, err)
			continue
		}
		value := expr.Evaluate(nil)
		expr.Destroy()
		logging.PrintInfoMessage("=", fmt.Sprintf("%v", value))
	}
}
