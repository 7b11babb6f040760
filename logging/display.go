package logging

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"fexpr/common"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// PrintErrorMessage prints a standard Go error to the console.
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console.
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the console.
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// displayCompileError prints a banner for err and, if it carries a
// source position, the offending slice of source underlined.
func displayCompileError(source string, err error) {
	fmt.Print("\n-- ")

	var ce *common.Error
	if errors.As(err, &ce) {
		ErrorStyleBG.Print(ce.Code.String() + " ")
		fmt.Println()
		fmt.Println(ce.Message)
		if ce.Position.Length > 0 {
			displaySourceSelection(source, ce.Position)
		}
		return
	}

	ErrorStyleBG.Print("error ")
	fmt.Println()
	PrintErrorMessage("error", err)
}

// displaySourceSelection prints the line containing pos and underlines
// the offending span, computing line/column from the byte offset since
// fexpr's tokens carry offsets, not line/column pairs (spec §4.2).
func displaySourceSelection(source string, pos common.Position) {
	lineStart := strings.LastIndexByte(source[:pos.Offset], '\n') + 1
	lineEnd := len(source)
	if idx := strings.IndexByte(source[pos.Offset:], '\n'); idx >= 0 {
		lineEnd = pos.Offset + idx
	}
	line := source[lineStart:lineEnd]
	col := pos.Offset - lineStart

	fmt.Println()
	fmt.Print("  ")
	fmt.Println(line)
	fmt.Print("  ")
	fmt.Print(strings.Repeat(" ", col))
	length := pos.Length
	if col+length > len(line) {
		length = len(line) - col
	}
	if length < 1 {
		length = 1
	}
	ErrorColorFG.Println(strings.Repeat("^", length))
	fmt.Println()
}

// phaseSpinner tracks the in-flight compile-phase spinner, mirroring
// the teacher's single-active-phase display model: fexpr compiles one
// expression per call, so there is never more than one phase active.
var (
	phaseSpinner   *pterm.SpinnerPrinter
	currentPhase   string
	phaseStartTime time.Time
)

const maxPhaseLength = len("Generating")

// BeginPhase displays the start of a named compile phase (parse,
// optimize, generate) when l is at LevelVerbose.
func (l *Logger) BeginPhase(phase string) {
	if l.Level < LevelVerbose {
		return
	}

	currentPhase = phase
	text := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))
	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix:       pterm.Prefix{Style: SuccessStyleBG, Text: "Done"},
	}
	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix:       pterm.Prefix{Style: ErrorStyleBG, Text: "Fail"},
	}
	phaseSpinner.Start(text)
	phaseStartTime = time.Now()
}

// EndPhase closes out the spinner opened by the last BeginPhase call.
func (l *Logger) EndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}
	padded := currentPhase + strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2)
	if success {
		phaseSpinner.Success(padded, fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()))
	} else {
		phaseSpinner.Fail(padded)
	}
	phaseSpinner = nil
}
