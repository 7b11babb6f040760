// Command fexpr is the CLI entry point; the actual argument parsing
// and dispatch lives in the cmd package so it can be exercised without
// a process boundary.
package main

import "fexpr/cmd"

func main() {
	cmd.Execute()
}
