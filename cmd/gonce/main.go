// Package main provides the gonce binary. It manages named single-use nonces
// from the command line and can serve the same operations over HTTP.
//
// Configuration is merged from defaults, an optional YAML file (--config),
// a .env file and GONCE_* environment variables.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitError carries a process exit code without an error message. It is used
// by has, get and verify to report a negative answer.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// errNegative is returned when a lookup or verification answers no.
var errNegative = exitError{code: 3}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
