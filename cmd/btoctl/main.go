// Command btoctl operates the BTO allocation service: it registers people,
// administers projects and drives applications, officer registrations and
// bookings against the configured store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

var exitFunc = os.Exit

// main runs the command-line interface and exits with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// cli executes one command. Usage errors exit 2, operation failures exit 1.
func cli(args []string, stdout, stderr io.Writer) int {
	ctx := context.Background()
	rt := newRuntime(stdout, stderr)
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := rt.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	writeError(stderr, err)
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

type errorLine struct {
	Error      string             `json:"error"`
	Kind       domain.ErrorKind   `json:"kind,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func writeError(w io.Writer, err error) {
	line := errorLine{Error: err.Error(), Kind: domain.KindOf(err)}
	var rv domain.RuleViolationError
	if errors.As(err, &rv) {
		line.Violations = rv.Result.Violations
	}
	_ = json.NewEncoder(w).Encode(line)
}

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }
