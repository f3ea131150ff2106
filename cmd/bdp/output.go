package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bdp-project/bdp/internal/bdperr"
	"github.com/bdp-project/bdp/internal/clistyle"
)

// Exit codes, spec.md §6: "Exit code 0 on success, 1 on handled error, 2
// on usage error."
const (
	exitOK       = 0
	exitHandled  = 1
	exitUsage    = 2
)

// usageError marks an error that should exit 2 instead of 1 (a cobra
// argument/flag problem the user can fix by re-reading --help).
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitHandled
}

// outputJSON writes v as indented JSON to stdout, the --json counterpart
// to every command's human-readable rendering.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// printErr renders err as the one-line red summary spec.md §7 requires and
// returns it unchanged so callers can `return printErr(err)` from a
// cobra RunE.
func printErr(err error) error {
	if err == nil {
		return nil
	}
	kind := bdperr.KindOf(err)
	clistyle.PrintError(kind.String(), err.Error())
	return err
}

func manifestPath() string {
	return filepath.Join(projectDir, "bdp.yml")
}

func lockfilePath() string {
	return filepath.Join(projectDir, "bdl.lock")
}
