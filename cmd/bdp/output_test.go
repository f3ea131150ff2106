package main

import (
	"errors"
	"testing"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error exits 0", nil, exitOK},
		{"usage error exits 2", newUsageError("missing argument"), exitUsage},
		{"wrapped usage error still exits 2", errWrap(newUsageError("bad flag")), exitUsage},
		{"plain error exits 1", errors.New("boom"), exitHandled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func errWrap(err error) error {
	return errors.Join(err)
}

func TestNewUsageErrorFormatsMessage(t *testing.T) {
	err := newUsageError("unknown key: %s", "foo")
	if err.Error() != "unknown key: foo" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
