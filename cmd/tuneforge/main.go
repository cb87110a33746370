// Package main provides the tuneforge CLI, which turns detected print
// failures into parameter changes bounded to a specific machine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	apperrors "github.com/tuneforge/tuneforge/internal/application/errors"
	"github.com/tuneforge/tuneforge/internal/domain/entities"
)

// Exit codes.
const (
	exitOK              = 0
	exitError           = 1
	exitMachineNotFound = 2
	exitInvalidInput    = 3
	exitConfiguration   = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to a process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	var validationErr *apperrors.ValidationError
	var configErr *apperrors.ConfigurationError
	switch {
	case entities.IsMachineNotFound(err):
		return exitMachineNotFound
	case errors.As(err, &validationErr):
		return exitInvalidInput
	case errors.As(err, &configErr):
		return exitConfiguration
	default:
		return exitError
	}
}
