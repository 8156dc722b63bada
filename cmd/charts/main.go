// Package main provides the charts CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "charts:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// userErrors are failures caused by the request rather than the system.
var userErrors = []error{
	types.ErrPermissionDenied,
	types.ErrReadOnlyTable,
	types.ErrNotFound,
	types.ErrNoTableFound,
	types.ErrInvalidID,
	types.ErrInvalidName,
	types.ErrInvalidData,
	types.ErrDuplicateID,
	types.ErrNoDraft,
	types.ErrInvalidAmount,
	types.ErrNegativeAmount,
	types.ErrFieldLocked,
	types.ErrUnknownField,
	types.ErrInvalidFinalState,
	types.ErrNoMatch,
	errUsage,
}

// errUsage marks bad flag combinations detected by a command.
var errUsage = errors.New("invalid usage")

func exitCode(err error) int {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
