// Package main provides the entry point for the booksearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/booksearch/cmd/booksearch/cmd"
	apperrors "github.com/Aman-CERP/booksearch/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprint(os.Stderr, apperrors.FormatForCLI(err))
		os.Exit(1)
	}
}
