package main

import (
	"fmt"
	"os"

	"recordbook/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, fix := range errors.GetSuggestedFixes(errors.CodeOf(err)) {
			switch {
			case fix.Command != "":
				fmt.Fprintf(os.Stderr, "  Try: %s (%s)\n", fix.Command, fix.Description)
			case fix.Key != "":
				fmt.Fprintf(os.Stderr, "  Check %s: %s\n", fix.Key, fix.Description)
			}
		}
		os.Exit(1)
	}
}
