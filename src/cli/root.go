// Package cli provides the java-lsp command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "java-lsp",
	Short: "Java language server over stdio",
	Long: `java-lsp is a Java language server speaking the Language Server Protocol
over standard input and output.

It answers completion, hover, signature help, go-to-definition, find
references, document symbols, code lenses, folding ranges and formatting
requests by driving an incremental javac-based type checker, and keeps
whole-program recompilation to a minimum.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
