package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Long: `Run the language server, reading LSP requests from standard input and
writing responses to standard output. All logging goes to standard error.

A compiler backend must be linked into the binary and registered with the
javac package; the core orchestrates it but does not implement type checking
itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		toolchain, ok := javac.Registered()
		if !ok {
			return fmt.Errorf("no compiler backend registered; build java-lsp with a javac backend")
		}
		common.CLILogger.Info("Starting java-lsp on stdio")
		transport := server.NewTransport(os.Stdin, os.Stdout, toolchain)
		return transport.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
