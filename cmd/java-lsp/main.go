package main

import (
	"java-lsp/src/cli"
)

func main() {
	cli.Execute()
}
