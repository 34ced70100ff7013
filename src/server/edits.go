package server

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
	"java-lsp/src/utils/lspconv"
)

// Formatting synthesizes text edits from one compiled batch: import
// normalization plus missing @Override annotations. Edits are returned to the
// client for application; source is never mutated here.
func (s *Server) Formatting(params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	batch := compiler.CompileBatch(s.asSourceUnits([]string{file}))
	defer batch.Close()

	edits := fixImports(batch, file)
	edits = append(edits, addOverrides(batch, file)...)
	return edits, nil
}

// fixImports deletes every existing non-static import line and re-emits the
// corrected import set as a single block. The insertion point is the first
// deleted import's line when one existed, else the line after the package
// declaration (with a leading blank line), else the top of the file.
func fixImports(batch javac.CompileBatch, file string) []protocol.TextEdit {
	corrected := batch.FixImports(file)
	existing := batch.Imports(file)

	var edits []protocol.TextEdit
	for _, imp := range existing {
		if !imp.Static {
			edits = append(edits, protocol.TextEdit{
				Range:   lspconv.LineRange(uint32(imp.Line)),
				NewText: "",
			})
		}
	}
	if len(corrected) == 0 {
		return edits
	}

	insertLine := -1
	var insertText strings.Builder
	for _, imp := range existing {
		if !imp.Static {
			insertLine = imp.Line
			break
		}
	}
	if insertLine == -1 {
		if pkgLine, ok := batch.PackageEndLine(file); ok {
			insertLine = pkgLine + 1
			insertText.WriteString("\n")
		}
	}
	if insertLine == -1 {
		insertLine = 0
	}
	for _, name := range corrected {
		fmt.Fprintf(&insertText, "import %s;\n", name)
	}
	edits = append(edits, protocol.TextEdit{
		Range:   lspconv.InsertAt(protocol.Position{Line: uint32(insertLine), Character: 0}),
		NewText: insertText.String(),
	})
	return edits
}

// addOverrides inserts an @Override line, matching the method's indentation,
// directly above each method the compiler flags as missing one.
func addOverrides(batch javac.CompileBatch, file string) []protocol.TextEdit {
	var edits []protocol.TextEdit
	for _, method := range batch.NeedsOverrideAnnotation(file) {
		insertText := strings.Repeat(" ", method.Column) + "@Override\n"
		edits = append(edits, protocol.TextEdit{
			Range:   lspconv.InsertAt(protocol.Position{Line: uint32(method.Line), Character: 0}),
			NewText: insertText,
		})
	}
	return edits
}
