package server

import (
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"java-lsp/src/internal/common"
	"java-lsp/src/server/documents"
)

// Structural queries answered from the single-entry parse cache. None of
// these pay full-compile cost; they run on every UI refresh.

// DocumentSymbol lists the file's symbols from the cached parse.
func (s *Server) DocumentSymbol(params *protocol.DocumentSymbolParams) ([]protocol.SymbolInformation, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	tree, err := s.parses.Get(file)
	if err != nil {
		return nil, err
	}
	return tree.DocumentSymbols(), nil
}

// FoldingRange lists the file's folding regions from the cached parse.
func (s *Server) FoldingRange(params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	tree, err := s.parses.Get(file)
	if err != nil {
		return nil, err
	}
	return tree.FoldingRanges(), nil
}

// CodeLens attaches test-running lenses to test classes and methods.
func (s *Server) CodeLens(params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	tree, err := s.parses.Get(file)
	if err != nil {
		return nil, err
	}

	docURI := string(params.TextDocument.URI)
	var result []protocol.CodeLens
	for _, decl := range tree.CodeLensDeclarations() {
		declRange, ok := decl.Range()
		if !ok {
			continue
		}
		className := decl.ClassName()
		memberName := decl.MemberName()
		if decl.IsTestClass() {
			result = append(result, protocol.CodeLens{
				Range: declRange,
				Command: &protocol.Command{
					Title:     "Run All Tests",
					Command:   "java.command.test.run",
					Arguments: []interface{}{docURI, className, nil},
				},
			})
		}
		if decl.IsTestMethod() {
			arguments := []interface{}{docURI, className}
			if memberName != "" {
				arguments = append(arguments, memberName)
			} else {
				arguments = append(arguments, nil)
			}
			result = append(result, protocol.CodeLens{
				Range: declRange,
				Command: &protocol.Command{
					Title:     "Run Test",
					Command:   "java.command.test.run",
					Arguments: arguments,
				},
			})
			var sourceRoots []interface{}
			for _, root := range s.store.SourceRoots() {
				sourceRoots = append(sourceRoots, root)
			}
			result = append(result, protocol.CodeLens{
				Range: declRange,
				Command: &protocol.Command{
					Title:     "Debug Test",
					Command:   "java.command.test.debug",
					Arguments: append(append([]interface{}{}, arguments...), sourceRoots),
				},
			})
		}
	}
	return result, nil
}

// ResolveCodeLens has nothing to resolve; lenses are emitted complete.
func (s *Server) ResolveCodeLens(lens *protocol.CodeLens) (*protocol.CodeLens, error) {
	return nil, nil
}

// CodeAction offers quick fixes for diagnostics in the requested range.
// The only fix today renames an unused local by prepending an underscore.
func (s *Server) CodeAction(params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	var actions []protocol.CodeAction
	for _, diagnostic := range params.Context.Diagnostics {
		if !canPrependUnderscore(diagnostic) {
			continue
		}
		targetURI := uri.URI(params.TextDocument.URI)
		actions = append(actions, protocol.CodeAction{
			Title: "Prepend underscore",
			Kind:  protocol.QuickFix,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[uri.URI][]protocol.TextEdit{
					targetURI: {
						{
							Range: protocol.Range{
								Start: diagnostic.Range.Start,
								End:   diagnostic.Range.Start,
							},
							NewText: "_",
						},
					},
				},
			},
		})
	}
	return actions, nil
}

// canPrependUnderscore reports whether the diagnostic flags an unused local,
// the shape of diagnostic the underscore rename silences.
func canPrependUnderscore(diagnostic protocol.Diagnostic) bool {
	code, ok := diagnostic.Code.(string)
	if !ok {
		common.LSPLogger.Debug("Diagnostic without string code: %v", diagnostic.Code)
		return false
	}
	return strings.HasPrefix(code, "unused")
}
