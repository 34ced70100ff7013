package server

import (
	"strings"
	"time"

	"go.lsp.dev/protocol"

	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
	"java-lsp/src/utils/lspconv"
)

// Hover compiles the whole file, resolves the element under the cursor and
// combines its documentation with a code-block rendering.
func (s *Server) Hover(params *protocol.HoverParams) (*protocol.Hover, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	common.LSPLogger.Info("Hover over %s(%d,%d)...", file, params.Position.Line, params.Position.Character)
	started := time.Now()

	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	batch := compiler.CompileBatch(s.asSourceUnits([]string{file}))
	defer batch.Close()

	el, ok := batch.ElementAt(file, params.Position)
	if !ok {
		common.LSPLogger.Info("...no element under cursor")
		return nil, nil
	}

	// Copy everything we need out of the batch before it closes: the doc
	// lookup only uses the stable pointer.
	ptr := el.Ptr()
	code := batch.HoverCode(el)

	var sections []string
	if docs, ok := s.findDocs(ptr); ok && strings.TrimSpace(docs) != "" {
		sections = append(sections, docs)
	}
	sections = append(sections, "```java\n"+code+"\n```")

	common.LSPLogger.Info("...found hover in %d ms", time.Since(started).Milliseconds())
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: strings.Join(sections, "\n\n"),
		},
	}, nil
}

// SignatureHelp prunes the buffer at the cursor, compiles the single pruned
// file and asks the compiler for active-signature information.
func (s *Server) SignatureHelp(params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	contents := s.store.Contents(file)
	cursor := lspconv.Offset(contents, params.Position)
	common.LSPLogger.Info("Find signature at %s(%d,%d)...", file, params.Position.Line, params.Position.Character)

	tree, err := s.toolchain.Parser.Parse(sourceUnit(file, contents))
	if err != nil {
		return nil, err
	}
	pruned := tree.Prune(cursor)

	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
	defer batch.Close()

	help, ok := batch.SignatureHelp(file, cursor)
	if !ok {
		return nil, nil
	}
	return &help, nil
}
