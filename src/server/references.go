package server

import (
	"errors"
	"time"

	"go.lsp.dev/protocol"

	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
)

// References runs the two-phase search: a cheap single-file compile to
// classify the target element, a textual scan for files that might mention
// its name, then one precise compile over word-pruned versions of the
// candidates. Whole-workspace compilation per query would be far too slow;
// the over-inclusive scan plus syntactic pruning buys a much smaller precise
// compile.
func (s *Server) References(params *protocol.ReferenceParams) ([]protocol.Location, error) {
	toFile := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(toFile) {
		return nil, nil
	}
	common.LSPLogger.Info("Looking for references to %s(%d,%d)...", toFile, params.Position.Line, params.Position.Character)

	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}

	// Phase 1: resolve the element and copy out its scalar identity before
	// the batch closes.
	batch := compiler.CompileBatch(s.asSourceUnits([]string{toFile}))
	el, ok := batch.ElementAt(toFile, params.Position)
	if !ok {
		common.LSPLogger.Warn("...no element under cursor")
		batch.Close()
		return nil, nil
	}
	name := el.SimpleName()
	kind := el.Kind()
	modifiers := el.Modifiers()
	enclosing := el.Enclosing()
	// A variable declared outside any type shape is method-local: it can
	// never be referenced from another file.
	isLocal := kind == javac.ElementVariable && (enclosing == nil || !enclosing.Kind().IsType())
	batch.Close()

	// Phase 2: collect candidate files. Local elements skip the scan; only
	// the declaring file is searched.
	fromFiles := []string{}
	seen := map[string]bool{}
	if !isLocal {
		isType := kind == javac.ElementClass || kind == javac.ElementInterface || kind == javac.ElementAnnotationType
		for _, candidate := range s.toolchain.Scanner.PotentialReferences(toFile, name, isType, modifiers) {
			if !seen[candidate] {
				seen[candidate] = true
				fromFiles = append(fromFiles, candidate)
			}
		}
	}
	if !seen[toFile] {
		fromFiles = append(fromFiles, toFile)
	}

	sources, err := s.pruneWord(fromFiles, name)
	if err != nil {
		return nil, err
	}
	precise := compiler.CompileBatch(sources)
	defer precise.Close()

	refs, err := precise.References(toFile, params.Position)
	if errors.Is(err, javac.ErrCodeNotFound) {
		// The target did not survive pruning; no result, not zero results
		// from a successful search.
		common.LSPLogger.Info("...target not found in pruned batch")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	common.LSPLogger.Info("...found %d references", len(refs))

	var result []protocol.Location
	for _, ref := range refs {
		fromRange, ok := ref.Range()
		if !ok {
			common.LSPLogger.Warn("...couldn't locate reference in %s", ref.File())
			continue
		}
		result = append(result, protocol.Location{
			URI:   documents.URIOf(ref.File()),
			Range: fromRange,
		})
	}
	return result, nil
}

// pruneWord erases everything that provably cannot contain the named
// identifier from each file, producing much smaller compilation units.
func (s *Server) pruneWord(files []string, name string) ([]javac.SourceUnit, error) {
	common.LSPLogger.Info("...prune code that doesn't contain `%s`", name)
	sources := make([]javac.SourceUnit, 0, len(files))
	for _, file := range files {
		tree, err := s.toolchain.Parser.Parse(javac.SourceUnit{
			Path:     file,
			Contents: s.store.Contents(file),
			Modified: s.store.Modified(file),
		})
		if err != nil {
			return nil, common.WrapProcessingError("failed to parse candidate file", err)
		}
		sources = append(sources, javac.SourceUnit{
			Path:     file,
			Contents: tree.PruneWord(name),
			Modified: time.Time{},
		})
	}
	return sources, nil
}
