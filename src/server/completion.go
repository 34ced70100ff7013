package server

import (
	"encoding/json"
	"fmt"
	"time"

	"go.lsp.dev/protocol"

	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
	"java-lsp/src/server/textscan"
	"java-lsp/src/utils/lspconv"
)

// Completion classifies the cursor context and asks the compiler for
// candidates. Every compile in here runs over a pruned version of the buffer:
// syntactically valid, but with the incomplete trailing token neutralized so
// the type checker can reach the cursor.
func (s *Server) Completion(params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	started := time.Now()
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return nil, nil
	}
	contents := s.store.Contents(file)
	cursor := lspconv.Offset(contents, params.Position)
	common.LSPLogger.Info("Complete at %s(%d,%d)...", file, params.Position.Line, params.Position.Character)

	addParens := !textscan.HasParen(contents, cursor)
	addSemi := textscan.IsBlank(textscan.RestOfLine(contents, cursor))

	// Structural parse of the unmodified buffer, shared by every branch that
	// needs to prune.
	var parsed javac.ParseTree
	parse := func() javac.ParseTree {
		if parsed == nil {
			tree, err := s.toolchain.Parser.Parse(sourceUnit(file, contents))
			if err != nil {
				common.LSPLogger.Error("Failed to parse %s: %v", file, err)
				return nil
			}
			parsed = tree
		}
		return parsed
	}

	ctx := textscan.Classify(contents, cursor, func(offset int) bool {
		tree := parse()
		return tree != nil && tree.IsIdentifier(offset)
	})

	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}

	switch ctx.Kind {
	case textscan.KindMemberSelect:
		common.LSPLogger.Info("...complete members")
		tree := parse()
		if tree == nil {
			return nil, nil
		}
		pruned := tree.Prune(ctx.Offset)
		batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
		items := batch.CompleteMembers(file, ctx.Offset, addParens, addSemi)
		batch.Close()
		logCompletionTiming(started, len(items), false)
		return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil

	case textscan.KindMemberReference:
		common.LSPLogger.Info("...complete references")
		tree := parse()
		if tree == nil {
			return nil, nil
		}
		pruned := tree.Prune(ctx.Offset)
		batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
		items := batch.CompleteReferences(file, ctx.Offset)
		batch.Close()
		logCompletionTiming(started, len(items), false)
		return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil

	case textscan.KindPartialAnnotation:
		common.LSPLogger.Info("...complete annotations")
		tree := parse()
		if tree == nil {
			return nil, nil
		}
		pruned := tree.Prune(cursor)
		batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
		items := batch.CompleteAnnotations(file, cursor, ctx.PartialName)
		batch.Close()
		isIncomplete := len(items) >= javac.MaxCompletionItems
		logCompletionTiming(started, len(items), isIncomplete)
		return &protocol.CompletionList{IsIncomplete: isIncomplete, Items: items}, nil

	case textscan.KindPartialCase:
		common.LSPLogger.Info("...complete cases")
		// Two passes: erase the case expression first, then prune the erased
		// buffer. Reparsing between the passes keeps each rewrite on a tree
		// that matches its input text.
		tree := parse()
		if tree == nil {
			return nil, nil
		}
		erased := tree.EraseCase(cursor)
		reparsed, err := s.toolchain.Parser.Parse(sourceUnit(file, erased))
		if err != nil {
			common.LSPLogger.Error("Failed to reparse %s: %v", file, err)
			return nil, nil
		}
		pruned := reparsed.Prune(cursor)
		batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
		items := batch.CompleteCases(file, cursor)
		batch.Close()
		logCompletionTiming(started, len(items), false)
		return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil

	case textscan.KindPartialIdentifier:
		common.LSPLogger.Info("...complete identifiers")
		tree := parse()
		if tree == nil {
			return nil, nil
		}
		pruned := tree.Prune(cursor)
		// Reparse the pruned buffer to recover the syntax path at the cursor.
		reparsed, err := s.toolchain.Parser.Parse(sourceUnit(file, pruned))
		if err != nil {
			common.LSPLogger.Error("Failed to reparse %s: %v", file, err)
			return nil, nil
		}
		batch := compiler.CompileBatch([]javac.SourceUnit{sourceUnit(file, pruned)})
		items := batch.CompleteIdentifiers(
			file,
			cursor,
			reparsed.InClass(cursor),
			reparsed.InMethod(cursor),
			textscan.PartialName(pruned, cursor),
			addParens,
			addSemi,
		)
		batch.Close()
		isIncomplete := len(items) >= javac.MaxCompletionItems
		logCompletionTiming(started, len(items), isIncomplete)
		return &protocol.CompletionList{IsIncomplete: isIncomplete, Items: items}, nil
	}

	// Fresh token: offer the static top-level keywords. This list never
	// claims completeness.
	common.LSPLogger.Info("...complete keywords")
	items := make([]protocol.CompletionItem, 0, len(javac.TopLevelKeywords))
	for _, name := range javac.TopLevelKeywords {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   protocol.CompletionItemKindKeyword,
			Detail: "keyword",
		})
	}
	return &protocol.CompletionList{IsIncomplete: true, Items: items}, nil
}

func logCompletionTiming(started time.Time, count int, isIncomplete bool) {
	if isIncomplete {
		common.LSPLogger.Info("Found %d items (incomplete) in %d ms", count, time.Since(started).Milliseconds())
	} else {
		common.LSPLogger.Info("...found %d items in %d ms", count, time.Since(started).Milliseconds())
	}
}

// ResolveCompletionItem fills in documentation and method details for an
// item, keyed by the element pointer riding in its data field.
func (s *Server) ResolveCompletionItem(item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	if item.Data == nil {
		return item, nil
	}
	data, ok := decodeCompletionData(item.Data)
	if !ok {
		return item, nil
	}
	if markdown, ok := s.findDocs(data.Ptr); ok {
		item.Documentation = protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: markdown,
		}
	}
	if data.Ptr.IsMethod() {
		if details, ok := s.findMethodDetails(data.Ptr); ok {
			item.Detail = details
			if data.PlusOverloads != 0 {
				item.Detail += fmt.Sprintf(" (+%d overloads)", data.PlusOverloads)
			}
		}
	}
	return item, nil
}

// decodeCompletionData tolerates both a typed CompletionData and the generic
// map a JSON round-trip leaves behind.
func decodeCompletionData(raw interface{}) (javac.CompletionData, bool) {
	if data, ok := raw.(javac.CompletionData); ok {
		return data, true
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return javac.CompletionData{}, false
	}
	var data javac.CompletionData
	if err := json.Unmarshal(encoded, &data); err != nil || data.Ptr == "" {
		return javac.CompletionData{}, false
	}
	return data, true
}

// findDocs locates the doc-path source for the pointer, fuzzily relocates the
// element in it and extracts the doc comment as markdown.
func (s *Server) findDocs(ptr javac.Ptr) (string, bool) {
	common.LSPLogger.Info("Find docs for `%s`...", ptr)
	tree, ok := s.parseDocSource(ptr)
	if !ok {
		return "", false
	}
	return tree.DocComment(ptr)
}

// findMethodDetails renders a signature string for the pointed-to method from
// its doc-path source.
func (s *Server) findMethodDetails(ptr javac.Ptr) (string, bool) {
	common.LSPLogger.Info("Find details for method `%s`...", ptr)
	tree, ok := s.parseDocSource(ptr)
	if !ok {
		return "", false
	}
	return tree.MethodDetails(ptr)
}

func (s *Server) parseDocSource(ptr javac.Ptr) (javac.ParseTree, bool) {
	compiler, err := s.compilers.Compiler()
	if err != nil {
		common.LSPLogger.Error("No compiler for doc lookup: %v", err)
		return nil, false
	}
	unit, ok := compiler.Docs().Find(ptr)
	if !ok {
		return nil, false
	}
	tree, err := s.toolchain.Parser.Parse(unit)
	if err != nil {
		common.LSPLogger.Error("Failed to parse doc source for `%s`: %v", ptr, err)
		return nil, false
	}
	return tree, true
}
