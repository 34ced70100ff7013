package server

import (
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
)

// ParseCache holds the parse tree of the single most recently touched file,
// keyed by (path, version). It serves read-only structural queries (document
// symbols, code lenses, folding ranges) without paying full-compile cost.
type ParseCache struct {
	parser javac.Parser
	store  *documents.Store

	file    string
	version int
	tree    javac.ParseTree
}

// NewParseCache creates an empty single-entry cache.
func NewParseCache(parser javac.Parser, store *documents.Store) *ParseCache {
	return &ParseCache{parser: parser, store: store}
}

// Get returns the parse tree for the file, reparsing only when the file or
// its version stamp differs from the cached entry.
func (p *ParseCache) Get(file string) (javac.ParseTree, error) {
	version := p.store.Version(file)
	if p.tree != nil && file == p.file && version == p.version {
		return p.tree, nil
	}
	tree, err := p.parser.Parse(javac.SourceUnit{
		Path:     file,
		Contents: p.store.Contents(file),
		Modified: p.store.Modified(file),
	})
	if err != nil {
		return nil, err
	}
	p.tree = tree
	p.file = file
	p.version = version
	return tree, nil
}
