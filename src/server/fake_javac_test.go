package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
)

// Hand-rolled fakes for the external toolchain. The compiler fake enforces
// the batch lifecycle contract: batches never overlap and every batch is
// closed exactly once.

type capturedNotification struct {
	method string
	params interface{}
}

type fakeClient struct {
	diagnostics   []*protocol.PublishDiagnosticsParams
	notifications []capturedNotification
	registrations []string
}

func (c *fakeClient) PublishDiagnostics(params *protocol.PublishDiagnosticsParams) {
	c.diagnostics = append(c.diagnostics, params)
}

func (c *fakeClient) CustomNotification(method string, params interface{}) {
	c.notifications = append(c.notifications, capturedNotification{method, params})
}

func (c *fakeClient) RegisterCapability(method string, options interface{}) {
	c.registrations = append(c.registrations, method)
}

func (c *fakeClient) notificationMethods() []string {
	var methods []string
	for _, n := range c.notifications {
		methods = append(methods, n.method)
	}
	return methods
}

// fakeElement carries its whole scripted identity, including where it is
// declared and where its declaration sits.
type fakeElement struct {
	name      string
	qualified string
	kind      javac.ElementKind
	enclosing *fakeElement
	errorType bool
	modifiers []string
	ptr       javac.Ptr

	declaredIn string
	location   *protocol.Location
	members    []*fakeElement
}

func (e *fakeElement) SimpleName() string      { return e.name }
func (e *fakeElement) QualifiedName() string   { return e.qualified }
func (e *fakeElement) Kind() javac.ElementKind { return e.kind }
func (e *fakeElement) HasErrorType() bool      { return e.errorType }
func (e *fakeElement) Modifiers() []string     { return e.modifiers }
func (e *fakeElement) Ptr() javac.Ptr          { return e.ptr }

func (e *fakeElement) Enclosing() javac.Element {
	if e.enclosing == nil {
		return nil
	}
	return e.enclosing
}

type fakeReference struct {
	file  string
	rng   protocol.Range
	valid bool
}

func (r fakeReference) File() string                  { return r.file }
func (r fakeReference) Range() (protocol.Range, bool) { return r.rng, r.valid }

// completionCall records one candidate query made against a batch.
type completionCall struct {
	kind        string
	path        string
	offset      int
	partialName string
	inClass     bool
	inMethod    bool
	addParens   bool
	addSemi     bool
}

// fakeCompiler scripts batch behavior and records every batch it opens.
type fakeCompiler struct {
	t *testing.T

	batches []*fakeBatch

	// Scripted results, shared by all batches.
	elements    map[string]*fakeElement // by file path
	types       map[string]*fakeElement // by qualified name
	references  []javac.Reference
	refErr      error
	items       []protocol.CompletionItem
	signature   *protocol.SignatureHelp
	hoverCode   string
	fixImports  []string
	imports     []javac.ImportDecl
	packageEnd  int
	hasPackage  bool
	overrides   []javac.MethodPos
	diagnostics map[string][]protocol.Diagnostic
	docUnits    map[javac.Ptr]javac.SourceUnit
	symbols     []protocol.SymbolInformation

	completionCalls []completionCall
	symbolQueries   []string
}

func newFakeCompiler(t *testing.T) *fakeCompiler {
	return &fakeCompiler{
		t:           t,
		elements:    make(map[string]*fakeElement),
		types:       make(map[string]*fakeElement),
		diagnostics: make(map[string][]protocol.Diagnostic),
		docUnits:    make(map[javac.Ptr]javac.SourceUnit),
	}
}

func (c *fakeCompiler) CompileBatch(sources []javac.SourceUnit) javac.CompileBatch {
	for i, b := range c.batches {
		if b.closed == 0 {
			c.t.Errorf("batch %d still open when a new batch was compiled", i)
		}
	}
	batch := &fakeBatch{compiler: c, sources: sources}
	c.batches = append(c.batches, batch)
	return batch
}

func (c *fakeCompiler) Docs() javac.DocIndex {
	return fakeDocIndex{units: c.docUnits}
}

func (c *fakeCompiler) FindSymbols(query string, limit int) []protocol.SymbolInformation {
	c.symbolQueries = append(c.symbolQueries, query)
	if len(c.symbols) > limit {
		return c.symbols[:limit]
	}
	return c.symbols
}

func (c *fakeCompiler) assertAllClosed() {
	c.t.Helper()
	for i, b := range c.batches {
		if b.closed != 1 {
			c.t.Errorf("batch %d closed %d times, want exactly 1", i, b.closed)
		}
	}
}

type fakeDocIndex struct {
	units map[javac.Ptr]javac.SourceUnit
}

func (d fakeDocIndex) Find(ptr javac.Ptr) (javac.SourceUnit, bool) {
	unit, ok := d.units[ptr]
	return unit, ok
}

type fakeBatch struct {
	compiler *fakeCompiler
	sources  []javac.SourceUnit
	closed   int
}

func (b *fakeBatch) Close() {
	b.closed++
}

func (b *fakeBatch) checkOpen(op string) {
	if b.closed > 0 {
		b.compiler.t.Errorf("%s called on a closed batch", op)
	}
}

func (b *fakeBatch) paths() []string {
	var paths []string
	for _, unit := range b.sources {
		paths = append(paths, unit.Path)
	}
	return paths
}

func (b *fakeBatch) ElementAt(path string, pos protocol.Position) (javac.Element, bool) {
	b.checkOpen("ElementAt")
	el, ok := b.compiler.elements[path]
	if !ok {
		return nil, false
	}
	return el, true
}

func (b *fakeBatch) DeclaringFile(el javac.Element) (string, bool) {
	b.checkOpen("DeclaringFile")
	fe := el.(*fakeElement)
	return fe.declaredIn, fe.declaredIn != ""
}

func (b *fakeBatch) TypeElement(qualifiedName string) (javac.Element, bool) {
	b.checkOpen("TypeElement")
	el, ok := b.compiler.types[qualifiedName]
	if !ok {
		return nil, false
	}
	return el, true
}

func (b *fakeBatch) AllMembers(t javac.Element) []javac.Element {
	b.checkOpen("AllMembers")
	var members []javac.Element
	for _, m := range t.(*fakeElement).members {
		members = append(members, m)
	}
	return members
}

func (b *fakeBatch) Locate(el javac.Element) (protocol.Location, bool) {
	b.checkOpen("Locate")
	fe := el.(*fakeElement)
	if fe.location == nil {
		return protocol.Location{}, false
	}
	return *fe.location, true
}

func (b *fakeBatch) References(path string, pos protocol.Position) ([]javac.Reference, error) {
	b.checkOpen("References")
	if b.compiler.refErr != nil {
		return nil, b.compiler.refErr
	}
	return b.compiler.references, nil
}

func (b *fakeBatch) CompleteMembers(path string, offset int, addParens, addSemi bool) []protocol.CompletionItem {
	b.checkOpen("CompleteMembers")
	b.compiler.completionCalls = append(b.compiler.completionCalls, completionCall{
		kind: "members", path: path, offset: offset, addParens: addParens, addSemi: addSemi,
	})
	return b.compiler.items
}

func (b *fakeBatch) CompleteReferences(path string, offset int) []protocol.CompletionItem {
	b.checkOpen("CompleteReferences")
	b.compiler.completionCalls = append(b.compiler.completionCalls, completionCall{
		kind: "references", path: path, offset: offset,
	})
	return b.compiler.items
}

func (b *fakeBatch) CompleteAnnotations(path string, offset int, partialName string) []protocol.CompletionItem {
	b.checkOpen("CompleteAnnotations")
	b.compiler.completionCalls = append(b.compiler.completionCalls, completionCall{
		kind: "annotations", path: path, offset: offset, partialName: partialName,
	})
	return b.compiler.items
}

func (b *fakeBatch) CompleteCases(path string, offset int) []protocol.CompletionItem {
	b.checkOpen("CompleteCases")
	b.compiler.completionCalls = append(b.compiler.completionCalls, completionCall{
		kind: "cases", path: path, offset: offset,
	})
	return b.compiler.items
}

func (b *fakeBatch) CompleteIdentifiers(path string, offset int, inClass, inMethod bool, partialName string, addParens, addSemi bool) []protocol.CompletionItem {
	b.checkOpen("CompleteIdentifiers")
	b.compiler.completionCalls = append(b.compiler.completionCalls, completionCall{
		kind: "identifiers", path: path, offset: offset, partialName: partialName,
		inClass: inClass, inMethod: inMethod, addParens: addParens, addSemi: addSemi,
	})
	return b.compiler.items
}

func (b *fakeBatch) SignatureHelp(path string, offset int) (protocol.SignatureHelp, bool) {
	b.checkOpen("SignatureHelp")
	if b.compiler.signature == nil {
		return protocol.SignatureHelp{}, false
	}
	return *b.compiler.signature, true
}

func (b *fakeBatch) HoverCode(el javac.Element) string {
	b.checkOpen("HoverCode")
	return b.compiler.hoverCode
}

func (b *fakeBatch) FixImports(path string) []string {
	b.checkOpen("FixImports")
	return b.compiler.fixImports
}

func (b *fakeBatch) Imports(path string) []javac.ImportDecl {
	b.checkOpen("Imports")
	return b.compiler.imports
}

func (b *fakeBatch) PackageEndLine(path string) (int, bool) {
	b.checkOpen("PackageEndLine")
	return b.compiler.packageEnd, b.compiler.hasPackage
}

func (b *fakeBatch) NeedsOverrideAnnotation(path string) []javac.MethodPos {
	b.checkOpen("NeedsOverrideAnnotation")
	return b.compiler.overrides
}

func (b *fakeBatch) ReportErrors(path string) []protocol.Diagnostic {
	b.checkOpen("ReportErrors")
	return b.compiler.diagnostics[path]
}

func (b *fakeBatch) Colors(path string) javac.SemanticColors {
	b.checkOpen("Colors")
	return javac.SemanticColors{URI: documents.URIOf(path)}
}

// fakeTree scripts the parse-level rewrites and records the order they ran
// in.
type fakeTree struct {
	contents string

	pruneResult     string
	pruneWordResult string
	eraseResult     string
	identifierAt    bool
	inClass         bool
	inMethod        bool

	pruneOffsets  []int
	prunedWords   []string
	eraseOffsets  []int
	symbols       []protocol.SymbolInformation
	lenses        []javac.Declaration
	folds         []protocol.FoldingRange
	docComments   map[javac.Ptr]string
	methodDetails map[javac.Ptr]string
}

func (t *fakeTree) Prune(offset int) string {
	t.pruneOffsets = append(t.pruneOffsets, offset)
	if t.pruneResult != "" {
		return t.pruneResult
	}
	return t.contents
}

func (t *fakeTree) PruneWord(name string) string {
	t.prunedWords = append(t.prunedWords, name)
	if t.pruneWordResult != "" {
		return t.pruneWordResult
	}
	return t.contents
}

func (t *fakeTree) EraseCase(offset int) string {
	t.eraseOffsets = append(t.eraseOffsets, offset)
	if t.eraseResult != "" {
		return t.eraseResult
	}
	return t.contents
}

func (t *fakeTree) IsIdentifier(offset int) bool { return t.identifierAt }
func (t *fakeTree) InClass(offset int) bool      { return t.inClass }
func (t *fakeTree) InMethod(offset int) bool     { return t.inMethod }

func (t *fakeTree) DocumentSymbols() []protocol.SymbolInformation { return t.symbols }
func (t *fakeTree) CodeLensDeclarations() []javac.Declaration     { return t.lenses }
func (t *fakeTree) FoldingRanges() []protocol.FoldingRange        { return t.folds }

func (t *fakeTree) DocComment(ptr javac.Ptr) (string, bool) {
	doc, ok := t.docComments[ptr]
	return doc, ok
}

func (t *fakeTree) MethodDetails(ptr javac.Ptr) (string, bool) {
	details, ok := t.methodDetails[ptr]
	return details, ok
}

type fakeDeclaration struct {
	className  string
	memberName string
	testClass  bool
	testMethod bool
	rng        protocol.Range
	located    bool
}

func (d fakeDeclaration) ClassName() string  { return d.className }
func (d fakeDeclaration) MemberName() string { return d.memberName }
func (d fakeDeclaration) IsTestClass() bool  { return d.testClass }
func (d fakeDeclaration) IsTestMethod() bool { return d.testMethod }

func (d fakeDeclaration) Range() (protocol.Range, bool) {
	return d.rng, d.located
}

// fakeParser hands out per-path trees and counts every parse.
type fakeParser struct {
	parses int
	trees  map[string]*fakeTree
}

func (p *fakeParser) Parse(unit javac.SourceUnit) (javac.ParseTree, error) {
	p.parses++
	if tree, ok := p.trees[unit.Path]; ok {
		tree.contents = unit.Contents
		return tree, nil
	}
	tree := &fakeTree{contents: unit.Contents}
	p.trees[unit.Path] = tree
	return tree, nil
}

type scanCall struct {
	declaringFile string
	name          string
	isType        bool
	modifiers     []string
}

type fakeScanner struct {
	calls   []scanCall
	results []string
}

func (s *fakeScanner) PotentialReferences(declaringFile string, name string, isType bool, modifiers []string) []string {
	s.calls = append(s.calls, scanCall{declaringFile, name, isType, modifiers})
	return s.results
}

type fakeInferrer struct {
	classPath []string
	docPath   []string
}

func (i fakeInferrer) ClassPath() []string { return i.classPath }
func (i fakeInferrer) DocPath() []string   { return i.docPath }

// fixture wires a server to an all-fake toolchain rooted in a temp dir.
type fixture struct {
	t        *testing.T
	dir      string
	client   *fakeClient
	compiler *fakeCompiler
	parser   *fakeParser
	scanner  *fakeScanner
	server   *Server

	newCompilerCalls int
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:       t,
		dir:     t.TempDir(),
		client:  &fakeClient{},
		parser:  &fakeParser{trees: make(map[string]*fakeTree)},
		scanner: &fakeScanner{},
	}
	f.compiler = newFakeCompiler(t)
	toolchain := &javac.Toolchain{
		NewCompiler: func(cfg javac.Config) javac.Compiler {
			f.newCompilerCalls++
			return f.compiler
		},
		NewInferrer: func(workspaceRoot string, externalDependencies []string) javac.Inferrer {
			return fakeInferrer{}
		},
		Parser:  f.parser,
		Scanner: f.scanner,
	}
	f.server = New(f.client, toolchain)
	_, err := f.server.Initialize(&protocol.InitializeParams{
		RootURI: documents.URIOf(f.dir),
	})
	require.NoError(t, err)
	return f
}

// write creates a workspace file on disk and returns its absolute path.
func (f *fixture) write(name, text string) string {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// open creates the file, opens it in the document store and returns its
// absolute path.
func (f *fixture) open(name, text string) string {
	f.t.Helper()
	path := f.write(name, text)
	f.server.DidOpenTextDocument(&protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        documents.URIOf(path),
			LanguageID: "java",
			Version:    1,
			Text:       text,
		},
	})
	return path
}

// tree returns the scripted parse tree for a path, creating it on demand so
// tests can configure rewrites before the first parse.
func (f *fixture) tree(path string) *fakeTree {
	tree, ok := f.parser.trees[path]
	if !ok {
		tree = &fakeTree{}
		f.parser.trees[path] = tree
	}
	return tree
}

func location(path string, line uint32) *protocol.Location {
	return &protocol.Location{
		URI: documents.URIOf(path),
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: 1},
		},
	}
}
