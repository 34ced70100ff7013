package javac

import (
	"go.lsp.dev/protocol"
)

// Parser produces lightweight parse trees without type information. Parsing
// is much cheaper than a compile batch and is used for structural queries and
// for pruning source text ahead of a compile.
type Parser interface {
	// Parse parses a source snapshot.
	Parse(unit SourceUnit) (ParseTree, error)
}

// Declaration is a class or member declaration surfaced by structural
// queries (code lenses).
type Declaration interface {
	ClassName() string
	MemberName() string
	IsTestClass() bool
	IsTestMethod() bool
	// Range returns the declaration's source range, or false when the parser
	// cannot position it.
	Range() (protocol.Range, bool)
}

// ParseTree is a lightweight single-file parse.
type ParseTree interface {
	// Prune rewrites the source so the compiler can type-check up to the
	// given offset without choking on an incomplete trailing token. The
	// result stays syntactically parseable.
	Prune(offset int) string
	// PruneWord erases all code that provably cannot contain the named
	// identifier, shrinking the compile cost of a reference search.
	PruneWord(name string) string
	// EraseCase neutralizes the case expression containing the offset so a
	// partial case label can be completed.
	EraseCase(offset int) string

	// IsIdentifier reports whether the syntax node at the offset is itself an
	// identifier-like node.
	IsIdentifier(offset int) bool
	// InClass reports whether the offset sits inside a class declaration.
	InClass(offset int) bool
	// InMethod reports whether the offset sits inside a method body.
	InMethod(offset int) bool

	// DocumentSymbols lists the file's symbols for outline views.
	DocumentSymbols() []protocol.SymbolInformation
	// CodeLensDeclarations lists declarations eligible for code lenses.
	CodeLensDeclarations() []Declaration
	// FoldingRanges lists the file's folding regions.
	FoldingRanges() []protocol.FoldingRange

	// DocComment fuzzily relocates the element the pointer names, tolerating
	// drift between compiled and doc-path versions of a file, and returns its
	// doc comment as markdown.
	DocComment(ptr Ptr) (string, bool)
	// MethodDetails renders a signature string for the method the pointer
	// names, e.g. "String substring(int begin, int end)".
	MethodDetails(ptr Ptr) (string, bool)
}
