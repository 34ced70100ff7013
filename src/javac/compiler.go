// Package javac defines the interfaces of the external compiler, parser and
// configuration-inference collaborators the server orchestrates. The server
// never looks inside these services; it only drives them and copies scalar
// data out of scoped results.
package javac

import (
	"errors"
	"time"

	"go.lsp.dev/protocol"
)

// MaxCompletionItems bounds the size of any completion result. Once a
// candidate list reaches this size it is reported as incomplete.
const MaxCompletionItems = 50

// TopLevelKeywords are offered when the cursor is typing a fresh token at a
// position no other completion intent matches. This list never claims to be
// complete.
var TopLevelKeywords = []string{
	"abstract", "class", "enum", "extends", "final", "implements", "import",
	"interface", "native", "package", "private", "protected", "public",
	"static", "strictfp", "synchronized", "transient", "volatile",
}

// ErrCodeNotFound is the sentinel a batch returns when the target element
// could not be re-resolved inside a reduced compilation. It is distinct from
// an empty reference list: the search found nothing to even look for.
var ErrCodeNotFound = errors.New("element not found in compiled batch")

// SourceUnit is one input to a compile batch: a path plus a snapshot of its
// contents at a given modification time.
type SourceUnit struct {
	Path     string
	Contents string
	Modified time.Time
}

// Config is the immutable configuration a compiler instance is built from.
type Config struct {
	ClassPath  []string
	DocPath    []string
	AddExports []string
}

// ElementKind classifies resolved program elements.
type ElementKind int

const (
	ElementOther ElementKind = iota
	ElementClass
	ElementInterface
	ElementEnum
	ElementAnnotationType
	ElementMethod
	ElementConstructor
	ElementField
	ElementVariable
)

// IsType reports whether the kind names a type declaration.
func (k ElementKind) IsType() bool {
	switch k {
	case ElementClass, ElementInterface, ElementEnum, ElementAnnotationType:
		return true
	}
	return false
}

// Element is an opaque handle to a resolved program element. Handles are only
// valid while the batch that produced them is open; callers copy out scalar
// identity (names, kind, pointer) before closing the batch.
type Element interface {
	// SimpleName is the element's unqualified name; empty when the element
	// has no name.
	SimpleName() string
	// QualifiedName is the fully qualified name for type elements; empty
	// otherwise.
	QualifiedName() string
	Kind() ElementKind
	// Enclosing returns the element lexically containing this one, or nil.
	Enclosing() Element
	// HasErrorType reports whether the element's type resolved to the
	// compiler's error sentinel, usually because the declaring file was not
	// part of the compiled set.
	HasErrorType() bool
	// Modifiers returns visibility and other declaration modifiers.
	Modifiers() []string
	// Ptr is a stable pointer usable across separate compilations.
	Ptr() Ptr
}

// Reference is one resolved use of an element inside a compiled batch.
type Reference interface {
	// File is the path of the compilation unit containing the reference.
	File() string
	// Range returns the source range of the reference, or false when the
	// compiler cannot compute a position for it.
	Range() (protocol.Range, bool)
}

// ImportDecl describes one import statement in a compiled file.
type ImportDecl struct {
	Name   string
	Static bool
	// Line is the 0-based line the import statement starts on.
	Line int
}

// MethodPos locates a method declaration for override-annotation insertion.
type MethodPos struct {
	// Line is the 0-based line the method declaration starts on.
	Line int
	// Column is the 0-based column of the declaration start, which equals the
	// indentation width of the line.
	Column int
}

// SemanticColors carries the semantic-highlight spans for one file, published
// through the java/colors custom notification.
type SemanticColors struct {
	URI     protocol.DocumentURI `json:"uri"`
	Statics []protocol.Range     `json:"statics"`
	Fields  []protocol.Range     `json:"fields"`
}

// CompileBatch is a scoped compilation of one or more source units. All
// results derived from a batch are valid only while it is open; Close must be
// called on every exit path and releases the underlying compiler resources.
type CompileBatch interface {
	Close()

	// ElementAt resolves the element under the given position, if any.
	ElementAt(path string, pos protocol.Position) (Element, bool)
	// DeclaringFile returns the source file declaring the element.
	DeclaringFile(el Element) (string, bool)
	// TypeElement looks up a type by fully qualified name.
	TypeElement(qualifiedName string) (Element, bool)
	// AllMembers enumerates every member of a type, inherited ones included.
	AllMembers(t Element) []Element
	// Locate computes the declaration location of an element, or false when
	// the compiler has no syntax path or position for it.
	Locate(el Element) (protocol.Location, bool)
	// References returns every use of the element under the given position
	// within the batch. Returns ErrCodeNotFound when the element itself
	// cannot be re-resolved in this batch.
	References(path string, pos protocol.Position) ([]Reference, error)

	// Completion candidate queries. Offsets are 0-based character offsets
	// into the (pruned) source unit text.
	CompleteMembers(path string, offset int, addParens, addSemi bool) []protocol.CompletionItem
	CompleteReferences(path string, offset int) []protocol.CompletionItem
	CompleteAnnotations(path string, offset int, partialName string) []protocol.CompletionItem
	CompleteCases(path string, offset int) []protocol.CompletionItem
	CompleteIdentifiers(path string, offset int, inClass, inMethod bool, partialName string, addParens, addSemi bool) []protocol.CompletionItem

	// SignatureHelp returns active-signature information at the offset.
	SignatureHelp(path string, offset int) (protocol.SignatureHelp, bool)
	// HoverCode renders a code-block description of an element.
	HoverCode(el Element) string

	// FixImports computes the corrected import set for a file.
	FixImports(path string) []string
	// Imports lists the file's existing import declarations with positions.
	Imports(path string) []ImportDecl
	// PackageEndLine returns the 0-based line the package declaration ends
	// on, or false when the file has no package clause.
	PackageEndLine(path string) (int, bool)
	// NeedsOverrideAnnotation lists methods that override a supertype method
	// but lack an @Override annotation.
	NeedsOverrideAnnotation(path string) []MethodPos

	// ReportErrors returns the diagnostics for one input file.
	ReportErrors(path string) []protocol.Diagnostic
	// Colors returns semantic-highlight spans for one input file.
	Colors(path string) SemanticColors
}

// Compiler owns all per-workspace type-checking state. Exactly one live
// instance exists at a time; superseded instances are discarded.
type Compiler interface {
	// CompileBatch type-checks the given sources together.
	CompileBatch(sources []SourceUnit) CompileBatch
	// Docs locates documentation sources for elements by pointer.
	Docs() DocIndex
	// FindSymbols searches workspace symbols matching the query.
	FindSymbols(query string, limit int) []protocol.SymbolInformation
}

// DocIndex finds the documentation source for an element pointer.
type DocIndex interface {
	Find(ptr Ptr) (SourceUnit, bool)
}

// Inferrer derives a class path and a documentation path from a workspace
// root and a set of declared external dependency names.
type Inferrer interface {
	ClassPath() []string
	DocPath() []string
}

// Scanner is the textual pre-filter used by find-references: it returns the
// paths of files that might contain the given identifier, using heuristics
// parameterized by whether the element is a type and by its visibility.
type Scanner interface {
	PotentialReferences(declaringFile string, name string, isType bool, modifiers []string) []string
}

// Toolchain bundles the external collaborators a server instance drives.
// Backends register a complete toolchain; nothing in this module implements
// the compiler itself.
type Toolchain struct {
	// NewCompiler constructs a compiler instance for a configuration.
	NewCompiler func(cfg Config) Compiler
	// NewInferrer constructs configuration inference for a workspace.
	NewInferrer func(workspaceRoot string, externalDependencies []string) Inferrer
	// Parser parses single files without type checking.
	Parser Parser
	// Scanner is the potential-reference text search.
	Scanner Scanner
}

var registered *Toolchain

// Register installs the process-wide toolchain, database/sql driver style.
// Call it from the backend package's init.
func Register(t *Toolchain) {
	registered = t
}

// Registered returns the installed toolchain.
func Registered() (*Toolchain, bool) {
	if registered == nil {
		return nil, false
	}
	return registered, true
}
