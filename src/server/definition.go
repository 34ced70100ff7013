package server

import (
	"go.lsp.dev/protocol"

	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
)

// Definition resolves the element under the cursor, then recompiles the
// origin file together with the declaring file to compute an exact location.
// When the element's type is the compiler's error sentinel, the declaring
// file usually wasn't part of the compiled set and a name-based fallback
// search runs instead.
//
// Batches are strictly sequential: the first batch closes before any
// follow-up batch opens, because locations derived from a batch do not
// survive its release.
func (s *Server) Definition(params *protocol.DefinitionParams) ([]protocol.Location, error) {
	fromFile := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(fromFile) {
		return nil, nil
	}
	common.LSPLogger.Info("Go-to-def at %s:%d...", fromFile, params.Position.Line)

	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	batch := compiler.CompileBatch(s.asSourceUnits([]string{fromFile}))

	el, ok := batch.ElementAt(fromFile, params.Position)
	if !ok {
		common.LSPLogger.Info("...no element at cursor")
		batch.Close()
		return nil, nil
	}
	if el.HasErrorType() {
		return s.gotoErrorDefinition(batch, el)
	}
	toFile, ok := batch.DeclaringFile(el)
	if !ok {
		common.LSPLogger.Info("...no file for %s", el.SimpleName())
		batch.Close()
		return nil, nil
	}
	batch.Close()
	return s.resolveDefinition(fromFile, params.Position, toFile)
}

// resolveDefinition recompiles the (origin, declaring) pair and locates the
// element's declaration inside the joined compilation.
func (s *Server) resolveDefinition(fromFile string, pos protocol.Position, toFile string) ([]protocol.Location, error) {
	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	files := []string{fromFile}
	if toFile != fromFile {
		files = append(files, toFile)
	}
	batch := compiler.CompileBatch(s.asSourceUnits(files))
	defer batch.Close()

	el, ok := batch.ElementAt(fromFile, pos)
	if !ok {
		common.LSPLogger.Info("...element vanished in joined compilation")
		return nil, nil
	}
	location, ok := batch.Locate(el)
	if !ok {
		common.LSPLogger.Info("...no location for element %s", el.SimpleName())
		return nil, nil
	}
	return []protocol.Location{location}, nil
}

// gotoErrorDefinition handles an element whose type could not be resolved:
// find its enclosing type's declaring file and fall back to a simple-name
// match over all members of that type. Takes ownership of batch and closes
// it before any follow-up compile.
func (s *Server) gotoErrorDefinition(batch javac.CompileBatch, el javac.Element) ([]protocol.Location, error) {
	name := el.SimpleName()
	if name == "" {
		common.LSPLogger.Info("...element has no name")
		batch.Close()
		return nil, nil
	}
	parent := el.Enclosing()
	if parent == nil || !parent.Kind().IsType() {
		common.LSPLogger.Info("...enclosing element is not a type")
		batch.Close()
		return nil, nil
	}
	typeName := parent.QualifiedName()
	toFile, ok := batch.DeclaringFile(parent)
	if !ok {
		common.LSPLogger.Info("...no file for %s", typeName)
		batch.Close()
		return nil, nil
	}
	batch.Close()
	return s.gotoAllMembers(typeName, name, toFile)
}

// gotoAllMembers recompiles the declaring file alone and returns the
// locations of every member of the type with a matching simple name.
// Error recovery loses overload precision, so this is a candidate set.
func (s *Server) gotoAllMembers(typeName, memberName, inFile string) ([]protocol.Location, error) {
	common.LSPLogger.Info("...go to members of %s named %s", typeName, memberName)
	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	batch := compiler.CompileBatch(s.asSourceUnits([]string{inFile}))
	defer batch.Close()

	typeEl, ok := batch.TypeElement(typeName)
	if !ok {
		common.LSPLogger.Info("...no type named %s in %s", typeName, inFile)
		return nil, nil
	}
	var matches []protocol.Location
	for _, member := range batch.AllMembers(typeEl) {
		if member.SimpleName() != memberName {
			continue
		}
		location, ok := batch.Locate(member)
		if !ok {
			common.LSPLogger.Info("...no location for %s in %s", member.SimpleName(), inFile)
			continue
		}
		matches = append(matches, location)
	}
	return matches, nil
}
