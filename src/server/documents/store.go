// Package documents owns the text and version state of workspace files: open
// documents live in memory, everything else is read from disk on demand.
package documents

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"java-lsp/src/internal/common"
	"java-lsp/src/utils/lspconv"
)

// openDocument is the in-memory state of a file the client has opened.
type openDocument struct {
	contents string
	version  int
	modified time.Time
}

// Store tracks workspace roots, open documents and external file changes.
// It is single-owner state: one request executes at a time, so no locking.
type Store struct {
	workspaceRoots []string
	open           map[string]*openDocument
	// externalVersions bumps a counter for files changed outside the editor
	// so version-keyed caches invalidate for them too.
	externalVersions map[string]int
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{
		open:             make(map[string]*openDocument),
		externalVersions: make(map[string]int),
	}
}

// SetWorkspaceRoots replaces the set of workspace root directories.
func (s *Store) SetWorkspaceRoots(roots []string) {
	s.workspaceRoots = roots
}

// WorkspaceRoots returns the configured workspace root directories.
func (s *Store) WorkspaceRoots() []string {
	return s.workspaceRoots
}

// IsJavaFile reports whether the path names a Java source file.
func (s *Store) IsJavaFile(path string) bool {
	return strings.HasSuffix(path, ".java")
}

// PathOf converts a document URI to a filesystem path.
func PathOf(docURI protocol.DocumentURI) string {
	return uri.URI(docURI).Filename()
}

// URIOf converts a filesystem path to a document URI.
func URIOf(path string) protocol.DocumentURI {
	return protocol.DocumentURI(uri.File(path))
}

// Contents returns the current text of a file: the open overlay when the
// client has it open, the on-disk bytes otherwise.
func (s *Store) Contents(path string) string {
	if doc, ok := s.open[path]; ok {
		return doc.contents
	}
	data, err := os.ReadFile(path)
	if err != nil {
		common.LSPLogger.Error("Failed to read %s: %v", path, err)
		return ""
	}
	return string(data)
}

// Version returns a monotonic version stamp for the file. Open documents use
// the client-supplied version; on-disk files use the external change counter.
func (s *Store) Version(path string) int {
	if doc, ok := s.open[path]; ok {
		return doc.version
	}
	return s.externalVersions[path]
}

// Modified returns the file's last modification time.
func (s *Store) Modified(path string) time.Time {
	if doc, ok := s.open[path]; ok {
		return doc.modified
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Open records a textDocument/didOpen.
func (s *Store) Open(params *protocol.DidOpenTextDocumentParams) {
	path := PathOf(params.TextDocument.URI)
	s.open[path] = &openDocument{
		contents: params.TextDocument.Text,
		version:  int(params.TextDocument.Version),
		modified: time.Now(),
	}
}

// Change applies a textDocument/didChange as incremental range splices. The
// server only advertises incremental sync, so every event carries a range; a
// zero range is an insertion at the start of the document.
func (s *Store) Change(params *protocol.DidChangeTextDocumentParams) {
	path := PathOf(params.TextDocument.URI)
	doc, ok := s.open[path]
	if !ok {
		common.LSPLogger.Warn("Change for document that is not open: %s", path)
		return
	}
	for _, change := range params.ContentChanges {
		start := lspconv.Offset(doc.contents, change.Range.Start)
		end := lspconv.Offset(doc.contents, change.Range.End)
		doc.contents = doc.contents[:start] + change.Text + doc.contents[end:]
	}
	doc.version = int(params.TextDocument.Version)
	doc.modified = time.Now()
}

// Close records a textDocument/didClose. The external counter picks up from
// the overlay's last client version so version stamps stay monotonic across
// the overlay's removal; otherwise a later external change could collide with
// an already-seen stamp and version-keyed caches would serve stale trees.
func (s *Store) Close(params *protocol.DidCloseTextDocumentParams) {
	path := PathOf(params.TextDocument.URI)
	s.seedExternalVersion(path)
	delete(s.open, path)
}

func (s *Store) seedExternalVersion(path string) {
	if doc, ok := s.open[path]; ok && doc.version > s.externalVersions[path] {
		s.externalVersions[path] = doc.version
	}
}

// IsOpen reports whether the client currently has the file open.
func (s *Store) IsOpen(path string) bool {
	_, ok := s.open[path]
	return ok
}

// ActiveDocuments lists the paths of all open documents.
func (s *Store) ActiveDocuments() []string {
	var paths []string
	for path := range s.open {
		paths = append(paths, path)
	}
	return paths
}

// ExternalCreate records a file created outside the editor.
func (s *Store) ExternalCreate(path string) {
	s.externalVersions[path]++
}

// ExternalChange records a file changed outside the editor.
func (s *Store) ExternalChange(path string) {
	s.externalVersions[path]++
}

// ExternalDelete records a file deleted outside the editor.
func (s *Store) ExternalDelete(path string) {
	s.seedExternalVersion(path)
	delete(s.open, path)
	s.externalVersions[path]++
}

// SourceRoots returns the directories directly containing Java sources under
// the workspace roots.
func (s *Store) SourceRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, root := range s.workspaceRoots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				name := d.Name()
				if strings.HasPrefix(name, ".") || name == "target" || name == "build" {
					return filepath.SkipDir
				}
				return nil
			}
			if s.IsJavaFile(path) {
				dir := filepath.Dir(path)
				if !seen[dir] {
					seen[dir] = true
					roots = append(roots, dir)
				}
			}
			return nil
		})
	}
	return roots
}
