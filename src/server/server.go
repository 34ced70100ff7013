// Package server implements the request-orchestration core of the language
// server: it classifies what each request is asking, drives the external
// compiler with the smallest source set that can answer it, and keeps the
// compiler and parse caches coherent across edits.
package server

import (
	"encoding/json"
	"path/filepath"
	"time"

	"go.lsp.dev/protocol"

	"java-lsp/src/config"
	"java-lsp/src/internal/common"
	"java-lsp/src/javac"
	"java-lsp/src/server/documents"
)

// Client is the notification surface back to the editor. All calls are
// one-way and fire-and-forget.
type Client interface {
	PublishDiagnostics(params *protocol.PublishDiagnosticsParams)
	CustomNotification(method string, params interface{})
	RegisterCapability(method string, options interface{})
}

// Server orchestrates LSP requests over the external compiler toolchain.
// A single logical worker processes requests one at a time.
type Server struct {
	client    Client
	store     *documents.Store
	toolchain *javac.Toolchain

	compilers *CompilerCache
	parses    *ParseCache

	workspaceRoot string
	settings      config.Settings

	// lastEdited and uncheckedChanges track whether the most recently edited
	// file still has unpublished diagnostics.
	lastEdited       string
	uncheckedChanges bool
}

// New creates a server wired to a client and a compiler toolchain.
func New(client Client, toolchain *javac.Toolchain) *Server {
	store := documents.NewStore()
	s := &Server{
		client:    client,
		store:     store,
		toolchain: toolchain,
		parses:    NewParseCache(toolchain.Parser, store),
	}
	s.compilers = NewCompilerCache(toolchain, s)
	return s
}

// Store exposes the document store to the transport layer.
func (s *Server) Store() *documents.Store {
	return s.store
}

var watchFileGlobs = []string{"**/*.java", "**/pom.xml", "**/BUILD"}

// Initialize records the workspace root and advertises server capabilities.
func (s *Server) Initialize(params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	root := documents.PathOf(params.RootURI)
	s.workspaceRoot = root
	s.store.SetWorkspaceRoots([]string{root})
	s.compilers.SetWorkspaceRoot(root)

	// A workspace settings file seeds the configuration until the client
	// pushes one via didChangeConfiguration.
	settings, err := config.LoadWorkspaceSettings(root)
	if err != nil {
		common.LSPLogger.Warn("Ignoring workspace settings file: %v", err)
	} else {
		s.settings = settings
		s.compilers.UpdateSettings(settings)
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindIncremental,
			HoverProvider:    true,
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   true,
				TriggerCharacters: []string{"."},
			},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
			ReferencesProvider:         true,
			DefinitionProvider:         true,
			WorkspaceSymbolProvider:    true,
			DocumentSymbolProvider:     true,
			DocumentFormattingProvider: true,
			CodeLensProvider:           &protocol.CodeLensOptions{},
			FoldingRangeProvider:       true,
			CodeActionProvider:         true,
		},
	}, nil
}

// Initialized registers the build and source file watchers.
func (s *Server) Initialized() {
	watchers := make([]map[string]interface{}, 0, len(watchFileGlobs))
	for _, glob := range watchFileGlobs {
		watchers = append(watchers, map[string]interface{}{"globPattern": glob})
	}
	s.client.RegisterCapability("workspace/didChangeWatchedFiles", map[string]interface{}{
		"watchers": watchers,
	})
}

// Shutdown has nothing to release; all state is in-memory.
func (s *Server) Shutdown() {}

// DidChangeConfiguration replaces the active settings from the "java"
// sub-object of the pushed configuration.
func (s *Server) DidChangeConfiguration(rawSettings json.RawMessage) {
	settings, err := config.FromJSON(rawSettings)
	if err != nil {
		common.LSPLogger.Error("Failed to parse pushed settings: %v", err)
		return
	}
	common.LSPLogger.Info("Received java settings %+v", settings)
	s.settings = settings
	s.compilers.UpdateSettings(settings)
}

// DidChangeWatchedFiles routes external file events: source file events go to
// the document store, build descriptor changes mark the compiler dirty.
func (s *Server) DidChangeWatchedFiles(params *protocol.DidChangeWatchedFilesParams) {
	for _, change := range params.Changes {
		file := documents.PathOf(change.URI)
		if s.store.IsJavaFile(file) {
			switch change.Type {
			case protocol.FileChangeTypeCreated:
				s.store.ExternalCreate(file)
			case protocol.FileChangeTypeChanged:
				s.store.ExternalChange(file)
			case protocol.FileChangeTypeDeleted:
				s.store.ExternalDelete(file)
			}
			return
		}
		switch filepath.Base(file) {
		case "BUILD", "pom.xml":
			common.LSPLogger.Info("Compiler needs to be re-created because %s has changed", file)
			s.compilers.MarkBuildModified()
		}
	}
}

// DidOpenTextDocument tracks the document and warms the parse cache so
// subsequent documentSymbol and codeLens requests are fast.
func (s *Server) DidOpenTextDocument(params *protocol.DidOpenTextDocumentParams) {
	s.store.Open(params)
	file := documents.PathOf(params.TextDocument.URI)
	if !s.store.IsJavaFile(file) {
		return
	}
	if _, err := s.parses.Get(file); err != nil {
		common.LSPLogger.Error("Failed to parse %s: %v", file, err)
	}
	s.lastEdited = file
	s.uncheckedChanges = true
}

// DidChangeTextDocument applies the edit and marks diagnostics stale.
func (s *Server) DidChangeTextDocument(params *protocol.DidChangeTextDocumentParams) {
	s.store.Change(params)
	s.lastEdited = documents.PathOf(params.TextDocument.URI)
	s.uncheckedChanges = true
}

// DidCloseTextDocument drops the overlay and clears diagnostics.
func (s *Server) DidCloseTextDocument(params *protocol.DidCloseTextDocumentParams) {
	s.store.Close(params)
	file := documents.PathOf(params.TextDocument.URI)
	if s.store.IsJavaFile(file) {
		s.client.PublishDiagnostics(&protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
}

// DidSaveTextDocument re-lints all active documents.
func (s *Server) DidSaveTextDocument(params *protocol.DidSaveTextDocumentParams) {
	if s.store.IsJavaFile(documents.PathOf(params.TextDocument.URI)) {
		if err := s.Lint(s.store.ActiveDocuments()); err != nil {
			common.LSPLogger.Error("Lint failed: %v", err)
		}
	}
}

// DoAsyncWork is the idle task: when the most recently edited file still has
// unpublished diagnostics, lint that file alone. Idempotent and safely
// skippable when no edits are pending.
func (s *Server) DoAsyncWork() {
	if !s.uncheckedChanges {
		return
	}
	for _, active := range s.store.ActiveDocuments() {
		if active == s.lastEdited {
			if err := s.Lint([]string{s.lastEdited}); err != nil {
				common.LSPLogger.Error("Lint failed: %v", err)
				return
			}
			s.uncheckedChanges = false
			return
		}
	}
}

// Lint compiles the files as one batch and publishes their diagnostics and
// semantic color hints.
func (s *Server) Lint(files []string) error {
	if len(files) == 0 {
		return nil
	}
	common.LSPLogger.Info("Lint %d files...", len(files))
	started := time.Now()
	compiler, err := s.compilers.Compiler()
	if err != nil {
		return err
	}
	batch := compiler.CompileBatch(s.asSourceUnits(files))
	defer batch.Close()
	common.LSPLogger.Info("...compiled in %d ms", time.Since(started).Milliseconds())
	for _, file := range files {
		s.client.PublishDiagnostics(&protocol.PublishDiagnosticsParams{
			URI:         documents.URIOf(file),
			Diagnostics: batch.ReportErrors(file),
		})
		s.client.CustomNotification("java/colors", batch.Colors(file))
	}
	common.LSPLogger.Info("...linted in %d ms", time.Since(started).Milliseconds())
	return nil
}

// WorkspaceSymbols searches symbols across the workspace.
func (s *Server) WorkspaceSymbols(params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	compiler, err := s.compilers.Compiler()
	if err != nil {
		return nil, err
	}
	return compiler.FindSymbols(params.Query, 50), nil
}

// PrepareRename is intentionally unimplemented and fails hard.
func (s *Server) PrepareRename(params *protocol.PrepareRenameParams) error {
	return common.NotImplemented("textDocument/prepareRename")
}

// Rename is intentionally unimplemented and fails hard.
func (s *Server) Rename(params *protocol.RenameParams) error {
	return common.NotImplemented("textDocument/rename")
}

// Progress protocol: three custom notifications wrapping long-running
// compiler reconfiguration.

// StartProgress begins a named progress phase on the client.
func (s *Server) StartProgress(message string) {
	s.client.CustomNotification("java/startProgress", map[string]string{"message": message})
}

// ReportProgress updates the progress label.
func (s *Server) ReportProgress(message string) {
	s.client.CustomNotification("java/reportProgress", map[string]string{"message": message})
}

// EndProgress ends the current progress phase.
func (s *Server) EndProgress() {
	s.client.CustomNotification("java/endProgress", nil)
}

// asSourceUnits snapshots the current text and timestamps of files.
func (s *Server) asSourceUnits(files []string) []javac.SourceUnit {
	units := make([]javac.SourceUnit, 0, len(files))
	for _, file := range files {
		units = append(units, javac.SourceUnit{
			Path:     file,
			Contents: s.store.Contents(file),
			Modified: s.store.Modified(file),
		})
	}
	return units
}

// sourceUnit snapshots one file with explicit contents.
func sourceUnit(path, contents string) javac.SourceUnit {
	return javac.SourceUnit{Path: path, Contents: contents, Modified: time.Now()}
}
