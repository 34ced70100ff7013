package server

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	lsp "go.lsp.dev/protocol"

	"java-lsp/src/internal/common"
	"java-lsp/src/internal/errors"
	"java-lsp/src/javac"
	"java-lsp/src/server/protocol"
)

// Transport runs the server over framed JSON-RPC streams. A reader goroutine
// feeds messages into the single logical worker loop; that loop is the only
// code that touches the Server, so request handling stays strictly
// sequential. Between messages the loop runs the idle lint task.
type Transport struct {
	server *Server
	in     *bufio.Reader
	out    io.Writer
}

// NewTransport wires a server to the given streams. The transport acts as
// the server's client for outbound notifications.
func NewTransport(in io.Reader, out io.Writer, toolchain *javac.Toolchain) *Transport {
	t := &Transport{
		in:  bufio.NewReader(in),
		out: out,
	}
	t.server = New(t, toolchain)
	return t
}

// Server returns the wrapped server, mainly for tests.
func (t *Transport) Server() *Server {
	return t.server
}

// PublishDiagnostics sends a textDocument/publishDiagnostics notification.
func (t *Transport) PublishDiagnostics(params *lsp.PublishDiagnosticsParams) {
	t.notify("textDocument/publishDiagnostics", params)
}

// CustomNotification sends an arbitrary one-way notification.
func (t *Transport) CustomNotification(method string, params interface{}) {
	t.notify(method, params)
}

// RegisterCapability sends a client/registerCapability request. The response
// is ignored; registration failure only costs file-watch events.
func (t *Transport) RegisterCapability(method string, options interface{}) {
	id := json.RawMessage(`"register-` + method + `"`)
	params, err := json.Marshal(map[string]interface{}{
		"registrations": []map[string]interface{}{
			{"id": method, "method": method, "registerOptions": options},
		},
	})
	if err != nil {
		common.LSPLogger.Error("Failed to marshal registration: %v", err)
		return
	}
	msg := &protocol.Message{ID: &id, Method: "client/registerCapability", Params: params}
	if err := protocol.WriteMessage(t.out, msg); err != nil {
		common.LSPLogger.Error("Failed to send registration: %v", err)
	}
}

func (t *Transport) notify(method string, params interface{}) {
	encoded, err := json.Marshal(params)
	if err != nil {
		common.LSPLogger.Error("Failed to marshal %s params: %v", method, err)
		return
	}
	msg := &protocol.Message{Method: method, Params: encoded}
	if err := protocol.WriteMessage(t.out, msg); err != nil {
		common.LSPLogger.Error("Failed to send %s: %v", method, err)
	}
}

func (t *Transport) respond(id *json.RawMessage, result interface{}, err error) {
	msg := &protocol.Message{ID: id}
	if err != nil {
		msg.Error = &protocol.RPCError{Code: errors.CodeFor(err), Message: err.Error()}
	} else if result == nil {
		// A success response must carry a result member even when the
		// answer is empty.
		msg.Result = json.RawMessage("null")
	} else {
		msg.Result = result
	}
	if writeErr := protocol.WriteMessage(t.out, msg); writeErr != nil {
		common.LSPLogger.Error("Failed to send response: %v", writeErr)
	}
}

// idleInterval is how long the worker waits for input before running the
// low-priority lint task.
const idleInterval = 500 * time.Millisecond

// Run processes messages until the input stream closes or an exit
// notification arrives.
func (t *Transport) Run() error {
	messages := make(chan *protocol.Message)
	readErrs := make(chan error, 1)
	go func() {
		for {
			msg, err := protocol.ReadMessage(t.in)
			if err != nil {
				readErrs <- err
				return
			}
			messages <- msg
		}
	}()

	for {
		select {
		case msg := <-messages:
			if msg.Method == "exit" {
				return nil
			}
			t.dispatch(msg)
		case err := <-readErrs:
			if err == io.EOF {
				return nil
			}
			return err
		case <-time.After(idleInterval):
			t.server.DoAsyncWork()
		}
	}
}

func (t *Transport) dispatch(msg *protocol.Message) {
	if msg.IsNotification() {
		t.dispatchNotification(msg.Method, msg.Params)
		return
	}
	if !msg.IsRequest() {
		// Responses to our own requests (capability registration) need no
		// handling.
		return
	}
	result, err := t.dispatchRequest(msg.Method, msg.Params)
	t.respond(msg.ID, result, err)
}

func (t *Transport) dispatchNotification(method string, params json.RawMessage) {
	switch method {
	case "initialized":
		t.server.Initialized()
	case "workspace/didChangeConfiguration":
		var p struct {
			Settings json.RawMessage `json:"settings"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			common.LSPLogger.Error("Bad didChangeConfiguration params: %v", err)
			return
		}
		t.server.DidChangeConfiguration(p.Settings)
	case "workspace/didChangeWatchedFiles":
		var p lsp.DidChangeWatchedFilesParams
		if err := json.Unmarshal(params, &p); err == nil {
			t.server.DidChangeWatchedFiles(&p)
		}
	case "textDocument/didOpen":
		var p lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(params, &p); err == nil {
			t.server.DidOpenTextDocument(&p)
		}
	case "textDocument/didChange":
		var p lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(params, &p); err == nil {
			t.server.DidChangeTextDocument(&p)
		}
	case "textDocument/didClose":
		var p lsp.DidCloseTextDocumentParams
		if err := json.Unmarshal(params, &p); err == nil {
			t.server.DidCloseTextDocument(&p)
		}
	case "textDocument/didSave":
		var p lsp.DidSaveTextDocumentParams
		if err := json.Unmarshal(params, &p); err == nil {
			t.server.DidSaveTextDocument(&p)
		}
	default:
		common.LSPLogger.Debug("Ignoring notification %s", method)
	}
}

func (t *Transport) dispatchRequest(method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "initialize":
		var p lsp.InitializeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.Initialize(&p)
	case "shutdown":
		t.server.Shutdown()
		return nil, nil
	case "textDocument/completion":
		var p lsp.CompletionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.Completion(&p)
	case "completionItem/resolve":
		var p lsp.CompletionItem
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.ResolveCompletionItem(&p)
	case "textDocument/hover":
		var p lsp.HoverParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.Hover(&p)
	case "textDocument/signatureHelp":
		var p lsp.SignatureHelpParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.SignatureHelp(&p)
	case "textDocument/definition":
		var p lsp.DefinitionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.Definition(&p)
	case "textDocument/references":
		var p lsp.ReferenceParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.References(&p)
	case "textDocument/documentSymbol":
		var p lsp.DocumentSymbolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.DocumentSymbol(&p)
	case "workspace/symbol":
		var p lsp.WorkspaceSymbolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.WorkspaceSymbols(&p)
	case "textDocument/codeLens":
		var p lsp.CodeLensParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.CodeLens(&p)
	case "codeLens/resolve":
		var p lsp.CodeLens
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.ResolveCodeLens(&p)
	case "textDocument/foldingRange":
		var p lsp.FoldingRangeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.FoldingRange(&p)
	case "textDocument/formatting":
		var p lsp.DocumentFormattingParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.Formatting(&p)
	case "textDocument/codeAction":
		var p lsp.CodeActionParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return t.server.CodeAction(&p)
	case "textDocument/prepareRename":
		var p lsp.PrepareRenameParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return nil, t.server.PrepareRename(&p)
	case "textDocument/rename":
		var p lsp.RenameParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.NewValidationError("params", err.Error())
		}
		return nil, t.server.Rename(&p)
	default:
		return nil, errors.NewLSPError(errors.MethodNotFound, "method not found: "+method, nil)
	}
}
