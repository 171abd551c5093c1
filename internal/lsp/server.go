package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"

	"github.com/leapstack-labs/dbalint/pkg/lint"
	_ "github.com/leapstack-labs/dbalint/pkg/lint/rules" // Register DBA rules
)

// Commands executed through workspace/executeCommand.
const (
	CommandValidate = "sqlDbaLinter.validate"
)

// Messages shown to the user by the validate command.
const (
	msgValidateDone  = "SQL validation complete. Check Problems panel for issues."
	msgValidateNoSQL = "Please open a SQL file to validate."
)

// JSON-RPC error codes.
const (
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// ErrExitWithoutShutdown is returned by Run when the client sends exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

// Server implements the Language Server Protocol for dbalint. It is also the
// lint.Sink that turns published diagnostics into publishDiagnostics
// notifications.
type Server struct {
	// Document management
	documents *DocumentStore
	service   *lint.Service

	// Configuration: base comes from dbalint.yaml, cfg adds client settings
	base  *lint.Config
	cfg   *lint.Config
	cfgMu sync.RWMutex

	// URIs with diagnostics currently shown in the client
	published   map[string]bool
	publishedMu sync.Mutex

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	// Logging
	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	exited     bool
	shutdownMu sync.RWMutex
}

var _ lint.Sink = (*Server)(nil)

// NewServer creates a new LSP server instance.
func NewServer(reader io.Reader, writer io.Writer) *Server {
	return NewServerWithLogger(reader, writer, nil)
}

// NewServerWithLogger creates a new LSP server instance with a custom logger.
func NewServerWithLogger(reader io.Reader, writer io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	s := &Server{
		documents: NewDocumentStore(),
		base:      lint.NewConfig(),
		cfg:       lint.NewConfig(),
		published: make(map[string]bool),
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}
	s.service = lint.NewService(nil, s)
	return s
}

// SetConfig sets the configuration that client settings are layered on.
// Call before Run.
func (s *Server) SetConfig(cfg *lint.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.base = cfg.Clone()
	s.cfg = cfg.Clone()
}

// Config returns a snapshot of the active configuration.
func (s *Server) Config() *lint.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// Run starts the server's main loop, processing JSON-RPC messages until the
// client sends exit or closes the stream.
func (s *Server) Run() error {
	s.logger.Info("dbalint LSP server starting...")

	for {
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("Client disconnected")
				return nil
			}
			s.logger.Error("Error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("Error handling message", "method", msg.Method, "error", err)
		}

		s.shutdownMu.RLock()
		exited, shutdown := s.exited, s.shutdown
		s.shutdownMu.RUnlock()
		if exited {
			if !shutdown {
				return ErrExitWithoutShutdown
			}
			return nil
		}
	}
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// readMessage reads a JSON-RPC message from the input stream.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	// Read headers
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if strings.HasPrefix(line, "Content-Length: ") {
			lengthStr := strings.TrimPrefix(line, "Content-Length: ")
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, err *JSONRPCError) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
	}

	if err != nil {
		msg.Error = err
	} else {
		resultBytes, _ := json.Marshal(result)
		msg.Result = resultBytes
	}

	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

func (s *Server) showMessage(typ MessageType, text string) {
	s.sendNotification("window/showMessage", &ShowMessageParams{Type: typ, Message: text})
}

// writeMessage writes a JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

// invalidParams answers a request whose params failed to decode.
func (s *Server) invalidParams(msg *JSONRPCMessage, err error) error {
	if msg.ID != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
	}
	return err
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("Received", "method", msg.Method)

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		return s.handleExit(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	default:
		if msg.ID != nil {
			// Unknown method with ID - respond with method not found
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	if len(params.InitializationOptions) > 0 {
		if err := s.applySettings(params.InitializationOptions); err != nil {
			s.logger.Warn("Ignoring initialization options", "error", err)
		}
	}
	s.logger.Info("Initialized", "root", URIToPath(params.RootURI))

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save: &SaveOptions{
					IncludeText: true,
				},
			},
			ExecuteCommandProvider: &ExecuteCommandOptions{
				Commands: []string{CommandValidate},
			},
		},
		ServerInfo: &ServerInfo{Name: "dbalint"},
	}

	s.sendResponse(msg.ID, result, nil)
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	err := s.service.ClearAll(context.Background())

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("Server shutdown")
	return err
}

func (s *Server) handleExit(_ *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.exited = true
	s.shutdownMu.Unlock()

	s.logger.Info("Server exit")
	return nil
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	item := params.TextDocument
	s.documents.Open(item.URI, item.LanguageID, item.Text, item.Version)
	s.logger.Debug("Opened", "uri", item.URI, "language", item.LanguageID)

	return s.validate(item.URI)
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.logger.Debug("Closed", "uri", params.TextDocument.URI)

	return s.service.Clear(context.Background(), params.TextDocument.URI)
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	// We use full sync, so take the last change
	if len(params.ContentChanges) > 0 {
		lastChange := params.ContentChanges[len(params.ContentChanges)-1]
		s.documents.Update(params.TextDocument.URI, lastChange.Text, params.TextDocument.Version)
	}

	return s.validate(params.TextDocument.URI)
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	uri := params.TextDocument.URI
	if params.Text != nil {
		if doc := s.documents.Get(uri); doc != nil {
			s.documents.Update(uri, *params.Text, doc.Version)
		}
	}

	return s.validate(uri)
}

// --- Workspace handlers ---

func (s *Server) handleDidChangeConfiguration(msg *JSONRPCMessage) error {
	var params DidChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	if err := s.applySettings(params.Settings); err != nil {
		s.showMessage(MessageTypeError, "Invalid "+SettingsSection+" settings: "+err.Error())
		return err
	}

	s.logger.Info("Configuration changed, revalidating", "documents", len(s.documents.List()))
	return s.validateAll()
}

func (s *Server) handleExecuteCommand(msg *JSONRPCMessage) error {
	var params ExecuteCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.invalidParams(msg, err)
	}

	if params.Command != CommandValidate {
		return s.invalidParams(msg, fmt.Errorf("unknown command: %s", params.Command))
	}

	var uri string
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments[0], &uri); err != nil {
			return s.invalidParams(msg, fmt.Errorf("invalid document URI argument: %w", err))
		}
	}

	doc := s.documents.Get(uri)
	if !doc.IsSQL() {
		s.showMessage(MessageTypeWarning, msgValidateNoSQL)
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	err := s.validate(uri)
	s.showMessage(MessageTypeInfo, msgValidateDone)
	s.sendResponse(msg.ID, nil, nil)
	return err
}

// --- Validation ---

// applySettings layers client settings over the base configuration.
func (s *Server) applySettings(raw json.RawMessage) error {
	settings, err := ParseSettings(raw)
	if err != nil {
		return err
	}

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	cfg, err := settings.Apply(s.base)
	if err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// validate runs a pass over an open SQL document and publishes the result.
// Other documents are ignored.
func (s *Server) validate(uri string) error {
	doc := s.documents.Get(uri)
	if !doc.IsSQL() {
		return nil
	}

	diags, err := s.service.Validate(context.Background(), doc.LintDocument(), s.Config())
	if err != nil {
		return fmt.Errorf("validate %s: %w", uri, err)
	}
	s.logger.Debug("Validated", "uri", uri, "diagnostics", len(diags))
	return nil
}

func (s *Server) validateAll() error {
	var errs []error
	for _, uri := range s.documents.List() {
		if err := s.validate(uri); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- lint.Sink ---

// Publish implements lint.Sink.
func (s *Server) Publish(_ context.Context, uri string, diags []lint.Diagnostic) error {
	s.publishedMu.Lock()
	s.published[uri] = true
	s.publishedMu.Unlock()

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocol(diags),
	})
	return nil
}

// Clear implements lint.Sink.
func (s *Server) Clear(_ context.Context, uri string) error {
	s.publishedMu.Lock()
	delete(s.published, uri)
	s.publishedMu.Unlock()

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

// ClearAll implements lint.Sink.
func (s *Server) ClearAll(ctx context.Context) error {
	s.publishedMu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.publishedMu.Unlock()

	for _, uri := range uris {
		if err := s.Clear(ctx, uri); err != nil {
			return err
		}
	}
	return nil
}

// toProtocol converts engine diagnostics to LSP diagnostics.
func toProtocol(diags []lint.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: toProtocolSeverity(d.Severity),
			Code:     d.Code,
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolRange(r lint.Range) Range {
	return Range{
		Start: toProtocolPosition(r.Start),
		End:   toProtocolPosition(r.End),
	}
}

// toProtocolPosition clamps out-of-range values to zero.
func toProtocolPosition(p lint.Position) Position {
	line, err := safecast.Conv[uint32](p.Line)
	if err != nil {
		line = 0
	}
	char, err := safecast.Conv[uint32](p.Character)
	if err != nil {
		char = 0
	}
	return Position{Line: line, Character: char}
}

func toProtocolSeverity(sev lint.Severity) DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return DiagnosticSeverityError
	case lint.SeverityWarning:
		return DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
