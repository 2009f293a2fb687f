// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package lsp

import (
	"context"
	"io"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// Server adapts the pure analysis functions in this package (Complete,
// Signature, Hover, Definition, DocumentSymbols, Diagnostics) to
// go.lsp.dev/protocol's wire-level Server interface. It embeds
// protocol.Server itself (left nil) so only the handful of methods spec
// §4.9 actually asks for need overriding; any other method the protocol
// requires falls through to the embedded nil interface, matching how
// partial LSP server implementations are conventionally written against
// this package's large interface.
type Server struct {
	protocol.Server

	docs   *Store
	client protocol.Client
	log    *zap.Logger
}

// NewServer constructs a Server backed by a fresh document store.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{docs: NewStore(), log: logger}
}

// Run serves the LSP protocol over rwc (stdio, in the CLI's `mesh lsp`
// subcommand) until the connection closes.
func (s *Server) Run(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)

	s.client = protocol.ClientDispatcher(conn, s.log.Named("client"))

	conn.Go(ctx, protocol.ServerHandler(s, jsonrpc2.MethodNotFoundHandler))

	<-conn.Done()

	return conn.Err()
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindFull,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{},
			},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
			HoverProvider:          true,
			DefinitionProvider:     true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{Name: "mesh-lsp"},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return nil }

func (s *Server) Exit(ctx context.Context) error { return nil }

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := s.docs.Open(string(params.TextDocument.URI), []byte(params.TextDocument.Text))
	s.publishDiagnostics(ctx, params.TextDocument.URI, doc)

	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}

	// Full sync only (TextDocumentSyncKindFull advertised above): the last
	// change event carries the whole document text.
	full := params.ContentChanges[len(params.ContentChanges)-1].Text

	doc := s.docs.Open(string(params.TextDocument.URI), []byte(full))
	s.publishDiagnostics(ctx, params.TextDocument.URI, doc)

	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.Close(string(params.TextDocument.URI))
	return nil
}

func (s *Server) publishDiagnostics(ctx context.Context, docURI uri.URI, doc *DocumentState) {
	if s.client == nil {
		return
	}

	diags := Diagnostics(doc)
	wire := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		startLine, startChar := OffsetToPosition(doc.File, d.Span.Start())
		endLine, endChar := OffsetToPosition(doc.File, d.Span.End())

		message := d.Message
		if d.Help != "" {
			message += " (" + d.Help + ")"
		}

		wire = append(wire, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: startLine, Character: startChar},
				End:   protocol.Position{Line: endLine, Character: endChar},
			},
			Severity: wireSeverity(d.Severity),
			Code:     d.Code,
			Source:   "mesh",
			Message:  message,
		})
	}

	_ = s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: wire,
	})
}

func wireSeverity(s DiagnosticSeverity) protocol.DiagnosticSeverity {
	if s == DiagWarning {
		return protocol.DiagnosticSeverityWarning
	}

	return protocol.DiagnosticSeverityError
}

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return &protocol.CompletionList{}, nil
	}

	offset := PositionToOffset(doc.File, params.Position.Line, params.Position.Character)
	items := Complete(doc, offset)

	wire := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		wire = append(wire, protocol.CompletionItem{
			Label:            it.Label,
			Detail:           it.Detail,
			Kind:             wireCompletionKind(it.Kind),
			InsertText:       it.InsertText,
			SortText:         it.SortText,
			InsertTextFormat: insertTextFormat(it.Kind),
		})
	}

	return &protocol.CompletionList{IsIncomplete: false, Items: wire}, nil
}

func insertTextFormat(k CompletionKind) protocol.InsertTextFormat {
	if k == CompSnippet {
		return protocol.InsertTextFormatSnippet
	}

	return protocol.InsertTextFormatPlainText
}

func wireCompletionKind(k CompletionKind) protocol.CompletionItemKind {
	switch k {
	case CompFunction:
		return protocol.CompletionItemKindFunction
	case CompVariable:
		return protocol.CompletionItemKindVariable
	case CompClass:
		return protocol.CompletionItemKindClass
	case CompKeyword:
		return protocol.CompletionItemKindKeyword
	case CompSnippet:
		return protocol.CompletionItemKindSnippet
	default:
		return protocol.CompletionItemKindText
	}
}

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}

	offset := PositionToOffset(doc.File, params.Position.Line, params.Position.Character)

	text, ok := Hover(doc, offset)
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.PlainText, Value: text},
	}, nil
}

func (s *Server) SignatureHelp(ctx context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}

	offset := PositionToOffset(doc.File, params.Position.Line, params.Position.Character)

	help, ok := Signature(doc, offset)
	if !ok {
		return &protocol.SignatureHelp{}, nil
	}

	params2 := make([]protocol.ParameterInformation, len(help.Parameters))
	for i, p := range help.Parameters {
		params2[i] = protocol.ParameterInformation{Label: p}
	}

	return &protocol.SignatureHelp{
		Signatures: []protocol.SignatureInformation{{
			Label:      help.Label,
			Parameters: params2,
		}},
		ActiveSignature: 0,
		ActiveParameter: uint32(help.ActiveParameter),
	}, nil
}

func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}

	offset := PositionToOffset(doc.File, params.Position.Line, params.Position.Character)

	span, ok := Definition(doc, offset)
	if !ok {
		return nil, nil
	}

	startLine, startChar := OffsetToPosition(doc.File, span.Start())
	endLine, endChar := OffsetToPosition(doc.File, span.End())

	return []protocol.Location{{
		URI: params.TextDocument.URI,
		Range: protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
	}}, nil
}

func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]interface{}, error) {
	doc, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}

	syms := DocumentSymbols(doc)
	out := make([]interface{}, 0, len(syms))

	for _, sym := range syms {
		startLine, startChar := OffsetToPosition(doc.File, sym.Span.Start())
		endLine, endChar := OffsetToPosition(doc.File, sym.Span.End())
		selStartLine, selStartChar := OffsetToPosition(doc.File, sym.SelectionSpan.Start())
		selEndLine, selEndChar := OffsetToPosition(doc.File, sym.SelectionSpan.End())

		out = append(out, protocol.DocumentSymbol{
			Name: sym.Name,
			Kind: wireSymbolKind(sym.Kind),
			Range: protocol.Range{
				Start: protocol.Position{Line: startLine, Character: startChar},
				End:   protocol.Position{Line: endLine, Character: endChar},
			},
			SelectionRange: protocol.Range{
				Start: protocol.Position{Line: selStartLine, Character: selStartChar},
				End:   protocol.Position{Line: selEndLine, Character: selEndChar},
			},
		})
	}

	return out, nil
}

func wireSymbolKind(k SymbolKind) protocol.SymbolKind {
	switch k {
	case SymFunction:
		return protocol.SymbolKindFunction
	case SymStruct:
		return protocol.SymbolKindStruct
	case SymSumType:
		return protocol.SymbolKindEnum
	case SymInterface:
		return protocol.SymbolKindInterface
	default:
		return protocol.SymbolKindVariable
	}
}
