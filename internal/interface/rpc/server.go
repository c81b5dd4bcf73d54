// Package rpc отдаёт операции над заявками как инструменты JSON-RPC 2.0
// (initialize, tools/list, tools/call) поверх POST /api/rpc.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "grantwriter"
	serverVersion   = "1.0.0"

	// maxRequestBytes: отчёт для generate_from_text бывает длинным.
	maxRequestBytes = 2 << 20
)

// Коды ошибок JSON-RPC.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallToolResult: ошибка инструмента не является ошибкой протокола и идёт с isError=true.
type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Server обслуживает JSON-RPC поверх тех же use case, что и REST.
type Server struct {
	tools *ToolHandler
}

func NewServer(uc *proposal.UseCases, tokens middleware.AccessTokenParser) *Server {
	return &Server{tools: NewToolHandler(uc, tokens)}
}

// Handle обрабатывает POST /api/rpc.
func (s *Server) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, codeInvalidRequest, "request body too large or unreadable"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "Parse error"))
		return
	}

	resp := s.HandleRequest(c.Request.Context(), &req)
	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRequest разбирает одно сообщение. Для уведомлений возвращает nil.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, codeInvalidRequest, "jsonrpc must be \"2.0\"")
	}

	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: InitializeResult{
				ProtocolVersion: protocolVersion,
				ServerInfo:      ServerInfo{Name: serverName, Version: serverVersion},
				Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			},
		}
	case "tools/list":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: ListToolsResult{Tools: toolDefinitions()}}
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "notifications/initialized":
		return nil
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found")
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := s.tools.Handle(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errUnknownTool) {
			return errorResponse(req.ID, codeMethodNotFound, err.Error())
		}
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: toolError(params.Name, err)}
	}

	text, err := json.Marshal(result)
	if err != nil {
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: toolError(params.Name, err)}
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  CallToolResult{Content: []ToolContent{{Type: "text", Text: string(text)}}},
	}
}

// toolError показывает клиенту сообщение AppError; прочие ошибки маскируются.
func toolError(tool string, err error) CallToolResult {
	message := "internal server error"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.L().WithFields(logrus.Fields{"tool": tool}).WithError(err).Error("rpc: инструмент завершился ошибкой")
	}
	return CallToolResult{
		Content: []ToolContent{{Type: "text", Text: message}},
		IsError: true,
	}
}

func errorResponse(id any, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}}
}
