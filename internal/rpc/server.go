// Package rpc implements the JSON-RPC 2.0 gateway used by the workflow
// trigger API. Faults are classified by their typed kind, never by message
// text; the kind is translated to wire codes only here.
package rpc

import (
	"context"
	"net/http"
	"sort"

	"trendpub/internal/faults"
	"trendpub/internal/logging"
)

const (
	// Version is the only accepted protocol literal.
	Version = "2.0"

	// CodeClientError covers validation and not-found faults.
	CodeClientError = -32600
	// CodeMethodNotFound is used by the HTTP 404 envelope.
	CodeMethodNotFound = -32601
	// CodeServerError covers upstream and internal faults.
	CodeServerError = -32603
	// CodeUnauthorized is used by the bearer-auth envelope.
	CodeUnauthorized = -32001

	// sentinelID is the id carried by every error envelope. Error responses
	// never echo the request id; existing clients depend on the literal, so
	// it is pinned.
	sentinelID = "unknown"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      any            `json:"id"`
}

// ErrorObject is the error member of a response envelope.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	Result  any          `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
	ID      any          `json:"id"`
}

// Handler services one registered method.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Server dispatches requests to registered method handlers.
type Server struct {
	routes map[string]Handler
	logger logging.Logger
}

// NewServer creates an empty method table.
func NewServer(logger logging.Logger) *Server {
	return &Server{
		routes: make(map[string]Handler),
		logger: logging.OrNop(logger),
	}
}

// Register adds a method handler. Registration happens at composition time,
// before the server starts accepting requests.
func (s *Server) Register(method string, handler Handler) {
	s.routes[method] = handler
}

// Methods returns the registered method names in stable order.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.routes))
	for m := range s.routes {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Handle validates and dispatches one request, returning the response
// envelope and the transport status to send it with.
func (s *Server) Handle(ctx context.Context, req *Request) (*Response, int) {
	if req.JSONRPC != Version {
		return ErrorResponse(faults.Validation("无效的 JSON-RPC 请求")), http.StatusBadRequest
	}
	if req.Method == "" {
		return ErrorResponse(faults.Validation("请求缺少方法名")), http.StatusBadRequest
	}
	handler, ok := s.routes[req.Method]
	if !ok {
		return ErrorResponse(faults.NotFound("方法 %s 不存在", req.Method)), http.StatusBadRequest
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	result, err := handler(ctx, params)
	if err != nil {
		s.logger.Warn("rpc method %s failed: %v", req.Method, err)
		return ErrorResponse(err), statusFor(err)
	}

	return &Response{JSONRPC: Version, Result: result, ID: req.ID}, http.StatusOK
}

// ErrorResponse builds the error envelope for err. Client faults surface
// their message; server faults get a generic message with the underlying
// detail only in the data field. All error envelopes carry the sentinel id.
func ErrorResponse(err error) *Response {
	code := CodeServerError
	message := "内部服务器错误"
	if faults.IsClient(err) {
		code = CodeClientError
		message = err.Error()
	}
	return &Response{
		JSONRPC: Version,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
			Data:    map[string]any{"error": err.Error()},
		},
		ID: sentinelID,
	}
}

func statusFor(err error) int {
	if faults.IsClient(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
