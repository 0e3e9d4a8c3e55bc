// Package mcp serves tree rendering to tools and agents over HTTP.
//
// POST /tree renders the requested roots, GET /defaults lists the default ignore names.
// Every response carries an X-Request-ID header, echoed from the request when present.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/foldertree/internal/tree"
)

const (
	treeRoute     = "POST /tree"
	defaultsRoute = "GET /defaults"

	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"
	mimeTypeJSON      = "application/json"

	shutdownGracePeriod = 5 * time.Second

	requestServedMessage = "request served"
	requestFailedMessage = "request failed"
)

// ErrBadRequest marks failures caused by the request contents rather than the filesystem.
var ErrBadRequest = errors.New("bad request")

// TreeRequest selects the roots to render and how to filter and encode them.
type TreeRequest struct {
	Paths         []string `json:"paths"`
	Path          string   `json:"path"`
	Ignore        []string `json:"ignore"`
	IgnoreFiles   []string `json:"ignoreFiles"`
	UseDefaults   *bool    `json:"useDefaults"`
	Format        string   `json:"format"`
	ReportSkipped *bool    `json:"reportSkipped"`
}

// RootReport lists the entries of one root that could not be read.
type RootReport struct {
	Root    string   `json:"root"`
	Skipped []string `json:"skipped,omitempty"`
}

// TreeResponse carries the encoded diagrams and the per-root skipped report.
type TreeResponse struct {
	Output string       `json:"output"`
	Format string       `json:"format"`
	Roots  []RootReport `json:"roots"`
}

// DefaultsResponse lists the names ignored unless a request disables the defaults.
type DefaultsResponse struct {
	Names []string `json:"names"`
}

// TreeService renders the trees named by a request.
type TreeService interface {
	RenderTrees(ctx context.Context, request TreeRequest) (TreeResponse, error)
}

// Config wires the server to its listen address and collaborators.
type Config struct {
	Address      string
	Trees        TreeService
	DefaultNames func() []string
	Logger       *zap.Logger
}

// Server renders directory trees for HTTP clients.
type Server struct {
	address      string
	trees        TreeService
	defaultNames func() []string
	logger       *zap.Logger
}

// NewServer builds a Server from config. A nil logger discards log output.
func NewServer(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		address:      config.Address,
		trees:        config.Trees,
		defaultNames: config.DefaultNames,
		logger:       logger,
	}
}

// Handler returns the routes of the server wrapped with request identification.
func (server *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(treeRoute, server.handleTree)
	router.HandleFunc(defaultsRoute, server.handleDefaults)
	return withRequestID(router)
}

// Run listens on the configured address until ctx is canceled.
// onListening receives the bound address once connections are accepted.
func (server *Server) Run(ctx context.Context, onListening func(string)) error {
	listener, listenError := net.Listen("tcp", server.address)
	if listenError != nil {
		return fmt.Errorf("listen on %s: %w", server.address, listenError)
	}
	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: shutdownGracePeriod}

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		if serveError := httpServer.Serve(listener); !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf("serve trees: %w", serveError)
		}
		return nil
	})
	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownContext)
	})
	if onListening != nil {
		onListening(listener.Addr().String())
	}
	return group.Wait()
}

func (server *Server) handleTree(writer http.ResponseWriter, request *http.Request) {
	requestLogger := server.requestLogger(request)
	var treeRequest TreeRequest
	if decodeError := json.NewDecoder(request.Body).Decode(&treeRequest); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		server.fail(writer, requestLogger, fmt.Errorf("%w: decode tree request: %v", ErrBadRequest, decodeError))
		return
	}
	startedAt := time.Now()
	treeResponse, renderError := server.trees.RenderTrees(request.Context(), treeRequest)
	if renderError != nil {
		server.fail(writer, requestLogger, renderError)
		return
	}
	requestLogger.Debug(requestServedMessage, zap.Int("roots", len(treeResponse.Roots)), zap.Duration("elapsed", time.Since(startedAt)))
	writeJSON(writer, http.StatusOK, treeResponse)
}

func (server *Server) handleDefaults(writer http.ResponseWriter, request *http.Request) {
	var names []string
	if server.defaultNames != nil {
		names = server.defaultNames()
	}
	server.requestLogger(request).Debug(requestServedMessage, zap.Int("names", len(names)))
	writeJSON(writer, http.StatusOK, DefaultsResponse{Names: names})
}

func (server *Server) fail(writer http.ResponseWriter, requestLogger *zap.Logger, failure error) {
	statusCode := statusCodeFor(failure)
	requestLogger.Warn(requestFailedMessage, zap.Int("status", statusCode), zap.Error(failure))
	writeJSON(writer, statusCode, map[string]string{"error": failure.Error()})
}

func (server *Server) requestLogger(request *http.Request) *zap.Logger {
	return server.logger.With(
		zap.String("request_id", request.Header.Get(headerRequestID)),
		zap.String("route", request.Method+" "+request.URL.Path),
	)
}

// statusCodeFor maps a failure to 400 for bad requests, 422 for roots that cannot be rendered, 500 otherwise.
func statusCodeFor(failure error) int {
	switch {
	case errors.Is(failure, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(failure, tree.ErrInvalidRoot):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// withRequestID assigns a request ID when the client sent none and echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestID := request.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
			request.Header.Set(headerRequestID, requestID)
		}
		writer.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(writer, request)
	})
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	encoded, encodeError := json.Marshal(payload)
	if encodeError != nil {
		statusCode = http.StatusInternalServerError
		encoded = []byte(fmt.Sprintf(`{"error":%q}`, encodeError.Error()))
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(append(encoded, '\n'))
}
