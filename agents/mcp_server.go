// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer is implemented by Model Context Protocol servers.
type MCPServer interface {
	// Connect to the server.
	//
	// For example, this might mean spawning a subprocess or opening a network connection.
	// The server is expected to remain connected until Cleanup is called.
	Connect(context.Context) error

	// Cleanup the server.
	Cleanup(context.Context) error

	// Name returns a readable name for the server.
	Name() string

	// ListTools lists the tools available on the server.
	ListTools(context.Context) ([]*mcp.Tool, error)

	// CallTool invokes a tool on the server.
	CallTool(ctx context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error)
}

type mcpClientSession interface {
	ListTools(context.Context, *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	CallTool(context.Context, *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// MCPServerWithClientSession is a base type for MCP servers that uses an
// mcp.ClientSession to communicate with the server.
type MCPServerWithClientSession struct {
	name                 string
	transport            mcp.Transport
	clientOptions        *mcp.ClientOptions
	clientSessionTimeout time.Duration
	cacheToolsList       bool

	mu         sync.Mutex
	session    mcpClientSession
	cacheDirty bool
	toolsList  []*mcp.Tool
}

type MCPServerWithClientSessionParams struct {
	Name      string
	Transport mcp.Transport

	// Optional client options, including MCP message handlers.
	ClientOptions *mcp.ClientOptions

	// Optional per-request timeout used for ListTools and CallTool.
	ClientSessionTimeout time.Duration

	// Whether to cache the tools list. If true, the tools list is fetched
	// from the server once and reused until InvalidateToolsCache is called.
	CacheToolsList bool
}

func NewMCPServerWithClientSession(params MCPServerWithClientSessionParams) *MCPServerWithClientSession {
	return &MCPServerWithClientSession{
		name:                 params.Name,
		transport:            params.Transport,
		clientOptions:        params.ClientOptions,
		clientSessionTimeout: params.ClientSessionTimeout,
		cacheToolsList:       params.CacheToolsList,
		// The cache is always dirty at startup, so that we fetch tools at least once
		cacheDirty: true,
	}
}

func (s *MCPServerWithClientSession) Connect(ctx context.Context) error {
	client := mcp.NewClient(&mcp.Implementation{Name: s.name}, s.clientOptions)
	session, err := client.Connect(ctx, s.transport, nil)
	if err != nil {
		Logger().Error("Error initializing MCP server", slog.String("server", s.name), slog.String("error", err.Error()))
		return fmt.Errorf("MCP client connection error: %w", err)
	}
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

func (s *MCPServerWithClientSession) Cleanup(context.Context) error {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()

	if session == nil {
		return nil
	}
	if err := session.Close(); err != nil {
		Logger().Error("Error cleaning up server", slog.String("server", s.name), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (s *MCPServerWithClientSession) Name() string {
	return s.name
}

func (s *MCPServerWithClientSession) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, NewUserError("server not initialized: make sure you call `Connect()` first")
	}
	if s.cacheToolsList && !s.cacheDirty && len(s.toolsList) > 0 {
		return s.toolsList, nil
	}

	ctx, cancel := s.withSessionTimeout(ctx)
	defer cancel()

	var tools []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		result, err := s.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("MCP list tools error: %w", err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: result.NextCursor}
	}
	s.cacheDirty = false
	s.toolsList = tools
	return tools, nil
}

func (s *MCPServerWithClientSession) CallTool(
	ctx context.Context,
	toolName string,
	arguments map[string]any,
) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return nil, NewUserError("server not initialized: make sure you call `Connect()` first")
	}

	ctx, cancel := s.withSessionTimeout(ctx)
	defer cancel()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("MCP tool %s timed out: %w", toolName, err)
		}
		return nil, fmt.Errorf("MCP call tool %s error: %w", toolName, err)
	}
	return result, nil
}

// InvalidateToolsCache invalidates the tools cache.
func (s *MCPServerWithClientSession) InvalidateToolsCache() {
	s.mu.Lock()
	s.cacheDirty = true
	s.mu.Unlock()
}

func (s *MCPServerWithClientSession) withSessionTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.clientSessionTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.clientSessionTimeout)
}

type MCPServerStdioParams struct {
	// The command to run to start the server.
	Command *exec.Cmd

	// A readable name for the server. If not provided, we'll create one from the command.
	Name string

	ClientOptions        *mcp.ClientOptions
	ClientSessionTimeout time.Duration
	CacheToolsList       bool
}

// MCPServerStdio is an MCP server implementation that uses the stdio transport.
//
// See: https://modelcontextprotocol.io/specification/2025-06-18/basic/transports#stdio
type MCPServerStdio struct {
	*MCPServerWithClientSession
}

// NewMCPServerStdio creates a new MCP server based on the stdio transport.
func NewMCPServerStdio(params MCPServerStdioParams) *MCPServerStdio {
	name := params.Name
	if name == "" {
		name = fmt.Sprintf("stdio: %s", params.Command.Path)
	}
	return &MCPServerStdio{
		MCPServerWithClientSession: NewMCPServerWithClientSession(MCPServerWithClientSessionParams{
			Name:                 name,
			Transport:            &mcp.CommandTransport{Command: params.Command},
			ClientOptions:        params.ClientOptions,
			ClientSessionTimeout: params.ClientSessionTimeout,
			CacheToolsList:       params.CacheToolsList,
		}),
	}
}

type MCPServerStreamableHTTPParams struct {
	// The URL of the server.
	URL string

	// Optional HTTP client, e.g. to inject authentication headers.
	HTTPClient *http.Client

	// A readable name for the server. If not provided, we'll create one from the URL.
	Name string

	ClientOptions        *mcp.ClientOptions
	ClientSessionTimeout time.Duration
	CacheToolsList       bool
}

// MCPServerStreamableHTTP is an MCP server implementation that uses the
// Streamable HTTP transport.
type MCPServerStreamableHTTP struct {
	*MCPServerWithClientSession
}

// NewMCPServerStreamableHTTP creates a new MCP server based on the Streamable HTTP transport.
func NewMCPServerStreamableHTTP(params MCPServerStreamableHTTPParams) *MCPServerStreamableHTTP {
	name := params.Name
	if name == "" {
		name = fmt.Sprintf("streamable_http: %s", params.URL)
	}
	return &MCPServerStreamableHTTP{
		MCPServerWithClientSession: NewMCPServerWithClientSession(MCPServerWithClientSessionParams{
			Name: name,
			Transport: &mcp.StreamableClientTransport{
				Endpoint:   params.URL,
				HTTPClient: params.HTTPClient,
			},
			ClientOptions:        params.ClientOptions,
			ClientSessionTimeout: params.ClientSessionTimeout,
			CacheToolsList:       params.CacheToolsList,
		}),
	}
}
