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

package agentstesting

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FakeMCPServer is an in-memory MCP server that records the calls it gets.
type FakeMCPServer struct {
	name string

	mu          sync.Mutex
	Tools       []*mcp.Tool
	ToolCalls   []string
	ToolResults []string

	// If set, ListTools fails with this error.
	ListToolsError error
}

func NewFakeMCPServer(tools []*mcp.Tool, name string) *FakeMCPServer {
	return &FakeMCPServer{
		name:  cmp.Or(name, "fake_mcp_server"),
		Tools: tools,
	}
}

func (s *FakeMCPServer) AddTool(name string, inputSchema *jsonschema.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tools = append(s.Tools, &mcp.Tool{
		Name:        name,
		InputSchema: inputSchema,
	})
}

func (s *FakeMCPServer) Connect(context.Context) error { return nil }
func (s *FakeMCPServer) Cleanup(context.Context) error { return nil }
func (s *FakeMCPServer) Name() string                  { return s.name }

func (s *FakeMCPServer) ListTools(context.Context) ([]*mcp.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListToolsError != nil {
		return nil, s.ListToolsError
	}
	return s.Tools, nil
}

func (s *FakeMCPServer) CallTool(_ context.Context, toolName string, arguments map[string]any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(arguments)
	if err != nil {
		return nil, err
	}
	result := fmt.Sprintf("result_%s_%s", toolName, string(b))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ToolCalls = append(s.ToolCalls, toolName)
	s.ToolResults = append(s.ToolResults, result)
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: result}}}, nil
}
