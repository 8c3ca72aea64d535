// Package server provides the MCP tool dispatch layer for the Zep
// memory service: it declares the tool catalog, validates tool call
// arguments, issues the remote calls, and normalizes responses into
// human-readable text results.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wastrilith2k/zep-mcp-server/internal/config"
	"github.com/wastrilith2k/zep-mcp-server/internal/errortypes"
	"github.com/wastrilith2k/zep-mcp-server/internal/telemetry"
	"github.com/wastrilith2k/zep-mcp-server/internal/tools"
	"github.com/wastrilith2k/zep-mcp-server/internal/zep"
)

// Version is set at build time via ldflags.
var Version = "0.1.0"

const serverName = "zep-mcp-server"

// serverInstructions is returned in the initialize response so MCP
// clients know when to reach for these tools.
const serverInstructions = `Zep MCP server provides persistent conversational memory backed by the ` +
	`Zep cloud service. Use store_memory to save facts worth remembering, ` +
	`search_memory to find relevant facts from past conversations, get_memory ` +
	`to read back a session's records, and the graph tools to explore the ` +
	`knowledge graph Zep derives from stored content.`

// MemoryToolServer dispatches MCP tool calls to the remote Zep memory
// service. It holds no state of its own beyond the shared client
// handle; every call is an independent request/response.
type MemoryToolServer struct {
	client    zep.Service
	cfg       *config.Config
	metrics   *telemetry.MetricsCollector
	mcpServer *server.MCPServer
	handlers  map[string]server.ToolHandlerFunc
	catalog   []mcp.Tool
}

// NewMemoryToolServer creates a new MemoryToolServer instance.
func NewMemoryToolServer(client zep.Service, cfg *config.Config) *MemoryToolServer {
	return &MemoryToolServer{
		client:  client,
		cfg:     cfg,
		metrics: telemetry.NewMetricsCollector(),
	}
}

// Initialize registers the tool catalog and builds the underlying MCP
// server. The catalog is immutable afterwards.
func (s *MemoryToolServer) Initialize() error {
	slog.Info("Initializing Zep memory tool server")

	if s.client == nil || s.cfg == nil {
		return errortypes.ConfigError(errors.New("missing dependencies"), "server initialization failed")
	}

	srv := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	s.handlers = make(map[string]server.ToolHandlerFunc)
	s.catalog = s.catalog[:0]
	for _, reg := range s.toolRegistrations() {
		s.catalog = append(s.catalog, reg.tool)
		s.handlers[reg.tool.Name] = reg.handler
		srv.AddTool(reg.tool, s.instrumented(reg.tool.Name, reg.handler))
	}

	s.mcpServer = srv
	s.metrics.SetGauge("server.tools_registered", float64(len(s.catalog)))
	slog.Info("Zep memory tool server initialized", "tool_count", len(s.catalog))
	return nil
}

// Start serves the MCP protocol over stdio until stdin closes.
func (s *MemoryToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(errors.New("server not initialized"), "cannot start server")
	}

	slog.Info("Starting Zep memory tool server")
	return server.ServeStdio(s.mcpServer)
}

// Tools returns the full, ordered tool catalog.
func (s *MemoryToolServer) Tools() []mcp.Tool {
	out := make([]mcp.Tool, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Metrics exposes the server's metrics collector.
func (s *MemoryToolServer) Metrics() *telemetry.MetricsCollector {
	return s.metrics
}

// Dispatch routes a tool call to its handler. Unknown tool names
// produce an error result, never a protocol failure.
func (s *MemoryToolServer) Dispatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[req.Params.Name]
	if !ok {
		s.metrics.IncrementCounter(telemetry.MetricToolCallsUnknown, 1)
		slog.Warn("Unknown tool requested", "tool", req.Params.Name)
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tool: %s", req.Params.Name)), nil
	}
	return s.instrumented(req.Params.Name, handler)(ctx, req)
}

// instrumented wraps a handler with call counting and latency timing.
func (s *MemoryToolServer) instrumented(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		s.metrics.IncrementCounter(telemetry.MetricToolCalls, 1)
		s.metrics.RecordTimestamp(telemetry.MetricLastToolCall)

		result, err := handler(ctx, req)

		s.metrics.RecordTimer(telemetry.MetricToolTimePrefix+name, time.Since(start))
		if err != nil || (result != nil && result.IsError) {
			s.metrics.IncrementCounter(telemetry.MetricToolCallsFailure, 1)
		} else {
			s.metrics.IncrementCounter(telemetry.MetricToolCallsSuccess, 1)
		}
		return result, err
	}
}

type toolRegistration struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

// toolRegistrations declares the fixed tool catalog. Descriptors are
// established once at startup and never mutated.
func (s *MemoryToolServer) toolRegistrations() []toolRegistration {
	return []toolRegistration{
		{
			tool: mcp.NewTool(tools.ToolStoreMemory,
				mcp.WithDescription("Store a memory in the Zep memory service, associated with a session. The content is tagged with a stored_at timestamp."),
				mcp.WithTitleAnnotation("Store Memory"),
				mcp.WithReadOnlyHintAnnotation(false),
				mcp.WithIdempotentHintAnnotation(false),
				mcp.WithString("session_id",
					mcp.Required(),
					mcp.Description("Session identifier scoping this memory (e.g. 'global' or a conversation id)"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("The text to remember"),
				),
				mcp.WithObject("metadata",
					mcp.Description("Optional free-form metadata attached to the stored record"),
				),
			),
			handler: s.handleStoreMemory,
		},
		{
			tool: mcp.NewTool(tools.ToolSearchMemory,
				mcp.WithDescription("Semantic search over stored memories. Returns up to limit matching facts from the knowledge graph."),
				mcp.WithTitleAnnotation("Search Memory"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("session_id",
					mcp.Required(),
					mcp.Description("Session identifier of the calling conversation"),
				),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Natural-language search query"),
				),
				mcp.WithNumber("limit",
					mcp.DefaultNumber(tools.DefaultSearchLimit),
					mcp.Description("Maximum number of results (default 10)"),
				),
			),
			handler: s.handleSearchMemory,
		},
		{
			tool: mcp.NewTool(tools.ToolGetMemory,
				mcp.WithDescription("Retrieve stored memories for a session. Use lastn for the most recent records, or limit/cursor for offset pagination; lastn wins when both are given."),
				mcp.WithTitleAnnotation("Get Memory"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("session_id",
					mcp.Required(),
					mcp.Description("Session identifier to read records from"),
				),
				mcp.WithNumber("lastn",
					mcp.Description("Return only the last N records"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of records per page"),
				),
				mcp.WithNumber("cursor",
					mcp.Description("Offset cursor for pagination (used with limit)"),
				),
				mcp.WithString("role_filter",
					mcp.Description("Keep only records with this role (e.g. 'user', 'assistant'); applied after retrieval"),
				),
			),
			handler: s.handleGetMemory,
		},
		{
			tool: mcp.NewTool(tools.ToolGetGraphNodes,
				mcp.WithDescription("List entities from the knowledge graph Zep derives from stored memories."),
				mcp.WithTitleAnnotation("Get Graph Nodes"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithNumber("limit",
					mcp.DefaultNumber(tools.DefaultGraphLimit),
					mcp.Description("Maximum number of nodes (default 50)"),
				),
			),
			handler: s.handleGetGraphNodes,
		},
		{
			tool: mcp.NewTool(tools.ToolGetGraphEdges,
				mcp.WithDescription("List relationships from the knowledge graph Zep derives from stored memories."),
				mcp.WithTitleAnnotation("Get Graph Edges"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithNumber("limit",
					mcp.DefaultNumber(tools.DefaultGraphLimit),
					mcp.Description("Maximum number of edges (default 50)"),
				),
			),
			handler: s.handleGetGraphEdges,
		},
		{
			tool: mcp.NewTool(tools.ToolGetNodeDetails,
				mcp.WithDescription("Retrieve a single knowledge-graph entity with its relationships and originating excerpts (at most 5 excerpts, 100 characters each)."),
				mcp.WithTitleAnnotation("Get Node Details"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("node_uuid",
					mcp.Required(),
					mcp.Description("UUID of the node, as returned by get_graph_nodes or search_memory"),
				),
			),
			handler: s.handleGetNodeDetails,
		},
		{
			tool: mcp.NewTool(tools.ToolGetThreadContext,
				mcp.WithDescription("Retrieve the synthesized context Zep computes from history relevant to a session."),
				mcp.WithTitleAnnotation("Get Thread Context"),
				mcp.WithReadOnlyHintAnnotation(true),
				mcp.WithIdempotentHintAnnotation(true),
				mcp.WithString("session_id",
					mcp.Required(),
					mcp.Description("Session identifier to build context for"),
				),
				mcp.WithString("mode",
					mcp.Enum("summary", "basic"),
					mcp.DefaultString(tools.DefaultContextMode),
					mcp.Description("Quality/latency tradeoff: 'summary' (richer) or 'basic' (faster)"),
				),
			),
			handler: s.handleGetThreadContext,
		},
	}
}
