package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wastrilith2k/zep-mcp-server/internal/telemetry"
	"github.com/wastrilith2k/zep-mcp-server/internal/tools"
	"github.com/wastrilith2k/zep-mcp-server/internal/zep"
)

// primingMessage is the synthetic "user" message that precedes every
// stored "assistant" record, so stored memories read as a coherent
// exchange on the Zep side.
const primingMessage = "Remember the following information for this session."

// Argument helpers. Schema defaults are declared on the descriptors;
// these only report presence and coerce JSON number decoding.

func stringArg(req mcp.CallToolRequest, name string) (string, bool) {
	v, ok := req.GetArguments()[name].(string)
	return v, ok && v != ""
}

func intArg(req mcp.CallToolRequest, name string) (int, bool) {
	switch v := req.GetArguments()[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func intArgOr(req mcp.CallToolRequest, name string, fallback int) int {
	if v, ok := intArg(req, name); ok && v > 0 {
		return v
	}
	return fallback
}

func mapArg(req mcp.CallToolRequest, name string) map[string]interface{} {
	v, _ := req.GetArguments()[name].(map[string]interface{})
	return v
}

// handleStoreMemory handles the store_memory tool call: ensure the
// service user and the session exist, then append the record.
func (s *MemoryToolServer) handleStoreMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	content, ok := stringArg(req, "content")
	if !ok {
		return mcp.NewToolResultError("content is required"), nil
	}

	slog.Info("Processing store_memory request", "session_id", sessionID, "content_length", len(content))

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 2)
	if _, err := s.client.EnsureUser(ctx, s.cfg.Zep.UserID); err != nil {
		return s.errorResult(tools.ToolStoreMemory, err), nil
	}
	if _, err := s.client.EnsureSession(ctx, sessionID, s.cfg.Zep.UserID); err != nil {
		return s.errorResult(tools.ToolStoreMemory, err), nil
	}

	metadata := make(map[string]interface{})
	for k, v := range mapArg(req, "metadata") {
		metadata[k] = v
	}
	metadata["stored_at"] = time.Now().UTC().Format(time.RFC3339)

	messages := []zep.Message{
		{RoleType: "user", Content: primingMessage},
		{RoleType: "assistant", Content: content, Metadata: metadata},
	}

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	if err := s.client.AddMemory(ctx, sessionID, messages); err != nil {
		return s.errorResult(tools.ToolStoreMemory, err), nil
	}

	slog.Info("Successfully stored memory", "session_id", sessionID)
	return mcp.NewToolResultText(fmt.Sprintf("✅ Stored memory in session %q", sessionID)), nil
}

// handleSearchMemory handles the search_memory tool call. The search
// runs against the configured service user's graph: all memories are
// stored under that one identity, so the scope is global rather than
// per session.
func (s *MemoryToolServer) handleSearchMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	query, ok := stringArg(req, "query")
	if !ok {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := intArgOr(req, "limit", tools.DefaultSearchLimit)

	slog.Info("Processing search_memory request", "session_id", sessionID, "query", query, "limit", limit)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	edges, err := s.client.SearchGraph(ctx, zep.SearchParams{
		Query:  query,
		UserID: s.cfg.Zep.UserID,
		Scope:  zep.SearchScopeEdges,
		Limit:  limit,
	})
	if err != nil {
		return s.errorResult(tools.ToolSearchMemory, err), nil
	}

	slog.Info("search_memory results", "count", len(edges))
	return mcp.NewToolResultText(formatSearchResults(edges)), nil
}

// handleGetMemory handles the get_memory tool call. lastn and
// limit/cursor are mutually exclusive retrieval strategies; lastn wins.
func (s *MemoryToolServer) handleGetMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	lastn, hasLastn := intArg(req, "lastn")
	limit, hasLimit := intArg(req, "limit")
	cursor, _ := intArg(req, "cursor")
	retrieval := tools.SelectRetrieval(lastn, hasLastn, limit, hasLimit, cursor)

	var (
		messages []zep.Message
		banner   string
		err      error
	)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	switch r := retrieval.(type) {
	case tools.Recent:
		slog.Info("Processing get_memory request", "session_id", sessionID, "mode", "recent", "lastn", r.N)
		messages, err = s.client.GetMemory(ctx, sessionID, r.N)
		banner = fmt.Sprintf("Showing last %d memories for session %q:\n\n", r.N, sessionID)
	case tools.Paged:
		slog.Info("Processing get_memory request", "session_id", sessionID, "mode", "paged", "limit", r.Limit, "cursor", r.Cursor)
		messages, err = s.client.GetSessionMessages(ctx, sessionID, r.Limit, r.Cursor)
		banner = fmt.Sprintf("Showing up to %d memories (cursor: %d) for session %q:\n\n", r.Limit, r.Cursor, sessionID)
	case tools.All:
		slog.Info("Processing get_memory request", "session_id", sessionID, "mode", "all")
		messages, err = s.client.GetSessionMessages(ctx, sessionID, 0, 0)
		banner = fmt.Sprintf("Memories for session %q:\n\n", sessionID)
	}
	if err != nil {
		return s.errorResult(tools.ToolGetMemory, err), nil
	}

	if role, hasRole := stringArg(req, "role_filter"); hasRole {
		messages = filterMessagesByRole(messages, role)
	}
	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No memories found for session %q", sessionID)), nil
	}

	return mcp.NewToolResultText(banner + formatMessages(messages)), nil
}

// handleGetGraphNodes handles the get_graph_nodes tool call.
func (s *MemoryToolServer) handleGetGraphNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArgOr(req, "limit", tools.DefaultGraphLimit)

	slog.Info("Processing get_graph_nodes request", "limit", limit)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	nodes, err := s.client.GetUserNodes(ctx, s.cfg.Zep.UserID, limit)
	if err != nil {
		return s.errorResult(tools.ToolGetGraphNodes, err), nil
	}

	return mcp.NewToolResultText(formatNodes(nodes)), nil
}

// handleGetGraphEdges handles the get_graph_edges tool call.
func (s *MemoryToolServer) handleGetGraphEdges(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArgOr(req, "limit", tools.DefaultGraphLimit)

	slog.Info("Processing get_graph_edges request", "limit", limit)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	edges, err := s.client.GetUserEdges(ctx, s.cfg.Zep.UserID, limit)
	if err != nil {
		return s.errorResult(tools.ToolGetGraphEdges, err), nil
	}

	return mcp.NewToolResultText(formatEdges(edges)), nil
}

// handleGetNodeDetails handles the get_node_details tool call. The
// three remote calls are sequential; the first failure ends the
// handler and becomes the whole operation's outcome.
func (s *MemoryToolServer) handleGetNodeDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeUUID, ok := stringArg(req, "node_uuid")
	if !ok {
		return mcp.NewToolResultError("node_uuid is required"), nil
	}

	slog.Info("Processing get_node_details request", "node_uuid", nodeUUID)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 3)
	node, err := s.client.GetNode(ctx, nodeUUID)
	if err != nil {
		return s.errorResult(tools.ToolGetNodeDetails, err), nil
	}
	edges, err := s.client.GetNodeEdges(ctx, nodeUUID)
	if err != nil {
		return s.errorResult(tools.ToolGetNodeDetails, err), nil
	}
	episodes, err := s.client.GetNodeEpisodes(ctx, nodeUUID)
	if err != nil {
		return s.errorResult(tools.ToolGetNodeDetails, err), nil
	}

	return mcp.NewToolResultText(formatNodeDetails(node, edges, episodes)), nil
}

// handleGetThreadContext handles the get_thread_context tool call.
// Invalid modes fall back to the default rather than erroring.
func (s *MemoryToolServer) handleGetThreadContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, ok := stringArg(req, "session_id")
	if !ok {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	mode, _ := stringArg(req, "mode")
	if !tools.ValidContextMode(mode) {
		mode = tools.DefaultContextMode
	}

	slog.Info("Processing get_thread_context request", "session_id", sessionID, "mode", mode)

	s.metrics.IncrementCounter(telemetry.MetricZepCalls, 1)
	contextBlob, err := s.client.GetSessionContext(ctx, sessionID, mode)
	if err != nil {
		return s.errorResult(tools.ToolGetThreadContext, err), nil
	}

	if contextBlob == "" {
		return mcp.NewToolResultText(fmt.Sprintf("No context available for session %q", sessionID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Context for session %q (mode: %s):\n\n%s", sessionID, mode, contextBlob)), nil
}
