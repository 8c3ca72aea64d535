// Package tools defines the tool catalog constants and the
// request-scoped value types shared between the MCP server and its tests.
package tools

const (
	// ToolStoreMemory is the name of the store_memory MCP tool
	ToolStoreMemory = "store_memory"

	// ToolSearchMemory is the name of the search_memory MCP tool
	ToolSearchMemory = "search_memory"

	// ToolGetMemory is the name of the get_memory MCP tool
	ToolGetMemory = "get_memory"

	// ToolGetGraphNodes is the name of the get_graph_nodes MCP tool
	ToolGetGraphNodes = "get_graph_nodes"

	// ToolGetGraphEdges is the name of the get_graph_edges MCP tool
	ToolGetGraphEdges = "get_graph_edges"

	// ToolGetNodeDetails is the name of the get_node_details MCP tool
	ToolGetNodeDetails = "get_node_details"

	// ToolGetThreadContext is the name of the get_thread_context MCP tool
	ToolGetThreadContext = "get_thread_context"
)

const (
	// DefaultSearchLimit is the number of search results returned when
	// no limit is specified in a search_memory request
	DefaultSearchLimit = 10

	// DefaultGraphLimit is the number of nodes or edges returned when
	// no limit is specified in a graph enumeration request
	DefaultGraphLimit = 50

	// DefaultContextMode is the quality/latency mode used by
	// get_thread_context when none is specified
	DefaultContextMode = "summary"

	// MaxNodeEpisodes caps the number of source excerpts included in a
	// get_node_details result
	MaxNodeEpisodes = 5

	// MaxEpisodeExcerptLen caps the length of each source excerpt in a
	// get_node_details result
	MaxEpisodeExcerptLen = 100
)

// ContextModes lists the accepted get_thread_context modes. Anything
// else falls back to DefaultContextMode.
var ContextModes = []string{"summary", "basic"}

// Retrieval selects how get_memory reads messages back. Exactly one
// strategy applies per call; the variants are closed so the mutual
// exclusivity of lastn and limit/cursor holds at the type level.
type Retrieval interface {
	retrieval()
}

// Recent retrieves the last N messages of a session.
type Recent struct {
	N int
}

// Paged retrieves up to Limit messages starting at the Cursor offset.
type Paged struct {
	Limit  int
	Cursor int
}

// All retrieves every message of a session with no pagination.
type All struct{}

func (Recent) retrieval() {}
func (Paged) retrieval()  {}
func (All) retrieval()    {}

// SelectRetrieval maps the raw optional arguments of a get_memory call
// onto a retrieval strategy. Presence flags reflect whether the caller
// supplied the argument at all, not whether it was zero. lastn takes
// precedence over limit/cursor.
func SelectRetrieval(lastn int, hasLastn bool, limit int, hasLimit bool, cursor int) Retrieval {
	switch {
	case hasLastn:
		return Recent{N: lastn}
	case hasLimit:
		return Paged{Limit: limit, Cursor: cursor}
	default:
		return All{}
	}
}

// ValidContextMode reports whether mode is an accepted
// get_thread_context mode.
func ValidContextMode(mode string) bool {
	for _, m := range ContextModes {
		if m == mode {
			return true
		}
	}
	return false
}
