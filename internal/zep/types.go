package zep

// Message is a single conversational record stored in a session.
type Message struct {
	UUID      string                 `json:"uuid,omitempty"`
	Role      string                 `json:"role,omitempty"`
	RoleType  string                 `json:"role_type"`
	Content   string                 `json:"content"`
	CreatedAt string                 `json:"created_at,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Node is an entity in the knowledge graph Zep derives from stored
// content.
type Node struct {
	UUID       string                 `json:"uuid"`
	Name       string                 `json:"name,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	Labels     []string               `json:"labels,omitempty"`
	CreatedAt  string                 `json:"created_at,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Edge is a relationship between two graph nodes, carrying the fact it
// was derived from.
type Edge struct {
	UUID           string `json:"uuid"`
	Name           string `json:"name,omitempty"`
	Fact           string `json:"fact,omitempty"`
	SourceNodeUUID string `json:"source_node_uuid,omitempty"`
	TargetNodeUUID string `json:"target_node_uuid,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	ValidAt        string `json:"valid_at,omitempty"`
	InvalidAt      string `json:"invalid_at,omitempty"`
	ExpiredAt      string `json:"expired_at,omitempty"`
}

// Episode is an originating record behind a graph node — the raw
// content a node or edge was extracted from.
type Episode struct {
	UUID      string `json:"uuid"`
	Content   string `json:"content,omitempty"`
	Source    string `json:"source,omitempty"`
	RoleType  string `json:"role_type,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// EnsureOutcome is the result of an idempotent upsert: the entity was
// either created by this call or already present. Any other condition
// is an error.
type EnsureOutcome int

const (
	Created EnsureOutcome = iota
	AlreadyPresent
)

func (o EnsureOutcome) String() string {
	if o == AlreadyPresent {
		return "already_present"
	}
	return "created"
}

// SearchParams configures a semantic search over the derived graph.
type SearchParams struct {
	Query  string
	UserID string
	Scope  string
	Limit  int
}

// SearchScopeEdges asks the graph search for relationship facts.
const SearchScopeEdges = "edges"

// Wire envelopes.

type userRequest struct {
	UserID string `json:"user_id"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type addMemoryRequest struct {
	Messages []Message `json:"messages"`
}

type memoryResponse struct {
	Messages []Message `json:"messages"`
}

type messagesResponse struct {
	Messages   []Message `json:"messages"`
	TotalCount int       `json:"total_count,omitempty"`
	RowCount   int       `json:"row_count,omitempty"`
}

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Scope  string `json:"scope"`
	Limit  int    `json:"limit,omitempty"`
}

type searchResponse struct {
	Edges []Edge `json:"edges"`
}

type episodesResponse struct {
	Episodes []Episode `json:"episodes"`
}

type contextResponse struct {
	Context string `json:"context"`
}
