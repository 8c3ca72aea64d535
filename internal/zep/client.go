// Package zep provides an authenticated HTTP client for the Zep cloud
// memory service (v2 REST API). It is the system of record for every
// tool this server exposes; nothing is persisted locally.
package zep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const apiBasePath = "/api/v2"

// Service is the set of remote operations the tool handlers depend on.
type Service interface {
	EnsureUser(ctx context.Context, userID string) (EnsureOutcome, error)
	EnsureSession(ctx context.Context, sessionID, userID string) (EnsureOutcome, error)
	AddMemory(ctx context.Context, sessionID string, messages []Message) error
	GetMemory(ctx context.Context, sessionID string, lastN int) ([]Message, error)
	GetSessionMessages(ctx context.Context, sessionID string, limit, cursor int) ([]Message, error)
	SearchGraph(ctx context.Context, params SearchParams) ([]Edge, error)
	GetUserNodes(ctx context.Context, userID string, limit int) ([]Node, error)
	GetUserEdges(ctx context.Context, userID string, limit int) ([]Edge, error)
	GetNode(ctx context.Context, nodeUUID string) (*Node, error)
	GetNodeEdges(ctx context.Context, nodeUUID string) ([]Edge, error)
	GetNodeEpisodes(ctx context.Context, nodeUUID string) ([]Episode, error)
	GetSessionContext(ctx context.Context, sessionID, mode string) (string, error)
}

// Error is a failed Zep API call.
type Error struct {
	StatusCode int
	Message    string
}

// Error returns the remote message when the API supplied one, and a
// serialized fallback otherwise.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("zep: request failed with status %d", e.StatusCode)
}

// IsNotFound reports whether err is a Zep 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*Error)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// alreadyPresent recognizes the idempotent-upsert conflict: a 409, or
// the 400 variant Zep returns with an "already exists" message.
func alreadyPresent(err error) bool {
	apiErr, ok := err.(*Error)
	if !ok {
		return false
	}
	if apiErr.StatusCode == http.StatusConflict {
		return true
	}
	return apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

// Client talks to the Zep v2 REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Service = (*Client)(nil)

// NewClient returns a new client. If httpClient is nil, a default with
// a 30s timeout is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// do performs one API call: marshal body, send, decode into out when
// non-nil. Non-2xx responses become *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + apiBasePath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("zep: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("zep: build request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zep: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zep: decode response: %w", err)
	}
	return nil
}

// decodeError extracts the API's message field when present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return &Error{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}

// EnsureUser upserts the service user. Duplicate creation is a normal
// outcome, not an error.
func (c *Client) EnsureUser(ctx context.Context, userID string) (EnsureOutcome, error) {
	err := c.do(ctx, http.MethodPost, "/users", nil, userRequest{UserID: userID}, nil)
	if err == nil {
		return Created, nil
	}
	if alreadyPresent(err) {
		return AlreadyPresent, nil
	}
	return 0, err
}

// EnsureSession upserts a session owned by userID. Duplicate creation
// is a normal outcome, not an error.
func (c *Client) EnsureSession(ctx context.Context, sessionID, userID string) (EnsureOutcome, error) {
	err := c.do(ctx, http.MethodPost, "/sessions", nil, sessionRequest{SessionID: sessionID, UserID: userID}, nil)
	if err == nil {
		return Created, nil
	}
	if alreadyPresent(err) {
		return AlreadyPresent, nil
	}
	return 0, err
}

// AddMemory appends messages to a session.
func (c *Client) AddMemory(ctx context.Context, sessionID string, messages []Message) error {
	path := "/sessions/" + url.PathEscape(sessionID) + "/memory"
	return c.do(ctx, http.MethodPost, path, nil, addMemoryRequest{Messages: messages}, nil)
}

// GetMemory retrieves the last lastN messages of a session. lastN <= 0
// lets the service apply its own default window.
func (c *Client) GetMemory(ctx context.Context, sessionID string, lastN int) ([]Message, error) {
	query := url.Values{}
	if lastN > 0 {
		query.Set("lastn", strconv.Itoa(lastN))
	}

	var out memoryResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/memory"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// GetSessionMessages retrieves session messages with offset/cursor
// pagination. limit <= 0 requests the full, unpaginated set.
func (c *Client) GetSessionMessages(ctx context.Context, sessionID string, limit, cursor int) ([]Message, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
		query.Set("cursor", strconv.Itoa(cursor))
	}

	var out messagesResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SearchGraph runs a semantic search over the derived knowledge graph.
func (c *Client) SearchGraph(ctx context.Context, params SearchParams) ([]Edge, error) {
	scope := params.Scope
	if scope == "" {
		scope = SearchScopeEdges
	}

	var out searchResponse
	body := searchRequest{
		Query:  params.Query,
		UserID: params.UserID,
		Scope:  scope,
		Limit:  params.Limit,
	}
	if err := c.do(ctx, http.MethodPost, "/graph/search", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Edges, nil
}

// GetUserNodes lists graph entities owned by userID.
func (c *Client) GetUserNodes(ctx context.Context, userID string, limit int) ([]Node, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out []Node
	path := "/graph/node/user/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUserEdges lists graph relationships owned by userID.
func (c *Client) GetUserEdges(ctx context.Context, userID string, limit int) ([]Edge, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out []Edge
	path := "/graph/edge/user/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNode retrieves a single graph node.
func (c *Client) GetNode(ctx context.Context, nodeUUID string) (*Node, error) {
	var out Node
	path := "/graph/node/" + url.PathEscape(nodeUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNodeEdges retrieves the edges incident to a node.
func (c *Client) GetNodeEdges(ctx context.Context, nodeUUID string) ([]Edge, error) {
	var out []Edge
	path := "/graph/node/" + url.PathEscape(nodeUUID) + "/entity-edges"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNodeEpisodes retrieves the originating records behind a node.
func (c *Client) GetNodeEpisodes(ctx context.Context, nodeUUID string) ([]Episode, error) {
	var out episodesResponse
	path := "/graph/node/" + url.PathEscape(nodeUUID) + "/episodes"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Episodes, nil
}

// GetSessionContext retrieves the synthesized context blob for a
// session. mode selects the quality/latency tradeoff ("summary" or
// "basic").
func (c *Client) GetSessionContext(ctx context.Context, sessionID, mode string) (string, error) {
	query := url.Values{}
	if mode != "" {
		query.Set("mode", mode)
	}

	var out contextResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/context"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return "", err
	}
	return out.Context, nil
}
