package zep

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", srv.Client())
	if _, err := c.EnsureUser(context.Background(), "default_user"); err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	if gotAuth != "Api-Key test-key" {
		t.Errorf("unexpected Authorization header: %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected a generated X-Request-ID header")
	}
}

func TestEnsureUserOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    EnsureOutcome
		wantErr bool
	}{
		{"created", http.StatusCreated, `{}`, Created, false},
		{"conflict", http.StatusConflict, `{"message":"user already exists"}`, AlreadyPresent, false},
		{"bad request already exists", http.StatusBadRequest, `{"message":"user default_user already exists"}`, AlreadyPresent, false},
		{"bad request other", http.StatusBadRequest, `{"message":"user_id is invalid"}`, 0, true},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v2/users" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k", srv.Client())
			got, err := c.EnsureUser(context.Background(), "default_user")

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("outcome = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnsureSessionBody(t *testing.T) {
	var body sessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	outcome, err := c.EnsureSession(context.Background(), "global", "default_user")
	if err != nil {
		t.Fatalf("EnsureSession failed: %v", err)
	}
	if outcome != Created {
		t.Errorf("outcome = %v, want Created", outcome)
	}
	if body.SessionID != "global" || body.UserID != "default_user" {
		t.Errorf("unexpected request body: %+v", body)
	}
}

func TestAddMemoryPostsMessages(t *testing.T) {
	var got addMemoryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/sessions/global/memory" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	msgs := []Message{
		{RoleType: "user", Content: "priming"},
		{RoleType: "assistant", Content: "hello"},
	}
	if err := c.AddMemory(context.Background(), "global", msgs); err != nil {
		t.Fatalf("AddMemory failed: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages posted, got %d", len(got.Messages))
	}
	if got.Messages[1].Content != "hello" {
		t.Errorf("unexpected second message: %+v", got.Messages[1])
	}
}

func TestGetMemoryLastN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/sessions/s1/memory" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("lastn"); got != "5" {
			t.Errorf("lastn = %q, want 5", got)
		}
		json.NewEncoder(w).Encode(memoryResponse{Messages: []Message{{RoleType: "assistant", Content: "hi"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	msgs, err := c.GetMemory(context.Background(), "s1", 5)
	if err != nil {
		t.Fatalf("GetMemory failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestGetSessionMessagesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "10" || q.Get("cursor") != "20" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(messagesResponse{Messages: []Message{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	if _, err := c.GetSessionMessages(context.Background(), "s1", 10, 20); err != nil {
		t.Fatalf("GetSessionMessages failed: %v", err)
	}
}

func TestGetSessionMessagesUnpaginated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query parameters, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(messagesResponse{Messages: []Message{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	if _, err := c.GetSessionMessages(context.Background(), "s1", 0, 0); err != nil {
		t.Fatalf("GetSessionMessages failed: %v", err)
	}
}

func TestSearchGraphBody(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/graph/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(searchResponse{Edges: []Edge{{Fact: "likes Go"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	edges, err := c.SearchGraph(context.Background(), SearchParams{
		Query:  "preferences",
		UserID: "default_user",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("SearchGraph failed: %v", err)
	}
	if got.Scope != SearchScopeEdges {
		t.Errorf("scope defaulted to %q, want %q", got.Scope, SearchScopeEdges)
	}
	if got.Query != "preferences" || got.UserID != "default_user" || got.Limit != 10 {
		t.Errorf("unexpected search body: %+v", got)
	}
	if len(edges) != 1 || edges[0].Fact != "likes Go" {
		t.Errorf("unexpected edges: %+v", edges)
	}
}

func TestNodeDetailPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch {
		case r.URL.Path == "/api/v2/graph/node/n-1":
			json.NewEncoder(w).Encode(Node{UUID: "n-1", Name: "Go"})
		case r.URL.Path == "/api/v2/graph/node/n-1/entity-edges":
			json.NewEncoder(w).Encode([]Edge{{UUID: "e-1", Fact: "is a language"}})
		case r.URL.Path == "/api/v2/graph/node/n-1/episodes":
			json.NewEncoder(w).Encode(episodesResponse{Episodes: []Episode{{UUID: "ep-1", Content: "raw"}}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	ctx := context.Background()

	node, err := c.GetNode(ctx, "n-1")
	if err != nil || node.Name != "Go" {
		t.Fatalf("GetNode = %+v, %v", node, err)
	}
	edges, err := c.GetNodeEdges(ctx, "n-1")
	if err != nil || len(edges) != 1 {
		t.Fatalf("GetNodeEdges = %+v, %v", edges, err)
	}
	episodes, err := c.GetNodeEpisodes(ctx, "n-1")
	if err != nil || len(episodes) != 1 {
		t.Fatalf("GetNodeEpisodes = %+v, %v", episodes, err)
	}
	if len(paths) != 3 {
		t.Errorf("expected 3 requests, got %v", paths)
	}
}

func TestGetSessionContextMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mode"); got != "basic" {
			t.Errorf("mode = %q, want basic", got)
		}
		json.NewEncoder(w).Encode(contextResponse{Context: "FACTS: none"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	got, err := c.GetSessionContext(context.Background(), "s1", "basic")
	if err != nil {
		t.Fatalf("GetSessionContext failed: %v", err)
	}
	if got != "FACTS: none" {
		t.Errorf("unexpected context: %q", got)
	}
}

func TestErrorMessageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", srv.Client())
	_, err := c.GetNode(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.StatusCode)
	}
	if apiErr.Error() != "zep: request failed with status 502" {
		t.Errorf("unexpected fallback message: %q", apiErr.Error())
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&Error{StatusCode: http.StatusNotFound}) {
		t.Error("expected IsNotFound for 404")
	}
	if IsNotFound(&Error{StatusCode: http.StatusBadRequest}) {
		t.Error("unexpected IsNotFound for 400")
	}
	if IsNotFound(context.Canceled) {
		t.Error("unexpected IsNotFound for non-API error")
	}
}
