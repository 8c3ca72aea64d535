package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wastrilith2k/zep-mcp-server/internal/tools"
	"github.com/wastrilith2k/zep-mcp-server/internal/zep"
)

// Placeholder literals substituted for missing display fields. All
// defaulting goes through orElse so the policy stays in one place.
const (
	placeholderNA        = "N/A"
	placeholderUnknown   = "Unknown"
	placeholderUnnamed   = "Unnamed"
	placeholderNoFact    = "No fact"
	placeholderNoContent = "No content"
	placeholderNoSummary = "No summary"
)

// Empty-result sentinels. Downstream text consumers match on these.
const (
	sentinelNoResults = "No results found"
	sentinelNoNodes   = "No graph nodes found"
	sentinelNoEdges   = "No graph edges found"
)

func orElse(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

// truncate shortens s to at most max bytes, marking the cut with an
// ellipsis.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// metadataSuffix serializes a non-empty metadata map onto its own line,
// indented by three spaces.
func metadataSuffix(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return "\n   " + string(raw)
}

// joinEntries renders pre-formatted entries as a 1-indexed list with a
// blank line between entries.
func joinEntries(entries []string) string {
	numbered := make([]string, len(entries))
	for i, entry := range entries {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, entry)
	}
	return strings.Join(numbered, "\n\n")
}

func formatMessages(messages []zep.Message) string {
	entries := make([]string, len(messages))
	for i, m := range messages {
		entries[i] = fmt.Sprintf("[%s] %s (created: %s)%s",
			orElse(m.RoleType, placeholderUnknown),
			orElse(m.Content, placeholderNoContent),
			orElse(m.CreatedAt, placeholderNA),
			metadataSuffix(m.Metadata))
	}
	return joinEntries(entries)
}

func formatSearchResults(edges []zep.Edge) string {
	if len(edges) == 0 {
		return sentinelNoResults
	}

	entries := make([]string, len(edges))
	for i, e := range edges {
		entries[i] = fmt.Sprintf("%s (created: %s)",
			orElse(e.Fact, placeholderNoFact),
			orElse(e.CreatedAt, placeholderNA))
	}
	return fmt.Sprintf("Found %d results:\n\n%s", len(edges), joinEntries(entries))
}

func formatNodes(nodes []zep.Node) string {
	if len(nodes) == 0 {
		return sentinelNoNodes
	}

	entries := make([]string, len(nodes))
	for i, n := range nodes {
		entries[i] = fmt.Sprintf("%s (%s)\n   Summary: %s",
			orElse(n.Name, placeholderUnnamed),
			orElse(n.UUID, placeholderNA),
			orElse(n.Summary, placeholderNoSummary))
	}
	return fmt.Sprintf("Found %d graph nodes:\n\n%s", len(nodes), joinEntries(entries))
}

func formatEdges(edges []zep.Edge) string {
	if len(edges) == 0 {
		return sentinelNoEdges
	}

	entries := make([]string, len(edges))
	for i, e := range edges {
		entries[i] = fmt.Sprintf("%s (%s -> %s)",
			orElse(e.Fact, placeholderNoFact),
			orElse(e.SourceNodeUUID, placeholderUnknown),
			orElse(e.TargetNodeUUID, placeholderUnknown))
	}
	return fmt.Sprintf("Found %d graph edges:\n\n%s", len(edges), joinEntries(entries))
}

// formatNodeDetails renders a single node with its incident edges and
// at most MaxNodeEpisodes originating excerpts, each excerpt truncated
// to MaxEpisodeExcerptLen characters.
func formatNodeDetails(node *zep.Node, edges []zep.Edge, episodes []zep.Episode) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Node: %s (%s)\n", orElse(node.Name, placeholderUnnamed), orElse(node.UUID, placeholderNA))
	fmt.Fprintf(&b, "Summary: %s\n", orElse(node.Summary, placeholderNoSummary))
	labels := placeholderNA
	if len(node.Labels) > 0 {
		labels = strings.Join(node.Labels, ", ")
	}
	fmt.Fprintf(&b, "Labels: %s\n", labels)
	fmt.Fprintf(&b, "Created: %s\n", orElse(node.CreatedAt, placeholderUnknown))

	b.WriteString("\nRelationships:\n")
	if len(edges) == 0 {
		b.WriteString(placeholderNA + "\n")
	} else {
		for i, e := range edges {
			fmt.Fprintf(&b, "%d. %s\n", i+1, orElse(e.Fact, placeholderNoFact))
		}
	}

	b.WriteString("\nSource excerpts:\n")
	if len(episodes) == 0 {
		b.WriteString(placeholderNA)
	} else {
		if len(episodes) > tools.MaxNodeEpisodes {
			episodes = episodes[:tools.MaxNodeEpisodes]
		}
		for i, ep := range episodes {
			excerpt := truncate(orElse(ep.Content, placeholderNoContent), tools.MaxEpisodeExcerptLen)
			fmt.Fprintf(&b, "%d. %s", i+1, excerpt)
			if i < len(episodes)-1 {
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// filterMessagesByRole keeps only messages whose role type matches,
// preserving relative order. The filter is applied client-side, after
// retrieval.
func filterMessagesByRole(messages []zep.Message, role string) []zep.Message {
	filtered := make([]zep.Message, 0, len(messages))
	for _, m := range messages {
		if strings.EqualFold(m.RoleType, role) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
