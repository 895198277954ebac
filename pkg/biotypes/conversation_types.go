// Package biotypes defines the shared data model for bioscope's conversation core.
// This file contains the types that make up a conversation: messages, the articles
// attached to assistant answers, and the derived structures (relationship graph,
// research gaps) that accompany each turn.
package biotypes

import "time"

// Sender identifies who produced a message in the conversation.
type Sender string

const (
	// SenderUser marks messages typed by the user.
	SenderUser Sender = "user"
	// SenderSystem marks messages produced by the assistant, including error turns.
	SenderSystem Sender = "system"
)

// Message represents a single turn in the conversation transcript.
// Messages are insertion-ordered and never reordered or removed except by a
// full conversation reset. An error turn is a system message with IsError set,
// not a third sender kind.
type Message struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Sender    Sender           `json:"sender"`
	Timestamp time.Time        `json:"timestamp"`
	IsError   bool             `json:"is_error,omitempty"`
	Articles  []Article        `json:"articles,omitempty"`
	RawData   *ResponsePayload `json:"raw_data,omitempty"`
}

// Article references a publication returned alongside an assistant answer.
// Title is the identity key used for favoriting and deduplication downstream.
type Article struct {
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	DOI     string   `json:"doi,omitempty"`
}

// GraphNode is one topic or article in a relationship graph.
type GraphNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
}

// GraphLink connects two graph nodes by id.
type GraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
}

// RelationshipGraph describes inferred connections between research topics and
// articles, returned alongside a chat answer.
type RelationshipGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Usable reports whether the graph carries enough structure to display.
// A graph with nodes but no links (or vice versa) is not usable.
func (g *RelationshipGraph) Usable() bool {
	return g != nil && len(g.Nodes) > 0 && len(g.Links) > 0
}

// Clone returns a deep copy of the graph. Downstream consumers mutate node
// positions in place (layout algorithms), so shared references to gateway
// payloads must never leak out of the core.
func (g *RelationshipGraph) Clone() *RelationshipGraph {
	if g == nil {
		return nil
	}
	clone := &RelationshipGraph{
		Nodes: make([]GraphNode, len(g.Nodes)),
		Links: make([]GraphLink, len(g.Links)),
	}
	copy(clone.Nodes, g.Nodes)
	copy(clone.Links, g.Links)
	return clone
}

// Sanitize returns a deep copy of the graph with every link whose source or
// target does not name an existing node id dropped. Returns nil for a nil graph.
func (g *RelationshipGraph) Sanitize() *RelationshipGraph {
	if g == nil {
		return nil
	}
	known := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		known[node.ID] = true
	}
	clone := &RelationshipGraph{
		Nodes: make([]GraphNode, len(g.Nodes)),
		Links: make([]GraphLink, 0, len(g.Links)),
	}
	copy(clone.Nodes, g.Nodes)
	for _, link := range g.Links {
		if known[link.Source] && known[link.Target] {
			clone.Links = append(clone.Links, link)
		}
	}
	return clone
}

// ResearchGap is a server-identified topic with sparse publication coverage.
// The core carries gaps through to consumers without further processing.
type ResearchGap struct {
	Topic       string `json:"topic"`
	Description string `json:"description,omitempty"`
}

// UserProfile is the stored profile of the authenticated user. The backend has
// historically emitted the identifier under both "id" and "_id"; ResolveID
// applies the precedence once so callers never duck-type.
type UserProfile struct {
	ID       string `json:"id,omitempty"`
	LegacyID string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// ResolveID returns the profile's identifier, preferring "id" over "_id".
// Returns empty string when the profile carries neither.
func (p *UserProfile) ResolveID() string {
	if p == nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}
