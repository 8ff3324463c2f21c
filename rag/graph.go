package rag

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// NodeType discriminates the two node flavors in the knowledge graph.
type NodeType string

const (
	NodeChunk  NodeType = "chunk"
	NodeEntity NodeType = "entity"
)

// Node is a chunk-node or an entity-node, keyed by chunk id or entity id.
// The unused fields of the other flavor stay zero.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`

	// chunk fields
	Content  string         `json:"content,omitempty"`
	Metadata *ChunkMetadata `json:"metadata,omitempty"`

	// entity fields
	Name      string         `json:"name,omitempty"`
	Category  EntityCategory `json:"category,omitempty"`
	Frequency int            `json:"frequency,omitempty"`
}

// EdgeType classifies a graph relation.
type EdgeType string

const (
	EdgeMentionedIn EdgeType = "mentioned_in"
	EdgeNextChunk   EdgeType = "next_chunk"
	EdgePrevChunk   EdgeType = "prev_chunk"
)

// sequentialEdgeWeight is the fixed weight of next_chunk/prev_chunk edges.
const sequentialEdgeWeight = 0.8

// Edge is a directed, weighted, typed relation between two node ids.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Type   EdgeType `json:"type"`
	Weight float64  `json:"weight"`
}

// TraversalOptions tunes FindRelatedNodes. The decay constants were tuned
// empirically against representative query sets; treat them as
// configuration, not truth.
type TraversalOptions struct {
	MaxDepth     int
	MinRelevance float64
}

// DefaultTraversalOptions returns the tuned traversal defaults.
func DefaultTraversalOptions() TraversalOptions {
	return TraversalOptions{
		MaxDepth:     2,
		MinRelevance: 0.15,
	}
}

// RelatedNode is a chunk surfaced by graph traversal.
type RelatedNode struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Relevance float64       `json:"relevance"`
	Depth     int           `json:"depth"`
}

// KnowledgeGraph is an in-memory directed graph of chunk-nodes and
// entity-nodes. It owns its nodes and edges exclusively; everything is
// keyed by stable string ids so serialization is lossless.
type KnowledgeGraph struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	edges     map[string]*Edge    // keyed "from->to"
	adjacency map[string][]string // from -> ordered neighbor ids
	incoming  map[string][]string // to -> ordered source ids
	sources   []SourceChunk       // flat chunk list for content lookup
	byName    map[string]string   // normalized entity name -> node id
	logger    *zap.Logger
}

// NewKnowledgeGraph creates an empty graph.
func NewKnowledgeGraph(logger *zap.Logger) *KnowledgeGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeGraph{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		adjacency: make(map[string][]string),
		incoming:  make(map[string][]string),
		byName:    make(map[string]string),
		logger:    logger.With(zap.String("component", "knowledge_graph")),
	}
}

// AddNode upserts a node. Chunk nodes are also registered in the flat
// sources list; entity nodes are indexed by normalized name.
func (g *KnowledgeGraph) AddNode(node *Node) {
	if node == nil || node.ID == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	_, existed := g.nodes[node.ID]
	g.nodes[node.ID] = node

	switch node.Type {
	case NodeChunk:
		if !existed {
			meta := ChunkMetadata{}
			if node.Metadata != nil {
				meta = *node.Metadata
			}
			g.sources = append(g.sources, SourceChunk{
				ID:       node.ID,
				Content:  node.Content,
				Metadata: meta,
			})
		}
	case NodeEntity:
		g.byName[strings.ToLower(node.Name)] = node.ID
	}
}

// HasNode reports whether id is present.
func (g *KnowledgeGraph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// GetNode returns the node for id.
func (g *KnowledgeGraph) GetNode(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// EntityByName returns the entity node for a normalized name.
func (g *KnowledgeGraph) EntityByName(name string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// AddEdge inserts a directed edge. Referencing a missing endpoint is a
// logged no-op, never an error; ingestion continues with a best-effort
// graph.
func (g *KnowledgeGraph) AddEdge(edge *Edge) {
	if edge == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[edge.From]; !ok {
		g.logger.Warn("edge references missing node, skipping",
			zap.String("from", edge.From), zap.String("to", edge.To))
		return
	}
	if _, ok := g.nodes[edge.To]; !ok {
		g.logger.Warn("edge references missing node, skipping",
			zap.String("from", edge.From), zap.String("to", edge.To))
		return
	}

	key := edgeKey(edge.From, edge.To)
	if _, exists := g.edges[key]; !exists {
		g.adjacency[edge.From] = append(g.adjacency[edge.From], edge.To)
		g.incoming[edge.To] = append(g.incoming[edge.To], edge.From)
	}
	g.edges[key] = edge
}

// Neighbors returns the outgoing edges of id, in insertion order.
func (g *KnowledgeGraph) Neighbors(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.neighborsLocked(id)
}

func (g *KnowledgeGraph) neighborsLocked(id string) []*Edge {
	targets := g.adjacency[id]
	edges := make([]*Edge, 0, len(targets))
	for _, to := range targets {
		if e, ok := g.edges[edgeKey(id, to)]; ok {
			edges = append(edges, e)
		}
	}
	return edges
}

// hop pairs a reachable node with the weight of the edge crossed.
type hop struct {
	id     string
	weight float64
}

// hopsLocked returns every node reachable from id across one edge in
// either direction. mentioned_in edges point entity -> chunk, but a
// chunk seed must still reach the entities it mentions, so traversal
// treats edges as bidirectional while the stored graph stays directed.
func (g *KnowledgeGraph) hopsLocked(id string) []hop {
	out := g.adjacency[id]
	in := g.incoming[id]
	hops := make([]hop, 0, len(out)+len(in))
	for _, to := range out {
		if e, ok := g.edges[edgeKey(id, to)]; ok {
			hops = append(hops, hop{id: to, weight: e.Weight})
		}
	}
	for _, from := range in {
		if e, ok := g.edges[edgeKey(from, id)]; ok {
			hops = append(hops, hop{id: from, weight: e.Weight})
		}
	}
	return hops
}

// FindRelatedNodes runs a weighted breadth-first traversal from all seeds
// simultaneously. Relevance starts at 1.0 and decays across each edge by
// edge weight times 1/(depth+2); candidates below MinRelevance are not
// enqueued, which bounds the fan-out. Entity nodes are waypoints only;
// results contain chunk nodes, seeds excluded, sorted by descending
// relevance with the node id as a deterministic tie-break.
func (g *KnowledgeGraph) FindRelatedNodes(seedIDs []string, opts TraversalOptions) []RelatedNode {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTraversalOptions().MaxDepth
	}
	if opts.MinRelevance <= 0 {
		opts.MinRelevance = DefaultTraversalOptions().MinRelevance
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	type queueItem struct {
		id        string
		depth     int
		relevance float64
	}

	seeds := make(map[string]struct{}, len(seedIDs))
	queue := make([]queueItem, 0, len(seedIDs))
	for _, id := range seedIDs {
		if _, ok := g.nodes[id]; !ok {
			continue
		}
		seeds[id] = struct{}{}
		queue = append(queue, queueItem{id: id, depth: 0, relevance: 1.0})
	}

	visited := make(map[string]struct{})
	var results []RelatedNode

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if _, seen := visited[item.id]; seen {
			continue
		}
		visited[item.id] = struct{}{}

		node := g.nodes[item.id]
		if _, isSeed := seeds[item.id]; !isSeed && node.Type == NodeChunk {
			meta := ChunkMetadata{}
			if node.Metadata != nil {
				meta = *node.Metadata
			}
			results = append(results, RelatedNode{
				ID:        node.ID,
				Content:   node.Content,
				Metadata:  meta,
				Relevance: item.relevance,
				Depth:     item.depth,
			})
		}

		if item.depth >= opts.MaxDepth {
			continue
		}

		for _, h := range g.hopsLocked(item.id) {
			relevance := item.relevance * h.weight / float64(item.depth+2)
			if relevance <= opts.MinRelevance {
				continue
			}
			if _, seen := visited[h.id]; seen {
				continue
			}
			queue = append(queue, queueItem{
				id:        h.id,
				depth:     item.depth + 1,
				relevance: relevance,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ID < results[j].ID
	})

	return results
}

// Sources returns the flat chunk list in insertion order.
func (g *KnowledgeGraph) Sources() []SourceChunk {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]SourceChunk, len(g.sources))
	copy(out, g.sources)
	return out
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *KnowledgeGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

func edgeKey(from, to string) string {
	return from + "->" + to
}
