package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/types"
)

const (
	graphFile      = "graph.json"
	embeddingsFile = "embeddings.json"
	sourcesFile    = "processed_sources.json"
)

// Snapshot is the full persisted state of an ingestion run. Embeddings
// are keyed by chunk content; a null vector marks a chunk whose
// embedding generation failed.
type Snapshot struct {
	Graph      *KnowledgeGraph
	Embeddings map[string][]float64
	Sources    []SourceChunk
}

// Store reads and writes pipeline data under a single directory as three
// JSON files: the serialized graph, the chunk-id keyed embeddings map,
// and the flat processed-chunk list.
type Store struct {
	dataDir string
	logger  *zap.Logger
}

// NewStore creates a store rooted at dataDir. The directory is created
// on first save, not here.
func NewStore(dataDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dataDir: dataDir,
		logger:  logger.With(zap.String("component", "data_store")),
	}
}

// graphSnapshot is the wire form of a KnowledgeGraph. Nodes and edges
// serialize as [key, value] pairs so the map never round-trips through
// JSON object key ordering.
type graphSnapshot struct {
	Nodes    []nodeEntry      `json:"nodes"`
	Edges    []edgeEntry      `json:"edges"`
	Sources  []SourceChunk    `json:"sources"`
	Metadata snapshotMetadata `json:"metadata"`
}

type snapshotMetadata struct {
	Created   time.Time `json:"created"`
	NodeCount int       `json:"nodeCount"`
	EdgeCount int       `json:"edgeCount"`
}

type nodeEntry struct {
	ID   string
	Node *Node
}

func (e nodeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Node})
}

func (e *nodeEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("node entry has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return err
	}
	e.Node = &Node{}
	return json.Unmarshal(raw[1], e.Node)
}

type edgeEntry struct {
	Key  string
	Edge *Edge
}

func (e edgeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Key, e.Edge})
}

func (e *edgeEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("edge entry has %d elements, want 2", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Key); err != nil {
		return err
	}
	e.Edge = &Edge{}
	return json.Unmarshal(raw[1], e.Edge)
}

// Save writes the snapshot atomically: each file goes to a temp sibling
// first and is renamed into place, so a crash mid-write never leaves a
// truncated data file behind.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return types.NewError(types.ErrInternalError,
			"creating data directory").WithCause(err)
	}

	if err := s.atomicWrite(embeddingsFile, snap.Embeddings); err != nil {
		return err
	}
	if err := s.atomicWrite(sourcesFile, snap.Sources); err != nil {
		return err
	}
	if err := s.atomicWrite(graphFile, serializeGraph(snap.Graph)); err != nil {
		return err
	}

	s.logger.Info("saved pipeline data",
		zap.String("dir", s.dataDir),
		zap.Int("nodes", snap.Graph.NodeCount()),
		zap.Int("edges", snap.Graph.EdgeCount()),
		zap.Int("embeddings", len(snap.Embeddings)))
	return nil
}

func (s *Store) atomicWrite(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("encoding %s", name)).WithCause(err)
	}

	final := filepath.Join(s.dataDir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("writing %s", name)).WithCause(err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("committing %s", name)).WithCause(err)
	}
	return nil
}

// serializeGraph flattens a graph into its wire form with deterministic
// node/edge ordering.
func serializeGraph(g *KnowledgeGraph) graphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]nodeEntry, 0, len(g.nodes))
	for id, node := range g.nodes {
		nodes = append(nodes, nodeEntry{ID: id, Node: node})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := make([]edgeEntry, 0, len(g.edges))
	for key, edge := range g.edges {
		edges = append(edges, edgeEntry{Key: key, Edge: edge})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Key < edges[j].Key })

	return graphSnapshot{
		Nodes:   nodes,
		Edges:   edges,
		Sources: g.sources,
		Metadata: snapshotMetadata{
			Created:   time.Now().UTC(),
			NodeCount: len(g.nodes),
			EdgeCount: len(g.edges),
		},
	}
}

// Load reads all three data files. A missing file yields ErrDataNotLoaded
// and a file that fails to decode yields ErrDataCorrupt; either way the
// caller decides whether to degrade or abort.
func (s *Store) Load(logger *zap.Logger) (*Snapshot, error) {
	var embeddings map[string][]float64
	if err := s.readJSON(embeddingsFile, &embeddings); err != nil {
		return nil, err
	}

	var sources []SourceChunk
	if err := s.readJSON(sourcesFile, &sources); err != nil {
		return nil, err
	}

	var gs graphSnapshot
	if err := s.readJSON(graphFile, &gs); err != nil {
		return nil, err
	}

	graph := NewKnowledgeGraph(logger)
	for _, entry := range gs.Nodes {
		graph.AddNode(entry.Node)
	}
	for _, entry := range gs.Edges {
		graph.AddEdge(entry.Edge)
	}

	s.logger.Info("loaded pipeline data",
		zap.String("dir", s.dataDir),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("embeddings", len(embeddings)),
		zap.Int("sources", len(sources)))

	return &Snapshot{
		Graph:      graph,
		Embeddings: embeddings,
		Sources:    sources,
	}, nil
}

func (s *Store) readJSON(name string, dest any) error {
	path := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewError(types.ErrDataNotLoaded,
				fmt.Sprintf("data file %s missing", name)).WithCause(err)
		}
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("reading %s", name)).WithCause(err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return types.NewError(types.ErrDataCorrupt,
			fmt.Sprintf("decoding %s", name)).WithCause(err)
	}
	return nil
}
