package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraphNodesAndEdges(t *testing.T) {
	chunks := []SourceChunk{
		{ID: "doc-0", Content: "Python things", Metadata: ChunkMetadata{SourceID: "doc", ChunkIndex: 0}},
		{ID: "doc-1", Content: "Kafka things", Metadata: ChunkMetadata{SourceID: "doc", ChunkIndex: 1}},
	}
	entities := []Entity{
		{
			ID:        EntityID(CategoryTechnology, "python"),
			Name:      "python",
			Category:  CategoryTechnology,
			Frequency: 2,
			ChunkIDs:  []string{"doc-0"},
		},
	}

	g := BuildGraph(chunks, entities, nil)

	assert.Equal(t, 3, g.NodeCount())
	// mentioned_in plus next/prev between the sequential pair.
	assert.Equal(t, 3, g.EdgeCount())

	neighbors := g.Neighbors(EntityID(CategoryTechnology, "python"))
	require.Len(t, neighbors, 1)
	assert.Equal(t, EdgeMentionedIn, neighbors[0].Type)
	// frequency 2 x technology weight 0.4
	assert.InDelta(t, 0.8, neighbors[0].Weight, 1e-9)
}

func TestBuildGraphCapsMentionWeight(t *testing.T) {
	chunks := []SourceChunk{
		{ID: "doc-0", Content: "Python Python Python", Metadata: ChunkMetadata{SourceID: "doc", ChunkIndex: 0}},
	}
	entities := []Entity{
		{
			ID:        EntityID(CategoryTechnology, "python"),
			Name:      "python",
			Category:  CategoryTechnology,
			Frequency: 50,
			ChunkIDs:  []string{"doc-0"},
		},
	}

	g := BuildGraph(chunks, entities, nil)

	neighbors := g.Neighbors(EntityID(CategoryTechnology, "python"))
	require.Len(t, neighbors, 1)
	assert.Equal(t, 1.0, neighbors[0].Weight)
}

func TestBuildGraphSequentialEdgesPerDocument(t *testing.T) {
	chunks := []SourceChunk{
		{ID: "a-0", Content: "a0", Metadata: ChunkMetadata{SourceID: "a", ChunkIndex: 0}},
		{ID: "a-1", Content: "a1", Metadata: ChunkMetadata{SourceID: "a", ChunkIndex: 1}},
		{ID: "b-0", Content: "b0", Metadata: ChunkMetadata{SourceID: "b", ChunkIndex: 0}},
	}

	g := BuildGraph(chunks, nil, nil)

	next := g.Neighbors("a-0")
	require.Len(t, next, 1)
	assert.Equal(t, EdgeNextChunk, next[0].Type)
	assert.Equal(t, "a-1", next[0].To)
	assert.Equal(t, sequentialEdgeWeight, next[0].Weight)

	prev := g.Neighbors("a-1")
	require.Len(t, prev, 1)
	assert.Equal(t, EdgePrevChunk, prev[0].Type)

	// No cross-document links.
	assert.Empty(t, g.Neighbors("b-0"))
}
