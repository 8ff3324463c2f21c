package rag

import (
	"sort"

	"go.uber.org/zap"
)

// BuildGraph assembles a knowledge graph from chunks and the entities
// extracted from them. Chunk nodes come first so every edge endpoint
// exists before the edge is added. mentioned_in edges run entity -> chunk
// with a weight of frequency times the category weight, capped at 1.0;
// sequential chunks within the same document are linked both ways at a
// fixed weight.
func BuildGraph(chunks []SourceChunk, entities []Entity, logger *zap.Logger) *KnowledgeGraph {
	graph := NewKnowledgeGraph(logger)

	for _, chunk := range chunks {
		meta := chunk.Metadata
		graph.AddNode(&Node{
			ID:       chunk.ID,
			Type:     NodeChunk,
			Content:  chunk.Content,
			Metadata: &meta,
		})
	}

	for _, entity := range entities {
		graph.AddNode(&Node{
			ID:        entity.ID,
			Type:      NodeEntity,
			Name:      entity.Name,
			Category:  entity.Category,
			Frequency: entity.Frequency,
		})

		weight := float64(entity.Frequency) * entity.Category.Weight()
		if weight > 1.0 {
			weight = 1.0
		}
		for _, chunkID := range entity.ChunkIDs {
			graph.AddEdge(&Edge{
				From:   entity.ID,
				To:     chunkID,
				Type:   EdgeMentionedIn,
				Weight: weight,
			})
		}
	}

	connectSequentialChunks(chunks, graph)

	return graph
}

// connectSequentialChunks links adjacent chunks of the same source
// document with next_chunk/prev_chunk edges.
func connectSequentialChunks(chunks []SourceChunk, graph *KnowledgeGraph) {
	byDoc := make(map[string][]SourceChunk)
	for _, chunk := range chunks {
		byDoc[chunk.Metadata.SourceID] = append(byDoc[chunk.Metadata.SourceID], chunk)
	}

	docIDs := make([]string, 0, len(byDoc))
	for id := range byDoc {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	for _, docID := range docIDs {
		ordered := byDoc[docID]
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Metadata.ChunkIndex < ordered[j].Metadata.ChunkIndex
		})

		for i := 0; i < len(ordered)-1; i++ {
			graph.AddEdge(&Edge{
				From:   ordered[i].ID,
				To:     ordered[i+1].ID,
				Type:   EdgeNextChunk,
				Weight: sequentialEdgeWeight,
			})
			graph.AddEdge(&Edge{
				From:   ordered[i+1].ID,
				To:     ordered[i].ID,
				Type:   EdgePrevChunk,
				Weight: sequentialEdgeWeight,
			})
		}
	}
}
