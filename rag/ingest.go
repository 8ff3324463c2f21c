package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/embedding"
	"github.com/saipachipulusu/portfolio-rag/types"
)

// Ingestor runs the offline pipeline: chunk documents, extract entities,
// embed chunks, assemble the knowledge graph, and persist everything
// through the store.
type Ingestor struct {
	chunker   *Chunker
	extractor *Extractor
	embedder  embedding.Provider
	store     *Store
	logger    *zap.Logger
}

// NewIngestor wires the pipeline stages together.
func NewIngestor(chunker *Chunker, extractor *Extractor, embedder embedding.Provider, store *Store, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		chunker:   chunker,
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		logger:    logger.With(zap.String("component", "ingestor")),
	}
}

// Ingest processes documents end to end and saves the resulting
// snapshot. A chunk whose embedding fails is recorded with a null
// vector; it stays reachable through graph traversal and keyword
// fallback even though the vector scan skips it.
func (in *Ingestor) Ingest(ctx context.Context, docs []Document) (*Snapshot, error) {
	if len(docs) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "no documents to ingest")
	}

	var chunks []SourceChunk
	for _, doc := range docs {
		docChunks := in.chunker.ChunkDocument(doc)
		in.logger.Info("chunked document",
			zap.String("doc", doc.ID), zap.Int("chunks", len(docChunks)))
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest,
			"documents produced no usable chunks")
	}

	entities := in.extractor.Extract(chunks)
	in.logger.Info("extracted entities", zap.Int("entities", len(entities)))

	embeddings := make(map[string][]float64, len(chunks))
	embedded := 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.ErrProviderTimeout,
				"ingestion cancelled").WithCause(err)
		}
		vector, err := in.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			in.logger.Warn("embedding failed for chunk, recording null vector",
				zap.String("chunk", chunk.ID), zap.Error(err))
			embeddings[chunk.Content] = nil
			continue
		}
		embeddings[chunk.Content] = vector
		embedded++
	}
	in.logger.Info("embedded chunks",
		zap.Int("embedded", embedded), zap.Int("total", len(chunks)))

	graph := BuildGraph(chunks, entities, in.logger)

	snap := &Snapshot{
		Graph:      graph,
		Embeddings: embeddings,
		Sources:    graph.Sources(),
	}
	if err := in.store.Save(snap); err != nil {
		return nil, err
	}
	return snap, nil
}
