package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/saipachipulusu/portfolio-rag/rag"
)

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	contentDir := fs.String("content", "content", "Directory of source documents")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	docs, err := readDocuments(*contentDir)
	if err != nil {
		logger.Fatal("failed to read content", zap.Error(err))
	}
	if len(docs) == 0 {
		logger.Fatal("no documents found", zap.String("dir", *contentDir))
	}
	logger.Info("read content", zap.Int("documents", len(docs)))

	chunker := rag.NewChunker(rag.ChunkingOptions{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Overlap:      cfg.Chunking.Overlap,
		MinChunkLen:  cfg.Chunking.MinChunkLen,
	}, logger)
	extractor := rag.NewExtractor(logger)
	embedder := buildEmbeddingChain(cfg, logger)
	store := rag.NewStore(cfg.Data.Dir, logger)

	ingestor := rag.NewIngestor(chunker, extractor, embedder, store, logger)

	snap, err := ingestor.Ingest(context.Background(), docs)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}

	fmt.Printf("Ingested %d chunks, %d embeddings, %d graph nodes, %d edges into %s\n",
		len(snap.Sources), len(snap.Embeddings),
		snap.Graph.NodeCount(), snap.Graph.EdgeCount(), cfg.Data.Dir)
}

// readDocuments loads every .txt and .md file in dir, one document per
// file. The file stem becomes the document id; a "name.type.ext" stem
// carries the source type, e.g. "sai.resume.md".
func readDocuments(dir string) ([]rag.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []rag.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".md" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		stem := strings.TrimSuffix(entry.Name(), ext)
		sourceType := "document"
		if i := strings.LastIndex(stem, "."); i >= 0 {
			sourceType = stem[i+1:]
			stem = stem[:i]
		}

		docs = append(docs, rag.Document{
			ID:         stem,
			SourceType: sourceType,
			Content:    string(data),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}
