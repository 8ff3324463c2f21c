// Package rag implements the retrieval pipeline behind the portfolio chat
// assistant: document chunking, entity extraction, knowledge graph
// construction and traversal, hybrid vector+graph search, and the search
// service façade that ties them together.
package rag

import "fmt"

// Document is a raw input text blob, only present during ingestion.
type Document struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	SourceType string `json:"sourceType,omitempty"` // resume, medium, twitter, ...
}

// ChunkMetadata carries a chunk's provenance inside its owning document.
type ChunkMetadata struct {
	SourceID   string `json:"sourceId"`
	SourceType string `json:"sourceType,omitempty"`
	ChunkIndex int    `json:"chunkIndex"`
	ChunkSize  int    `json:"chunkSize"` // words
}

// SourceChunk is a bounded text segment, the atomic unit of retrieval.
type SourceChunk struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkID derives the stable chunk identifier from its document and index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s-%d", documentID, index)
}
