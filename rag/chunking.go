package rag

import (
	"strings"

	"go.uber.org/zap"
)

// ChunkingOptions configures the chunker. Sizes are in words except
// MinChunkLen, which is in characters.
type ChunkingOptions struct {
	MaxChunkSize int // maximum words per chunk
	Overlap      int // words shared with the previous chunk
	MinChunkLen  int // chunks shorter than this are dropped
}

// DefaultChunkingOptions returns the tuned production defaults.
func DefaultChunkingOptions() ChunkingOptions {
	return ChunkingOptions{
		MaxChunkSize: 300,
		Overlap:      50,
		MinChunkLen:  20,
	}
}

// Chunker splits documents into overlapping, sentence-respecting segments.
type Chunker struct {
	opts   ChunkingOptions
	logger *zap.Logger
}

// NewChunker creates a chunker.
func NewChunker(opts ChunkingOptions, logger *zap.Logger) *Chunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = 300
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	if opts.Overlap >= opts.MaxChunkSize {
		opts.Overlap = opts.MaxChunkSize / 4
	}
	return &Chunker{
		opts:   opts,
		logger: logger.With(zap.String("component", "chunker")),
	}
}

// Chunk splits text into chunk strings. Sentences are never split: a single
// sentence longer than MaxChunkSize is emitted whole, an accepted violation
// of the size cap.
func (c *Chunker) Chunk(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		words := wordCount(sentence)

		if currentWords+words <= c.opts.MaxChunkSize || len(current) == 0 {
			current = append(current, sentence)
			currentWords += words
			continue
		}

		// Close the current chunk and seed the next with trailing overlap.
		chunks = append(chunks, strings.Join(current, " "))
		overlap := overlapSentences(current, c.opts.Overlap)
		current = append(append([]string{}, overlap...), sentence)
		currentWords = 0
		for _, s := range current {
			currentWords += wordCount(s)
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	// Too-short chunks carry no retrievable signal.
	filtered := chunks[:0]
	for _, chunk := range chunks {
		if len(strings.TrimSpace(chunk)) >= c.opts.MinChunkLen {
			filtered = append(filtered, chunk)
		}
	}

	c.logger.Debug("chunking completed",
		zap.Int("sentences", len(sentences)),
		zap.Int("chunks", len(filtered)),
		zap.Int("max_chunk_size", c.opts.MaxChunkSize),
		zap.Int("overlap", c.opts.Overlap))

	return filtered
}

// ChunkDocument splits a document and wraps the pieces in SourceChunks with
// stable ids.
func (c *Chunker) ChunkDocument(doc Document) []SourceChunk {
	pieces := c.Chunk(doc.Content)
	chunks := make([]SourceChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, SourceChunk{
			ID:      ChunkID(doc.ID, i),
			Content: piece,
			Metadata: ChunkMetadata{
				SourceID:   doc.ID,
				SourceType: doc.SourceType,
				ChunkIndex: i,
				ChunkSize:  wordCount(piece),
			},
		})
	}
	return chunks
}

// splitSentences splits on sentence-terminal punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if isSentenceEnd(runes[i]) && (i+1 >= len(runes) || isSpace(runes[i+1])) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapSentences takes sentences from the end of a closed chunk until the
// overlap word budget is met or the chunk is exhausted.
func overlapSentences(sentences []string, overlapWords int) []string {
	if overlapWords <= 0 {
		return nil
	}

	var overlap []string
	words := 0
	for i := len(sentences) - 1; i >= 0 && words < overlapWords; i-- {
		overlap = append([]string{sentences[i]}, overlap...)
		words += wordCount(sentences[i])
	}
	return overlap
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
