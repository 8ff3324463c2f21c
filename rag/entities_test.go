package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findEntity(t *testing.T, entities []Entity, id string) Entity {
	t.Helper()
	for _, e := range entities {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("entity %s not extracted", id)
	return Entity{}
}

func TestExtractLexiconTerms(t *testing.T) {
	extractor := NewExtractor(nil)

	chunks := []SourceChunk{
		{ID: "doc-0", Content: "Sai deployed PyTorch models on Kubernetes with strong accuracy."},
	}
	entities := extractor.Extract(chunks)

	pytorch := findEntity(t, entities, EntityID(CategoryTechnology, "pytorch"))
	assert.Equal(t, CategoryTechnology, pytorch.Category)
	assert.Equal(t, 1, pytorch.Frequency)
	assert.Equal(t, []string{"doc-0"}, pytorch.ChunkIDs)

	findEntity(t, entities, EntityID(CategoryTechnology, "kubernetes"))
	findEntity(t, entities, EntityID(CategoryMetric, "accuracy"))
}

func TestExtractAggregatesAcrossChunks(t *testing.T) {
	extractor := NewExtractor(nil)

	chunks := []SourceChunk{
		{ID: "a-0", Content: "Python services and Python tooling."},
		{ID: "b-0", Content: "More Python here."},
	}
	entities := extractor.Extract(chunks)

	python := findEntity(t, entities, EntityID(CategoryTechnology, "python"))
	assert.Equal(t, 3, python.Frequency)
	assert.Equal(t, []string{"a-0", "b-0"}, python.ChunkIDs)
}

func TestExtractCustomPhrasesAndAcronyms(t *testing.T) {
	extractor := NewExtractor(nil)

	chunks := []SourceChunk{
		{ID: "c-0", Content: "He studied at Stevens Institute and scored well on RAGAS benchmarks."},
	}
	entities := extractor.Extract(chunks)

	phrase := findEntity(t, entities, EntityID(CategoryCustom, "stevens institute"))
	assert.Equal(t, "Stevens Institute", phrase.Name)
	assert.Equal(t, CategoryCustom, phrase.Category)

	findEntity(t, entities, EntityID(CategoryCustom, "ragas"))
}

func TestExtractWholeWordOnly(t *testing.T) {
	extractor := NewExtractor(nil)

	// "ai" must not match inside "maintain".
	chunks := []SourceChunk{{ID: "d-0", Content: "He helped maintain the platform."}}
	entities := extractor.Extract(chunks)

	for _, e := range entities {
		assert.NotEqual(t, EntityID(CategoryConcept, "ai"), e.ID)
	}
}

func TestExtractDeterministic(t *testing.T) {
	extractor := NewExtractor(nil)

	chunks := []SourceChunk{
		{ID: "e-0", Content: "Machine learning on AWS with Docker and Kafka."},
		{ID: "e-1", Content: "Deep learning with TensorFlow, measured by latency and throughput."},
	}

	first := extractor.Extract(chunks)
	second := extractor.Extract(chunks)
	require.Equal(t, first, second)

	// Sorted by id for stable downstream ordering.
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}
}

func TestCategoryWeights(t *testing.T) {
	assert.Equal(t, 0.4, CategoryTechnology.Weight())
	assert.Equal(t, 0.35, CategoryConcept.Weight())
	assert.Equal(t, 0.3, CategoryMetric.Weight())
	assert.Equal(t, 0.25, CategoryCustom.Weight())
	assert.Equal(t, 0.25, EntityCategory("UNKNOWN").Weight())
}
