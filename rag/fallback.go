package rag

import "strings"

// Fallback search type labels. Topical answers reuse the keyword label
// since they are keyword-matched; the default label marks the generic
// prompt-the-user answer.
const SearchDefaultFallback = "default-fallback"

const (
	topicalConfidence = 80
	defaultConfidence = 50
	fallbackSource    = "portfolio"
)

// topicalResponses are canned answers served when retrieval is entirely
// unavailable but the query names a recognizable topic.
var topicalResponses = []struct {
	keyword string
	answer  string
}{
	{
		keyword: "projects",
		answer: "Sai's major projects include HR Matching Platform (saved $45K annually), " +
			"Real-time Data Pipeline (400 events/sec), Computer Vision systems (97% accuracy), " +
			"and production RAG systems with 92% RAGAS scores.",
	},
	{
		keyword: "technologies",
		answer: "Sai works with Python, PyTorch, TensorFlow, AWS, GCP, Kubernetes, Docker, " +
			"React, Node.js, and specializes in ML/AI, GenAI, RAG systems, Computer Vision, and NLP.",
	},
	{
		keyword: "experience",
		answer: "Sai has 4+ years of ML engineering experience at Shell, CGI, and Community " +
			"Dreams Foundation, with expertise in production AI systems.",
	},
	{
		keyword: "education",
		answer: "Sai completed his MS in Machine Learning at Stevens Institute of Technology " +
			"with a 3.9 CGPA.",
	},
}

const defaultFallbackAnswer = "I'm Sai's AI assistant. Ask me about his projects, " +
	"technologies, experience, or education!"

// StaticFallback returns a canned outcome for queries the pipeline could
// not serve at all. A query mentioning a known topic gets that topic's
// answer at moderate confidence; anything else gets the generic prompt
// at low confidence. It never fails and needs no loaded data.
func StaticFallback(query string) SearchOutcome {
	queryLower := strings.ToLower(query)
	for _, topic := range topicalResponses {
		if !strings.Contains(queryLower, topic.keyword) {
			continue
		}
		return SearchOutcome{
			Results: []SearchResult{{
				Content: topic.answer,
				Score:   0.8,
				Origin:  originFallback,
			}},
			Context:    topic.answer,
			Sources:    []string{fallbackSource},
			Confidence: topicalConfidence,
			SearchType: SearchKeywordFallback,
		}
	}

	return SearchOutcome{
		Results:    []SearchResult{},
		Context:    defaultFallbackAnswer,
		Sources:    []string{fallbackSource},
		Confidence: defaultConfidence,
		SearchType: SearchDefaultFallback,
	}
}
