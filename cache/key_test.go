package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKey_NormalizesCaseAndWhitespace(t *testing.T) {
	a := QueryKey("search", "What languages does he use?")
	b := QueryKey("search", "  what languages does he use?  ")

	assert.Equal(t, a, b)
}

func TestQueryKey_DistinctQueries(t *testing.T) {
	a := QueryKey("search", "projects")
	b := QueryKey("search", "education")

	assert.NotEqual(t, a, b)
}

func TestQueryKey_NamespaceSeparation(t *testing.T) {
	a := QueryKey("search", "projects")
	b := QueryKey("chat", "projects")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "search:"))
	assert.True(t, strings.HasPrefix(b, "chat:"))
}

func TestQueryKey_BoundedLength(t *testing.T) {
	long := strings.Repeat("a very long query ", 500)
	key := QueryKey("search", long)

	// namespace + ':' + 32 hex chars
	assert.Len(t, key, len("search")+1+32)
}
