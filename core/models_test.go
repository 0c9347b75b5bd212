package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		key1 := KeyFromContent("some document title")
		key2 := KeyFromContent("some document title")
		assert.Equal(t, key1, key2)
	})

	t.Run("distinct content gives distinct keys", func(t *testing.T) {
		key1 := KeyFromContent("alpha")
		key2 := KeyFromContent("beta")
		assert.NotEqual(t, key1, key2)
	})

	t.Run("hex encoded 8 bytes", func(t *testing.T) {
		key := KeyFromContent("anything")
		assert.Len(t, key, 16)
	})
}

func TestRefs(t *testing.T) {
	t.Run("document ref round trip", func(t *testing.T) {
		ref := DocumentRef("abc123")
		assert.Equal(t, "documents/abc123", ref)
		assert.Equal(t, "abc123", RefKey(ref))
		assert.False(t, IsTopicRef(ref))
	})

	t.Run("topic ref round trip", func(t *testing.T) {
		ref := TopicRef("xyz")
		assert.Equal(t, "topics/xyz", ref)
		assert.Equal(t, "xyz", RefKey(ref))
		assert.True(t, IsTopicRef(ref))
	})

	t.Run("bare key passes through RefKey", func(t *testing.T) {
		assert.Equal(t, "plain", RefKey("plain"))
	})
}

func TestEmbeddingText(t *testing.T) {
	t.Run("includes title summary and content", func(t *testing.T) {
		doc := &Document{Title: "Title", Summary: "Summary", Content: "Content"}
		assert.Equal(t, "Title Summary Content", doc.EmbeddingText())
	})

	t.Run("missing summary leaves a gap", func(t *testing.T) {
		doc := &Document{Title: "Title", Content: "Content"}
		assert.Equal(t, "Title  Content", doc.EmbeddingText())
	})
}
