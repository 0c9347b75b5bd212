package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMUSRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 589000, time.UTC)

	t.Run("document with embedding", func(t *testing.T) {
		doc := Document{
			Key:        "abc123",
			Title:      "Database Selection",
			Content:    "We compared several stores before settling on one.",
			Summary:    "Store comparison",
			Tags:       []string{"architecture", "database"},
			Confidence: 0.9,
			Status:     "current",
			Embedding:  []float32{0.25, -0.5, 0.75, 1},
			Meta: DocumentMeta{
				Source:  "mcp_conversation",
				Creator: "mcp_user",
				Created: created,
				Updated: created.Add(time.Hour),
				Version: 3,
			},
		}

		buf := make([]byte, DocumentMUS.Size(doc))
		n := DocumentMUS.Marshal(doc, buf)
		require.Equal(t, len(buf), n)

		got, read, err := DocumentMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), read)
		assert.Equal(t, doc, got)
	})

	t.Run("document without embedding stays nil", func(t *testing.T) {
		doc := Document{
			Key:     "nokey",
			Title:   "Unrelated Notes",
			Content: "misc",
			Tags:    []string{"misc"},
		}

		buf := make([]byte, DocumentMUS.Size(doc))
		DocumentMUS.Marshal(doc, buf)

		got, _, err := DocumentMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.Nil(t, got.Embedding)
		assert.Equal(t, doc, got)
	})

	t.Run("zero timestamps survive", func(t *testing.T) {
		doc := Document{Key: "k", Title: "t", Content: "c"}

		buf := make([]byte, DocumentMUS.Size(doc))
		DocumentMUS.Marshal(doc, buf)

		got, _, err := DocumentMUS.Unmarshal(buf)
		require.NoError(t, err)
		assert.True(t, got.Meta.Created.IsZero())
		assert.True(t, got.Meta.Updated.IsZero())
	})
}

func TestTopicMUSRoundTrip(t *testing.T) {
	topic := Topic{
		Key:         "arch",
		Name:        "Architecture",
		Description: "System design decisions",
		ParentTopic: "engineering",
		Creator:     "mcp_user",
		Importance:  7,
		Created:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	buf := make([]byte, TopicMUS.Size(topic))
	n := TopicMUS.Marshal(topic, buf)
	require.Equal(t, len(buf), n)

	got, read, err := TopicMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), read)
	assert.Equal(t, topic, got)
}

func TestRelationshipMUSRoundTrip(t *testing.T) {
	rel := Relationship{
		Key:           "r1",
		From:          DocumentRef("a"),
		To:            TopicRef("arch"),
		Type:          "belongs_to",
		Strength:      0.8,
		Bidirectional: true,
		Creator:       "mcp_user",
		Created:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	buf := make([]byte, RelationshipMUS.Size(rel))
	n := RelationshipMUS.Marshal(rel, buf)
	require.Equal(t, len(buf), n)

	got, read, err := RelationshipMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), read)
	assert.Equal(t, rel, got)
}
