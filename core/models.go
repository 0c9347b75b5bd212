package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Collection names used to build qualified entity references.
const (
	DocumentCollection = "documents"
	TopicCollection    = "topics"
)

// Well-known relationship types.
const (
	RelTypeBelongsTo = "belongs_to" // document to topic
	RelTypeRelated   = "related"    // document to document
)

// KeyFromContent generates a deterministic entity key from text content
// using BLAKE2b hashing. Identical content always produces the same key.
func KeyFromContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentRef returns the qualified reference for a document key,
// e.g. "documents/abc123".
func DocumentRef(key string) string {
	return DocumentCollection + "/" + key
}

// TopicRef returns the qualified reference for a topic key,
// e.g. "topics/abc123".
func TopicRef(key string) string {
	return TopicCollection + "/" + key
}

// RefKey extracts the bare key from a qualified reference.
// Returns the input unchanged if it carries no collection prefix.
func RefKey(ref string) string {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}

// IsTopicRef reports whether a qualified reference points into the
// topics collection.
func IsTopicRef(ref string) bool {
	return len(ref) > len(TopicCollection) && ref[:len(TopicCollection)+1] == TopicCollection+"/"
}

// Document is a single knowledge-base entry.
// The embedding is populated separately from the textual fields and may be
// absent until an embedding pass has run.
type Document struct {
	Key        string
	Title      string
	Content    string
	Summary    string // optional, "" means absent
	Tags       []string
	Confidence float64   // 0.0 - 1.0
	Status     string    // e.g. "current", "deprecated"
	Embedding  []float32 // nil means no embedding yet
	Meta       DocumentMeta
}

// DocumentMeta carries provenance and versioning information for a document.
type DocumentMeta struct {
	Source  string
	Creator string
	Created time.Time
	Updated time.Time
	Version int
}

// EmbeddingText returns the text a document's embedding is derived from:
// title, summary (possibly empty) and content joined by single spaces.
func (d *Document) EmbeddingText() string {
	return d.Title + " " + d.Summary + " " + d.Content
}

// Topic is a node in the knowledge-base topic hierarchy.
// ParentTopic holds the key of the parent topic, or "" for a root topic.
type Topic struct {
	Key         string
	Name        string
	Description string
	ParentTopic string
	Creator     string
	Importance  int // 1-10
	Created     time.Time
}

// Relationship is a typed, optionally bidirectional edge between two
// qualified entity references (document-to-document or document-to-topic).
type Relationship struct {
	Key           string
	From          string // qualified reference, e.g. "documents/abc"
	To            string
	Type          string // e.g. "related", "belongs_to"
	Strength      float64
	Bidirectional bool
	Creator       string
	Created       time.Time
}

// ScoredDocument is a document paired with a relevance score from a
// search operation.
type ScoredDocument struct {
	Document *Document
	Score    float64
}

// TagCount is a tag paired with the number of documents carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// TopicNode is a topic together with its child topics, used to assemble
// the full topic hierarchy.
type TopicNode struct {
	Topic    *Topic
	Children []*TopicNode
}
