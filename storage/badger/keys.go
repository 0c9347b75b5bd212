package badger

import (
	"fmt"
	"strings"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentTagPrefix    = "doctag"
	topicRecordPrefix    = "toprec"
	relationRecordPrefix = "relrec"
	relationFromPrefix   = "relfrom"
	relationToPrefix     = "relto"
)

// makeDocumentKey generates a key for a document record.
func makeDocumentKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentRecordPrefix, key))
}

// makeDocumentTagKey generates a composite key for the tag index.
// Format: prefix:tag:docKey
func makeDocumentTagKey(tag, docKey string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentTagPrefix, tag, docKey))
}

// makePartialDocumentTagKey generates a partial key for tag queries.
// The trailing separator keeps "go" from matching "golang".
func makePartialDocumentTagKey(tag string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentTagPrefix, tag))
}

// tagFromIndexKey extracts the tag from a tag index key.
// The document key never contains a separator, so the tag is everything
// between the prefix and the last separator.
func tagFromIndexKey(key []byte) string {
	s := strings.TrimPrefix(string(key), documentTagPrefix+":")
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// makeTopicKey generates a key for a topic record.
func makeTopicKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", topicRecordPrefix, key))
}

// makeRelationshipKey generates a key for a relationship record.
func makeRelationshipKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", relationRecordPrefix, key))
}

// makeRelationEndpointKey generates a composite key for a relationship
// endpoint index. Format: prefix:ref:relKey (the ref contains a slash but
// no separator byte that would break prefix scans).
func makeRelationEndpointKey(prefix, ref, relKey string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", prefix, ref, relKey))
}

// makePartialRelationEndpointKey generates a partial key for endpoint queries.
func makePartialRelationEndpointKey(prefix, ref string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", prefix, ref))
}
