// Copyright 2025 The Mimir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"github.com/mimir-kb/mimir/core"
)

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalTopic serializes a Topic to bytes.
func MarshalTopic(topic *core.Topic) []byte {
	buf := make([]byte, core.TopicMUS.Size(*topic))
	core.TopicMUS.Marshal(*topic, buf)
	return buf
}

// UnmarshalTopic deserializes a Topic from bytes.
func UnmarshalTopic(data []byte) (*core.Topic, error) {
	topic, _, err := core.TopicMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// MarshalRelationship serializes a Relationship to bytes.
func MarshalRelationship(rel *core.Relationship) []byte {
	buf := make([]byte, core.RelationshipMUS.Size(*rel))
	core.RelationshipMUS.Marshal(*rel, buf)
	return buf
}

// UnmarshalRelationship deserializes a Relationship from bytes.
func UnmarshalRelationship(data []byte) (*core.Relationship, error) {
	rel, _, err := core.RelationshipMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}
