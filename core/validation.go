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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Content must not be empty
//   - Confidence must be in [0, 1]
//
// NOT validated (populated elsewhere):
//   - Embedding (can be absent until an embedding pass runs)
//   - Key ("" is valid; storage assigns a content-addressed key)
//   - Meta timestamps (storage assigns them on write)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if doc.Confidence < 0 || doc.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidConfidence)
	}

	return nil
}

// ValidateTopic validates a Topic according to domain rules.
//
// Validation rules:
//   - Name must not be empty
func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: topic is nil", ErrInvalidTopic)
	}

	if topic.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTopic, ErrEmptyTopicName)
	}

	return nil
}

// ValidateRelationship validates a Relationship according to domain rules.
//
// Validation rules:
//   - From and To must not be empty
//   - Type must not be empty
//   - Strength must be in [0, 1]
func ValidateRelationship(rel *Relationship) error {
	if rel == nil {
		return fmt.Errorf("%w: relationship is nil", ErrInvalidRelationship)
	}

	if rel.From == "" || rel.To == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrEmptyEndpoint)
	}

	if rel.Type == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrEmptyRelationshipType)
	}

	if rel.Strength < 0 || rel.Strength > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrInvalidStrength)
	}

	return nil
}
