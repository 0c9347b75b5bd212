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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidRelationship indicates a Relationship failed validation.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrEmptyTitle indicates the document Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates the document Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidConfidence indicates a confidence value outside [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

	// ErrEmptyTopicName indicates the topic Name field is empty.
	ErrEmptyTopicName = errors.New("topic name cannot be empty")

	// ErrEmptyEndpoint indicates a relationship From or To field is empty.
	ErrEmptyEndpoint = errors.New("relationship endpoint cannot be empty")

	// ErrEmptyRelationshipType indicates the relationship Type field is empty.
	ErrEmptyRelationshipType = errors.New("relationship type cannot be empty")

	// ErrInvalidStrength indicates a relationship strength outside [0, 1].
	ErrInvalidStrength = errors.New("strength must be between 0 and 1")
)
