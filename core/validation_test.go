package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				Title:      "Database Selection",
				Content:    "How we picked the database",
				Confidence: 0.9,
			},
			wantErr: nil,
		},
		{
			name: "valid document without summary or embedding",
			doc: &Document{
				Title:   "Notes",
				Content: "Some content",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty title",
			doc: &Document{
				Content: "Some content",
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "empty content",
			doc: &Document{
				Title: "Notes",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "confidence above 1",
			doc: &Document{
				Title:      "Notes",
				Content:    "Some content",
				Confidence: 1.5,
			},
			wantErr: ErrInvalidConfidence,
		},
		{
			name: "negative confidence",
			doc: &Document{
				Title:      "Notes",
				Content:    "Some content",
				Confidence: -0.1,
			},
			wantErr: ErrInvalidConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error should wrap ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   *Topic
		wantErr error
	}{
		{
			name:    "valid topic",
			topic:   &Topic{Name: "Architecture"},
			wantErr: nil,
		},
		{
			name:    "nil topic",
			topic:   nil,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "empty name",
			topic:   &Topic{Description: "no name"},
			wantErr: ErrEmptyTopicName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopic(tt.topic)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTopic() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTopic() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRelationship(t *testing.T) {
	tests := []struct {
		name    string
		rel     *Relationship
		wantErr error
	}{
		{
			name: "valid relationship",
			rel: &Relationship{
				From:     DocumentRef("a"),
				To:       DocumentRef("b"),
				Type:     "related",
				Strength: 0.5,
			},
			wantErr: nil,
		},
		{
			name:    "nil relationship",
			rel:     nil,
			wantErr: ErrInvalidRelationship,
		},
		{
			name: "missing endpoint",
			rel: &Relationship{
				From: DocumentRef("a"),
				Type: "related",
			},
			wantErr: ErrEmptyEndpoint,
		},
		{
			name: "missing type",
			rel: &Relationship{
				From: DocumentRef("a"),
				To:   DocumentRef("b"),
			},
			wantErr: ErrEmptyRelationshipType,
		},
		{
			name: "strength above 1",
			rel: &Relationship{
				From:     DocumentRef("a"),
				To:       DocumentRef("b"),
				Type:     "related",
				Strength: 2,
			},
			wantErr: ErrInvalidStrength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelationship(tt.rel)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRelationship() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRelationship() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
