package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mimir-kb/mimir/core"
)

// DocumentOutput is the JSON shape of a document returned by tools.
type DocumentOutput struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	Content    string   `json:"content,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Status     string   `json:"status,omitempty"`
	Score      float64  `json:"score,omitempty"`
}

func documentOutput(doc *core.Document, score float64, withContent bool) DocumentOutput {
	out := DocumentOutput{
		Key:        doc.Key,
		Title:      doc.Title,
		Summary:    doc.Summary,
		Tags:       doc.Tags,
		Confidence: doc.Confidence,
		Status:     doc.Status,
		Score:      score,
	}
	if withContent {
		out.Content = doc.Content
	}
	return out
}

// StoreKnowledgeInput is the input schema for the store_knowledge tool.
type StoreKnowledgeInput struct {
	Title      string   `json:"title" jsonschema:"title of the knowledge document"`
	Content    string   `json:"content" jsonschema:"full text content of the document"`
	Summary    string   `json:"summary,omitempty" jsonschema:"optional short summary"`
	Tags       []string `json:"tags,omitempty" jsonschema:"tags for categorization"`
	Confidence float64  `json:"confidence,omitempty" jsonschema:"confidence in the information, 0.0 to 1.0"`
	Source     string   `json:"source,omitempty" jsonschema:"where the information came from"`
	Topic      string   `json:"topic,omitempty" jsonschema:"optional topic key to file the document under"`
}

// StoreKnowledgeOutput is the output schema for the store_knowledge tool.
type StoreKnowledgeOutput struct {
	Key string `json:"key"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	Key string `json:"key" jsonschema:"key of the document to retrieve"`
}

// UpdateDocumentInput is the input schema for the update_document tool.
type UpdateDocumentInput struct {
	Key        string   `json:"key" jsonschema:"key of the document to update"`
	Title      string   `json:"title" jsonschema:"new title"`
	Content    string   `json:"content" jsonschema:"new content"`
	Summary    string   `json:"summary,omitempty" jsonschema:"new summary"`
	Tags       []string `json:"tags,omitempty" jsonschema:"new tags, replacing the old set"`
	Confidence float64  `json:"confidence,omitempty" jsonschema:"new confidence, 0.0 to 1.0"`
	Status     string   `json:"status,omitempty" jsonschema:"document status, e.g. current or deprecated"`
}

// DeleteDocumentInput is the input schema for the delete_document tool.
type DeleteDocumentInput struct {
	Key string `json:"key" jsonschema:"key of the document to delete"`
}

// DeleteDocumentOutput is the output schema for the delete_document tool.
type DeleteDocumentOutput struct {
	Deleted bool `json:"deleted"`
}

// LinkDocumentsInput is the input schema for the link_documents tool.
type LinkDocumentsInput struct {
	FromKey       string  `json:"from_key" jsonschema:"key of the source document"`
	ToKey         string  `json:"to_key" jsonschema:"key of the target document"`
	Type          string  `json:"type,omitempty" jsonschema:"relationship type, default related"`
	Strength      float64 `json:"strength,omitempty" jsonschema:"relationship strength, 0.0 to 1.0"`
	Bidirectional bool    `json:"bidirectional,omitempty" jsonschema:"whether the link applies in both directions"`
}

// LinkDocumentsOutput is the output schema for the link_documents tool.
type LinkDocumentsOutput struct {
	Linked bool `json:"linked"`
}

// RelatedDocumentsInput is the input schema for the related_documents tool.
type RelatedDocumentsInput struct {
	Key string `json:"key" jsonschema:"key of the document to find related documents for"`
}

// registerDocumentTools registers document CRUD tools with the MCP server.
func (s *Server) registerDocumentTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "store_knowledge",
		Description: "Store a new knowledge document, generating its embedding",
	}, s.handleStoreKnowledge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Retrieve a knowledge document by key",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_document",
		Description: "Update an existing knowledge document and refresh its embedding",
	}, s.handleUpdateDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a knowledge document and its relationships",
	}, s.handleDeleteDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "link_documents",
		Description: "Create a typed relationship between two documents",
	}, s.handleLinkDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "related_documents",
		Description: "List documents linked to a document, following bidirectional links both ways",
	}, s.handleRelatedDocuments)
}

func (s *Server) handleStoreKnowledge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StoreKnowledgeInput,
) (*mcp.CallToolResult, StoreKnowledgeOutput, error) {
	confidence := input.Confidence
	if confidence == 0 {
		confidence = 0.8
	}

	key, err := s.kb.StoreDocument(ctx, &core.Document{
		Title:      input.Title,
		Content:    input.Content,
		Summary:    input.Summary,
		Tags:       input.Tags,
		Confidence: confidence,
		Status:     "current",
		Meta:       core.DocumentMeta{Source: input.Source},
	})
	if err != nil {
		return nil, StoreKnowledgeOutput{}, err
	}

	if input.Topic != "" {
		if err := s.kb.LinkDocumentToTopic(ctx, key, input.Topic); err != nil {
			s.logger.Warn("stored document but failed to link topic",
				"key", key, "topic", input.Topic, "err", err)
		}
	}

	return nil, StoreKnowledgeOutput{Key: key}, nil
}

func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.kb.GetDocument(ctx, input.Key)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, documentOutput(doc, 0, true), nil
}

func (s *Server) handleUpdateDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc := &core.Document{
		Key:        input.Key,
		Title:      input.Title,
		Content:    input.Content,
		Summary:    input.Summary,
		Tags:       input.Tags,
		Confidence: input.Confidence,
		Status:     input.Status,
	}
	if err := s.kb.UpdateDocument(ctx, doc); err != nil {
		return nil, DocumentOutput{}, err
	}

	updated, err := s.kb.GetDocument(ctx, input.Key)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, documentOutput(updated, 0, true), nil
}

func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if err := s.kb.DeleteDocument(ctx, input.Key); err != nil {
		return nil, DeleteDocumentOutput{}, err
	}
	return nil, DeleteDocumentOutput{Deleted: true}, nil
}

func (s *Server) handleRelatedDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RelatedDocumentsInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	docs, err := s.kb.RelatedDocuments(ctx, input.Key)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i, doc := range docs {
		output.Results[i] = documentOutput(doc, 0, false)
	}
	return nil, output, nil
}

func (s *Server) handleLinkDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LinkDocumentsInput,
) (*mcp.CallToolResult, LinkDocumentsOutput, error) {
	strength := input.Strength
	if strength == 0 {
		strength = 0.5
	}

	err := s.kb.LinkRelatedDocuments(ctx, input.FromKey, input.ToKey, input.Type, strength, input.Bidirectional)
	if err != nil {
		return nil, LinkDocumentsOutput{}, err
	}
	return nil, LinkDocumentsOutput{Linked: true}, nil
}
