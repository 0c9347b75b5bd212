package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mimir-kb/mimir/storage"
)

// uriScheme is the custom URI scheme for Mimir resources.
const uriScheme = "mimir://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing topics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "topics",
		Name:        "topics",
		Description: "All topics with their hierarchy",
		MIMEType:    "application/json",
	}, s.handleTopicsResource)

	// Static resource for listing tags.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "tags",
		Name:        "tags",
		Description: "All tags with document counts",
		MIMEType:    "application/json",
	}, s.handleTagsResource)

	// Template for documents filed under a topic.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "topics/{topicKey}/documents",
		Name:        "topic-documents",
		Description: "Documents filed under a specific topic",
		MIMEType:    "application/json",
	}, s.handleTopicDocumentsResource)

	// Template for document content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentKey}",
		Name:        "document-content",
		Description: "Content of a specific document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleTopicsResource returns the full topic hierarchy.
func (s *Server) handleTopicsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	roots, err := s.kb.TopicHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	return jsonResource(req.Params.URI, topicNodes(roots))
}

// handleTagsResource returns all tags with document counts.
func (s *Server) handleTagsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	counts, err := s.kb.TagCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	tags := make([]TagOutput, len(counts))
	for i, tc := range counts {
		tags[i] = TagOutput{Tag: tc.Tag, Count: tc.Count}
	}
	return jsonResource(req.Params.URI, tags)
}

// handleTopicDocumentsResource returns documents for a specific topic.
func (s *Server) handleTopicDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	topicKey := extractTopicKey(req.Params.URI)
	if topicKey == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	if _, err := s.kb.GetTopic(ctx, topicKey); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, err
	}

	docs, err := s.kb.DocumentsByTopic(ctx, topicKey)
	if err != nil {
		return nil, fmt.Errorf("listing topic documents: %w", err)
	}

	infos := make([]DocumentOutput, len(docs))
	for i, doc := range docs {
		infos[i] = documentOutput(doc, 0, false)
	}
	return jsonResource(req.Params.URI, infos)
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docKey := extractDocumentKey(req.Params.URI)
	if docKey == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.kb.GetDocument(ctx, docKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

// extractTopicKey extracts the topic key from a URI like mimir://topics/{topicKey}/documents.
func extractTopicKey(uri string) string {
	const prefix = uriScheme + "topics/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractDocumentKey extracts the document key from a URI like mimir://documents/{documentKey}.
func extractDocumentKey(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
