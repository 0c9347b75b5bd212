package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TagOutput is a tag with its document count.
type TagOutput struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ListTagsOutput is the output schema for the list_tags tool.
type ListTagsOutput struct {
	Tags []TagOutput `json:"tags"`
}

// DocumentsByTagInput is the input schema for the documents_by_tag tool.
type DocumentsByTagInput struct {
	Tag string `json:"tag" jsonschema:"tag to list documents for"`
}

// registerTagTools registers tag browsing tools with the MCP server.
func (s *Server) registerTagTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List all tags with their document counts, most used first",
	}, s.handleListTags)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "documents_by_tag",
		Description: "List the documents carrying a tag",
	}, s.handleDocumentsByTag)
}

func (s *Server) handleListTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ListTagsOutput, error) {
	counts, err := s.kb.TagCounts(ctx)
	if err != nil {
		return nil, ListTagsOutput{}, err
	}

	output := ListTagsOutput{Tags: make([]TagOutput, len(counts))}
	for i, tc := range counts {
		output.Tags[i] = TagOutput{Tag: tc.Tag, Count: tc.Count}
	}
	return nil, output, nil
}

func (s *Server) handleDocumentsByTag(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentsByTagInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	docs, err := s.kb.DocumentsByTag(ctx, input.Tag)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i, doc := range docs {
		output.Results[i] = documentOutput(doc, 0, false)
	}
	return nil, output, nil
}
