package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mimir-kb/mimir/core"
)

// TopicOutput is the JSON shape of a topic returned by tools.
type TopicOutput struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentTopic string `json:"parent_topic,omitempty"`
	Importance  int    `json:"importance,omitempty"`
}

// TopicNodeOutput is a topic with its children, forming the hierarchy tree.
type TopicNodeOutput struct {
	TopicOutput
	Children []TopicNodeOutput `json:"children,omitempty"`
}

func topicOutput(topic *core.Topic) TopicOutput {
	return TopicOutput{
		Key:         topic.Key,
		Name:        topic.Name,
		Description: topic.Description,
		ParentTopic: topic.ParentTopic,
		Importance:  topic.Importance,
	}
}

// CreateTopicInput is the input schema for the create_topic tool.
type CreateTopicInput struct {
	Name        string `json:"name" jsonschema:"name of the topic"`
	Description string `json:"description,omitempty" jsonschema:"what the topic covers"`
	ParentTopic string `json:"parent_topic,omitempty" jsonschema:"key of the parent topic for nesting"`
	Importance  int    `json:"importance,omitempty" jsonschema:"importance from 1 to 10"`
}

// UpdateTopicInput is the input schema for the update_topic tool.
type UpdateTopicInput struct {
	Key         string `json:"key" jsonschema:"key of the topic to update"`
	Name        string `json:"name" jsonschema:"new name"`
	Description string `json:"description,omitempty" jsonschema:"new description"`
	ParentTopic string `json:"parent_topic,omitempty" jsonschema:"new parent topic key"`
	Importance  int    `json:"importance,omitempty" jsonschema:"new importance from 1 to 10"`
}

// DeleteTopicInput is the input schema for the delete_topic tool.
type DeleteTopicInput struct {
	Key string `json:"key" jsonschema:"key of the topic to delete"`
}

// DeleteTopicOutput is the output schema for the delete_topic tool.
type DeleteTopicOutput struct {
	Deleted bool `json:"deleted"`
}

// TopicHierarchyOutput is the output schema for the list_topic_hierarchy tool.
type TopicHierarchyOutput struct {
	Topics []TopicNodeOutput `json:"topics"`
}

// LinkDocumentToTopicInput is the input schema for the link_document_to_topic tool.
type LinkDocumentToTopicInput struct {
	DocumentKey string `json:"document_key" jsonschema:"key of the document to file"`
	TopicKey    string `json:"topic_key" jsonschema:"key of the topic to file it under"`
}

// LinkDocumentToTopicOutput is the output schema for the link_document_to_topic tool.
type LinkDocumentToTopicOutput struct {
	Linked bool `json:"linked"`
}

// DocumentsByTopicInput is the input schema for the documents_by_topic tool.
type DocumentsByTopicInput struct {
	TopicKey string `json:"topic_key" jsonschema:"key of the topic to list documents for"`
}

// registerTopicTools registers topic management tools with the MCP server.
func (s *Server) registerTopicTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_topic",
		Description: "Create a topic for organizing documents",
	}, s.handleCreateTopic)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_topic",
		Description: "Update an existing topic",
	}, s.handleUpdateTopic)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_topic",
		Description: "Delete a topic that has no documents filed under it",
	}, s.handleDeleteTopic)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_topic_hierarchy",
		Description: "List all topics as a tree",
	}, s.handleListTopicHierarchy)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "link_document_to_topic",
		Description: "File a document under a topic",
	}, s.handleLinkDocumentToTopic)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "documents_by_topic",
		Description: "List the documents filed under a topic",
	}, s.handleDocumentsByTopic)
}

func (s *Server) handleCreateTopic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateTopicInput,
) (*mcp.CallToolResult, TopicOutput, error) {
	importance := input.Importance
	if importance == 0 {
		importance = 5
	}

	topic := &core.Topic{
		Name:        input.Name,
		Description: input.Description,
		ParentTopic: input.ParentTopic,
		Importance:  importance,
	}
	key, err := s.kb.CreateTopic(ctx, topic)
	if err != nil {
		return nil, TopicOutput{}, err
	}

	topic.Key = key
	return nil, topicOutput(topic), nil
}

func (s *Server) handleUpdateTopic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateTopicInput,
) (*mcp.CallToolResult, TopicOutput, error) {
	topic := &core.Topic{
		Key:         input.Key,
		Name:        input.Name,
		Description: input.Description,
		ParentTopic: input.ParentTopic,
		Importance:  input.Importance,
	}
	if err := s.kb.UpdateTopic(ctx, topic); err != nil {
		return nil, TopicOutput{}, err
	}

	updated, err := s.kb.GetTopic(ctx, input.Key)
	if err != nil {
		return nil, TopicOutput{}, err
	}
	return nil, topicOutput(updated), nil
}

func (s *Server) handleDeleteTopic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteTopicInput,
) (*mcp.CallToolResult, DeleteTopicOutput, error) {
	if err := s.kb.DeleteTopic(ctx, input.Key); err != nil {
		return nil, DeleteTopicOutput{}, err
	}
	return nil, DeleteTopicOutput{Deleted: true}, nil
}

func (s *Server) handleListTopicHierarchy(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, TopicHierarchyOutput, error) {
	roots, err := s.kb.TopicHierarchy(ctx)
	if err != nil {
		return nil, TopicHierarchyOutput{}, err
	}
	return nil, TopicHierarchyOutput{Topics: topicNodes(roots)}, nil
}

func topicNodes(nodes []*core.TopicNode) []TopicNodeOutput {
	out := make([]TopicNodeOutput, len(nodes))
	for i, node := range nodes {
		out[i] = TopicNodeOutput{
			TopicOutput: topicOutput(node.Topic),
			Children:    topicNodes(node.Children),
		}
	}
	return out
}

func (s *Server) handleLinkDocumentToTopic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LinkDocumentToTopicInput,
) (*mcp.CallToolResult, LinkDocumentToTopicOutput, error) {
	if err := s.kb.LinkDocumentToTopic(ctx, input.DocumentKey, input.TopicKey); err != nil {
		return nil, LinkDocumentToTopicOutput{}, err
	}
	return nil, LinkDocumentToTopicOutput{Linked: true}, nil
}

func (s *Server) handleDocumentsByTopic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentsByTopicInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	docs, err := s.kb.DocumentsByTopic(ctx, input.TopicKey)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i, doc := range docs {
		output.Results[i] = documentOutput(doc, 0, false)
	}
	return nil, output, nil
}
