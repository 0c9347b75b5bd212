package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mimir-kb/mimir/search"
)

// SemanticSearchInput is the input schema for the retrieve_knowledge tool.
type SemanticSearchInput struct {
	Query               string  `json:"query" jsonschema:"natural language query to search for"`
	MaxResults          int     `json:"max_results,omitempty" jsonschema:"maximum number of results, 1 to 20 (default 10)"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" jsonschema:"minimum cosine similarity, 0.1 to 0.9 (default 0.7)"`
}

// SearchOutput is the output schema shared by the search tools.
type SearchOutput struct {
	Results []DocumentOutput `json:"results"`
	Count   int              `json:"count"`
}

// SmartSearchInput is the input schema for the smart_search tool.
type SmartSearchInput struct {
	Query      string  `json:"query" jsonschema:"search terms"`
	MaxResults int     `json:"max_results,omitempty" jsonschema:"maximum number of results, 1 to 20 (default 10)"`
	MinScore   float64 `json:"min_score,omitempty" jsonschema:"minimum relevance score, 0.1 to 0.9 (default 0.3)"`
}

// FuzzySearchInput is the input schema for the fuzzy_search tool.
type FuzzySearchInput struct {
	Query       string  `json:"query" jsonschema:"search terms, typos are tolerated"`
	MaxDistance int     `json:"max_distance,omitempty" jsonschema:"edit distance hint (default 2)"`
	MaxResults  int     `json:"max_results,omitempty" jsonschema:"maximum number of results, 1 to 20 (default 10)"`
	MinScore    float64 `json:"min_score,omitempty" jsonschema:"minimum relevance score, 0.1 to 0.9 (default 0.3)"`
}

// KeywordSearchInput is the input schema for the keyword_search tool.
type KeywordSearchInput struct {
	Query      string `json:"query" jsonschema:"substring to look for in titles and content"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results, 1 to 20 (default 10)"`
}

// SuggestInput is the input schema for the suggest_terms tool.
type SuggestInput struct {
	Partial    string `json:"partial" jsonschema:"partial query to complete, empty returns top tags"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of suggestions, 1 to 20 (default 10)"`
}

// SuggestionOutput is a suggestion with its supporting document count.
type SuggestionOutput struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SuggestOutput is the output schema for suggest_terms and similar_queries.
type SuggestOutput struct {
	Suggestions []SuggestionOutput `json:"suggestions"`
}

// SimilarQueriesInput is the input schema for the similar_queries tool.
type SimilarQueriesInput struct {
	Query      string `json:"query" jsonschema:"query to find follow-up queries for"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of suggestions, 1 to 20 (default 10)"`
}

// UpdateEmbeddingsInput is the input schema for the update_embeddings tool.
type UpdateEmbeddingsInput struct {
	Keys []string `json:"keys,omitempty" jsonschema:"document keys to reembed, empty reembeds everything"`
}

// UpdateEmbeddingsOutput is the output schema for the update_embeddings tool.
type UpdateEmbeddingsOutput struct {
	Updated int `json:"updated"`
}

// registerSearchTools registers search and embedding tools with the MCP server.
func (s *Server) registerSearchTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_knowledge",
		Description: "Search documents by meaning using vector embeddings",
	}, s.handleSemanticSearch)

	// Same handler as retrieve_knowledge for agents that probe by the
	// conventional name.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Search documents by meaning using vector embeddings",
	}, s.handleSemanticSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "smart_search",
		Description: "Search documents by weighted term matching across title, content, summary, and tags",
	}, s.handleSmartSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fuzzy_search",
		Description: "Search documents tolerating typos and near matches",
	}, s.handleFuzzySearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "keyword_search",
		Description: "Search documents by exact substring in title or content",
	}, s.handleKeywordSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_terms",
		Description: "Suggest query completions from document titles and tags",
	}, s.handleSuggest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "similar_queries",
		Description: "Suggest follow-up queries based on co-occurring terms",
	}, s.handleSimilarQueries)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_embeddings",
		Description: "Regenerate embeddings for some or all documents",
	}, s.handleUpdateEmbeddings)
}

func (s *Server) handleSemanticSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SemanticSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := clampResults(input.MaxResults)
	minScore := clampSimilarity(input.SimilarityThreshold)

	results := s.vector.Search(ctx, input.Query, minScore, limit)

	output := SearchOutput{Results: make([]DocumentOutput, len(results)), Count: len(results)}
	for i, r := range results {
		output.Results[i] = documentOutput(r.Document, r.Score, true)
	}
	return nil, output, nil
}

func (s *Server) handleSmartSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SmartSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.smart.Search(ctx, input.Query, clampRelevance(input.MinScore), clampResults(input.MaxResults))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(results)), Count: len(results)}
	for i, r := range results {
		output.Results[i] = documentOutput(r.Document, r.Score, true)
	}
	return nil, output, nil
}

func (s *Server) handleFuzzySearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FuzzySearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	maxDistance := input.MaxDistance
	if maxDistance <= 0 {
		maxDistance = 2
	}

	results, err := s.smart.FuzzySearch(ctx, input.Query, maxDistance, clampRelevance(input.MinScore), clampResults(input.MaxResults))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(results)), Count: len(results)}
	for i, r := range results {
		output.Results[i] = documentOutput(r.Document, r.Score, true)
	}
	return nil, output, nil
}

func (s *Server) handleKeywordSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KeywordSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	docs, err := s.kb.Documents().SearchContent(ctx, input.Query, clampResults(input.MaxResults))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i, doc := range docs {
		output.Results[i] = documentOutput(doc, 0, true)
	}
	return nil, output, nil
}

func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions, err := s.smart.Suggest(ctx, input.Partial, clampResults(input.MaxResults))
	if err != nil {
		return nil, SuggestOutput{}, err
	}
	return nil, suggestOutput(suggestions), nil
}

func (s *Server) handleSimilarQueries(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SimilarQueriesInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions, err := s.smart.SimilarQueries(ctx, input.Query, clampResults(input.MaxResults))
	if err != nil {
		return nil, SuggestOutput{}, err
	}
	return nil, suggestOutput(suggestions), nil
}

func (s *Server) handleUpdateEmbeddings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateEmbeddingsInput,
) (*mcp.CallToolResult, UpdateEmbeddingsOutput, error) {
	updated, err := s.vector.UpdateDocumentEmbeddings(ctx, input.Keys...)
	if err != nil {
		return nil, UpdateEmbeddingsOutput{}, err
	}
	return nil, UpdateEmbeddingsOutput{Updated: updated}, nil
}

func suggestOutput(suggestions []search.Suggestion) SuggestOutput {
	out := SuggestOutput{Suggestions: make([]SuggestionOutput, len(suggestions))}
	for i, s := range suggestions {
		out.Suggestions[i] = SuggestionOutput{Term: s.Term, Count: s.Count}
	}
	return out
}
