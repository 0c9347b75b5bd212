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


// Package mcp exposes the knowledge base to agents over the Model Context
// Protocol: tools for storing, linking, and searching documents and topics,
// plus read-only resources for browsing the store.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	mimir "github.com/mimir-kb/mimir"
	"github.com/mimir-kb/mimir/search"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Result and similarity clamps applied to tool inputs.
const (
	minResults = 1
	maxResults = 20

	minSimilarity = 0.1
	maxSimilarity = 0.9
)

// Server is the MCP server for a Mimir knowledge base.
type Server struct {
	kb     *mimir.KnowledgeBase
	smart  *search.SmartSearcher
	vector *search.VectorSearcher
	server *mcp.Server
	logger *slog.Logger
}

// NewServer creates a new MCP server over the given knowledge base.
func NewServer(kb *mimir.KnowledgeBase, name string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = "mimir"
	}

	smart, err := kb.NewSmartSearcher(search.WithSmartLogger(logger))
	if err != nil {
		return nil, err
	}
	vector, err := kb.NewVectorSearcher(search.WithVectorLogger(logger))
	if err != nil {
		return nil, err
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: Version,
	}

	s := &Server{
		kb:     kb,
		smart:  smart,
		vector: vector,
		server: mcp.NewServer(impl, nil),
		logger: logger,
	}

	s.registerDocumentTools()
	s.registerSearchTools()
	s.registerTopicTools()
	s.registerTagTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.logger.Info("mcp server listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// clampResults bounds a requested result count to [minResults, maxResults].
func clampResults(n int) int {
	if n < minResults {
		return 10
	}
	if n > maxResults {
		return maxResults
	}
	return n
}

// clampSimilarity bounds a similarity threshold to [minSimilarity, maxSimilarity].
func clampSimilarity(v float64) float64 {
	if v == 0 {
		return 0.7
	}
	if v < minSimilarity {
		return minSimilarity
	}
	if v > maxSimilarity {
		return maxSimilarity
	}
	return v
}

// clampRelevance bounds a lexical relevance floor to the same range, with
// the lower default suited to term-match scores.
func clampRelevance(v float64) float64 {
	if v == 0 {
		return 0.3
	}
	if v < minSimilarity {
		return minSimilarity
	}
	if v > maxSimilarity {
		return maxSimilarity
	}
	return v
}
