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


package embed

import (
	"context"
	"log/slog"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/ai/openai"
)

// Service produces embedding vectors for document text. It prefers the
// configured embedding model and degrades to a deterministic character-hash
// vector when the model is unavailable or fails, so callers always get a
// usable vector.
type Service struct {
	model     ai.Embedder
	dimension int
	logger    *slog.Logger
}

// ServiceOption is a functional option for configuring a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithModel injects an embedder, replacing the one built from the config.
// Primarily useful for tests.
func WithModel(model ai.Embedder) ServiceOption {
	return func(s *Service) {
		s.model = model
	}
}

// WithoutModel disables the embedding model entirely. All vectors are
// generated by the deterministic fallback.
func WithoutModel() ServiceOption {
	return func(s *Service) {
		s.model = nil
	}
}

// NewService creates an embedding service from the provided configuration.
// If the embedding model cannot be constructed the failure is logged and the
// service runs in fallback-only mode rather than returning an error.
func NewService(config *ai.Config, opts ...ServiceOption) *Service {
	if config == nil {
		config = ai.DefaultConfig()
	}
	config.Normalize()

	svc := &Service{
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "embed-service"),
	}

	model, err := openai.NewEmbedder(config)
	if err != nil {
		svc.logger.Warn("embedding model unavailable, using fallback vectors",
			"host", config.EmbeddingHost, "model", config.EmbeddingModel, "err", err)
	} else {
		svc.model = model
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Dimension returns the length of the vectors this service produces in
// fallback mode. Model-produced vectors use the model's native dimension.
func (s *Service) Dimension() int {
	return s.dimension
}

// HasModel reports whether an embedding model is configured.
func (s *Service) HasModel() bool {
	return s.model != nil
}

// Embed generates an embedding vector for the given text. It never returns
// an error: when the model is absent or fails, a deterministic fallback
// vector is produced instead.
func (s *Service) Embed(ctx context.Context, text string) []float32 {
	if s.model != nil {
		vector, err := s.model.EmbedText(ctx, text)
		if err == nil && len(vector) > 0 {
			return vector
		}
		if err != nil {
			s.logger.Warn("embedding model failed, using fallback vector", "err", err)
		}
	}
	return s.fallbackVector(text)
}

// EmbedAll generates embedding vectors for multiple texts. Model failures
// degrade the whole batch to fallback vectors.
func (s *Service) EmbedAll(ctx context.Context, texts []string) [][]float32 {
	if s.model != nil {
		vectors, err := s.model.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) == len(texts) {
			return vectors
		}
		if err != nil {
			s.logger.Warn("batch embedding failed, using fallback vectors",
				"count", len(texts), "err", err)
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = s.fallbackVector(text)
	}
	return vectors
}

// EmbedText implements ai.Embedder for components that expect one.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return s.Embed(ctx, text), nil
}

// EmbedTexts implements ai.Embedder for components that expect one.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return s.EmbedAll(ctx, texts), nil
}

// fallbackVector builds a deterministic unit vector from character codes.
// Earlier characters contribute more weight, so word order matters. Empty
// text produces the zero vector.
func (s *Service) fallbackVector(text string) []float32 {
	vector := make([]float32, s.dimension)
	if text == "" {
		return vector
	}

	for i, r := range []rune(text) {
		vector[int(r)%s.dimension] += 1.0 / float32(i+1)
	}

	Normalize(vector)
	return vector
}
