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


// Package ai provides abstractions for the embedding services used by Mimir.
//
// This package defines the Embedder interface together with the provider
// configuration. It follows the dependency inversion principle, allowing the
// search and embedding layers to depend on abstractions rather than concrete
// implementations.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewEmbedder) return the INTERFACE type to
// enforce abstraction. Test utility constructors (mock.NewMockEmbedder)
// return CONCRETE types to enable test assertions and behavior injection
// via the mock's function fields.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("all-minilm"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "Hello world")
package ai
