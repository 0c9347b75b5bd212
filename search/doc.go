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


// Package search provides the lexical and semantic search layers over the
// knowledge base.
//
// SmartSearcher implements lexical search: query normalization, stop-word
// filtering, morphological term expansion, weighted multi-field scoring,
// fuzzy whole-text matching, prefix suggestions, and related-query
// discovery.
//
// VectorSearcher implements semantic search over document embeddings. It
// tries a chain of similarity strategies in order, preferring the storage
// backend's native scoring and falling back to an application-side scan, and
// degrades to empty results rather than failing.
package search
