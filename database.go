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


package mimir

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mimir-kb/mimir/ai"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/embed"
	"github.com/mimir-kb/mimir/ingestion"
	"github.com/mimir-kb/mimir/reembed"
	"github.com/mimir-kb/mimir/search"
	"github.com/mimir-kb/mimir/storage"
	"github.com/mimir-kb/mimir/storage/badger"
)

// ErrTopicHasDocuments is returned when deleting a topic that still has
// documents linked to it.
var ErrTopicHasDocuments = errors.New("topic has linked documents")

// KnowledgeBase is the root handle to a Mimir store. It wires the badger
// backend, the entity repositories, and the embedding service together and
// exposes the high-level document and topic operations.
type KnowledgeBase struct {
	backend    *badger.Backend
	docs       storage.DocumentRepository
	topics     storage.TopicRepository
	rels       storage.RelationshipRepository
	embeddings *embed.Service
	logger     *slog.Logger
}

// Option configures a KnowledgeBase.
type Option func(*options)

type options struct {
	inMemory   bool
	aiConfig   *ai.Config
	embeddings *embed.Service
	logger     *slog.Logger
}

// WithInMemory opens the store in memory, without touching disk.
// Intended for tests and experimentation.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithEmbeddingService injects a pre-built embedding service, bypassing
// construction from the AI config.
func WithEmbeddingService(svc *embed.Service) Option {
	return func(o *options) {
		o.embeddings = svc
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// Open opens (or creates) a knowledge base at the given path.
func Open(filePath string, opts ...Option) (*KnowledgeBase, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	backend, err := badger.OpenBackend(filePath, o.inMemory)
	if err != nil {
		return nil, err
	}

	docs, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	topics, err := badger.NewTopicRepository(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, err
	}

	rels, err := badger.NewRelationshipRepository(backend)
	if err != nil {
		topics.Close()
		docs.Close()
		backend.Close()
		return nil, err
	}

	embeddings := o.embeddings
	if embeddings == nil {
		embeddings = embed.NewService(o.aiConfig, embed.WithLogger(o.logger))
	}

	return &KnowledgeBase{
		backend:    backend,
		docs:       docs,
		topics:     topics,
		rels:       rels,
		embeddings: embeddings,
		logger:     o.logger,
	}, nil
}

// Close releases the repositories and the underlying store.
func (kb *KnowledgeBase) Close() error {
	if err := kb.rels.Close(); err != nil {
		kb.logger.Error("error closing relationship repository", "err", err)
		return err
	}
	if err := kb.topics.Close(); err != nil {
		kb.logger.Error("error closing topic repository", "err", err)
		return err
	}
	if err := kb.docs.Close(); err != nil {
		kb.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := kb.backend.Close(); err != nil {
		kb.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (kb *KnowledgeBase) Documents() storage.DocumentRepository {
	return kb.docs
}

func (kb *KnowledgeBase) Topics() storage.TopicRepository {
	return kb.topics
}

func (kb *KnowledgeBase) Relationships() storage.RelationshipRepository {
	return kb.rels
}

func (kb *KnowledgeBase) Embeddings() *embed.Service {
	return kb.embeddings
}

// NewSmartSearcher creates a lexical searcher over this knowledge base.
func (kb *KnowledgeBase) NewSmartSearcher(opts ...search.SmartOption) (*search.SmartSearcher, error) {
	return search.NewSmartSearcher(kb.docs, opts...)
}

// NewVectorSearcher creates a semantic searcher over this knowledge base.
func (kb *KnowledgeBase) NewVectorSearcher(opts ...search.VectorOption) (*search.VectorSearcher, error) {
	return search.NewVectorSearcher(kb.docs, kb.embeddings, opts...)
}

// NewReembedder creates a batch reembedder for this knowledge base.
// progress: where to write progress output (typically os.Stderr)
func (kb *KnowledgeBase) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(kb.docs, kb.embeddings, config, progress)
}

// NewIngestPipeline creates a bulk ingestion pipeline for this knowledge base.
func (kb *KnowledgeBase) NewIngestPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(kb.docs, kb.embeddings, opts...)
}

// StoreDocument validates and stores a new document, generating its
// embedding from the title, summary, and content.
func (kb *KnowledgeBase) StoreDocument(ctx context.Context, doc *core.Document) (string, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return "", err
	}

	key, err := kb.docs.AddDocument(ctx, doc)
	if err != nil {
		return "", err
	}

	vector := kb.embeddings.Embed(ctx, doc.EmbeddingText())
	if err := kb.docs.UpdateEmbedding(ctx, key, vector); err != nil {
		kb.logger.Warn("document stored without embedding", "key", key, "err", err)
	}

	return key, nil
}

// UpdateDocument validates and replaces an existing document, regenerating
// its embedding from the updated text.
func (kb *KnowledgeBase) UpdateDocument(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}

	if err := kb.docs.UpdateDocument(ctx, doc); err != nil {
		return err
	}

	vector := kb.embeddings.Embed(ctx, doc.EmbeddingText())
	if err := kb.docs.UpdateEmbedding(ctx, doc.Key, vector); err != nil {
		kb.logger.Warn("document updated without fresh embedding", "key", doc.Key, "err", err)
	}
	return nil
}

// GetDocument retrieves a document by key.
func (kb *KnowledgeBase) GetDocument(ctx context.Context, key string) (*core.Document, error) {
	return kb.docs.GetDocument(ctx, key)
}

// DeleteDocument removes a document together with every relationship that
// points to or from it.
func (kb *KnowledgeBase) DeleteDocument(ctx context.Context, key string) error {
	if err := kb.docs.DeleteDocument(ctx, key); err != nil {
		return err
	}
	return kb.rels.DeleteRelationshipsFor(ctx, core.DocumentRef(key))
}

// LinkDocumentToTopic files a document under a topic.
func (kb *KnowledgeBase) LinkDocumentToTopic(ctx context.Context, docKey, topicKey string) error {
	if _, err := kb.docs.GetDocument(ctx, docKey); err != nil {
		return err
	}
	if _, err := kb.topics.GetTopic(ctx, topicKey); err != nil {
		return err
	}

	_, err := kb.rels.AddRelationship(ctx, &core.Relationship{
		From:     core.DocumentRef(docKey),
		To:       core.TopicRef(topicKey),
		Type:     core.RelTypeBelongsTo,
		Strength: 1.0,
	})
	return err
}

// LinkRelatedDocuments connects two documents with a typed relationship.
func (kb *KnowledgeBase) LinkRelatedDocuments(ctx context.Context, fromKey, toKey, relType string, strength float64, bidirectional bool) error {
	if _, err := kb.docs.GetDocument(ctx, fromKey); err != nil {
		return err
	}
	if _, err := kb.docs.GetDocument(ctx, toKey); err != nil {
		return err
	}
	if relType == "" {
		relType = core.RelTypeRelated
	}

	rel := &core.Relationship{
		From:          core.DocumentRef(fromKey),
		To:            core.DocumentRef(toKey),
		Type:          relType,
		Strength:      strength,
		Bidirectional: bidirectional,
	}
	if err := core.ValidateRelationship(rel); err != nil {
		return err
	}

	_, err := kb.rels.AddRelationship(ctx, rel)
	return err
}

// DocumentsByTopic returns the documents filed under a topic.
func (kb *KnowledgeBase) DocumentsByTopic(ctx context.Context, topicKey string) ([]*core.Document, error) {
	rels, err := kb.rels.RelationshipsTo(ctx, core.TopicRef(topicKey), core.RelTypeBelongsTo)
	if err != nil {
		return nil, err
	}

	docs := make([]*core.Document, 0, len(rels))
	for _, rel := range rels {
		doc, err := kb.docs.GetDocument(ctx, core.RefKey(rel.From))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// RelatedDocuments returns documents connected to the given one: targets of
// its outgoing relationships plus sources of incoming bidirectional ones.
func (kb *KnowledgeBase) RelatedDocuments(ctx context.Context, docKey string) ([]*core.Document, error) {
	ref := core.DocumentRef(docKey)

	outgoing, err := kb.rels.RelationshipsFrom(ctx, ref, "")
	if err != nil {
		return nil, err
	}
	incoming, err := kb.rels.RelationshipsTo(ctx, ref, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	docs := make([]*core.Document, 0, len(outgoing)+len(incoming))

	collect := func(otherRef string) error {
		if core.IsTopicRef(otherRef) {
			return nil
		}
		key := core.RefKey(otherRef)
		if seen[key] {
			return nil
		}
		seen[key] = true

		doc, err := kb.docs.GetDocument(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	}

	for _, rel := range outgoing {
		if err := collect(rel.To); err != nil {
			return nil, err
		}
	}
	for _, rel := range incoming {
		if !rel.Bidirectional {
			continue
		}
		if err := collect(rel.From); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// CreateTopic validates and stores a new topic.
func (kb *KnowledgeBase) CreateTopic(ctx context.Context, topic *core.Topic) (string, error) {
	if err := core.ValidateTopic(topic); err != nil {
		return "", err
	}
	return kb.topics.AddTopic(ctx, topic)
}

// UpdateTopic validates and replaces an existing topic.
func (kb *KnowledgeBase) UpdateTopic(ctx context.Context, topic *core.Topic) error {
	if err := core.ValidateTopic(topic); err != nil {
		return err
	}
	return kb.topics.UpdateTopic(ctx, topic)
}

// GetTopic retrieves a topic by key.
func (kb *KnowledgeBase) GetTopic(ctx context.Context, key string) (*core.Topic, error) {
	return kb.topics.GetTopic(ctx, key)
}

// ListTopics returns all topics, sorted by name.
func (kb *KnowledgeBase) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	return kb.topics.ListTopics(ctx)
}

// DeleteTopic removes a topic. Topics with documents still filed under them
// cannot be deleted.
func (kb *KnowledgeBase) DeleteTopic(ctx context.Context, key string) error {
	linked, err := kb.rels.RelationshipsTo(ctx, core.TopicRef(key), core.RelTypeBelongsTo)
	if err != nil {
		return err
	}
	if len(linked) > 0 {
		return ErrTopicHasDocuments
	}

	if err := kb.topics.DeleteTopic(ctx, key); err != nil {
		return err
	}
	return kb.rels.DeleteRelationshipsFor(ctx, core.TopicRef(key))
}

// TopicHierarchy assembles the topic tree from parent links. Topics whose
// parent is missing are treated as roots. Roots and children keep the
// name-sorted order of ListTopics.
func (kb *KnowledgeBase) TopicHierarchy(ctx context.Context) ([]*core.TopicNode, error) {
	topics, err := kb.topics.ListTopics(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*core.TopicNode, len(topics))
	for _, topic := range topics {
		nodes[topic.Key] = &core.TopicNode{Topic: topic}
	}

	roots := make([]*core.TopicNode, 0)
	for _, topic := range topics {
		node := nodes[topic.Key]
		if topic.ParentTopic == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[topic.ParentTopic]
		if !ok || topic.ParentTopic == topic.Key {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

// TagCounts returns tag usage across all documents, most used first.
func (kb *KnowledgeBase) TagCounts(ctx context.Context) ([]core.TagCount, error) {
	return kb.docs.TagCounts(ctx)
}

// DocumentsByTag returns the documents carrying the given tag.
func (kb *KnowledgeBase) DocumentsByTag(ctx context.Context, tag string) ([]*core.Document, error) {
	return kb.docs.DocumentsByTag(ctx, tag)
}
