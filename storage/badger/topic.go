package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

// TopicRepository implements storage.TopicRepository for BadgerDB.
type TopicRepository struct {
	backend *Backend
}

var _ storage.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(backend *Backend) (*TopicRepository, error) {
	return &TopicRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is closed separately.
func (r *TopicRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *TopicRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTopic stores a new topic and returns its key.
func (r *TopicRepository) AddTopic(ctx context.Context, topic *core.Topic) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if topic.Key == "" {
			topic.Key = core.KeyFromContent(topic.Name)
		}

		key := makeTopicKey(topic.Key)
		existing, err := readTopic(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		if topic.Created.IsZero() {
			topic.Created = time.Now().UTC()
		}

		if err := tx.Set(key, storage.MarshalTopic(topic)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return topic.Key, err
}

// GetTopic retrieves a topic by key.
func (r *TopicRepository) GetTopic(ctx context.Context, key string) (*core.Topic, error) {
	var result *core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readTopic(tx, makeTopicKey(key))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// UpdateTopic replaces an existing topic.
func (r *TopicRepository) UpdateTopic(ctx context.Context, topic *core.Topic) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTopicKey(topic.Key)

		old, err := readTopic(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if topic.Created.IsZero() {
			topic.Created = old.Created
		}

		if err := tx.Set(key, storage.MarshalTopic(topic)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteTopic removes a topic.
func (r *TopicRepository) DeleteTopic(ctx context.Context, key string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		recordKey := makeTopicKey(key)

		topic, err := readTopic(tx, recordKey)
		if err != nil {
			return err
		}
		if topic == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(recordKey); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListTopics retrieves every topic, ordered by name ascending.
func (r *TopicRepository) ListTopics(ctx context.Context) ([]*core.Topic, error) {
	var results []*core.Topic
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(topicRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var topic *core.Topic
			err := iter.Item().Value(func(val []byte) error {
				var err error
				topic, err = storage.UnmarshalTopic(val)
				return err
			})
			if err != nil {
				return err
			}
			if topic != nil {
				results = append(results, topic)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Topic) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// readTopic reads a topic from the transaction.
// Returns nil, nil when the key does not exist.
func readTopic(tx *badger.Txn, key []byte) (*core.Topic, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var topic *core.Topic
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		topic, unmarshalErr = storage.UnmarshalTopic(val)
		return unmarshalErr
	})
	return topic, err
}
