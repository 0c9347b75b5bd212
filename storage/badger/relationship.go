package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mimir-kb/mimir/core"
	"github.com/mimir-kb/mimir/storage"
)

// RelationshipRepository implements storage.RelationshipRepository for BadgerDB.
type RelationshipRepository struct {
	backend *Backend
}

var _ storage.RelationshipRepository = (*RelationshipRepository)(nil)

// NewRelationshipRepository creates a new RelationshipRepository.
func NewRelationshipRepository(backend *Backend) (*RelationshipRepository, error) {
	return &RelationshipRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is closed separately.
func (r *RelationshipRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *RelationshipRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRelationship stores a relationship and returns its key.
// The content-addressed key makes linking the same pair idempotent: the
// stored record is simply overwritten with the fresh strength and flags.
func (r *RelationshipRepository) AddRelationship(ctx context.Context, rel *core.Relationship) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if rel.Key == "" {
			rel.Key = core.KeyFromContent(rel.From + "|" + rel.To + "|" + rel.Type)
		}
		if rel.Created.IsZero() {
			rel.Created = time.Now().UTC()
		}

		if err := tx.Set(makeRelationshipKey(rel.Key), storage.MarshalRelationship(rel)); err != nil {
			return err
		}

		// Endpoint indexes
		fromKey := makeRelationEndpointKey(relationFromPrefix, rel.From, rel.Key)
		if err := tx.Set(fromKey, []byte(rel.Key)); err != nil {
			return err
		}
		toKey := makeRelationEndpointKey(relationToPrefix, rel.To, rel.Key)
		if err := tx.Set(toKey, []byte(rel.Key)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return rel.Key, err
}

// DeleteRelationship removes a relationship and its endpoint index entries.
func (r *RelationshipRepository) DeleteRelationship(ctx context.Context, key string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		rel, err := readRelationship(tx, makeRelationshipKey(key))
		if err != nil {
			return err
		}
		if rel == nil {
			return storage.ErrNotFound
		}

		if err := deleteRelationship(tx, rel); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteRelationshipsFor removes every relationship touching the given
// qualified reference, in either direction.
func (r *RelationshipRepository) DeleteRelationshipsFor(ctx context.Context, ref string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		keys := make(map[string]bool)
		for _, prefix := range []string{relationFromPrefix, relationToPrefix} {
			relKeys, err := scanEndpointIndex(tx, prefix, ref)
			if err != nil {
				return err
			}
			for _, k := range relKeys {
				keys[k] = true
			}
		}

		for key := range keys {
			rel, err := readRelationship(tx, makeRelationshipKey(key))
			if err != nil {
				return err
			}
			if rel == nil {
				continue
			}
			if err := deleteRelationship(tx, rel); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RelationshipsFrom retrieves relationships originating at the reference.
func (r *RelationshipRepository) RelationshipsFrom(ctx context.Context, ref string, relType string) ([]*core.Relationship, error) {
	return r.relationshipsAt(relationFromPrefix, ref, relType)
}

// RelationshipsTo retrieves relationships pointing at the reference.
func (r *RelationshipRepository) RelationshipsTo(ctx context.Context, ref string, relType string) ([]*core.Relationship, error) {
	return r.relationshipsAt(relationToPrefix, ref, relType)
}

func (r *RelationshipRepository) relationshipsAt(prefix, ref, relType string) ([]*core.Relationship, error) {
	var results []*core.Relationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		relKeys, err := scanEndpointIndex(tx, prefix, ref)
		if err != nil {
			return err
		}
		for _, key := range relKeys {
			rel, err := readRelationship(tx, makeRelationshipKey(key))
			if err != nil {
				return err
			}
			if rel == nil {
				continue
			}
			if relType != "" && rel.Type != relType {
				continue
			}
			results = append(results, rel)
		}
		return nil
	}, false)
	return results, err
}

// Helper functions

// scanEndpointIndex collects relationship keys from an endpoint index.
func scanEndpointIndex(tx *badger.Txn, prefix, ref string) ([]string, error) {
	var keys []string
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialRelationEndpointKey(prefix, ref)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var key string
		if err := iter.Item().Value(func(val []byte) error {
			key = string(val)
			return nil
		}); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// deleteRelationship removes a relationship record and its index entries.
func deleteRelationship(tx *badger.Txn, rel *core.Relationship) error {
	if err := tx.Delete(makeRelationEndpointKey(relationFromPrefix, rel.From, rel.Key)); err != nil {
		return err
	}
	if err := tx.Delete(makeRelationEndpointKey(relationToPrefix, rel.To, rel.Key)); err != nil {
		return err
	}
	return tx.Delete(makeRelationshipKey(rel.Key))
}

// readRelationship reads a relationship from the transaction.
// Returns nil, nil when the key does not exist.
func readRelationship(tx *badger.Txn, key []byte) (*core.Relationship, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var rel *core.Relationship
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		rel, unmarshalErr = storage.UnmarshalRelationship(val)
		return unmarshalErr
	})
	return rel, err
}
