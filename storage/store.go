package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/ristretto"

	"divstats/dataset"
)

// metaAttr is the reserved attribute document holding the store's own
// descriptor: the dataset kind and the declared column schema.
const metaAttr = "_meta"

// Store is a persistent divided dataset. Partition payloads and computed
// attributes live in a Backend as CBOR documents, with ristretto caches
// over the decoded forms. It satisfies the engine's descriptor surface,
// so an attribute pass runs against it exactly as it does against the
// in-memory dataset.
type Store struct {
	backend      Backend
	codec        *Codec
	kind         dataset.Kind
	columns      []dataset.ColumnSpec
	cacheEnabled bool
	partCache    *ristretto.Cache
	attrCache    *ristretto.Cache
	log          *slog.Logger
}

func newStore(backend Backend, cacheEnabled bool) (*Store, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	partCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 28,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	attrCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e3,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		backend:      backend,
		codec:        codec,
		cacheEnabled: cacheEnabled,
		partCache:    partCache,
		attrCache:    attrCache,
		log:          slog.Default(),
	}, nil
}

// CreateStore initializes a store on a fresh backend and persists its
// descriptor.
func CreateStore(backend Backend, kind dataset.Kind, columns []dataset.ColumnSpec, cacheEnabled bool) (*Store, error) {
	store, err := newStore(backend, cacheEnabled)
	if err != nil {
		return nil, err
	}
	store.kind = kind
	store.columns = columns
	buf, err := store.codec.EncodeMeta(kind, columns)
	if err != nil {
		return nil, fmt.Errorf("encode store meta: %w", err)
	}
	if err := backend.PutAttr(metaAttr, buf); err != nil {
		return nil, fmt.Errorf("write store meta: %w", err)
	}
	return store, nil
}

// OpenStore loads the descriptor of an existing store from its backend.
func OpenStore(backend Backend, cacheEnabled bool) (*Store, error) {
	store, err := newStore(backend, cacheEnabled)
	if err != nil {
		return nil, err
	}
	buf, err := backend.GetAttr(metaAttr)
	if err != nil {
		return nil, fmt.Errorf("read store meta: %w", err)
	}
	kind, columns, err := store.codec.DecodeMeta(buf)
	if err != nil {
		return nil, err
	}
	store.kind = kind
	store.columns = columns
	return store, nil
}

func (store *Store) SetLogger(log *slog.Logger) *Store {
	store.log = log
	return store
}

func (store *Store) Kind() dataset.Kind {
	return store.kind
}

func (store *Store) Columns() []dataset.ColumnSpec {
	return store.columns
}

// Deferred is always false: a store holds base data, never an unresolved
// view.
func (store *Store) Deferred() bool {
	return false
}

// PutPartition persists one partition. Callers that overwrite partitions
// of a dataset whose attributes were already computed call ClearAttrs,
// the store does not track staleness.
func (store *Store) PutPartition(p dataset.Partition) error {
	buf, err := store.codec.EncodePartition(p.Value)
	if err != nil {
		return fmt.Errorf("partition %q: %w", p.Key, err)
	}
	if err := store.backend.PutPart(string(p.Key), buf); err != nil {
		return fmt.Errorf("partition %q: %w", p.Key, err)
	}
	if store.cacheEnabled {
		store.partCache.Set(string(p.Key), p.Value, int64(len(buf)))
	}
	return nil
}

func (store *Store) GetPartition(key dataset.Key) (dataset.Partition, error) {
	if store.cacheEnabled {
		if v, found := store.partCache.Get(string(key)); found {
			return dataset.Partition{Key: key, Value: v}, nil
		}
	}
	buf, err := store.backend.GetPart(string(key))
	if err != nil {
		return dataset.Partition{}, fmt.Errorf("partition %q: %w", key, err)
	}
	v, err := store.codec.DecodePartition(buf)
	if err != nil {
		return dataset.Partition{}, fmt.Errorf("partition %q: %w", key, err)
	}
	if store.cacheEnabled {
		store.partCache.Set(string(key), v, int64(len(buf)))
	}
	return dataset.Partition{Key: key, Value: v}, nil
}

func (store *Store) DeletePartition(key dataset.Key) error {
	if store.cacheEnabled {
		store.partCache.Del(string(key))
	}
	return store.backend.DeletePart(string(key))
}

// Keys lists the stored partition keys in no guaranteed order.
func (store *Store) Keys() ([]dataset.Key, error) {
	raw, err := store.backend.PartKeys()
	if err != nil {
		return nil, err
	}
	keys := make([]dataset.Key, len(raw))
	for i, k := range raw {
		keys[i] = dataset.Key(k)
	}
	return keys, nil
}

type storeCursor struct {
	store *Store
	keys  []string
	i     int
	err   error
}

func (c *storeCursor) Next() (dataset.Partition, error) {
	if c.err != nil {
		return dataset.Partition{}, c.err
	}
	if c.i >= len(c.keys) {
		return dataset.Partition{}, io.EOF
	}
	key := c.keys[c.i]
	c.i += 1
	return c.store.GetPartition(dataset.Key(key))
}

// Cursor streams the stored partitions, decoding lazily so only one
// undecoded document is in flight per reader.
func (store *Store) Cursor() dataset.Cursor {
	keys, err := store.backend.PartKeys()
	return &storeCursor{store: store, keys: keys, err: err}
}

// Attr returns a computed attribute, decoded to the concrete type the
// attribute carries. Backend failures other than absence are logged and
// reported as absent, which at worst makes the next pass recompute.
func (store *Store) Attr(name dataset.Attr) (any, bool) {
	if store.cacheEnabled {
		if v, found := store.attrCache.Get(string(name)); found {
			return v, true
		}
	}
	buf, err := store.backend.GetAttr(string(name))
	if errors.Is(err, ErrNotFound) {
		return nil, false
	}
	if err != nil {
		store.log.Error("read attribute", "attr", name, "error", err)
		return nil, false
	}
	v, err := store.codec.DecodeAttr(name, buf)
	if err != nil {
		store.log.Error("decode attribute", "attr", name, "error", err)
		return nil, false
	}
	if store.cacheEnabled {
		store.attrCache.Set(string(name), v, int64(len(buf)))
	}
	return v, true
}

// SetAttrs persists computed attributes. Individual failures are logged
// and skipped; a skipped attribute stays absent and is recomputed by the
// next pass.
func (store *Store) SetAttrs(attrs map[dataset.Attr]any) {
	for name, v := range attrs {
		buf, err := store.codec.EncodeAttr(name, v)
		if err != nil {
			store.log.Error("encode attribute", "attr", name, "error", err)
			continue
		}
		if err := store.backend.PutAttr(string(name), buf); err != nil {
			store.log.Error("write attribute", "attr", name, "error", err)
			continue
		}
		if store.cacheEnabled {
			store.attrCache.Set(string(name), v, int64(len(buf)))
		}
	}
}

// ClearAttrs drops every computed attribute so the next pass recomputes
// them, keeping the store descriptor itself.
func (store *Store) ClearAttrs() error {
	names, err := store.backend.AttrNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == metaAttr {
			continue
		}
		if store.cacheEnabled {
			store.attrCache.Del(name)
		}
		if err := store.backend.DeleteAttr(name); err != nil {
			return fmt.Errorf("clear attribute %q: %w", name, err)
		}
	}
	return nil
}

func (store *Store) Close() error {
	store.partCache.Close()
	store.attrCache.Close()
	return store.backend.Close()
}
