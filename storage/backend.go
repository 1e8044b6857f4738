package storage

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when no document exists under a key.
var ErrNotFound = errors.New("storage: not found")

const (
	partPrefix = byte('p')
	attrPrefix = byte('a')
)

// PartKey builds the raw storage key of a partition document.
func PartKey(key string) []byte {
	buf := make([]byte, 0, len(key)+1)
	buf = append(buf, partPrefix)
	return append(buf, key...)
}

// AttrKey builds the raw storage key of an attribute document.
func AttrKey(name string) []byte {
	buf := make([]byte, 0, len(name)+1)
	buf = append(buf, attrPrefix)
	return append(buf, name...)
}

// NameFromKey strips the prefix byte off a raw storage key.
func NameFromKey(buf []byte) string {
	return string(buf[1:])
}

// Backend persists the partition payloads and attribute documents of
// one divided dataset as raw bytes. Implementations must be safe for
// concurrent use.
type Backend interface {
	GetPart(key string) ([]byte, error)
	PutPart(key string, buf []byte) error
	DeletePart(key string) error
	PartKeys() ([]string, error)

	GetAttr(name string) ([]byte, error)
	PutAttr(name string, buf []byte) error
	DeleteAttr(name string) error
	AttrNames() ([]string, error)

	Close() error
}

type InMemoryBackend struct {
	partMap      map[string][]byte
	attrMap      map[string][]byte
	partMapMutex sync.Mutex
	attrMapMutex sync.Mutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		partMap: make(map[string][]byte),
		attrMap: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) GetPart(key string) ([]byte, error) {
	backend.partMapMutex.Lock()
	defer backend.partMapMutex.Unlock()
	buf, ok := backend.partMap[key]
	if !ok {
		return nil, ErrNotFound
	}
	return buf, nil
}

func (backend *InMemoryBackend) PutPart(key string, buf []byte) error {
	backend.partMapMutex.Lock()
	defer backend.partMapMutex.Unlock()
	backend.partMap[key] = buf
	return nil
}

func (backend *InMemoryBackend) DeletePart(key string) error {
	backend.partMapMutex.Lock()
	defer backend.partMapMutex.Unlock()
	delete(backend.partMap, key)
	return nil
}

func (backend *InMemoryBackend) PartKeys() ([]string, error) {
	backend.partMapMutex.Lock()
	defer backend.partMapMutex.Unlock()
	keys := make([]string, 0, len(backend.partMap))
	for key := range backend.partMap {
		keys = append(keys, key)
	}
	return keys, nil
}

func (backend *InMemoryBackend) GetAttr(name string) ([]byte, error) {
	backend.attrMapMutex.Lock()
	defer backend.attrMapMutex.Unlock()
	buf, ok := backend.attrMap[name]
	if !ok {
		return nil, ErrNotFound
	}
	return buf, nil
}

func (backend *InMemoryBackend) PutAttr(name string, buf []byte) error {
	backend.attrMapMutex.Lock()
	defer backend.attrMapMutex.Unlock()
	backend.attrMap[name] = buf
	return nil
}

func (backend *InMemoryBackend) DeleteAttr(name string) error {
	backend.attrMapMutex.Lock()
	defer backend.attrMapMutex.Unlock()
	delete(backend.attrMap, name)
	return nil
}

func (backend *InMemoryBackend) AttrNames() ([]string, error) {
	backend.attrMapMutex.Lock()
	defer backend.attrMapMutex.Unlock()
	names := make([]string, 0, len(backend.attrMap))
	for name := range backend.attrMap {
		names = append(names, name)
	}
	return names, nil
}

func (backend *InMemoryBackend) Close() error {
	backend.partMap = nil
	backend.attrMap = nil
	return nil
}
