package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store for tests and ephemeral use.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: map[string]memoryObject{}}
}

// Driver returns DriverMemory.
func (m *Memory) Driver() Driver { return DriverMemory }

// Put stores or replaces the object under key.
func (m *Memory) Put(ctx context.Context, key string, data []byte) (Info, error) {
	if err := validKey(key); err != nil {
		return Info{}, err
	}
	obj := memoryObject{data: append([]byte(nil), data...), modified: time.Now().UTC()}
	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()
	return Info{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

// Get returns a copy of the object's bytes.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

// Delete removes the object, reporting whether it existed.
func (m *Memory) Delete(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	m.mu.Lock()
	_, ok := m.objects[key]
	delete(m.objects, key)
	m.mu.Unlock()
	return ok, nil
}

// List returns the objects under prefix sorted by key.
func (m *Memory) List(ctx context.Context, prefix string) ([]Info, error) {
	if err := validPrefix(prefix); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var infos []Info
	for key, obj := range m.objects {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			infos = append(infos, Info{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	m.mu.RUnlock()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
