package internal

import "sync"

type tagWrite struct {
	Path, Tag, Value string
}

// memTagStore is an in-memory TagStore keyed by path.
type memTagStore struct {
	mu       sync.Mutex
	tags     map[string]map[string]string
	writes   []tagWrite
	reads    int
	readOnly bool
}

func newMemTagStore() *memTagStore {
	return &memTagStore{tags: make(map[string]map[string]string)}
}

func (m *memTagStore) set(path, tag, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tags[path] == nil {
		m.tags[path] = make(map[string]string)
	}
	m.tags[path][tag] = value
}

func (m *memTagStore) GetTag(path, tag string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	v, ok := m.tags[path][tag]
	return v, ok && v != ""
}

func (m *memTagStore) SetTag(path, tag, value string) bool {
	if m.readOnly {
		return false
	}
	m.set(path, tag, value)
	m.mu.Lock()
	m.writes = append(m.writes, tagWrite{Path: path, Tag: tag, Value: value})
	m.mu.Unlock()
	return true
}

func (m *memTagStore) Close() error {
	return nil
}
