package treestore

import "sync"

// memoryPreferences is the default Preferences; nothing survives the process.
type memoryPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryPreferences() *memoryPreferences {
	return &memoryPreferences{values: make(map[string]string)}
}

func (p *memoryPreferences) Get(key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *memoryPreferences) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

func (p *memoryPreferences) Remove(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}
