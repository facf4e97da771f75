package store

import (
	"context"
	"sort"
	"sync"

	"namerecon-service/internal/reconcile/model"
	"namerecon-service/internal/reconcile/service"
)

// Memory — потокобезопасное хранилище связок и справочника в памяти.
type Memory struct {
	mu       sync.RWMutex
	mappings map[string]string // rawLabel -> masterID
	masters  []model.MasterRecord
}

func NewMemory() *Memory {
	return &Memory{mappings: make(map[string]string)}
}

func (m *Memory) Lookup(ctx context.Context, rawLabel string) (model.LearnedMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.mappings[rawLabel]
	if !ok {
		return model.LearnedMapping{}, service.ErrMappingNotFound
	}
	return model.LearnedMapping{RawLabel: rawLabel, MasterID: id}, nil
}

func (m *Memory) All(ctx context.Context) ([]model.LearnedMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.LearnedMapping, 0, len(m.mappings))
	for k, v := range m.mappings {
		out = append(out, model.LearnedMapping{RawLabel: k, MasterID: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RawLabel < out[j].RawLabel })
	return out, nil
}

func (m *Memory) Put(ctx context.Context, lm model.LearnedMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[lm.RawLabel] = lm.MasterID
	return nil
}

func (m *Memory) Delete(ctx context.Context, rawLabel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mappings[rawLabel]; !ok {
		return service.ErrMappingNotFound
	}
	delete(m.mappings, rawLabel)
	return nil
}

// Masters возвращает копию: вызывающий получает собственный снимок.
func (m *Memory) Masters(ctx context.Context) ([]model.MasterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.MasterRecord, len(m.masters))
	copy(out, m.masters)
	return out, nil
}

func (m *Memory) ReplaceMasters(ctx context.Context, masters []model.MasterRecord) error {
	cp := make([]model.MasterRecord, len(masters))
	copy(cp, masters)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.masters = cp
	return nil
}

// Close — для единообразия с SQLite.
func (m *Memory) Close() error { return nil }
