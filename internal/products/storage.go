package products

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Storage persists an owner's catalogue.
type Storage interface {
	Set(ctx context.Context, p *Product) error
	Read(ctx context.Context, ownerID, id string) (*Product, error)
	// List returns products whose name contains query, case-insensitively,
	// ordered by name. An empty query matches everything.
	List(ctx context.Context, ownerID, query string) ([]*Product, error)
	Delete(ctx context.Context, ownerID, id string) error
	ClaimUnowned(ctx context.Context, ownerID string) (int64, error)
}

// LocalStorage keeps products in memory.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Product
}

func NewLocalStorage() *LocalStorage {
	return &LocalStorage{m: map[string]*Product{}}
}

func (l *LocalStorage) Set(_ context.Context, p *Product) error {
	if p.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := clone(p)
	if existing, ok := l.m[p.ID]; ok {
		cp.OwnerID = existing.OwnerID
		cp.CreatedAt = existing.CreatedAt
	}
	l.m[p.ID] = cp
	return nil
}

func (l *LocalStorage) Read(_ context.Context, ownerID, id string) (*Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.m[id]
	if !ok || p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (l *LocalStorage) List(_ context.Context, ownerID, query string) ([]*Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]*Product, 0, len(l.m))
	for _, p := range l.m {
		if p.OwnerID != ownerID || !strings.Contains(strings.ToLower(p.Name), q) {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})
	return out, nil
}

func (l *LocalStorage) Delete(_ context.Context, ownerID, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.m[id]
	if !ok || p.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(l.m, id)
	return nil
}

func (l *LocalStorage) ClaimUnowned(_ context.Context, ownerID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, p := range l.m {
		if p.OwnerID == "" {
			p.OwnerID = ownerID
			n++
		}
	}
	return n, nil
}

func clone(p *Product) *Product {
	cp := *p
	if p.Barcode != nil {
		b := *p.Barcode
		cp.Barcode = &b
	}
	return &cp
}
