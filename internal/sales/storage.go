package sales

import (
	"context"
	"sort"
	"sync"
)

// Storage is the main interface for our sales storage layer.
// Every call is scoped to an owner.
type Storage interface {
	// Set inserts the sale or replaces the editable fields of an existing one.
	Set(ctx context.Context, sale *Sale) error
	Read(ctx context.Context, ownerID, id string) (*Sale, error)
	// List returns the owner's sales within r ordered by OccurredAt.
	List(ctx context.Context, ownerID string, r Range) ([]*Sale, error)
	Delete(ctx context.Context, ownerID, id string) error
	// ClaimUnowned assigns sales without an owner to ownerID.
	ClaimUnowned(ctx context.Context, ownerID string) (int64, error)
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Sale
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*Sale{},
	}
}

// Set stores a copy of the sale. Returns ErrEmptyID if the sale has an empty ID.
// The owner and occurrence time of an existing sale are never overwritten.
func (l *LocalStorage) Set(_ context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *sale
	if existing, ok := l.m[sale.ID]; ok {
		cp.OwnerID = existing.OwnerID
		cp.OccurredAt = existing.OccurredAt
	}
	l.m[sale.ID] = &cp
	return nil
}

// Read retrieves a sale from the local storage by ID.
// Returns ErrNotFound if the sale is not found or belongs to another owner.
func (l *LocalStorage) Read(_ context.Context, ownerID, id string) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.m[id]
	if !ok || s.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// List retrieves the owner's sales within r, oldest first.
func (l *LocalStorage) List(_ context.Context, ownerID string, r Range) ([]*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		if s.OwnerID != ownerID || !r.Includes(s.OccurredAt) {
			continue
		}
		cp := *s
		sales = append(sales, &cp)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		if sales[i].OccurredAt.Equal(sales[j].OccurredAt) {
			return sales[i].ID < sales[j].ID
		}
		return sales[i].OccurredAt.Before(sales[j].OccurredAt)
	})
	return sales, nil
}

// Delete removes a sale. Returns ErrNotFound if the owner has no such sale.
func (l *LocalStorage) Delete(_ context.Context, ownerID, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.m[id]
	if !ok || s.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(l.m, id)
	return nil
}

// ClaimUnowned assigns every sale with an empty owner to ownerID.
func (l *LocalStorage) ClaimUnowned(_ context.Context, ownerID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, s := range l.m {
		if s.OwnerID == "" {
			s.OwnerID = ownerID
			n++
		}
	}
	return n, nil
}
