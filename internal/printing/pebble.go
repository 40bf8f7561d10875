package printing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

const settingsKeyPrefix = "printer-settings/"

// PebbleSettingsStore persists printer settings in a local Pebble database.
type PebbleSettingsStore struct {
	db *pebble.DB
}

// OpenPebbleSettingsStore opens or creates the database in dir.
func OpenPebbleSettingsStore(dir string) (*PebbleSettingsStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleSettingsStore{db: db}, nil
}

func (p *PebbleSettingsStore) Close() error { return p.db.Close() }

func (p *PebbleSettingsStore) Load(_ context.Context, ownerID string) ([]byte, error) {
	v, closer, err := p.db.Get(settingsKey(ownerID))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNoSettings
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *PebbleSettingsStore) Save(_ context.Context, ownerID string, data []byte) error {
	if err := p.db.Set(settingsKey(ownerID), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

func settingsKey(ownerID string) []byte {
	return []byte(settingsKeyPrefix + ownerID)
}
