package printing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// LabelWidth is the paper width of the label printer.
type LabelWidth string

const (
	LabelWidth58 LabelWidth = "58mm"
	LabelWidth80 LabelWidth = "80mm"
)

// DefaultStoreName is printed when no store name is configured.
const DefaultStoreName = "LUCCA CELL"

var (
	// ErrInvalidLabelWidth is returned for widths other than 58mm and 80mm.
	ErrInvalidLabelWidth = errors.New("label width must be 58mm or 80mm")
	// ErrNoSettings is returned by a SettingsStore with nothing saved.
	ErrNoSettings = errors.New("no printer settings saved")
)

// Valid reports whether w is a supported width.
func (w LabelWidth) Valid() bool {
	return w == LabelWidth58 || w == LabelWidth80
}

// PrinterSettings configures label printing.
type PrinterSettings struct {
	LabelWidth LabelWidth `json:"label_width"`
	AutoPrint  bool       `json:"auto_print"`
	StoreName  string     `json:"store_name"`
}

// DefaultSettings returns the settings used before anything is saved.
func DefaultSettings(storeName string) PrinterSettings {
	if strings.TrimSpace(storeName) == "" {
		storeName = DefaultStoreName
	}
	return PrinterSettings{LabelWidth: LabelWidth58, StoreName: storeName}
}

// SettingsPatch is a partial update; nil fields are kept.
type SettingsPatch struct {
	LabelWidth *LabelWidth `json:"label_width"`
	AutoPrint  *bool       `json:"auto_print"`
	StoreName  *string     `json:"store_name"`
}

// SettingsStore persists the encoded settings of each owner.
type SettingsStore interface {
	// Load returns ErrNoSettings when the owner has saved nothing.
	Load(ctx context.Context, ownerID string) ([]byte, error)
	Save(ctx context.Context, ownerID string, data []byte) error
}

// MemorySettingsStore keeps settings in memory.
type MemorySettingsStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{m: map[string][]byte{}}
}

func (s *MemorySettingsStore) Load(_ context.Context, ownerID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.m[ownerID]
	if !ok {
		return nil, ErrNoSettings
	}
	return append([]byte(nil), data...), nil
}

func (s *MemorySettingsStore) Save(_ context.Context, ownerID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[ownerID] = append([]byte(nil), data...)
	return nil
}

// SettingsService loads and saves printer settings. Stored values are
// merged over the defaults, so fields missing from older saves keep
// their default.
type SettingsService struct {
	store    SettingsStore
	defaults PrinterSettings
	logger   *zap.Logger
}

func NewSettingsService(store SettingsStore, defaults PrinterSettings, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, defaults: defaults, logger: logger}
}

// Get returns the owner's settings.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (PrinterSettings, error) {
	settings := s.defaults
	data, err := s.store.Load(ctx, ownerID)
	if errors.Is(err, ErrNoSettings) {
		return settings, nil
	}
	if err != nil {
		return PrinterSettings{}, fmt.Errorf("failed to load printer settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("discarding unreadable printer settings", zap.String("owner_id", ownerID), zap.Error(err))
		return s.defaults, nil
	}
	if !settings.LabelWidth.Valid() {
		settings.LabelWidth = s.defaults.LabelWidth
	}
	return settings, nil
}

// Update merges patch over the current settings and saves the result.
func (s *SettingsService) Update(ctx context.Context, ownerID string, patch SettingsPatch) (PrinterSettings, error) {
	settings, err := s.Get(ctx, ownerID)
	if err != nil {
		return PrinterSettings{}, err
	}

	if patch.LabelWidth != nil {
		if !patch.LabelWidth.Valid() {
			return PrinterSettings{}, ErrInvalidLabelWidth
		}
		settings.LabelWidth = *patch.LabelWidth
	}
	if patch.AutoPrint != nil {
		settings.AutoPrint = *patch.AutoPrint
	}
	if patch.StoreName != nil {
		settings.StoreName = strings.TrimSpace(*patch.StoreName)
		if settings.StoreName == "" {
			settings.StoreName = s.defaults.StoreName
		}
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return PrinterSettings{}, fmt.Errorf("failed to encode printer settings: %w", err)
	}
	if err := s.store.Save(ctx, ownerID, data); err != nil {
		return PrinterSettings{}, fmt.Errorf("failed to save printer settings: %w", err)
	}

	s.logger.Info("printer settings saved",
		zap.String("owner_id", ownerID),
		zap.String("label_width", string(settings.LabelWidth)),
		zap.Bool("auto_print", settings.AutoPrint),
	)
	return settings, nil
}
