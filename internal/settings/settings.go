package settings

import (
	"errors"
	"sync"
)

// Settings are the user-configurable sending defaults. The dispatcher reads
// them at send time, never earlier.
type Settings struct {
	TimeGap        int  `json:"timeGap"` // seconds between messages
	RandomizeOrder bool `json:"randomizeOrder"`
}

// Patch carries a partial update; nil fields keep their current value.
type Patch struct {
	TimeGap        *int  `json:"timeGap"`
	RandomizeOrder *bool `json:"randomizeOrder"`
}

var ErrNegativeTimeGap = errors.New("time gap must be zero or more seconds")

// Store holds the single mutable settings instance for the session.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update merges the patch into the current settings.
func (s *Store) Update(p Patch) (Settings, error) {
	if p.TimeGap != nil && *p.TimeGap < 0 {
		return s.Get(), ErrNegativeTimeGap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.TimeGap != nil {
		s.settings.TimeGap = *p.TimeGap
	}
	if p.RandomizeOrder != nil {
		s.settings.RandomizeOrder = *p.RandomizeOrder
	}
	return s.settings, nil
}

func (s *Store) Reset(defaults Settings) {
	s.mu.Lock()
	s.settings = defaults
	s.mu.Unlock()
}
