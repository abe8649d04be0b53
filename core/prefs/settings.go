package prefs

import (
	"fmt"
	"sync"

	"Zenith/localstore"
	"Zenith/logger"
)

type ThemeMode string

const (
	ThemeDark   ThemeMode = "dark"
	ThemeLight  ThemeMode = "light"
	ThemeSystem ThemeMode = "system"
)

type AccentColor string

// Palette is the set of shades an accent color expands to.
type Palette struct {
	Primary string
	Light   string
	Dark    string
}

// AccentColors 强调色
var AccentColors = map[AccentColor]Palette{
	"emerald": {Primary: "#10b981", Light: "#34d399", Dark: "#059669"},
	"purple":  {Primary: "#8b5cf6", Light: "#a78bfa", Dark: "#7c3aed"},
	"blue":    {Primary: "#3b82f6", Light: "#60a5fa", Dark: "#2563eb"},
	"pink":    {Primary: "#ec4899", Light: "#f472b6", Dark: "#db2777"},
	"orange":  {Primary: "#f97316", Light: "#fb923c", Dark: "#ea580c"},
}

// Settings are the listener's preferences.
type Settings struct {
	Theme       ThemeMode   `json:"theme"`
	AccentColor AccentColor `json:"accentColor"`

	CrossfadeEnabled  bool `json:"crossfadeEnabled"`
	CrossfadeDuration int  `json:"crossfadeDuration"` // seconds
	NormalizeVolume   bool `json:"normalizeVolume"`
	GaplessPlayback   bool `json:"gaplessPlayback"`

	ShowLyrics     bool `json:"showLyrics"`
	AutoPlay       bool `json:"autoPlay"`
	ShowNowPlaying bool `json:"showNowPlaying"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		Theme:             ThemeDark,
		AccentColor:       "emerald",
		CrossfadeDuration: 3,
		GaplessPlayback:   true,
		ShowLyrics:        true,
		ShowNowPlaying:    true,
	}
}

// normalize replaces out-of-range values with their defaults.
func (s Settings) normalize() Settings {
	def := Defaults()
	switch s.Theme {
	case ThemeDark, ThemeLight, ThemeSystem:
	default:
		s.Theme = def.Theme
	}
	if _, ok := AccentColors[s.AccentColor]; !ok {
		s.AccentColor = def.AccentColor
	}
	if s.CrossfadeDuration < 1 || s.CrossfadeDuration > 12 {
		s.CrossfadeDuration = def.CrossfadeDuration
	}
	return s
}

// Store is where settings are kept between runs.
type Store interface {
	GetJSON(key string, v interface{}) bool
	PutJSON(key string, v interface{}) error
}

// Prefs holds the current settings and saves every change.
type Prefs struct {
	mu       sync.RWMutex
	store    Store
	settings Settings
}

// Load reads the stored settings merged over the defaults.
// A nil store keeps settings in memory only.
func Load(store Store) *Prefs {
	p := &Prefs{store: store, settings: Defaults()}
	if store == nil {
		return p
	}
	stored := Defaults()
	if store.GetJSON(localstore.SettingsKey, &stored) {
		p.settings = stored.normalize()
	}
	return p
}

// Get returns a copy of the settings.
func (p *Prefs) Get() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Update applies fn and persists the result.
func (p *Prefs) Update(fn func(*Settings)) error {
	p.mu.Lock()
	next := p.settings
	fn(&next)
	next = next.normalize()
	p.settings = next
	p.mu.Unlock()
	return p.save(next)
}

// Reset restores the defaults.
func (p *Prefs) Reset() error {
	p.mu.Lock()
	p.settings = Defaults()
	p.mu.Unlock()
	return p.save(Defaults())
}

func (p *Prefs) save(s Settings) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.PutJSON(localstore.SettingsKey, s); err != nil {
		logger.Warn("Failed to save settings", logger.ErrorField(err))
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Palette returns the shades of the configured accent color.
func (s Settings) Palette() Palette {
	return AccentColors[s.AccentColor]
}
