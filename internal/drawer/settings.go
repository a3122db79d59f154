package drawer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultAppTitle = "お題ゲームメーカー"
	DefaultHashtag  = "#お題ゲーム"
)

// Settings feed the share and log text.
type Settings struct {
	AppTitle  string `json:"appTitle"`
	StreamURL string `json:"streamUrl"`
	Hashtag   string `json:"hashtag"`
}

func DefaultSettings() Settings {
	return Settings{AppTitle: DefaultAppTitle, Hashtag: DefaultHashtag}
}

// withDefaults fills blank title and hashtag.
func (s Settings) withDefaults() Settings {
	s.AppTitle = strings.TrimSpace(s.AppTitle)
	s.StreamURL = strings.TrimSpace(s.StreamURL)
	s.Hashtag = strings.TrimSpace(s.Hashtag)
	if s.AppTitle == "" {
		s.AppTitle = DefaultAppTitle
	}
	if s.Hashtag == "" {
		s.Hashtag = DefaultHashtag
	}
	return s
}

type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileSettings keeps settings in a JSON file. A missing file loads defaults.
type FileSettings struct {
	Path string
}

func (f FileSettings) Load() (Settings, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s.withDefaults(), nil
}

func (f FileSettings) Save(s Settings) error {
	data, err := json.MarshalIndent(s.withDefaults(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write settings: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// MemorySettings is a SettingsStore for tests and one-shot runs.
type MemorySettings struct {
	settings *Settings
}

func (m *MemorySettings) Load() (Settings, error) {
	if m.settings == nil {
		return DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *MemorySettings) Save(s Settings) error {
	s = s.withDefaults()
	m.settings = &s
	return nil
}
