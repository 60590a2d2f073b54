package config

import (
	"strings"
	"sync"
)

// Store guards a Config behind a mutex and persists every mutation, so the
// slash commands (/persona, /frequency, /prompt, /model) survive a restart.
type Store struct {
	mu   sync.Mutex
	cfg  Config
	path string
}

// NewStore wraps cfg. Mutations are saved to path (ConfigPath() when empty).
func NewStore(cfg *Config, path string) *Store {
	if path == "" {
		path = ConfigPath()
	}
	return &Store{cfg: *cfg, path: path}
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetPersona updates the persona description.
func (s *Store) SetPersona(persona string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Persona = strings.TrimSpace(persona)
	return Save(&s.cfg, s.path)
}

// SetSystemPrompt updates the system prompt.
func (s *Store) SetSystemPrompt(prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.SystemPrompt = strings.TrimSpace(prompt)
	return Save(&s.cfg, s.path)
}

// SetModel updates the completion model identifier.
func (s *Store) SetModel(model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Model = strings.TrimSpace(model)
	return Save(&s.cfg, s.path)
}

// SetResponseFrequency updates the reply probability, clamped to [0,1].
func (s *Store) SetResponseFrequency(freq float64) error {
	if freq < 0 {
		freq = 0
	}
	if freq > 1 {
		freq = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ResponseFrequency = freq
	return Save(&s.cfg, s.path)
}
