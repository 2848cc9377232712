// Package credential holds the completion service API key.
//
// The key lives in memory for the life of the process and is mirrored to a
// durable [Storage] under a fixed namespaced key. Storage failures never
// surface to callers: they are logged and the in-memory value stays
// authoritative.
//
// The key is only ever displayed masked, one bullet per character:
//
//	store := credential.New(storage, logger)
//	store.Set("sk-abc")
//	fmt.Println(store.Masked()) // ••••••
package credential

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// StorageKey is the key under which the secret is persisted.
const StorageKey = "diagrammer-openai-key"

// MaskRune is the character used to display each rune of a stored secret.
const MaskRune = '•'

// Store is the process-wide credential holder.
type Store struct {
	mu      sync.RWMutex
	secret  string
	storage Storage
	logger  *log.Logger
}

// New creates a Store and loads any persisted secret from storage.
// A nil storage keeps the secret in memory only. A nil logger discards logs.
func New(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Store{storage: storage, logger: logger}
	if storage != nil {
		v, ok, err := storage.Get(StorageKey)
		switch {
		case err != nil:
			logger.Warn("failed to load API key", "error", err)
		case ok:
			s.secret = v
		}
	}
	return s
}

// Get returns the current secret, or "" when none is set.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.secret
}

// Set replaces the secret. Setting "" is equivalent to Clear.
func (s *Store) Set(secret string) {
	if secret == "" {
		s.Clear()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = secret
	if s.storage == nil {
		return
	}
	if err := s.storage.Set(StorageKey, secret); err != nil {
		s.logger.Warn("failed to persist API key", "error", err)
	}
}

// Clear removes the secret from memory and storage.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = ""
	if s.storage == nil {
		return
	}
	if err := s.storage.Remove(StorageKey); err != nil {
		s.logger.Warn("failed to remove API key", "error", err)
	}
}

// IsSet reports whether a secret is present.
func (s *Store) IsSet() bool {
	return s.Get() != ""
}

// Masked returns the secret with every character replaced by MaskRune.
func (s *Store) Masked() string {
	return Mask(s.Get())
}

// Save applies a value coming from a settings form that initially displayed
// the masked secret. A value made only of mask characters is a no-op, an empty value clears the
// secret and anything else replaces it. It reports whether the secret changed.
func (s *Store) Save(input string) bool {
	if IsMask(input) || input == s.Get() {
		return false
	}
	s.Set(input)
	return true
}

// Mask returns one MaskRune per rune of secret.
func Mask(secret string) string {
	return strings.Repeat(string(MaskRune), utf8.RuneCountInString(secret))
}

// IsMask reports whether s consists solely of MaskRune characters.
func IsMask(s string) bool {
	if s == "" {
		return false
	}
	return strings.Trim(s, string(MaskRune)) == ""
}
