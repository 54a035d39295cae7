package agent

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
)

// Registry holds the per-host agent keys used to authenticate push
// submissions. Keys live for the process lifetime; regenerating a key
// immediately invalidates the previous one.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		keys: make(map[string]string),
	}
}

// GetOrCreateKey returns the existing agent key for a host, generating and
// storing a new one on first request. Idempotent after the first call.
func (r *Registry) GetOrCreateKey(hostID string) (string, error) {
	r.mu.RLock()
	key, ok := r.keys[hostID]
	r.mu.RUnlock()
	if ok {
		return key, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have generated one while we waited for the lock
	if key, ok := r.keys[hostID]; ok {
		return key, nil
	}

	key, err := generateKey()
	if err != nil {
		return "", err
	}
	r.keys[hostID] = key
	return key, nil
}

// RegenerateKey replaces the host's key with a fresh one.
func (r *Registry) RegenerateKey(hostID string) (string, error) {
	key, err := generateKey()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.keys[hostID] = key
	r.mu.Unlock()
	return key, nil
}

// Verify reports whether the provided key matches the stored key for the
// host. An unknown host always verifies false.
func (r *Registry) Verify(hostID, providedKey string) bool {
	r.mu.RLock()
	key, ok := r.keys[hostID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(providedKey)) == 1
}

func generateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate agent key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
