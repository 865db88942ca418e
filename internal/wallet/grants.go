package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Grants remembers which addresses the user has allowed w3fund to use, so
// that only the first connect of an account prompts. The file lives in the
// user cache directory with 0600 permissions and holds addresses only.
type Grants struct {
	mu   sync.Mutex
	path string
}

// DefaultGrantsPath returns the per-user grants file.
//
//	macOS:   ~/Library/Caches/w3fund/grants.json
//	Linux:   ~/.cache/w3fund/grants.json
//	Windows: %LocalAppData%\w3fund\grants.json
func DefaultGrantsPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "w3fund", "grants.json")
}

// NewGrants opens the grants file at path (created lazily).
func NewGrants(path string) *Grants {
	return &Grants{path: path}
}

func grantKey(addr string) string { return strings.ToLower(addr) }

// load returns an empty map (never nil) on any error.
func (g *Grants) load() map[string]string {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (g *Grants) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.path, data, 0o600); err != nil {
		return err
	}
	_ = os.Chmod(g.path, 0o600)
	return nil
}

// Granted reports whether addr has been authorized.
func (g *Grants) Granted(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.load()[grantKey(addr)]
	return ok
}

// Grant authorizes addr.
func (g *Grants) Grant(addr string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.load()
	m[grantKey(addr)] = time.Now().UTC().Format(time.RFC3339)
	return g.save(m)
}

// Revoke removes the grant for addr, if any.
func (g *Grants) Revoke(addr string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.load()
	if _, ok := m[grantKey(addr)]; !ok {
		return nil
	}
	delete(m, grantKey(addr))
	return g.save(m)
}

// Clear forgets every grant.
func (g *Grants) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	err := os.Remove(g.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
