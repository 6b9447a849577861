package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avelara/design-portal/internal/model"
)

// CachedUser is the reduced profile mirrored into local storage so the
// shell can render a name immediately on the next launch. It is never
// authoritative; the admin flag in particular is only trusted when it
// comes fresh from the server.
type CachedUser struct {
	UserID   uint64    `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Company  string    `json:"company"`
	ClientID string    `json:"client_id"`
	IsAdmin  bool      `json:"is_admin"`
	SavedAt  time.Time `json:"saved_at"`
}

// UserCache is a small file-backed mirror of the signed-in user's
// profile. All methods are safe for concurrent use.
type UserCache struct {
	mu   sync.Mutex
	path string
}

// NewUserCache stores the cache file at path. An empty path yields a
// disabled cache where Get always misses and writes are dropped.
func NewUserCache(path string) *UserCache {
	return &UserCache{path: path}
}

// Put mirrors a freshly reconciled profile.
func (c *UserCache) Put(p model.Profile) error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(CachedUser{
		UserID:   p.UserID,
		Email:    p.Email,
		FullName: p.FullName,
		Company:  p.Company,
		ClientID: p.ClientID,
		IsAdmin:  p.IsAdmin,
		SavedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	// Write-then-rename keeps a reader from seeing a torn file.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// Get returns the cached user, or ok=false on any miss or decode
// failure. A corrupt cache file is treated as a miss, not an error.
func (c *UserCache) Get() (CachedUser, bool) {
	if c == nil || c.path == "" {
		return CachedUser{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return CachedUser{}, false
	}
	var u CachedUser
	if err := json.Unmarshal(data, &u); err != nil || u.UserID == 0 {
		return CachedUser{}, false
	}
	return u, true
}

// Invalidate drops the cached user. Called on sign-out and session
// expiry.
func (c *UserCache) Invalidate() error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
