package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Object keys are namespaced per user so ownership can be checked from
// the key alone: user/<user_id>/<uuid><ext>.

// BuildObjectKey constructs the storage key for a new upload. The
// original filename only contributes its extension; the basename is a
// fresh UUID so clients cannot collide with or guess each other's keys.
func BuildObjectKey(userID uint64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("user/%d/%s%s", userID, uuid.NewString(), ext)
}

// ParseObjectKey extracts the owning user from a storage key.
func ParseObjectKey(key string) (userID uint64, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] != "user" || parts[2] == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// OwnedBy reports whether the key belongs to the given user.
func OwnedBy(key string, userID uint64) bool {
	id, ok := ParseObjectKey(key)
	return ok && id == userID
}
