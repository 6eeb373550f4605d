package model

import (
	"regexp"
	"strings"
	"time"
)

// MaxCategoryNameLength bounds user-entered category display names.
const MaxCategoryNameLength = 100

// categoryNamePattern allow-lists letters, digits and spaces.
var categoryNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// ValidCategoryName reports whether a trimmed display name is acceptable:
// non-empty, at most MaxCategoryNameLength characters, and drawn from the
// letter/digit/space allow-list.
func ValidCategoryName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxCategoryNameLength {
		return false
	}
	return categoryNamePattern.MatchString(name)
}

// CanonicalKey normalizes a display name into the key used for uniqueness
// comparison: trimmed, uppercased, spaces replaced with underscores.
// Canonicalizing an already-canonical key returns it unchanged.
func CanonicalKey(displayName string) string {
	key := strings.ToUpper(strings.TrimSpace(displayName))
	return strings.ReplaceAll(key, " ", "_")
}

// SystemCategory is one of the fixed categories seeded at store
// initialization and shared read-only by every user.
type SystemCategory struct {
	Key         string
	DisplayName string
	ID          int64
}

// UserCategory is a custom category owned by a single user. Keys are
// unique per user and must not shadow any system category key.
type UserCategory struct {
	CreatedAt   time.Time
	Key         string
	DisplayName string
	ID          int64
	UserID      int64
}
