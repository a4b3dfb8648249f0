// internal/credstore/credstore.go
package credstore

import (
	"context"
	"strings"
	"time"
)

// Record holds the credentials earned on one site. All fields are plain
// strings so a hand-edited credential file stays loadable; CreatedAt is
// RFC 3339.
type Record struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfileURL string `json:"profile_url"`
	CreatedAt  string `json:"created_at"`
}

// NewRecord stamps a record with the current time.
func NewRecord(username, email, password string) Record {
	return Record{
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
}

// Store persists site credentials. Single-process, single-writer; no
// concurrent access is supported.
type Store interface {
	// Load finds a record under any case/whitespace variant of the key.
	Load(ctx context.Context, siteKey string) (Record, bool, error)
	// Save writes a record under the site's display name. An existing
	// record is left untouched unless overwrite is set, so re-runs never
	// clobber a previously earned profile URL.
	Save(ctx context.Context, siteName string, rec Record, overwrite bool) error
	// AttachProfileURL updates only the profile URL of an existing record.
	AttachProfileURL(ctx context.Context, siteKey, profileURL string) error
	Close() error
}

// NormalizeKey canonicalizes a site key: lowercase, whitespace stripped.
// "Free Listing UK", "freelisting uk" and "FreeListing UK" all collapse to
// the same key.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "")
}
