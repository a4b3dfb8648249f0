// internal/credstore/file.go
package credstore

import (
	"context"
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// FileStore keeps the credential mapping in a single JSON file keyed by
// site display name. The whole file is read at open and rewritten on every
// save; write-through, no batching.
type FileStore struct {
	path    string
	records map[string]Record
	logger  *zap.Logger
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads the credential file, treating a missing file as an
// empty store.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		records: make(map[string]Record),
		logger:  logger.Named("credstore"),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential file %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("parsing credential file %s: %w", path, err)
	}
	s.logger.Debug("Credential file loaded",
		zap.String("path", path), zap.Int("sites", len(s.records)))
	return s, nil
}

// Load finds a record whose stored key matches any case/whitespace variant
// of siteKey.
func (s *FileStore) Load(_ context.Context, siteKey string) (Record, bool, error) {
	wanted := NormalizeKey(siteKey)
	for name, rec := range s.records {
		if NormalizeKey(name) == wanted {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Save inserts or updates the record and persists the whole mapping. With
// overwrite false an existing record is a no-op.
func (s *FileStore) Save(ctx context.Context, siteName string, rec Record, overwrite bool) error {
	if existingName, exists := s.findName(siteName); exists {
		if !overwrite {
			s.logger.Debug("Credentials already stored, not overwriting",
				zap.String("site", siteName))
			return nil
		}
		// Reuse the stored display name so variants don't fork entries.
		siteName = existingName
	}
	s.records[siteName] = rec
	return s.flush()
}

// AttachProfileURL updates only the profile URL of an existing record.
func (s *FileStore) AttachProfileURL(ctx context.Context, siteKey, profileURL string) error {
	name, exists := s.findName(siteKey)
	if !exists {
		return fmt.Errorf("no credentials stored for %s", siteKey)
	}
	rec := s.records[name]
	rec.ProfileURL = profileURL
	s.records[name] = rec
	return s.flush()
}

func (s *FileStore) findName(siteKey string) (string, bool) {
	wanted := NormalizeKey(siteKey)
	for name := range s.records {
		if NormalizeKey(name) == wanted {
			return name, true
		}
	}
	return "", false
}

func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; every save already hit the disk.
func (s *FileStore) Close() error { return nil }
