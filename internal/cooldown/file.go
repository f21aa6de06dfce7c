package cooldown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/cgate/internal/trigger"
)

// markerExt is the suffix for marker files. Each file holds a single
// RFC3339Nano timestamp.
const markerExt = ".stamp"

// unsafeChars are replaced before a session ID is used in a filename.
// Subagent session IDs contain "/".
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// FileStore keeps one marker file per key under a directory, surviving
// across hook invocations (each invocation is a fresh process).
type FileStore struct {
	dir    string
	policy Policy
}

// NewFileStore returns a store writing markers under dir with the given
// key policy. The directory is created lazily on first RecordFire.
func NewFileStore(dir string, policy Policy) *FileStore {
	return &FileStore{dir: dir, policy: policy}
}

// Policy implements Store.
func (s *FileStore) Policy() Policy {
	return s.policy
}

func (s *FileStore) markerPath(sessionID string, t trigger.Type) string {
	name := unsafeChars.ReplaceAllString(sessionID, "_")
	if s.policy == PolicyPerTrigger {
		name += "--" + string(t)
	}
	return filepath.Join(s.dir, name+markerExt)
}

// IsSuppressed implements Store. A missing or unreadable marker reports
// not suppressed, as does one whose timestamp does not parse.
func (s *FileStore) IsSuppressed(sessionID string, t trigger.Type, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}

	data, err := os.ReadFile(s.markerPath(sessionID, t))
	if err != nil {
		return false
	}

	last, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}

	return now.Sub(last) < window
}

// RecordFire implements Store.
func (s *FileStore) RecordFire(sessionID string, t trigger.Type, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating marker dir: %w", err)
	}

	data := []byte(now.UTC().Format(time.RFC3339Nano) + "\n")
	if err := os.WriteFile(s.markerPath(sessionID, t), data, 0o644); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	return nil
}

// Marker is a recorded firing read back for status display and pruning.
type Marker struct {
	Name    string // file stem: "<session>" or "<session>--<trigger>"
	FiredAt time.Time
}

// List returns all markers under dir, newest first. Both policies share
// the directory, so the listing covers the usage gate and the semantic
// gate together.
func List(dir string) ([]Marker, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading marker dir: %w", err)
	}

	var markers []Marker
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		firedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		markers = append(markers, Marker{
			Name:    strings.TrimSuffix(e.Name(), markerExt),
			FiredAt: firedAt,
		})
	}

	sort.Slice(markers, func(i, j int) bool {
		return markers[i].FiredAt.After(markers[j].FiredAt)
	})
	return markers, nil
}

// Prune deletes markers older than cutoff, plus any marker whose contents
// no longer parse. Returns the number of files removed.
func Prune(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading marker dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerExt) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		firedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data)))
		if err != nil || firedAt.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
