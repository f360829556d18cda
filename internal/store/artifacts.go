package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MergeArtifact attaches a named fragment to the record's artifact map. The
// merge reads the current map, sets the one key, and writes the map back, so
// fragments stored under other names survive. Fragments that are not valid
// JSON are stored as a JSON string.
//
// Only the goroutine driving an article's generation writes its artifacts.
// Two concurrent writers on the same record would race read-merge-write.
func (s *Store) MergeArtifact(ctx context.Context, recordID int64, name string, fragment []byte) error {
	if name == "" {
		return errors.New("artifact name is empty")
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		var current sql.NullString
		row := s.db.QueryRowContext(ctx, `SELECT artifacts_json FROM generation_records WHERE id = ?`, recordID)
		if err := row.Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("record %d not found", recordID)
			}
			return fmt.Errorf("read artifacts: %w", err)
		}

		artifacts := []byte(current.String)
		if len(artifacts) == 0 {
			artifacts = []byte("{}")
		}

		path := escapeArtifactKey(name)
		var (
			merged []byte
			err    error
		)
		if gjson.ValidBytes(fragment) {
			merged, err = sjson.SetRawBytes(artifacts, path, fragment)
		} else {
			merged, err = sjson.SetBytes(artifacts, path, string(fragment))
		}
		if err != nil {
			return fmt.Errorf("merge artifact %q: %w", name, err)
		}

		_, err = s.db.ExecContext(
			ctx,
			`UPDATE generation_records SET artifacts_json = ?, updated_at = ? WHERE id = ?`,
			string(merged),
			time.Now().UTC().Format(time.RFC3339Nano),
			recordID,
		)
		if err != nil {
			return fmt.Errorf("write artifacts: %w", err)
		}
		return nil
	})
}

// Artifact reads one named fragment from the record's artifact map. The
// second return value reports whether the fragment exists.
func (s *Store) Artifact(ctx context.Context, recordID int64, name string) ([]byte, bool, error) {
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, fmt.Errorf("record %d not found", recordID)
	}
	value := gjson.Get(record.ArtifactsJSON, escapeArtifactKey(name))
	if !value.Exists() {
		return nil, false, nil
	}
	return []byte(value.Raw), true, nil
}

// ArtifactNames lists the fragment names stored on a record, in map order.
func ArtifactNames(artifactsJSON string) []string {
	var names []string
	gjson.Parse(artifactsJSON).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	return names
}

// escapeArtifactKey quotes path metacharacters so fragment names containing
// dots address one top-level key instead of a nested path.
func escapeArtifactKey(name string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`.`, `\.`,
		`*`, `\*`,
		`?`, `\?`,
		`|`, `\|`,
		`#`, `\#`,
		`@`, `\@`,
	)
	return replacer.Replace(name)
}
