package stats

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calvinalkan/habitsync/internal/fs"
)

// FileName is the ledger file kept in the data directory between hook
// invocations.
const FileName = "cached_habitica_stats.json"

// ErrCorrupt is returned when the ledger file cannot be decoded.
var ErrCorrupt = errors.New("stats ledger file is corrupt")

// Load reads the ledger at path. It returns (nil, nil) when no ledger exists.
func Load(fsys fs.FS, path string) (*Ledger, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat ledger: %w", err)
	}

	if !exists {
		return nil, nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var l Ledger

	err = json.Unmarshal(data, &l)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrCorrupt, path, err)
	}

	return &l, nil
}

// Save writes l to path atomically, replacing any previous ledger.
func (l *Ledger) Save(fsys fs.FS, path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	err = fsys.WriteFileAtomic(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	return nil
}

// Remove deletes the ledger at path. A missing file is not an error.
func Remove(fsys fs.FS, path string) error {
	exists, err := fsys.Exists(path)
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}

	if !exists {
		return nil
	}

	err = fsys.Remove(path)
	if err != nil {
		return fmt.Errorf("remove ledger: %w", err)
	}

	return nil
}
