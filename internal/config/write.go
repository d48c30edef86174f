package config

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/habitsync/internal/fs"
)

const configFilePerms = 0o600

// SaveCredentials stores userID and apiKey in the config file at path. Other
// settings and comments in an existing file are kept. A missing file is
// created.
func SaveCredentials(fsys fs.FS, path, userID, apiKey string) error {
	data := []byte("{}\n")

	exists, err := fsys.Exists(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	if exists {
		data, err = fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}
	}

	doc, err := hujson.Parse(data)
	if err != nil {
		return fmt.Errorf("%w %s: invalid JSONC: %w", ErrConfigInvalid, path, err)
	}

	standardized, err := hujson.Standardize(append([]byte(nil), data...))
	if err != nil {
		return fmt.Errorf("%w %s: invalid JSONC: %w", ErrConfigInvalid, path, err)
	}

	var current map[string]any

	err = json.Unmarshal(standardized, &current)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	type op struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Value string `json:"value"`
	}

	var ops []op

	for _, kv := range [][2]string{{"user_id", userID}, {"api_key", apiKey}} {
		name := "add"
		if _, ok := current[kv[0]]; ok {
			name = "replace"
		}

		ops = append(ops, op{Op: name, Path: "/" + kv[0], Value: kv[1]})
	}

	patch, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("encode config patch: %w", err)
	}

	err = doc.Patch(patch)
	if err != nil {
		return fmt.Errorf("patch config %s: %w", path, err)
	}

	doc.Format()

	err = fsys.WriteFileAtomic(path, doc.Pack(), configFilePerms)
	if err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
