package ruleset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Load reads and parses a single rule file from fsys.
func Load(fsys fs.FS, path string) (*Ruleset, error) {
	if fsys == nil {
		return nil, fmt.Errorf("ruleset: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("ruleset: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS walks fsys and merges every JSON/YAML rule file it finds. When fsys
// is nil or holds no rule files the result is empty.
func LoadFS(fsys fs.FS) (*Ruleset, error) {
	rs := New()
	if fsys == nil {
		return rs, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRuleFile(path) {
			return nil
		}
		file, err := Load(fsys, path)
		if err != nil {
			return err
		}
		return rs.Merge(file)
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func isRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
