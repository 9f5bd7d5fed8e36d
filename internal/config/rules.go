package config

import (
	"path/filepath"
	"strings"
)

// Rule names a tab group and the file types that belong to it.
type Rule struct {
	Name      string   `toml:"name"`
	Color     string   `toml:"color"`
	FileTypes []string `toml:"file-types"`
}

type Rules []Rule

// Match returns the first rule whose file types cover path, or nil.
// A file type matches the extension (with or without a leading dot) or
// the whole base name, case-insensitively.
func (r Rules) Match(path string) *Rule {
	if path == "" {
		return nil
	}
	base := filepath.Base(path)
	baseLower := strings.ToLower(base)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	for i := range r {
		rule := &r[i]
		for _, ft := range rule.FileTypes {
			ftLower := strings.ToLower(ft)
			if ftLower == baseLower || (ext != "" && ftLower == ext) {
				return rule
			}
			if strings.HasPrefix(ftLower, ".") && strings.TrimPrefix(ftLower, ".") == ext {
				return rule
			}
		}
	}
	return nil
}
