package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveAtomic validates cfg and replaces path, keeping the old file as path.bak.
func SaveAtomic(path string, cfg Config) error {
	out, res := NormalizeAndValidate(cfg)
	if err := res.Err(); err != nil {
		return err
	}
	return writeAtomic(path, out)
}

func writeAtomic(path string, cfg Config) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, b)
}

func writeFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
