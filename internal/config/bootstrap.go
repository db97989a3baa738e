package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is $XDG_CONFIG_HOME/rekrybot/config.yml (or the OS equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rekrybot", "config.yml"), nil
}

// EnsureUserConfig writes Default to path unless a file is already there.
// It reports whether it created the file.
func EnsureUserConfig(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return false, err
	}
	if err := writeFileAtomic(path, append([]byte(bootstrapHeader), b...)); err != nil {
		return false, err
	}
	return true, nil
}

// bootstrapHeader tops a freshly written config with what must be filled in
// before the first run.
const bootstrapHeader = `# rekrybot configuration.
#
# Fill in before the first run:
#
# imap:
#   host: imap.example.com
#   username: you@example.com
# digest:
#   from: rekrybot <you@example.com>
#   to: you@example.com
#
# Store the IMAP password with "rekrybot set-password" or set REKRYBOT_IMAP_PASSWORD.

`
