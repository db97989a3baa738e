// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rekrybot/internal/deadline"
	"rekrybot/internal/subject"
)

const (
	ArchiveCopy = "copy"
	ArchiveMove = "move"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
		Workers int    `yaml:"workers"`
	} `yaml:"app"`

	IMAP struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Username     string `yaml:"username"`
		Insecure     bool   `yaml:"insecure"`
		SourceFolder string `yaml:"source_folder"`
		DraftsFolder string `yaml:"drafts_folder"`
	} `yaml:"imap"`

	Archive struct {
		Enabled bool   `yaml:"enabled"`
		Prefix  string `yaml:"prefix"`
		Mode    string `yaml:"mode"` // copy/move
	} `yaml:"archive"`

	Digest struct {
		From    string `yaml:"from"`
		To      string `yaml:"to"`
		Subject string `yaml:"subject"`
	} `yaml:"digest"`

	Subject struct {
		Patterns []string `yaml:"patterns"`
	} `yaml:"subject"`

	Deadline struct {
		CuePattern  string `yaml:"cue_pattern"`
		DatePattern string `yaml:"date_pattern"`
	} `yaml:"deadline"`
}

// Default is the configuration a fresh install starts from.
func Default() Config {
	var cfg Config
	cfg.App.Workers = 4
	cfg.IMAP.Port = 993
	cfg.IMAP.SourceFolder = "Recruitment"
	cfg.IMAP.DraftsFolder = "Drafts"
	cfg.Archive.Enabled = true
	cfg.Archive.Prefix = "Recruitment/archive/"
	cfg.Archive.Mode = ArchiveCopy
	cfg.Digest.Subject = "Recruitment mail"
	cfg.Subject.Patterns = subject.DefaultPatterns()
	cfg.Deadline.CuePattern = deadline.CuePattern
	cfg.Deadline.DatePattern = deadline.DatePattern
	return cfg
}

// Load reads path over Default, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	OverrideFromEnv(&cfg)
	return cfg, nil
}

// OverrideFromEnv lets REKRYBOT_IMAP_HOST and REKRYBOT_IMAP_USERNAME win over the file.
func OverrideFromEnv(cfg *Config) {
	if host := os.Getenv("REKRYBOT_IMAP_HOST"); host != "" {
		cfg.IMAP.Host = host
	}
	if user := os.Getenv("REKRYBOT_IMAP_USERNAME"); user != "" {
		cfg.IMAP.Username = user
	}
}

// ArchiveFolder is the dated archive mailbox for day t.
func (c Config) ArchiveFolder(t time.Time) string {
	return c.Archive.Prefix + t.Format("2006-01-02")
}

// ResolveDataDir returns app.data_dir with "~" expanded, or the directory
// holding the config file when unset.
func (c Config) ResolveDataDir(cfgPath string) string {
	dir := strings.TrimSpace(c.App.DataDir)
	if dir == "" {
		return filepath.Dir(cfgPath)
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// Extractor compiles the deadline patterns.
func (c Config) Extractor() (*deadline.Extractor, error) {
	p, err := deadline.CompilePatterns(c.Deadline.CuePattern, c.Deadline.DatePattern)
	if err != nil {
		return nil, err
	}
	return deadline.New(p), nil
}

// Normalizer compiles the subject patterns.
func (c Config) Normalizer() (*subject.Normalizer, error) {
	return subject.New(c.Subject.Patterns...)
}
