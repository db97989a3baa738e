package config

import (
	"fmt"
	"net/mail"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error, nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.IMAP.Host = strings.TrimSpace(out.IMAP.Host)
	out.IMAP.Username = strings.TrimSpace(out.IMAP.Username)
	out.IMAP.SourceFolder = strings.TrimSpace(out.IMAP.SourceFolder)
	out.IMAP.DraftsFolder = strings.TrimSpace(out.IMAP.DraftsFolder)
	out.Archive.Mode = strings.ToLower(strings.TrimSpace(out.Archive.Mode))
	out.Digest.From = strings.TrimSpace(out.Digest.From)
	out.Digest.To = strings.TrimSpace(out.Digest.To)

	var patterns []string
	for _, p := range out.Subject.Patterns {
		if strings.TrimSpace(p) != "" {
			patterns = append(patterns, p)
		}
	}
	out.Subject.Patterns = patterns

	if out.App.Workers < 0 {
		res.addErr("app.workers must be >= 0")
	}

	// imap
	if out.IMAP.Host == "" || out.IMAP.Username == "" {
		res.addWarn("imap.host/imap.username are empty; only mbox runs will work.")
	}
	if out.IMAP.Port < 0 || out.IMAP.Port > 65535 {
		res.addErr("imap.port must be 0..65535")
	}
	if out.IMAP.SourceFolder == "" {
		res.addErr("imap.source_folder is required")
	}
	if out.IMAP.DraftsFolder == "" {
		res.addErr("imap.drafts_folder is required")
	}
	if out.IMAP.Insecure {
		res.addWarn("imap.insecure is set; the password is sent in clear text.")
	}

	// archive
	switch out.Archive.Mode {
	case "":
		out.Archive.Mode = ArchiveCopy
	case ArchiveCopy, ArchiveMove:
	default:
		res.addErr("archive.mode must be %q or %q, got %q", ArchiveCopy, ArchiveMove, out.Archive.Mode)
	}
	if out.Archive.Enabled && strings.TrimSpace(out.Archive.Prefix) == "" {
		res.addErr("archive.prefix is required when archive.enabled=true")
	}
	if out.Archive.Enabled && out.Archive.Prefix == out.IMAP.SourceFolder {
		res.addErr("archive.prefix must differ from imap.source_folder")
	}

	// digest
	if out.Digest.From == "" {
		res.addErr("digest.from is required")
	} else if _, err := mail.ParseAddress(out.Digest.From); err != nil {
		res.addErr("digest.from: %v", err)
	}
	if out.Digest.To == "" {
		res.addErr("digest.to is required")
	} else if _, err := mail.ParseAddressList(out.Digest.To); err != nil {
		res.addErr("digest.to: %v", err)
	}
	if strings.TrimSpace(out.Digest.Subject) == "" {
		res.addWarn("digest.subject is empty.")
	}

	// patterns
	if _, err := out.Normalizer(); err != nil {
		res.addErr("subject.patterns: %v", err)
	}
	if len(out.Subject.Patterns) == 0 {
		res.addWarn("subject.patterns is empty; subjects are only whitespace-trimmed.")
	}
	if _, err := out.Extractor(); err != nil {
		res.addErr("deadline: %v", err)
	}

	return out, res
}
