package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"rekrybot/internal/config"
	"rekrybot/internal/digest"
	"rekrybot/internal/mailbox"
	"rekrybot/internal/runner"
	"rekrybot/internal/scheduler"
	"rekrybot/internal/secrets"
	"rekrybot/internal/store"
)

type runFlags struct {
	common
	dryRun bool
	mbox   string
	out    string
	every  time.Duration
}

func runMain(ctx context.Context, args []string) error {
	var f runFlags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	f.register(fs)
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the digest instead of appending it; do not archive")
	fs.StringVar(&f.mbox, "mbox", "", "read messages from this mbox file instead of IMAP")
	fs.StringVar(&f.out, "out", "", "append the digest to this mbox file instead of the drafts folder")
	fs.DurationVar(&f.every, "every", 0, "repeat the run on this interval until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := f.logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, cfgPath, v, err := f.load(log)
	if err != nil {
		return err
	}
	if err := v.Err(); err != nil {
		return err
	}

	dataDir := cfg.ResolveDataDir(cfgPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	db, err := store.Open(ctx, filepath.Join(dataDir, "rekrybot.db"))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	once := func(ctx context.Context) error {
		rep, err := runOnce(ctx, f, cfg, dataDir, db, log)
		if err != nil {
			return err
		}
		log.Info("run finished",
			zap.Int64("run_id", rep.RunID),
			zap.Int("messages", rep.Count),
			zap.String("archive", rep.Archive),
		)
		return nil
	}

	if f.every <= 0 {
		return once(ctx)
	}
	log.Info("scheduling", zap.Duration("every", f.every))
	scheduler.Every(ctx, f.every, "digest", once, log)
	return nil
}

// runOnce wires the source, sink and archiver for one run. IMAP connections
// are per run so a long --every schedule never holds an idle session.
func runOnce(ctx context.Context, f runFlags, cfg config.Config, dataDir string, db *store.DB, log *zap.Logger) (runner.Report, error) {
	ext, err := cfg.Extractor()
	if err != nil {
		return runner.Report{}, err
	}
	norm, err := cfg.Normalizer()
	if err != nil {
		return runner.Report{}, err
	}

	r := &runner.Runner{
		Recorder:  db,
		Assembler: digest.NewAssembler(ext, norm, digest.WithWorkers(cfg.App.Workers)),
		Envelope: digest.Envelope{
			From:    cfg.Digest.From,
			To:      cfg.Digest.To,
			Subject: cfg.Digest.Subject,
		},
		ArchiveFolder: cfg.ArchiveFolder,
		LockPath:      filepath.Join(dataDir, "rekrybot.lock"),
		DryRun:        f.dryRun,
		Log:           log.Named("runner"),
	}

	switch {
	case f.out != "":
		r.Deliverer = mailbox.MboxSink{Path: f.out, From: cfg.Digest.From}
	case f.dryRun:
		r.Deliverer = runner.WriterSink{W: os.Stdout}
	}

	if f.mbox != "" {
		r.Source = mailbox.MboxSource{Path: f.mbox}
		if r.Deliverer == nil {
			return runner.Report{}, errors.New("--mbox needs --out or --dry-run")
		}
		return r.RunOnce(ctx)
	}

	client, err := dialIMAP(ctx, cfg, log.Named("imap"))
	if err != nil {
		return runner.Report{}, err
	}
	defer client.Close()

	sess := &mailbox.Session{
		Client: client,
		Folder: cfg.IMAP.SourceFolder,
		Drafts: cfg.IMAP.DraftsFolder,
		Move:   cfg.Archive.Mode == config.ArchiveMove,
	}
	r.Source = sess
	if r.Deliverer == nil {
		r.Deliverer = sess
	}
	if cfg.Archive.Enabled {
		r.Archiver = sess
	}
	return r.RunOnce(ctx)
}

func dialIMAP(ctx context.Context, cfg config.Config, log *zap.Logger) (*mailbox.Client, error) {
	if cfg.IMAP.Host == "" || cfg.IMAP.Username == "" {
		return nil, errors.New("imap.host and imap.username are required (or use --mbox)")
	}
	pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
	if err != nil {
		return nil, err
	}
	return mailbox.Dial(ctx, mailbox.Options{
		Addr:     mailbox.Addr(cfg.IMAP.Host, cfg.IMAP.Port),
		Username: cfg.IMAP.Username,
		Password: pw,
		Insecure: cfg.IMAP.Insecure,
	}, log)
}
