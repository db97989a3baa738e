// Package runner performs one digest run: fetch the source folder, build and
// deliver the digest, archive what was summarized and record the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"rekrybot/internal/digest"
	"rekrybot/internal/domain"
	"rekrybot/internal/store"
)

// ErrLocked means another run holds the lock.
var ErrLocked = errors.New("another digest run is in progress")

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Message, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, raw []byte, t time.Time) error
}

type Archiver interface {
	Archive(ctx context.Context, msgs []domain.Message, dest string) error
}

type Recorder interface {
	RecordRun(ctx context.Context, r store.Run) (int64, error)
}

type Runner struct {
	Source    Source
	Deliverer Deliverer
	Archiver  Archiver // nil disables archiving
	Recorder  Recorder // nil disables the ledger

	Assembler     *digest.Assembler
	Envelope      digest.Envelope
	ArchiveFolder func(time.Time) string

	// LockPath is the flock file guarding against concurrent runs. Empty
	// disables locking.
	LockPath string
	DryRun   bool

	Now func() time.Time
	Log *zap.Logger
}

// Report describes a finished run.
type Report struct {
	RunID     int64
	StartedAt time.Time
	Source    string
	Count     int
	Archive   string
	Delivered bool
	DryRun    bool
	Digest    digest.Digest
}

// RunOnce performs one run. Any failing step aborts the run; the returned
// error names the step.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	if r.Source == nil || r.Deliverer == nil {
		return Report{}, errors.New("runner needs a source and a deliverer")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	if r.LockPath != "" {
		lock := flock.New(r.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return Report{}, fmt.Errorf("lock %s: %w", r.LockPath, err)
		}
		if !ok {
			return Report{}, ErrLocked
		}
		defer func() { _ = lock.Unlock() }()
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	rep := Report{StartedAt: now, Source: r.Source.Name(), DryRun: r.DryRun}
	log = log.With(zap.String("source", rep.Source), zap.Bool("dry_run", r.DryRun))

	msgs, err := r.Source.Fetch(ctx)
	if err != nil {
		return rep, fmt.Errorf("fetch: %w", err)
	}
	rep.Count = len(msgs)
	log.Info("fetched", zap.Int("messages", rep.Count))

	if len(msgs) > 0 {
		if err := r.digestAndArchive(ctx, msgs, &rep, log); err != nil {
			return rep, err
		}
	} else {
		log.Info("source folder is empty, nothing to digest")
	}

	if r.Recorder != nil {
		id, err := r.Recorder.RecordRun(ctx, runRecord(rep))
		if err != nil {
			return rep, fmt.Errorf("record: %w", err)
		}
		rep.RunID = id
	}
	return rep, nil
}

func (r *Runner) digestAndArchive(ctx context.Context, msgs []domain.Message, rep *Report, log *zap.Logger) error {
	asm := r.Assembler
	if asm == nil {
		asm = digest.NewAssembler(nil, nil)
	}
	d, err := asm.Build(ctx, msgs)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	rep.Digest = d

	env := r.Envelope
	env.Date = rep.StartedAt
	raw, err := digest.Compose(d, env)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if err := r.Deliverer.Deliver(ctx, raw, rep.StartedAt); err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	rep.Delivered = true
	log.Info("digest delivered", zap.Int("postings", len(d.Postings)), zap.Int("bytes", len(raw)))

	if r.DryRun || r.Archiver == nil || r.ArchiveFolder == nil {
		return nil
	}
	dest := r.ArchiveFolder(rep.StartedAt)
	if err := r.Archiver.Archive(ctx, msgs, dest); err != nil {
		return fmt.Errorf("archive %q: %w", dest, err)
	}
	rep.Archive = dest
	log.Info("archived", zap.String("dest", dest))
	return nil
}

func runRecord(rep Report) store.Run {
	run := store.Run{
		StartedAt:    rep.StartedAt,
		Source:       rep.Source,
		Archive:      rep.Archive,
		MessageCount: rep.Count,
		DryRun:       rep.DryRun,
	}
	for _, p := range rep.Digest.Postings {
		run.Postings = append(run.Postings, store.PostingRecord{
			Position:     p.Index,
			MessageID:    p.Message.MessageID,
			Subject:      p.Subject,
			DeadlineKind: p.Deadline.Kind.String(),
			Deadline:     p.Deadline.Text,
		})
	}
	return run
}

// WriterSink delivers the raw digest to W, e.g. stdout on a dry run.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Deliver(_ context.Context, raw []byte, _ time.Time) error {
	_, err := s.W.Write(raw)
	return err
}
