package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-mbox"

	"rekrybot/internal/domain"
)

// ReadMbox parses every message of an mbox file, in file order.
func ReadMbox(path string) ([]domain.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := mbox.NewReader(f)
	var out []domain.Message
	for {
		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("mbox %s: %w", path, err)
		}
		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return out, fmt.Errorf("mbox %s: %w", path, err)
		}
		out = append(out, ParseMessage(raw))
	}
	return out, nil
}

// WriteMbox appends raw to the mbox file at path, creating it if needed.
func WriteMbox(path string, raw []byte, from string, t time.Time) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	mw := mbox.NewWriter(f)
	w, err := mw.CreateMessage(from, t)
	if err != nil {
		return fmt.Errorf("mbox %s: %w", path, err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("mbox %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("mbox %s: %w", path, err)
	}
	return f.Close()
}

// MboxSource reads messages from a local mbox file.
type MboxSource struct {
	Path string
}

func (s MboxSource) Name() string { return "mbox:" + s.Path }

func (s MboxSource) Fetch(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadMbox(s.Path)
}

// MboxSink appends digests to a local mbox file.
type MboxSink struct {
	Path string
	From string
}

func (s MboxSink) Deliver(ctx context.Context, raw []byte, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteMbox(s.Path, raw, s.From, t)
}
