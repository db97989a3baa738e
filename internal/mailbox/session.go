package mailbox

import (
	"context"
	"time"

	"rekrybot/internal/domain"
)

// Session binds a Client to the folders of one digest run.
type Session struct {
	Client *Client
	Folder string // source folder
	Drafts string // where the digest is appended
	Move   bool   // move instead of copy when archiving
}

func (s *Session) Name() string { return "imap:" + s.Folder }

func (s *Session) Fetch(ctx context.Context) ([]domain.Message, error) {
	return s.Client.FetchAll(ctx, s.Folder)
}

func (s *Session) Deliver(ctx context.Context, raw []byte, t time.Time) error {
	return s.Client.AppendDraft(ctx, s.Drafts, raw, t)
}

// Archive puts msgs into dest. Fetch must have run first so the source
// folder is selected.
func (s *Session) Archive(ctx context.Context, msgs []domain.Message, dest string) error {
	return s.Client.Archive(ctx, domain.UIDs(msgs), dest, s.Move)
}
