// Package digest turns a folder of recruitment mails into one newsletter-style
// message: a numbered TL;DR line per posting followed by the original bodies.
package digest

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"rekrybot/internal/deadline"
	"rekrybot/internal/domain"
	"rekrybot/internal/subject"
)

const (
	summarySeparator = "\n\n-----\n"
	bodySeparator    = "\n\n\n\n----\n"
)

// Posting is one summarized message.
type Posting struct {
	Index    int
	Subject  string
	Deadline deadline.Result
	Message  domain.Message
}

// Line is the TL;DR line of p, newline terminated.
func (p Posting) Line() string {
	return fmt.Sprintf("%d: %s - DL: %s\n", p.Index, p.Subject, p.Deadline)
}

// Digest is the assembled result of one run.
type Digest struct {
	Postings []Posting
}

// Summary is the TL;DR block.
func (d Digest) Summary() string {
	var b strings.Builder
	for _, p := range d.Postings {
		b.WriteString(p.Line())
	}
	return b.String()
}

// Text renders the full digest body: all TL;DR lines, a separator, then each
// posting's line followed by its original body.
func (d Digest) Text() string {
	var contents strings.Builder
	for _, p := range d.Postings {
		contents.WriteString(p.Line())
		contents.WriteString("\n\n")
		contents.WriteString(p.Message.Body)
		contents.WriteString(bodySeparator)
	}
	return d.Summary() + summarySeparator + contents.String()
}

// Assembler summarizes messages. It holds no mutable state.
type Assembler struct {
	extractor  *deadline.Extractor
	normalizer *subject.Normalizer
	workers    int
}

type Option func(*Assembler)

// WithWorkers bounds how many messages are summarized at once.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

func NewAssembler(e *deadline.Extractor, n *subject.Normalizer, opts ...Option) *Assembler {
	if e == nil {
		e = deadline.Default()
	}
	if n == nil {
		n = subject.Default()
	}
	a := &Assembler{extractor: e, normalizer: n, workers: 4}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Summarize builds the posting for msg at 1-based position index.
func (a *Assembler) Summarize(index int, msg domain.Message) Posting {
	return Posting{
		Index:    index,
		Subject:  a.normalizer.Normalize(msg.Subject),
		Deadline: a.extractor.Extract(msg.Body),
		Message:  msg,
	}
}

// Build summarizes msgs, keeping their order.
func (a *Assembler) Build(ctx context.Context, msgs []domain.Message) (Digest, error) {
	postings := make([]Posting, len(msgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, m := range msgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			postings[i] = a.Summarize(i+1, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Digest{}, err
	}
	return Digest{Postings: postings}, nil
}
